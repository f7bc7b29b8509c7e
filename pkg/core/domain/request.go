package domain

import (
	"fmt"
	"strings"
)

// Content is the editable part of a document, shared by submissions and updates.
type Content struct {
	Country    string    `json:"country"`
	Court      string    `json:"court"`
	Year       int       `json:"year"`
	Identifier string    `json:"identifier"`
	Text       string    `json:"text"`
	Lang       string    `json:"lang"`
	Appeal     string    `json:"appeal"`
	Meta       Meta      `json:"meta,omitempty"`
	Labels     []string  `json:"labels"`
	Links      []DocLink `json:"doc_links"`
}

// ECLI returns the canonical identifier of the content.
func (c *Content) ECLI() string {
	return BuildECLI(c.Country, c.Court, c.Year, c.Identifier)
}

// Validate checks required fields and link kinds. Errors wrap ErrInvalidInput.
func (c *Content) Validate() error {
	missing := []string{}
	if strings.TrimSpace(c.Country) == "" {
		missing = append(missing, "country")
	}
	if strings.TrimSpace(c.Court) == "" {
		missing = append(missing, "court")
	}
	if c.Year <= 0 {
		missing = append(missing, "year")
	}
	if strings.TrimSpace(c.Identifier) == "" {
		missing = append(missing, "identifier")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	for i, l := range c.Links {
		if !l.Kind.Valid() {
			return fmt.Errorf("%w: doc_links[%d] has unknown kind %q", ErrInvalidInput, i, l.Kind)
		}
		if strings.TrimSpace(l.Target) == "" {
			return fmt.Errorf("%w: doc_links[%d] has no target", ErrInvalidInput, i)
		}
	}
	return nil
}

// Submission is a new document sent by a contributor.
type Submission struct {
	Content
	Token   string `json:"-"`
	UserKey string `json:"user_key"`
}

// Update is a moderator edit. A nil Status leaves the status untouched.
type Update struct {
	Content
	Status *Status `json:"status,omitempty"`
}

// BrowseLevel selects which column of the public index is listed.
type BrowseLevel string

const (
	BrowseCountry  BrowseLevel = "country"
	BrowseCourt    BrowseLevel = "court"
	BrowseYear     BrowseLevel = "year"
	BrowseDocument BrowseLevel = "document"
)

// BrowseQuery narrows a listing of the public index.
type BrowseQuery struct {
	Level   BrowseLevel
	Country string
	Court   string
	Year    int
}
