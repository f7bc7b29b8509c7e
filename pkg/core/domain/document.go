package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the moderation state of a document.
type Status string

const (
	StatusNew     Status = "new"
	StatusPublic  Status = "public"
	StatusHidden  Status = "hidden"
	StatusFlagged Status = "flagged"
	StatusDeleted Status = "deleted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusPublic, StatusHidden, StatusFlagged, StatusDeleted:
		return true
	}
	return false
}

// LinkKind is the identifier scheme of a link target.
type LinkKind string

const (
	LinkECLI LinkKind = "ecli"
	LinkELI  LinkKind = "eli"
)

func (k LinkKind) Valid() bool {
	return k == LinkECLI || k == LinkELI
}

// DocLink is an outbound reference from a document to another decision or
// to a piece of legislation.
type DocLink struct {
	Kind   LinkKind `json:"kind" db:"target_type"`
	Target string   `json:"link" db:"target_identifier"`
	Label  string   `json:"label" db:"target_label"`
}

// Document represents a submitted court decision
type Document struct {
	ID          int64      `json:"id" db:"id"`
	ECLI        string     `json:"ecli" db:"ecli"`
	Country     string     `json:"country" db:"country"`
	Court       string     `json:"court" db:"court"`
	Year        int        `json:"year" db:"year"`
	Identifier  string     `json:"identifier" db:"identifier"`
	Text        string     `json:"text" db:"text"`
	Meta        Meta       `json:"meta" db:"meta"`
	Labels      StringList `json:"labels" db:"labels"`
	Lang        string     `json:"lang" db:"lang"`
	Appeal      string     `json:"appeal" db:"appeal"`
	Hash        string     `json:"hash" db:"hash"`
	Status      Status     `json:"status" db:"status"`
	ViewsHash   int64      `json:"views_hash" db:"views_hash"`
	ViewsPublic int64      `json:"views_public" db:"views_public"`
	OwnerKey    string     `json:"owner_key" db:"owner_key"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	Links       []DocLink  `json:"links" db:"-"`
}

// BuildECLI composes the canonical identifier of a decision.
func BuildECLI(country, court string, year int, identifier string) string {
	return fmt.Sprintf("ECLI:%s:%s:%d:%s", country, court, year, identifier)
}

// ECLILinks returns the links pointing to other decisions.
func (d *Document) ECLILinks() []DocLink {
	return d.linksOf(LinkECLI)
}

// ELILinks returns the links pointing to legislation.
func (d *Document) ELILinks() []DocLink {
	return d.linksOf(LinkELI)
}

func (d *Document) linksOf(kind LinkKind) []DocLink {
	var out []DocLink
	for _, l := range d.Links {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// Meta holds free-form submission metadata, stored as JSON text.
type Meta map[string]any

func (m Meta) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Meta) Scan(src any) error {
	return scanJSON(src, m)
}

// StringList is a list of strings stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	return scanJSON(src, l)
}

func scanJSON(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// HashView is the outcome of a granted hash-link access. When Redirect is
// set the document is public and should be served from its canonical URL.
type HashView struct {
	Document *Document
	Redirect bool
}
