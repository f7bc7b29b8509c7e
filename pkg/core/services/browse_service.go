package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
)

const labelSuggestions = 50

type BrowseService struct {
	repo ports.DocumentRepository
}

func NewBrowseService(repo ports.DocumentRepository) *BrowseService {
	return &BrowseService{repo: repo}
}

// Labels suggests vocabulary entries starting with prefix.
func (s *BrowseService) Labels(ctx context.Context, prefix string) ([]string, error) {
	return s.repo.SearchLabels(ctx, strings.TrimSpace(prefix), labelSuggestions)
}

// Browse lists one level of the public index. Each level needs the filters
// of the levels above it.
func (s *BrowseService) Browse(ctx context.Context, q domain.BrowseQuery) ([]string, error) {
	if q.Level == "" {
		q.Level = domain.BrowseCountry
	}

	var missing bool
	switch q.Level {
	case domain.BrowseCountry:
	case domain.BrowseCourt:
		missing = q.Country == ""
	case domain.BrowseYear:
		missing = q.Country == "" || q.Court == ""
	case domain.BrowseDocument:
		missing = q.Country == "" || q.Court == "" || q.Year == 0
	default:
		return nil, fmt.Errorf("%w: unknown level %q", domain.ErrInvalidInput, q.Level)
	}
	if missing {
		return nil, fmt.Errorf("%w for level %s", domain.ErrMissingData, q.Level)
	}

	res, err := s.repo.Browse(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

var _ ports.BrowseService = (*BrowseService)(nil)
