package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
)

func TestBrowse(t *testing.T) {
	repo := newFakeRepo()
	repo.add(domain.Document{Status: domain.StatusPublic, Country: "BE", Court: "CASS"})
	repo.add(domain.Document{Status: domain.StatusPublic, Country: "BE", Court: "RVSCE"})
	repo.add(domain.Document{Status: domain.StatusNew, Country: "NL", Court: "HR"})
	svc := NewBrowseService(repo)

	tests := []struct {
		name    string
		q       domain.BrowseQuery
		want    string
		wantErr error
	}{
		{"default level", domain.BrowseQuery{}, "BE", nil},
		{"courts", domain.BrowseQuery{Level: domain.BrowseCourt, Country: "BE"}, "CASS,RVSCE", nil},
		{"no public courts", domain.BrowseQuery{Level: domain.BrowseCourt, Country: "NL"}, "", domain.ErrNotFound},
		{"courts need country", domain.BrowseQuery{Level: domain.BrowseCourt}, "", domain.ErrMissingData},
		{"years need court", domain.BrowseQuery{Level: domain.BrowseYear, Country: "BE"}, "", domain.ErrMissingData},
		{"documents need year", domain.BrowseQuery{Level: domain.BrowseDocument, Country: "BE", Court: "CASS"}, "", domain.ErrMissingData},
		{"unknown level", domain.BrowseQuery{Level: "planet"}, "", domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Browse(context.Background(), tt.q)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	repo := newFakeRepo()
	repo.labels = map[string]bool{"Bail": true, "Bail commercial": true, "Divorce": true}
	svc := NewBrowseService(repo)

	got, err := svc.Labels(context.Background(), " BAIL")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "Bail,Bail commercial" {
		t.Errorf("got %v", got)
	}
}

func TestStatusService(t *testing.T) {
	s := NewStatusService("1.2.3")
	s.Touch()
	s.Touch()

	st := s.Status()
	if st.AllSystems != "nominal" || st.APIVersion != "1.2.3" || st.APICounter != 2 {
		t.Errorf("unexpected status: %+v", st)
	}
}
