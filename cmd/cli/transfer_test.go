package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"go.uber.org/zap"
)

func newRepo(t *testing.T, name string) *sqldb.Repository {
	t.Helper()
	repo, err := sqldb.NewRepository("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newRepo(t, "cli_src")
	dst := newRepo(t, "cli_dst")

	doc := &domain.Document{
		ECLI: "ECLI:BE:CASS:2020:ARR.1", Country: "BE", Court: "CASS", Year: 2020, Identifier: "ARR.1",
		Text: "text", Hash: "h1", Status: domain.StatusPublic, ViewsPublic: 4, OwnerKey: "k",
		Labels: domain.StringList{"Bail"},
		Links:  []domain.DocLink{{Kind: domain.LinkELI, Target: "http://example.org/eli/1"}},
	}
	if err := src.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := exportDocuments(ctx, src, &buf); err != nil {
		t.Fatal(err)
	}
	dump := buf.Bytes()

	n, err := importDocuments(ctx, dst, bytes.NewReader(dump), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("imported %d, want 1", n)
	}

	got, err := dst.GetByHash(ctx, "h1")
	if err != nil || got == nil {
		t.Fatalf("imported document missing: %v", err)
	}
	if got.Status != domain.StatusPublic || got.ViewsPublic != 4 || len(got.Links) != 1 {
		t.Errorf("unexpected imported document %+v", got)
	}

	// Second run skips existing hashes
	n, err = importDocuments(ctx, dst, bytes.NewReader(dump), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("re-import inserted %d documents", n)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	repo := newRepo(t, "cli_garbage")
	if _, err := importDocuments(context.Background(), repo, bytes.NewReader([]byte("{")), zap.NewNop()); err == nil {
		t.Fatal("expected decode error")
	}
}
