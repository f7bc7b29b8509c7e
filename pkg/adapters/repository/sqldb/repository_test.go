package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	repo, err := NewRepository(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleDoc(hash string) *domain.Document {
	return &domain.Document{
		ECLI:       domain.BuildECLI("BE", "CASS", 2020, hash),
		Country:    "BE",
		Court:      "CASS",
		Year:       2020,
		Identifier: hash,
		Text:       "# Arrêt",
		Lang:       "fr",
		Hash:       hash,
		OwnerKey:   "KEY-1",
		Labels:     domain.StringList{"Bail", "Loyer"},
		Links: []domain.DocLink{
			{Kind: domain.LinkECLI, Target: "ECLI:BE:CASS:2019:1", Label: "first"},
			{Kind: domain.LinkELI, Target: "eli/loi/1804", Label: "code civil"},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("abc")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	got, err := repo.GetByHash(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("document not found by hash")
	}
	if got.Status != domain.StatusNew || got.ViewsHash != 0 || got.ViewsPublic != 0 {
		t.Errorf("unexpected initial state: %+v", got)
	}
	if len(got.Links) != 2 || got.Links[0].Label != "first" || got.Links[1].Kind != domain.LinkELI {
		t.Errorf("links not preserved in order: %+v", got.Links)
	}
	if len(got.Labels) != 2 {
		t.Errorf("labels not stored: %v", got.Labels)
	}

	missing, err := repo.GetByHash(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for unknown hash, got (%v, %v)", missing, err)
	}
}

func TestGetPublicByECLIOnlyReturnsPublic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("h1")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetPublicByECLI(ctx, doc.ECLI)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("new document must not be reachable by ecli")
	}

	public := domain.StatusPublic
	if _, err := repo.Update(ctx, doc.ID, contentOf(doc), &public); err != nil {
		t.Fatal(err)
	}
	got, err = repo.GetPublicByECLI(ctx, doc.ECLI)
	if err != nil || got == nil {
		t.Fatalf("expected public document, got (%v, %v)", got, err)
	}
}

func TestIncrementHashViews(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("h2")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	for i, want := range []bool{true, true, false} {
		ok, err := repo.IncrementHashViews(ctx, doc.ID, 2)
		if err != nil {
			t.Fatal(err)
		}
		if ok != want {
			t.Errorf("increment %d: got %v, want %v", i, ok, want)
		}
	}

	got, _ := repo.GetByID(ctx, doc.ID)
	if got.ViewsHash != 2 {
		t.Errorf("views_hash = %d, want 2", got.ViewsHash)
	}
}

func TestIncrementHashViewsIgnoresNonShareable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("h3")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}
	flagged := domain.StatusFlagged
	if _, err := repo.Update(ctx, doc.ID, contentOf(doc), &flagged); err != nil {
		t.Fatal(err)
	}

	ok, err := repo.IncrementHashViews(ctx, doc.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("flagged document must not count hash views")
	}
}

func TestIncrementHashViewsConcurrent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("h4")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementHashViews(ctx, doc.ID, 10)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if granted.Load() != 10 {
		t.Errorf("granted %d views, want 10", granted.Load())
	}
	got, _ := repo.GetByID(ctx, doc.ID)
	if got.ViewsHash != 10 {
		t.Errorf("views_hash = %d, want 10", got.ViewsHash)
	}
}

func TestIncrementPublicViews(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("h5")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}
	public := domain.StatusPublic
	if _, err := repo.Update(ctx, doc.ID, contentOf(doc), &public); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementPublicViews(ctx, doc.ID); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := repo.GetByID(ctx, doc.ID)
	if got.ViewsPublic != 3 {
		t.Errorf("views_public = %d, want 3", got.ViewsPublic)
	}

	hidden := domain.StatusHidden
	if _, err := repo.Update(ctx, doc.ID, contentOf(doc), &hidden); err != nil {
		t.Fatal(err)
	}
	for _, id := range []int64{doc.ID, doc.ID + 1000} {
		if err := repo.IncrementPublicViews(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("id %d: err = %v, want ErrNotFound", id, err)
		}
	}
	got, _ = repo.GetByID(ctx, doc.ID)
	if got.ViewsPublic != 3 {
		t.Errorf("views_public after unpublish = %d, want 3", got.ViewsPublic)
	}
}

func TestUpdateReportsPublication(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("h6")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}
	content := contentOf(doc)

	steps := []struct {
		status domain.Status
		want   bool
	}{
		{domain.StatusHidden, false},
		{domain.StatusPublic, true},
		{domain.StatusPublic, false},
		{domain.StatusFlagged, false},
		{domain.StatusPublic, true},
	}
	for i, s := range steps {
		status := s.status
		published, err := repo.Update(ctx, doc.ID, content, &status)
		if err != nil {
			t.Fatal(err)
		}
		if published != s.want {
			t.Errorf("step %d (%s): published = %v, want %v", i, s.status, published, s.want)
		}
	}

	published, err := repo.Update(ctx, doc.ID, content, nil)
	if err != nil {
		t.Fatal(err)
	}
	if published {
		t.Error("content-only update must not report publication")
	}
}

func TestUpdateReplacesLinksAndMergesLabels(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("h7")
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	content := contentOf(doc)
	content.Text = "edited"
	content.Labels = []string{"Bail", "Expulsion"}
	content.Links = []domain.DocLink{{Kind: domain.LinkELI, Target: "eli/loi/2020", Label: "new"}}
	if _, err := repo.Update(ctx, doc.ID, content, nil); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.GetByID(ctx, doc.ID)
	if got.Text != "edited" {
		t.Errorf("text = %q", got.Text)
	}
	if len(got.Links) != 1 || got.Links[0].Target != "eli/loi/2020" {
		t.Errorf("links not replaced: %+v", got.Links)
	}

	labels, err := repo.SearchLabels(ctx, "", 50)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(labels, ",") != "Bail,Expulsion,Loyer" {
		t.Errorf("vocabulary = %v", labels)
	}
}

func TestUpdateUnknownDocument(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Update(context.Background(), 42, contentOf(sampleDoc("x")), nil)
	if err != domain.ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSearchLabels(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDoc("h8")
	doc.Labels = domain.StringList{"Droit_social", "Droit fiscal", "Divorce", "100%"}
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		prefix string
		want   string
	}{
		{"DROIT", "Droit fiscal,Droit_social"},
		{"droit_", "Droit_social"},
		{"d", "Divorce,Droit fiscal,Droit_social"},
		{"100%", "100%"},
		{"x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := repo.SearchLabels(ctx, tt.prefix, 10)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("SearchLabels(%q) = %v, want %s", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestBrowse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	public := domain.StatusPublic

	for i, tc := range []struct {
		court string
		year  int
	}{{"CASS", 2020}, {"CASS", 2021}, {"RVSCE", 2020}} {
		doc := sampleDoc(fmt.Sprintf("b%d", i))
		doc.Court = tc.court
		doc.Year = tc.year
		if err := repo.Create(ctx, doc); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.Update(ctx, doc.ID, contentOf(doc), &public); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.Create(ctx, sampleDoc("unpublished")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		q    domain.BrowseQuery
		want string
	}{
		{domain.BrowseQuery{Level: domain.BrowseCountry}, "BE"},
		{domain.BrowseQuery{Level: domain.BrowseCourt, Country: "BE"}, "CASS,RVSCE"},
		{domain.BrowseQuery{Level: domain.BrowseYear, Country: "BE", Court: "CASS"}, "2020,2021"},
		{domain.BrowseQuery{Level: domain.BrowseDocument, Country: "BE", Court: "CASS", Year: 2020}, "b0"},
		{domain.BrowseQuery{Level: domain.BrowseCourt, Country: "NL"}, ""},
	}
	for _, tt := range tests {
		got, err := repo.Browse(ctx, tt.q)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Join(got, ",") != tt.want {
			t.Errorf("Browse(%+v) = %v, want %s", tt.q, got, tt.want)
		}
	}
}

func TestDump(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, h := range []string{"d1", "d2"} {
		if err := repo.Create(ctx, sampleDoc(h)); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := repo.Dump(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents in dump, got %d", len(docs))
	}
	for _, d := range docs {
		if len(d.Links) != 2 {
			t.Errorf("document %s dumped with %d links", d.Hash, len(d.Links))
		}
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := &domain.User{Email: "clerk@example.com", Name: "Clerk", Key: "KEY-1", Valid: true}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateUser(ctx, &domain.User{Email: "nokey@example.com", Valid: true}); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateUser(ctx, &domain.User{Email: "other@example.com", Valid: true}); err != nil {
		t.Fatalf("users without key must not collide: %v", err)
	}

	got, err := repo.UserByKey(ctx, "KEY-1")
	if err != nil || got == nil {
		t.Fatalf("UserByKey: (%v, %v)", got, err)
	}
	if got.Email != "clerk@example.com" || !got.Valid || got.Admin {
		t.Errorf("unexpected user: %+v", got)
	}

	u.Admin = true
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.UserByEmail(ctx, "clerk@example.com")
	if got == nil || !got.Admin {
		t.Errorf("expected upsert to grant admin, got %+v", got)
	}

	if got, _ := repo.UserByKey(ctx, ""); got != nil {
		t.Error("empty key must not match")
	}
	if got, _ := repo.UserByKey(ctx, "missing"); got != nil {
		t.Error("unknown key must not match")
	}
}

func TestDriverFor(t *testing.T) {
	tests := []struct{ url, want string }{
		{"file:ecli.sqlite", "sqlite"},
		{"libsql://db.turso.io?authToken=x", "libsql"},
		{"wss://db.turso.io", "libsql"},
		{"postgres://u:p@localhost/ecli", "postgres"},
		{"postgresql://u:p@localhost/ecli?sslmode=disable", "postgres"},
	}
	for _, tt := range tests {
		if got := DriverFor(tt.url); got != tt.want {
			t.Errorf("DriverFor(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func contentOf(d *domain.Document) domain.Content {
	return domain.Content{
		Country:    d.Country,
		Court:      d.Court,
		Year:       d.Year,
		Identifier: d.Identifier,
		Text:       d.Text,
		Lang:       d.Lang,
		Appeal:     d.Appeal,
		Labels:     d.Labels,
		Links:      d.Links,
	}
}
