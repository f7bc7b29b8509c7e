package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
)

type fakeRepo struct {
	mu     sync.Mutex
	docs   map[int64]*domain.Document
	labels map[string]bool
	nextID int64
	err    error

	// beforeView runs ahead of IncrementPublicViews, outside the lock.
	beforeView func(id int64)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: map[int64]*domain.Document{}, labels: map[string]bool{}}
}

func (r *fakeRepo) add(doc domain.Document) *domain.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	doc.ID = r.nextID
	r.docs[doc.ID] = &doc
	return &doc
}

func (r *fakeRepo) get(id int64) domain.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.docs[id]
}

func (r *fakeRepo) Create(ctx context.Context, doc *domain.Document) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	doc.ID = r.nextID
	cp := *doc
	r.docs[doc.ID] = &cp
	for _, l := range doc.Labels {
		r.labels[l] = true
	}
	return nil
}

func (r *fakeRepo) find(match func(*domain.Document) bool) (*domain.Document, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if match(d) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	return r.find(func(d *domain.Document) bool { return d.ID == id })
}

func (r *fakeRepo) GetByHash(ctx context.Context, hash string) (*domain.Document, error) {
	return r.find(func(d *domain.Document) bool { return d.Hash == hash })
}

func (r *fakeRepo) GetPublicByECLI(ctx context.Context, ecli string) (*domain.Document, error) {
	return r.find(func(d *domain.Document) bool { return d.ECLI == ecli && d.Status == domain.StatusPublic })
}

func (r *fakeRepo) Update(ctx context.Context, id int64, c domain.Content, status *domain.Status) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	d.ECLI = c.ECLI()
	d.Country, d.Court, d.Year, d.Identifier = c.Country, c.Court, c.Year, c.Identifier
	d.Text, d.Lang, d.Appeal, d.Labels, d.Links = c.Text, c.Lang, c.Appeal, c.Labels, c.Links
	for _, l := range c.Labels {
		r.labels[l] = true
	}
	if status == nil || d.Status == *status {
		return false, nil
	}
	d.Status = *status
	return *status == domain.StatusPublic, nil
}

func (r *fakeRepo) Dump(ctx context.Context) ([]domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Document
	for _, d := range r.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeRepo) IncrementHashViews(ctx context.Context, id int64, max int) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.docs[id]
	if d.ViewsHash >= int64(max) || (d.Status != domain.StatusNew && d.Status != domain.StatusHidden) {
		return false, nil
	}
	d.ViewsHash++
	return true, nil
}

func (r *fakeRepo) IncrementPublicViews(ctx context.Context, id int64) error {
	if r.beforeView != nil {
		r.beforeView(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.Status != domain.StatusPublic {
		return domain.ErrNotFound
	}
	d.ViewsPublic++
	return nil
}

func (r *fakeRepo) SearchLabels(ctx context.Context, prefix string, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for l := range r.labels {
		if strings.HasPrefix(strings.ToLower(l), strings.ToLower(prefix)) {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) Browse(ctx context.Context, q domain.BrowseQuery) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, d := range r.docs {
		if d.Status != domain.StatusPublic {
			continue
		}
		var v string
		switch q.Level {
		case domain.BrowseCountry:
			v = d.Country
		case domain.BrowseCourt:
			if d.Country != q.Country {
				continue
			}
			v = d.Court
		}
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeVerifier map[string]*domain.User

func (f fakeVerifier) Verify(ctx context.Context, token string) (*domain.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, errors.New("token is malformed")
}

type fakeDirectory struct {
	byKey   map[string]*domain.User
	byEmail map[string]*domain.User
	err     error
}

func (f *fakeDirectory) ByKey(ctx context.Context, key string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byKey[key], nil
}

func (f *fakeDirectory) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byEmail[email], nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) notifications() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notification(nil), f.sent...)
}
