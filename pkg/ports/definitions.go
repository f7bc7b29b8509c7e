package ports

import (
	"context"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
)

// DocumentRepository defines storage operations for documents.
// Lookups return (nil, nil) when no row matches.
type DocumentRepository interface {
	// Create inserts the document, its labels and its links in one transaction.
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	GetByHash(ctx context.Context, hash string) (*domain.Document, error)
	GetPublicByECLI(ctx context.Context, ecli string) (*domain.Document, error)
	// Update rewrites content, labels and links and applies an optional status
	// change. published is true only when the row moved into public.
	Update(ctx context.Context, id int64, content domain.Content, status *domain.Status) (published bool, err error)
	Dump(ctx context.Context) ([]domain.Document, error) // For migration

	// Counters
	IncrementHashViews(ctx context.Context, id int64, max int) (bool, error)
	IncrementPublicViews(ctx context.Context, id int64) error

	// Vocabulary and index
	SearchLabels(ctx context.Context, prefix string, limit int) ([]string, error)
	Browse(ctx context.Context, q domain.BrowseQuery) ([]string, error)
}

// UserRepository stores locally known contributors.
type UserRepository interface {
	UserByKey(ctx context.Context, key string) (*domain.User, error)
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
}

// TokenVerifier turns a bearer token into a user. Any error means the token
// could not be trusted.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.User, error)
}

// UserDirectory resolves contributors by legacy key or email.
// Unknown or inactive users yield (nil, nil).
type UserDirectory interface {
	ByKey(ctx context.Context, key string) (*domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Notifier delivers lifecycle notifications to document owners.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Renderer produces the alternate formats of a document.
type Renderer interface {
	HTML(text string) (string, error)
	LaTeX(ctx context.Context, doc *domain.Document) ([]byte, error)
	PDF(ctx context.Context, doc *domain.Document) ([]byte, error)
}

// DocumentService defines the business logic operations
type DocumentService interface {
	Submit(ctx context.Context, sub domain.Submission) (*domain.Document, error)
	Update(ctx context.Context, token string, id int64, upd domain.Update) (*domain.Document, error)
	Read(ctx context.Context, token string, id int64) (*domain.Document, error)

	// Access
	ViewByHash(ctx context.Context, hash, token string) (*domain.HashView, error)
	ViewByECLI(ctx context.Context, ecli string) (*domain.Document, error)
}

// BrowseService lists the public index and the label vocabulary.
type BrowseService interface {
	Labels(ctx context.Context, prefix string) ([]string, error)
	Browse(ctx context.Context, q domain.BrowseQuery) ([]string, error)
}
