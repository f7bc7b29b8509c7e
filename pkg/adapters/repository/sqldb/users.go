package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
)

const userColumns = `email, name, COALESCE(user_key, '') AS user_key, admin, valid, created_at`

func (r *Repository) UserByKey(ctx context.Context, key string) (*domain.User, error) {
	return r.getUser(ctx, `user_key = ?`, key)
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, `email = ?`, email)
}

func (r *Repository) getUser(ctx context.Context, where string, arg string) (*domain.User, error) {
	if arg == "" {
		return nil, nil
	}
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)

	var u domain.User
	err := r.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a contributor or refreshes the one with the same email.
func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	var key interface{}
	if u.Key != "" {
		key = u.Key
	}

	query := r.db.Rebind(`INSERT INTO users (email, name, user_key, admin, valid, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET name = excluded.name, user_key = excluded.user_key,
			admin = excluded.admin, valid = excluded.valid`)
	if _, err := r.db.ExecContext(ctx, query, u.Email, u.Name, key, u.Admin, u.Valid, u.CreatedAt); err != nil {
		return fmt.Errorf("failed to save user %s: %w", u.Email, err)
	}
	return nil
}

var _ ports.UserRepository = (*Repository)(nil)
