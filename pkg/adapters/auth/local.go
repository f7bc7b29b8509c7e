package auth

import (
	"context"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
)

// LocalDirectory resolves contributors from the users table.
type LocalDirectory struct {
	repo ports.UserRepository
}

func NewLocalDirectory(repo ports.UserRepository) *LocalDirectory {
	return &LocalDirectory{repo: repo}
}

func (d *LocalDirectory) ByKey(ctx context.Context, key string) (*domain.User, error) {
	return activeOnly(d.repo.UserByKey(ctx, key))
}

func (d *LocalDirectory) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return activeOnly(d.repo.UserByEmail(ctx, email))
}

func activeOnly(u *domain.User, err error) (*domain.User, error) {
	if err != nil || u == nil || !u.Valid {
		return nil, err
	}
	return u, nil
}

var _ ports.UserDirectory = (*LocalDirectory)(nil)
