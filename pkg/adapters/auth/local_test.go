package auth

import (
	"context"
	"testing"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
)

type memUsers map[string]*domain.User

func (m memUsers) UserByKey(ctx context.Context, key string) (*domain.User, error) {
	for _, u := range m {
		if u.Key == key {
			return u, nil
		}
	}
	return nil, nil
}

func (m memUsers) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m[email], nil
}

func (m memUsers) CreateUser(ctx context.Context, u *domain.User) error {
	m[u.Email] = u
	return nil
}

func TestLocalDirectory(t *testing.T) {
	users := memUsers{
		"a@example.com": {Email: "a@example.com", Key: "KA", Valid: true},
		"b@example.com": {Email: "b@example.com", Key: "KB", Valid: false},
	}
	d := NewLocalDirectory(users)
	ctx := context.Background()

	if u, _ := d.ByKey(ctx, "KA"); u == nil || u.Email != "a@example.com" {
		t.Errorf("ByKey(KA) = %+v", u)
	}
	if u, _ := d.ByKey(ctx, "KB"); u != nil {
		t.Errorf("inactive user returned: %+v", u)
	}
	if u, _ := d.ByEmail(ctx, "missing@example.com"); u != nil {
		t.Errorf("unknown user returned: %+v", u)
	}
}
