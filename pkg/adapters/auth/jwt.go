package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
)

// Claims carried by tokens issued to moderators and contributors.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin"`
	Key   string `json:"key,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier issues and checks HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTVerifier(secret string, ttl time.Duration) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for user and returns it with its expiry.
func (v *JWTVerifier) Issue(user domain.User) (string, time.Time, error) {
	expirationTime := time.Now().Add(v.ttl)
	claims := &Claims{
		Name:  user.Name,
		Admin: user.Admin,
		Key:   user.Key,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed signing JWT: %w", err)
	}
	return token, expirationTime, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*domain.User, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("invalid token: no signing secret configured")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token: no subject")
	}

	return &domain.User{
		Email: claims.Subject,
		Name:  claims.Name,
		Key:   claims.Key,
		Admin: claims.Admin,
		Valid: true,
	}, nil
}

var _ ports.TokenVerifier = (*JWTVerifier)(nil)
