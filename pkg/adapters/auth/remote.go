package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxAttempts    = 5
	initialBackoff = 1 * time.Second
	// Verify sits on the request path, so it gets one short try.
	verifyAttempts = 1
	verifyTimeout  = 3 * time.Second
)

var errRejected = errors.New("rejected by auth host")

// RemoteClient resolves users through the account service at AUTH_HOST.
type RemoteClient struct {
	baseURL       string
	env           string
	client        *http.Client
	backoff       time.Duration
	verifyTimeout time.Duration
}

// NewRemoteClient creates a client for the account service
func NewRemoteClient(baseURL, env string) *RemoteClient {
	return &RemoteClient{
		baseURL:       baseURL,
		env:           env,
		client:        &http.Client{Timeout: defaultTimeout},
		backoff:       initialBackoff,
		verifyTimeout: verifyTimeout,
	}
}

// remoteUser is the account service payload
type remoteUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Key   string `json:"key"`
	Admin bool   `json:"admin"`
	Valid bool   `json:"valid"`
}

// Verify resolves a bearer token. Rejected or inactive tokens are errors.
func (c *RemoteClient) Verify(ctx context.Context, token string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()
	u, err := c.lookup(ctx, "/u/by/token", map[string]string{"token": token}, verifyAttempts)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("token %w", errRejected)
	}
	return u, nil
}

func (c *RemoteClient) ByKey(ctx context.Context, key string) (*domain.User, error) {
	return c.lookup(ctx, "/u/by/key", map[string]string{"key": key}, maxAttempts)
}

func (c *RemoteClient) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return c.lookup(ctx, "/u/by/email", map[string]string{"email": email}, maxAttempts)
}

// lookup returns (nil, nil) when the account is unknown or inactive.
func (c *RemoteClient) lookup(ctx context.Context, path string, payload map[string]string, attempts int) (*domain.User, error) {
	payload["env"] = c.env
	body, err := c.postWithRetry(ctx, c.baseURL+path, payload, attempts)
	if errors.Is(err, errRejected) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", path, err)
	}

	var u remoteUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	if !u.Valid {
		return nil, nil
	}
	return &domain.User{Email: u.Email, Name: u.Name, Key: u.Key, Admin: u.Admin, Valid: u.Valid}, nil
}

// postWithRetry performs an HTTP POST, retrying up to attempts times with
// exponential backoff. A 401 answer is final and returned as errRejected.
func (c *RemoteClient) postWithRetry(ctx context.Context, url string, payload interface{}, attempts int) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = err
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil
		case http.StatusUnauthorized:
			return nil, errRejected
		}
		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

var (
	_ ports.TokenVerifier = (*RemoteClient)(nil)
	_ ports.UserDirectory = (*RemoteClient)(nil)
)
