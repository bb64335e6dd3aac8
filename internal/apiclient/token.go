package apiclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
)

// TokenSource supplies the bearer token for a request. An empty token means no Authorization header is sent.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// TokenSourceFunc adapts a function to TokenSource
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// SignedTokenSource mints tokens with a private key and reuses each token until it is close to expiry
type SignedTokenSource struct {
	key    jwk.Key
	claims auth.Claims
	opts   auth.MintOptions

	// renewBefore is how long before expiry a new token is minted
	renewBefore time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewSignedTokenSource creates a token source for the claims. opts.TTL must be at least 10 seconds.
func NewSignedTokenSource(key jwk.Key, claims auth.Claims, opts auth.MintOptions) (*SignedTokenSource, error) {
	if key == nil {
		return nil, fmt.Errorf("signing key is nil")
	}
	if opts.TTL < 10*time.Second {
		return nil, fmt.Errorf("token TTL must be at least 10s, got %s", opts.TTL)
	}

	return &SignedTokenSource{
		key:         key,
		claims:      claims,
		opts:        opts,
		renewBefore: min(opts.TTL/5, time.Minute),
	}, nil
}

// Token returns the cached token or mints a new one
func (s *SignedTokenSource) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now
	if s.opts.Now != nil {
		now = s.opts.Now
	}

	if s.token != "" && now().Add(s.renewBefore).Before(s.expiresAt) {
		return s.token, nil
	}

	token, expiresAt, err := auth.Mint(s.key, s.claims, s.opts)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expiresAt = expiresAt
	return token, nil
}
