// keyprovider.go supplies the public keys used to verify bearer tokens.
//
// Keys come from one of two sources:
//   - JWKS endpoint: the key set is fetched in the background and refreshed by an httprc backed cache
//   - JWKS file: the key set is loaded once at startup (use an endpoint if you need key rotation)
//
// Keys are looked up by the kid in the token header. The token alg must match the alg recorded on the key
// (or, where the key has no alg, the algorithm implied by the key type).

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// ErrKeyNotFound is returned when no key matches the token kid
var ErrKeyNotFound = errors.New("key not found")

// KeyProviderConfig configures where verification keys are loaded from.
// Exactly one of JWKSURL and JWKSFile must be set.
type KeyProviderConfig struct {
	JWKSURL  string
	JWKSFile string

	// HTTPTimeout is the timeout for requests to the JWKS endpoint
	HTTPTimeout time.Duration

	// MinRefreshInterval and MaxRefreshInterval bound how often the JWKS endpoint is polled
	MinRefreshInterval time.Duration
	MaxRefreshInterval time.Duration
}

// KeyProvider implements jws.KeyProvider for token verification
type KeyProvider struct {
	staticKeys jwk.Set
	jwkCache   *jwk.Cache
	jwksURL    string
	logger     *slog.Logger
}

// NewKeyProvider loads the JWKS file or registers the JWKS endpoint with a background refreshing cache.
// Registration does not wait for the first fetch: the gateway starts even when the endpoint is briefly unavailable.
func NewKeyProvider(ctx context.Context, cfg KeyProviderConfig, logger *slog.Logger) (*KeyProvider, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if (cfg.JWKSURL == "") == (cfg.JWKSFile == "") {
		return nil, fmt.Errorf("exactly one of JWKSURL or JWKSFile must be set")
	}

	kp := &KeyProvider{logger: logger}

	if cfg.JWKSFile != "" {
		set, err := ReadPublicKeySet(cfg.JWKSFile)
		if err != nil {
			return nil, err
		}
		kp.staticKeys = set
		logger.Info("verification keys loaded",
			slog.String("file", cfg.JWKSFile),
			slog.Int("keys", set.Len()))
		return kp, nil
	}

	if _, err := url.Parse(cfg.JWKSURL); err != nil {
		return nil, fmt.Errorf("failed to parse JWKS URL: %w", err)
	}
	if cfg.HTTPTimeout == 0 {
		return nil, fmt.Errorf("HTTPTimeout is required")
	}

	client := httprc.NewClient(httprc.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))

	cache, err := jwk.NewCache(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK cache: %w", err)
	}

	err = cache.Register(ctx, cfg.JWKSURL,
		jwk.WithMinInterval(cfg.MinRefreshInterval),
		jwk.WithMaxInterval(cfg.MaxRefreshInterval),
		jwk.WithWaitReady(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register JWKS endpoint %s: %w", cfg.JWKSURL, err)
	}

	kp.jwkCache = cache
	kp.jwksURL = cfg.JWKSURL

	logger.Info("registered JWKS endpoint for background fetch", slog.String("jwks_url", cfg.JWKSURL))

	return kp, nil
}

// NewStaticKeyProvider verifies tokens against an in-memory key set
func NewStaticKeyProvider(set jwk.Set, logger *slog.Logger) *KeyProvider {
	return &KeyProvider{staticKeys: set, logger: logger}
}

// Ready reports whether verification keys are available.
// A JWKS endpoint is ready once the first fetch has completed.
func (k *KeyProvider) Ready(ctx context.Context) bool {
	if k.staticKeys != nil {
		return true
	}
	return k.jwkCache.Ready(ctx, k.jwksURL)
}

// Close stops the background refresh of the JWKS endpoint
func (k *KeyProvider) Close(ctx context.Context) error {
	if k.jwkCache == nil {
		return nil
	}
	return k.jwkCache.Shutdown(ctx)
}

// KeySet returns the current verification keys
func (k *KeyProvider) KeySet(ctx context.Context) (jwk.Set, error) {
	if k.staticKeys != nil {
		return k.staticKeys, nil
	}

	set, err := k.jwkCache.Lookup(ctx, k.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("key set unavailable: %w", err)
	}
	return set, nil
}

// LookupKey returns the public key with the given kid
func (k *KeyProvider) LookupKey(ctx context.Context, keyID string) (jwk.Key, error) {
	if keyID == "" {
		return nil, fmt.Errorf("kid is required")
	}

	if k.staticKeys != nil {
		if key, found := k.staticKeys.LookupKeyID(keyID); found {
			return key, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}

	// latest key set from the cache (refreshed in the background)
	set, err := k.jwkCache.Lookup(ctx, k.jwksURL)
	if err != nil {
		k.logger.Debug("failed to lookup JWK set from cache",
			slog.String("jwks_url", k.jwksURL),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s (key set unavailable)", ErrKeyNotFound, keyID)
	}

	key, found := set.LookupKeyID(keyID)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	return key, nil
}

// FetchKeys implements jws.KeyProvider: the key for the signature kid is added to the sink
func (k *KeyProvider) FetchKeys(ctx context.Context, sink jws.KeySink, sig *jws.Signature, _ *jws.Message) error {
	keyID, ok := sig.ProtectedHeaders().KeyID()
	if !ok || keyID == "" {
		return fmt.Errorf("kid is required in token header")
	}

	alg, ok := sig.ProtectedHeaders().Algorithm()
	if !ok {
		return fmt.Errorf("alg is required in token header")
	}

	key, err := k.LookupKey(ctx, keyID)
	if err != nil {
		return err
	}

	expected, err := expectedAlgorithm(key)
	if err != nil {
		return err
	}
	if expected != alg.String() {
		return fmt.Errorf("token alg %s does not match key %s (%s)", alg, keyID, expected)
	}

	sink.Key(alg, key)
	return nil
}

func expectedAlgorithm(key jwk.Key) (string, error) {
	if alg, ok := key.Algorithm(); ok && alg.String() != "" {
		return alg.String(), nil
	}
	alg, err := signatureAlgorithm(key)
	if err != nil {
		return "", err
	}
	return alg.String(), nil
}
