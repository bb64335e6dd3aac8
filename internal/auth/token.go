package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

// token claim names
const (
	ClaimTenantID = "tenant_id"
	ClaimEmail    = "email"
	ClaimRole     = "role"
)

// ErrInvalidToken is returned for tokens that fail parsing, signature verification or claim validation
var ErrInvalidToken = errors.New("invalid token")

// Claims are the dashboard claims carried by a bearer token
type Claims struct {
	Subject   string
	TenantID  string
	Email     string
	Role      schema.Role
	ExpiresAt time.Time
}

// MintOptions control the registered claims of a minted token
type MintOptions struct {
	TTL      time.Duration
	Issuer   string
	Audience string

	// Now defaults to time.Now
	Now func() time.Time
}

// Mint signs a token for the claims with a private key created by GenerateSigningKey.
// It returns the compact serialization and the expiry time.
func Mint(key jwk.Key, claims Claims, opts MintOptions) (string, time.Time, error) {
	if key == nil {
		return "", time.Time{}, fmt.Errorf("signing key is nil")
	}
	if claims.Subject == "" {
		return "", time.Time{}, fmt.Errorf("subject is required")
	}
	if claims.TenantID == "" {
		return "", time.Time{}, fmt.Errorf("tenant id is required")
	}
	if opts.TTL <= 0 {
		return "", time.Time{}, fmt.Errorf("TTL must be greater than 0")
	}

	alg, err := signatureAlgorithm(key)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	issuedAt := now().Truncate(time.Second)
	expiresAt := issuedAt.Add(opts.TTL)

	builder := jwt.NewBuilder().
		Subject(claims.Subject).
		IssuedAt(issuedAt).
		NotBefore(issuedAt).
		Expiration(expiresAt).
		JwtID(uuid.NewString()).
		Claim(ClaimTenantID, claims.TenantID)

	if opts.Issuer != "" {
		builder = builder.Issuer(opts.Issuer)
	}
	if opts.Audience != "" {
		builder = builder.Audience([]string{opts.Audience})
	}
	if claims.Email != "" {
		builder = builder.Claim(ClaimEmail, claims.Email)
	}
	if claims.Role != "" {
		builder = builder.Claim(ClaimRole, string(claims.Role))
	}

	tok, err := builder.Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(alg, key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), expiresAt, nil
}

// Verifier checks bearer tokens against the keys supplied by a jws.KeyProvider
type Verifier struct {
	keys     jws.KeyProvider
	issuer   string
	audience string
	skew     time.Duration
	clock    jwt.Clock
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithIssuer requires the iss claim to match
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) { v.issuer = issuer }
}

// WithAudience requires the aud claim to contain the audience
func WithAudience(audience string) VerifierOption {
	return func(v *Verifier) { v.audience = audience }
}

// WithClock overrides the clock used to validate exp, nbf and iat
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.clock = jwt.ClockFunc(now) }
}

// NewVerifier creates a Verifier. Expiry is checked with 30 seconds of allowed clock skew.
func NewVerifier(keys jws.KeyProvider, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		keys: keys,
		skew: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses and validates a compact JWT and returns its claims.
// Errors wrap ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithKeyProvider(v.keys),
		jwt.WithContext(ctx),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.skew),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithRequiredClaim(ClaimTenantID),
	}
	if v.issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(v.audience))
	}
	if v.clock != nil {
		parseOpts = append(parseOpts, jwt.WithClock(v.clock))
	}

	tok, err := jwt.ParseString(token, parseOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims := &Claims{}
	claims.Subject, _ = tok.Subject()
	claims.ExpiresAt, _ = tok.Expiration()

	if err := tok.Get(ClaimTenantID, &claims.TenantID); err != nil || claims.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id claim must be a non-empty string", ErrInvalidToken)
	}

	if tok.Has(ClaimEmail) {
		if err := tok.Get(ClaimEmail, &claims.Email); err != nil {
			return nil, fmt.Errorf("%w: email claim must be a string", ErrInvalidToken)
		}
	}

	if tok.Has(ClaimRole) {
		var role string
		if err := tok.Get(ClaimRole, &role); err != nil {
			return nil, fmt.Errorf("%w: role claim must be a string", ErrInvalidToken)
		}
		claims.Role = schema.Role(role)
	}

	return claims, nil
}
