package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	ErrSigningKeyTooShort   = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrTokenExpired         = errors.New("JWT token has expired")
	ErrInvalidToken         = errors.New("invalid token")
)

// Principal names the kind of caller a token was issued to.
type Principal string

// PrincipalService marks machine clients authenticated with client credentials.
const PrincipalService Principal = "service"

// JWT generates and verifies tokens.
type JWT interface {
	// Generate signs a token for the given principal and subject.
	Generate(p Principal, subject string) (token string, expiresAt time.Time, err error)
	// Verify parses and validates the token and returns its claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	UUID      generator
}

// Claims wraps the registered claims with the caller principal.
type Claims struct {
	jwt.RegisteredClaims
	Principal Principal `json:"principal"`
}

// IsService reports whether the token was issued to a service client.
func (c Claims) IsService() bool {
	return c.Principal == PrincipalService
}

// GetAuth returns the claims stored in ctx, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores claims in ctx.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
