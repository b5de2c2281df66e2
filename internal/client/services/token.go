package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/traintrack/internal/client/repositories/metadata"
)

// TokenStore keeps the bearer token in the metadata table and implements
// api.TokenSource. A stored token that is already past its JWT expiry is
// reported as absent, so the app treats it as logged out instead of
// collecting a guaranteed 401 on the next request.
type TokenStore struct {
	meta metadata.Repository
}

// NewTokenStore returns a TokenStore over the given metadata repository.
func NewTokenStore(meta metadata.Repository) *TokenStore {
	return &TokenStore{meta: meta}
}

func (s *TokenStore) Token(ctx context.Context) (string, error) {
	v, err := s.meta.Get(ctx, metadata.KeyToken)
	if err != nil {
		return "", err
	}
	token := string(v)
	if token == "" || tokenExpired(token, time.Now()) {
		return "", nil
	}
	return token, nil
}

func (s *TokenStore) Set(ctx context.Context, token string) error {
	return s.meta.Set(ctx, metadata.KeyToken, []byte(token))
}

func (s *TokenStore) Clear(ctx context.Context) error {
	return s.meta.Delete(ctx, metadata.KeyToken)
}

// tokenExpired does an unverified parse: the client holds no signing key,
// and the server remains the authority either way. A token that does not
// parse as a JWT is passed through for the server to judge.
func tokenExpired(raw string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
