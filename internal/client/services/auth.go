// Package services contains the application services of the TrainTrack
// client: authentication, bootstrap (destructive refresh with
// preservation of unsynced rows), the sync engine and the lifecycle
// controller that ties them to the auth state.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/traintrack/internal/client/api"
	"github.com/dmitrijs2005/traintrack/internal/client/models"
	"github.com/dmitrijs2005/traintrack/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/traintrack/internal/logging"
)

// AuthService defines authentication operations for the client.
//
// Contract:
//   - Login/Register: authenticate against the server and persist the
//     bearer token; errors distinguish "no response" from 4xx and 5xx.
//   - IsAuthenticated: true when a usable token is stored.
//   - Profile: fetch the user profile, falling back to the locally cached
//     copy when offline.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password string) error
	IsAuthenticated(ctx context.Context) (bool, error)
	Profile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
}

type authService struct {
	client api.Client
	tokens *TokenStore
	meta   metadata.Repository
	log    logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client,
// token store and metadata repository.
func NewAuthService(client api.Client, tokens *TokenStore, meta metadata.Repository, log logging.Logger) AuthService {
	return &authService{client: client, tokens: tokens, meta: meta, log: log}
}

func (a *authService) Login(ctx context.Context, email, password string) error {
	token, err := a.client.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return describeAuthError("login", err)
	}
	if err := a.tokens.Set(ctx, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	a.cacheProfile(ctx)
	return nil
}

func (a *authService) Register(ctx context.Context, email, password string) error {
	token, err := a.client.Register(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return describeAuthError("registration", err)
	}
	if err := a.tokens.Set(ctx, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	a.cacheProfile(ctx)
	return nil
}

func (a *authService) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

func (a *authService) Profile(ctx context.Context) (*models.Profile, error) {
	p, err := a.client.GetProfile(ctx)
	if err == nil {
		if b, merr := json.Marshal(p); merr == nil {
			_ = a.meta.Set(ctx, metadata.KeyProfile, b)
		}
		return p, nil
	}
	if errors.Is(err, api.ErrOffline) {
		if cached := a.cachedProfile(ctx); cached != nil {
			return cached, nil
		}
	}
	return nil, err
}

func (a *authService) UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	updated, err := a.client.UpdateProfile(ctx, p)
	if err != nil {
		return nil, err
	}
	if b, merr := json.Marshal(updated); merr == nil {
		_ = a.meta.Set(ctx, metadata.KeyProfile, b)
	}
	return updated, nil
}

// cacheProfile stores a local copy of the profile so auth state survives
// going offline. Failures are logged, never fatal.
func (a *authService) cacheProfile(ctx context.Context) {
	p, err := a.client.GetProfile(ctx)
	if err != nil {
		a.log.Warn(ctx, "failed to fetch profile", "error", err)
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := a.meta.Set(ctx, metadata.KeyProfile, b); err != nil {
		a.log.Warn(ctx, "failed to cache profile", "error", err)
	}
}

func (a *authService) cachedProfile(ctx context.Context) *models.Profile {
	v, err := a.meta.Get(ctx, metadata.KeyProfile)
	if err != nil || len(v) == 0 {
		return nil
	}
	var p models.Profile
	if err := json.Unmarshal(v, &p); err != nil {
		return nil
	}
	return &p
}

// describeAuthError turns gateway errors into messages suitable for
// direct display, keeping the no-response / client-error / server-error
// distinction.
func describeAuthError(op string, err error) error {
	var serr *api.StatusError
	switch {
	case errors.Is(err, api.ErrOffline):
		return fmt.Errorf("%s failed: no response from server: %w", op, err)
	case errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("%s failed: invalid credentials: %w", op, err)
	case errors.As(err, &serr) && serr.ServerSide():
		return fmt.Errorf("%s failed: server error: %w", op, err)
	case errors.As(err, &serr):
		return fmt.Errorf("%s rejected: %w", op, err)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}
