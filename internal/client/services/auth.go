// Package services contains application services for the fintrack client.
// This file defines the authentication service: login, register, identity
// probe, logout, and housekeeping of the client-visible session marker.
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
	"github.com/dmitrijs2005/fintrack/internal/client/session"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate, set the session marker, cache the user.
//   - Register: create an account; does not set the marker.
//   - CurrentUser: fetch the identity; refreshes the user cache, never the marker.
//   - CachedUser: last known identity from the local cache.
//   - Logout: best-effort remote logout, then unconditional local cleanup.
//   - IsAuthenticated: check the marker.
//
// Errors from the executor are returned untouched.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	CachedUser(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}

type authService struct {
	client api.Client
	store  *session.Store
	log    logging.Logger
}

// NewAuthService binds the service to the executor and the session store and
// installs the executor hook that drops the marker when a refresh is
// rejected.
func NewAuthService(client api.Client, store *session.Store, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Nop()
	}
	a := &authService{client: client, store: store, log: log}
	client.OnSessionExpired(a.sessionExpired)
	return a
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and, on success, sets the marker and caches the user.
func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := a.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   api.LoginPath,
		Body:   credentials{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}

	user, err := decodeUser(resp)
	if err != nil {
		return nil, err
	}

	if err := a.store.SetAuthenticated(ctx); err != nil {
		return nil, fmt.Errorf("save session marker: %w", err)
	}
	if err := a.store.SetUser(ctx, *user); err != nil {
		a.log.Warn(ctx, "cache user failed", logging.Err(err))
	}

	a.log.Info(ctx, "logged in", "user_id", user.ID)
	return user, nil
}

// Register creates the account. A separate Login is required afterwards.
func (a *authService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	resp, err := a.client.Do(ctx, api.Request{
		Method: http.MethodPost,
		Path:   api.RegisterPath,
		Body:   credentials{Name: name, Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// CurrentUser fetches /auth/me and refreshes the user cache.
func (a *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := a.client.Do(ctx, api.Request{Path: api.MePath})
	if err != nil {
		return nil, err
	}

	user, err := decodeUser(resp)
	if err != nil {
		return nil, err
	}

	if err := a.store.SetUser(ctx, *user); err != nil {
		a.log.Warn(ctx, "cache user failed", logging.Err(err))
	}
	return user, nil
}

func (a *authService) CachedUser(ctx context.Context) (*models.User, error) {
	return a.store.User(ctx)
}

// Logout never fails because of the network. The returned error only
// reports a failure to clear local state.
func (a *authService) Logout(ctx context.Context) error {
	if _, err := a.client.Do(ctx, api.Request{Method: http.MethodPost, Path: api.LogoutPath}); err != nil {
		a.log.Debug(ctx, "remote logout failed", logging.Err(err))
	}

	// the local session must end even if ctx was canceled
	if err := a.store.EndSession(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	a.log.Info(ctx, "logged out")
	return nil
}

func (a *authService) IsAuthenticated(ctx context.Context) bool {
	return a.store.Authenticated(ctx)
}

func (a *authService) sessionExpired(ctx context.Context) {
	if err := a.store.EndSession(ctx); err != nil {
		a.log.Error(ctx, "clear session after rejected refresh", logging.Err(err))
		return
	}
	a.log.Info(ctx, "session expired")
}

// decodeUser accepts both {"user": {...}} and a bare user object.
func decodeUser(resp *api.Response) (*models.User, error) {
	var envelope struct {
		User *models.User `json:"user"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, err
	}
	if envelope.User != nil {
		return envelope.User, nil
	}

	var u models.User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
