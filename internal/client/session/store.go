// Package session holds the client's shared, persisted state: the session
// marker, the cached user, and the cached settings. A Store is created once
// per process and passed down to whoever needs it.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/fintrack/internal/client/events"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
	"github.com/dmitrijs2005/fintrack/internal/client/repositories/kv"
	"github.com/dmitrijs2005/fintrack/internal/dbx"
)

// Keys of the cached entries.
const (
	KeySession  = "session"
	KeyUser     = "user"
	KeySettings = "settings"
)

// Store guards the cached entries with a single RWMutex so that writers are
// serialized even when callers run on different goroutines.
type Store struct {
	mu  sync.RWMutex
	db  *sql.DB
	bus *events.Bus
}

// NewStore wraps an initialized cache database. bus may be nil.
func NewStore(db *sql.DB, bus *events.Bus) *Store {
	return &Store{db: db, bus: bus}
}

func (s *Store) repo() kv.Repository {
	return kv.NewSQLiteRepository(s.db)
}

// Authenticated reports whether the session marker is set. Read errors are
// treated as "not set".
func (s *Store) Authenticated(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var marker bool
	ok, err := getJSON(ctx, s.repo(), KeySession, &marker)
	return err == nil && ok && marker
}

// SetAuthenticated sets the session marker.
func (s *Store) SetAuthenticated(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setJSON(ctx, s.repo(), KeySession, true)
}

// ClearAuthenticated removes the session marker only.
func (s *Store) ClearAuthenticated(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().Delete(ctx, KeySession)
}

// ClearUser drops the cached user.
func (s *Store) ClearUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo().Delete(ctx, KeyUser)
}

// EndSession clears the session marker and the cached user in one
// transaction and announces it on the bus. Cached settings survive.
func (s *Store) EndSession(ctx context.Context) error {
	s.mu.Lock()
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := kv.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, KeySession); err != nil {
			return err
		}
		return repo.Delete(ctx, KeyUser)
	})
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	s.publish(events.Event{Topic: events.TopicSession})
	return nil
}

// User returns the cached user, or nil when nothing is cached.
func (s *Store) User(ctx context.Context) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u models.User
	ok, err := getJSON(ctx, s.repo(), KeyUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// SetUser replaces the cached user and announces the change.
func (s *Store) SetUser(ctx context.Context, u models.User) error {
	s.mu.Lock()
	err := setJSON(ctx, s.repo(), KeyUser, u)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(events.Event{Topic: events.TopicUser})
	return nil
}

// Settings returns the cached settings and whether anything was cached.
// Fields missing from the cached entry keep their default values.
func (s *Store) Settings(ctx context.Context) (models.Settings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := models.DefaultSettings()
	ok, err := getJSON(ctx, s.repo(), KeySettings, &st)
	if err != nil || !ok {
		return models.Settings{}, false, err
	}
	return st, true, nil
}

// SetSettings overwrites the cached settings. Broadcasting the change is
// left to the caller, which knows which fields it changed.
func (s *Store) SetSettings(ctx context.Context, st models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setJSON(ctx, s.repo(), KeySettings, st)
}

func (s *Store) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func getJSON(ctx context.Context, repo kv.Repository, key string, v any) (bool, error) {
	raw, err := repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, repo kv.Repository, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return repo.Set(ctx, key, raw)
}
