// Package prefs keeps the user's settings in sync between the local cache
// and the server. The server is authoritative for the remote subset; the
// local-only fields never leave the device.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/events"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
	"github.com/dmitrijs2005/fintrack/internal/client/session"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

const SettingsPath = "/user/settings"

var (
	ErrInvalidSettings = errors.New("invalid settings")
	ErrRemoteField     = errors.New("field is stored on the server")
)

// Reconciler owns the shared settings value. It is safe for concurrent use.
type Reconciler struct {
	client   api.Client
	store    *session.Store
	bus      *events.Bus
	log      logging.Logger
	validate *validator.Validate

	mu     sync.RWMutex
	shared models.Settings
}

// NewReconciler seeds the shared value from the cache, or defaults when
// nothing is cached yet. A nil bus disables broadcasts.
func NewReconciler(ctx context.Context, client api.Client, store *session.Store, bus *events.Bus, log logging.Logger) *Reconciler {
	if log == nil {
		log = logging.Nop()
	}
	r := &Reconciler{
		client:   client,
		store:    store,
		bus:      bus,
		log:      log,
		validate: validator.New(),
		shared:   models.DefaultSettings(),
	}

	cached, ok, err := store.Settings(ctx)
	switch {
	case err != nil:
		log.Warn(ctx, "read cached settings", logging.Err(err))
	case ok:
		r.shared = cached
	}
	return r
}

// Shared returns the current shared settings.
func (r *Reconciler) Shared() models.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shared
}

// Load fetches the remote settings and merges them over the cache. A fetch
// failure is not an error: the last known settings are returned and the
// cache is left as it is. Only cancellation is reported.
func (r *Reconciler) Load(ctx context.Context) (models.Settings, error) {
	remote, err := api.Get[models.RemoteSettings](ctx, r.client, SettingsPath)
	if err != nil {
		if errors.Is(err, api.ErrCanceled) {
			return models.Settings{}, err
		}
		r.log.Warn(ctx, "load settings failed, using cached copy", logging.Err(err))
		return r.Shared(), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.shared
	if cached, ok, err := r.store.Settings(ctx); err != nil {
		r.log.Warn(ctx, "read cached settings", logging.Err(err))
	} else if ok {
		base = cached
	}

	merged := base.Merge(remote)
	if err := r.store.SetSettings(ctx, merged); err != nil {
		r.log.Warn(ctx, "cache merged settings", logging.Err(err))
	}

	r.apply(ctx, merged)
	return merged, nil
}

// SetLocal changes local-only preferences. They are written to the cache
// only; changing a remote field this way fails with ErrRemoteField.
func (r *Reconciler) SetLocal(ctx context.Context, mutate func(*models.Settings)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.shared
	mutate(&next)

	for _, f := range r.shared.Diff(next) {
		if models.IsRemoteField(f) {
			return fmt.Errorf("%w: %s", ErrRemoteField, f)
		}
	}
	if err := r.check(next); err != nil {
		return err
	}
	if err := r.store.SetSettings(ctx, next); err != nil {
		return err
	}

	r.apply(ctx, next)
	return nil
}

// NewDraft starts an editing session over a copy of the shared settings.
func (r *Reconciler) NewDraft() *Draft {
	d := &Draft{r: r}
	if r.bus != nil {
		d.sub = r.bus.Subscribe(events.TopicSettings, 1)
	}
	d.value = r.Shared()
	return d
}

// save writes the remote subset of next and, on success, makes next the
// shared value.
func (r *Reconciler) save(ctx context.Context, next models.Settings) (models.Settings, error) {
	if err := r.check(next); err != nil {
		return models.Settings{}, err
	}

	stored, err := api.Send[models.RemoteSettings](ctx, r.client, http.MethodPut, SettingsPath, next.Remote())
	if err != nil {
		return models.Settings{}, err
	}
	next = next.Merge(stored)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.SetSettings(ctx, next); err != nil {
		r.log.Warn(ctx, "cache saved settings", logging.Err(err))
	}
	r.apply(ctx, next)
	return next, nil
}

func (r *Reconciler) check(s models.Settings) error {
	if err := r.validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// apply must be called with r.mu held. It always publishes exactly one
// event, listing the fields that differ from the previous value.
func (r *Reconciler) apply(ctx context.Context, next models.Settings) {
	changed := r.shared.Diff(next)
	r.shared = next

	r.log.Debug(ctx, "settings changed", "fields", changed)
	if r.bus != nil {
		r.bus.Publish(events.Event{Topic: events.TopicSettings, Fields: changed})
	}
}
