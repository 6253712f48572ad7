package prefs

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/fintrack/internal/client/events"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
)

// Draft is an editing copy of the shared settings. Nothing is shared until
// Save succeeds. When the shared value changes elsewhere the draft is reset
// to it on the next access.
type Draft struct {
	r   *Reconciler
	sub *events.Subscription

	mu    sync.Mutex
	value models.Settings
}

// Value returns the draft.
func (d *Draft) Value() models.Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sync()
	return d.value
}

// Update edits the draft in place.
func (d *Draft) Update(fn func(*models.Settings)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sync()
	fn(&d.value)
}

// Set parses raw into the named field of the draft.
func (d *Draft) Set(field, raw string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sync()

	next := d.value
	if err := next.SetField(field, raw); err != nil {
		return err
	}
	d.value = next
	return nil
}

// Changed reports whether field differs from the shared value.
func (d *Draft) Changed(field string) bool {
	return slices.Contains(d.ChangedFields(), field)
}

// ChangedFields lists the fields that differ from the shared value.
func (d *Draft) ChangedFields() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sync()
	return d.r.Shared().Diff(d.value)
}

// Save validates the draft, sends its remote subset to the server and, on
// success, shares the whole draft. On failure both the draft and the
// shared value are left as they were.
func (d *Draft) Save(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sync()

	saved, err := d.r.save(ctx, d.value)
	if err != nil {
		return err
	}

	// our own broadcast
	d.sync()
	d.value = saved
	return nil
}

// Discard drops all edits.
func (d *Draft) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sync()
	d.value = d.r.Shared()
}

// Close stops following the shared value.
func (d *Draft) Close() {
	if d.sub != nil {
		d.sub.Close()
	}
}

// sync resets the draft if the shared value changed since the last access.
// d.mu must be held.
func (d *Draft) sync() {
	if d.sub == nil {
		return
	}
	for {
		select {
		case _, ok := <-d.sub.C:
			if !ok {
				return
			}
			d.value = d.r.Shared()
		default:
			return
		}
	}
}
