// Package guard decides whether a protected view may render. A Guard is
// built per navigation, checks the session once when mounted, and never
// changes its mind afterwards.
package guard

import (
	"context"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

type State int

const (
	Unchecked State = iota
	Checking
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Authorized || s == Unauthorized
}

type Outcome int

const (
	RenderNothing Outcome = iota
	RenderProtected
	Redirect
)

// Decision is what the owning view should do right now.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
}

// Gateway is the part of the auth service the guard relies on.
type Gateway interface {
	IsAuthenticated(ctx context.Context) bool
	CurrentUser(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
}

const DefaultLoginPath = "/login"

type Option func(*Guard)

func WithLogger(l logging.Logger) Option {
	return func(g *Guard) {
		g.log = l
	}
}

func WithLoginPath(p string) Option {
	return func(g *Guard) {
		g.loginPath = p
	}
}

// OnChange registers fn to observe transitions. It is only called while the
// guard is mounted.
func OnChange(fn func(State)) Option {
	return func(g *Guard) {
		g.onChange = fn
	}
}

type Guard struct {
	gw          Gateway
	destination string
	loginPath   string
	log         logging.Logger
	onChange    func(State)

	mu      sync.Mutex
	state   State
	user    *models.User
	mounted bool
	torn    bool
	alive   bool
	cancel  context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a guard for a navigation to destination.
func New(gw Gateway, destination string, opts ...Option) *Guard {
	g := &Guard{
		gw:          gw,
		destination: destination,
		loginPath:   DefaultLoginPath,
		log:         logging.Nop(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mount starts the check. Only the first call has an effect, and none
// after Unmount.
func (g *Guard) Mount(ctx context.Context) {
	g.mu.Lock()
	if g.mounted || g.torn {
		g.mu.Unlock()
		return
	}
	g.mounted = true
	g.alive = true
	ctx, g.cancel = context.WithCancel(ctx)
	g.mu.Unlock()

	if !g.gw.IsAuthenticated(ctx) {
		g.log.Debug(ctx, "no session marker", "destination", g.destination)
		g.transition(Unauthorized, nil)
		g.finish()
		return
	}

	if !g.transition(Checking, nil) {
		g.finish()
		return
	}
	go g.check(ctx)
}

func (g *Guard) check(ctx context.Context) {
	defer g.finish()

	probe := make(chan api.Result[*models.User], 1)
	go func() {
		u, err := g.gw.CurrentUser(ctx)
		probe <- api.Result[*models.User]{Value: u, Err: err}
	}()

	var res api.Result[*models.User]
	select {
	case <-ctx.Done():
		return
	case res = <-probe:
	}

	if ctx.Err() != nil || !g.isAlive() {
		return
	}

	if res.Err != nil {
		g.log.Info(ctx, "session check failed", "destination", g.destination, logging.Err(res.Err))
		if err := g.gw.Logout(ctx); err != nil {
			g.log.Warn(ctx, "logout after failed check", logging.Err(err))
		}
		g.transition(Unauthorized, nil)
		return
	}

	g.transition(Authorized, res.Value)
}

// Unmount tears the guard down. A check still in flight is canceled and
// its result ignored.
func (g *Guard) Unmount() {
	g.mu.Lock()
	g.torn = true
	g.alive = false
	if g.cancel != nil {
		g.cancel()
	}
	g.mu.Unlock()
	g.finish()
}

// Wait blocks until the check resolves, the guard is unmounted, or ctx is
// done, and returns the state at that point.
func (g *Guard) Wait(ctx context.Context) State {
	select {
	case <-g.done:
	case <-ctx.Done():
	}
	return g.State()
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// User is the identity obtained by the check; nil unless Authorized.
func (g *Guard) User() *models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.user
}

func (g *Guard) Render() Decision {
	switch g.State() {
	case Authorized:
		return Decision{Outcome: RenderProtected}
	case Unauthorized:
		return Decision{Outcome: Redirect, RedirectTo: LoginURL(g.loginPath, g.destination)}
	}
	return Decision{Outcome: RenderNothing}
}

// LoginURL builds the login route that returns the user to destination.
func LoginURL(loginPath, destination string) string {
	if destination == "" {
		return loginPath
	}
	return loginPath + "?" + url.Values{"next": {destination}}.Encode()
}

func (g *Guard) isAlive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.alive
}

func (g *Guard) transition(s State, u *models.User) bool {
	g.mu.Lock()
	if !g.alive || g.state.Terminal() {
		g.mu.Unlock()
		return false
	}
	g.state = s
	g.user = u
	fn := g.onChange
	g.mu.Unlock()

	if fn != nil {
		fn(s)
	}
	return true
}

func (g *Guard) finish() {
	g.doneOnce.Do(func() { close(g.done) })
}
