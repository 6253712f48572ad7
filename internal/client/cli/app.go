package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/config"
	"github.com/dmitrijs2005/fintrack/internal/client/events"
	"github.com/dmitrijs2005/fintrack/internal/client/guard"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
	"github.com/dmitrijs2005/fintrack/internal/client/prefs"
	"github.com/dmitrijs2005/fintrack/internal/client/services"
	"github.com/dmitrijs2005/fintrack/internal/client/session"
	"github.com/dmitrijs2005/fintrack/internal/client/storage"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	bus          *events.Bus
	authService  services.AuthService
	categories   services.CategoryService
	transactions services.TransactionService
	prefs        *prefs.Reconciler

	reader *bufio.Reader
	out    io.Writer

	// next is the destination of the last command turned away for lack
	// of a session. Login resumes it.
	next string
}

// NewApp opens the local cache and builds the API stack for c. Input is
// read from in and all user-facing output goes to out.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	path, err := c.CachePath()
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}

	db, err := storage.InitDatabase(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	exec, err := api.New(c.BaseURL, api.WithLogger(log.With("module", "api")), api.WithTimeout(c.RequestTimeout))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	bus := events.NewBus(log)
	store := session.NewStore(db, bus)

	return &App{
		config:       c,
		log:          log,
		db:           db,
		bus:          bus,
		authService:  services.NewAuthService(exec, store, log.With("module", "auth")),
		categories:   services.NewCategoryService(exec),
		transactions: services.NewTransactionService(exec),
		prefs:        prefs.NewReconciler(ctx, exec, store, bus, log.With("module", "prefs")),
		reader:       bufio.NewReader(in),
		out:          &syncWriter{w: out},
	}, nil
}

// Run loads settings when a session exists and runs the REPL until the
// user exits, input ends, or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	ctx, cancel := context.WithCancel(ctx)

	header := a.bus.Subscribe(events.TopicSettings, 4)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchHeader(ctx, header)
	}()
	defer func() {
		cancel()
		header.Close()
		wg.Wait()
	}()

	a.println("Welcome to fintrack CLI (type 'help' for commands)")

	if a.isLoggedIn(ctx) {
		if _, err := a.prefs.Load(ctx); err != nil {
			return err
		}
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
	return nil
}

// watchHeader reprints the header line whenever the language or theme
// changes.
func (a *App) watchHeader(ctx context.Context, sub *events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if e.Has(models.FieldLanguage) || e.Has(models.FieldTheme) {
				a.printHeader()
			}
		}
	}
}

func (a *App) printHeader() {
	s := a.prefs.Shared()
	a.printf("[language: %s | theme: %s]\n", s.Language, s.Theme)
}

func (a *App) getStatus() string {
	ctx := context.Background()
	if !a.isLoggedIn(ctx) {
		return ""
	}
	u, err := a.authService.CachedUser(ctx)
	if err != nil || u == nil {
		return ""
	}
	name := u.Name
	if name == "" {
		name = u.Email
	}
	return fmt.Sprintf("(%s)", name)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.authService.IsAuthenticated(ctx)
}

// protected runs fn behind a session guard for destination. A redirect
// prints the login hint instead.
func (a *App) protected(ctx context.Context, destination string, fn func(ctx context.Context, u *models.User) error) error {
	g := guard.New(a.authService, destination, guard.WithLogger(a.log))
	g.Mount(ctx)
	defer g.Unmount()
	g.Wait(ctx)

	d := g.Render()
	switch d.Outcome {
	case guard.RenderProtected:
		a.next = ""
		return fn(ctx, g.User())
	case guard.Redirect:
		a.next = destination
		a.printf("You are not logged in. Run 'login' to continue (%s).\n", d.RedirectTo)
		return nil
	}
	return ctx.Err()
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func usage(text string) error {
	return fmt.Errorf("usage: %s", strings.TrimSpace(text))
}

// syncWriter serializes writes from the REPL and the header watcher.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
