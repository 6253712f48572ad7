package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/fintrack/internal/client/api"
	"github.com/dmitrijs2005/fintrack/internal/client/models"
	"github.com/dmitrijs2005/fintrack/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Register prompts for name, email and password and creates the account.
// The user still has to log in afterwards.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Register(ctx, name, email, string(password)); err != nil {
		return err
	}

	a.println("Account created. Run 'login' to sign in.")
	return nil
}

// Login prompts for credentials, signs in and loads the user's settings.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	a.printf("Welcome, %s!\n", displayName(u))

	if _, err := a.prefs.Load(ctx); err != nil {
		return err
	}
	return a.resume(ctx)
}

// resume returns to the view that sent the user to login. Views that take
// arguments are named but not repeated.
func (a *App) resume(ctx context.Context) error {
	next := a.next
	a.next = ""
	if next == "" {
		return nil
	}

	views := map[string]func(context.Context) error{
		"/me":         a.Me,
		"/categories": a.ListCategories,
		"/settings":   a.ShowSettings,
	}
	view, ok := views[next]
	if !ok {
		a.printf("You were on your way to %s. Run that command again to continue.\n", next)
		return nil
	}

	a.printf("Returning to %s.\n", next)
	return view(ctx)
}

// Logout ends the session. It only fails if local state cannot be cleared.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.next = ""
	a.println("Logged out.")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	return a.protected(ctx, "/me", func(ctx context.Context, u *models.User) error {
		a.printf("%s <%s>\n", displayName(u), u.Email)
		if u.Currency != "" {
			a.printf("Currency: %s\n", u.Currency)
		}
		return nil
	})
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// describe turns err into a line for the user.
func describe(err error) string {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return "your session has expired, please log in again"
	case errors.Is(err, api.ErrUnavailable):
		return "server unavailable, check your connection"
	case errors.Is(err, api.ErrCanceled):
		return "canceled"
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return err.Error()
}
