package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/fintrack/internal/client/models"
)

func (a *App) ListCategories(ctx context.Context) error {
	return a.protected(ctx, "/categories", func(ctx context.Context, _ *models.User) error {
		cats, err := a.categories.List(ctx)
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			a.println("No categories yet. Add one with 'category add <name> <income|expense>'.")
			return nil
		}

		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		for _, c := range cats {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, c.Color)
		}
		return tw.Flush()
	})
}

// Category handles "category add|rename|delete".
func (a *App) Category(ctx context.Context, args []string) error {
	const help = "category add <name> <income|expense> [color] | rename <id> <name> | delete <id>"
	if len(args) == 0 {
		return usage(help)
	}

	switch args[0] {
	case "add":
		if len(args) < 3 || len(args) > 4 {
			return usage("category add <name> <income|expense> [color]")
		}
		c := models.Category{Name: args[1], Type: args[2]}
		if len(args) == 4 {
			c.Color = args[3]
		}
		return a.protected(ctx, "/categories/new", func(ctx context.Context, _ *models.User) error {
			created, err := a.categories.Create(ctx, c)
			if err != nil {
				return err
			}
			a.printf("Created category %s (%s)\n", created.Name, created.ID)
			return nil
		})

	case "rename":
		if len(args) < 3 {
			return usage("category rename <id> <name>")
		}
		id, name := args[1], strings.Join(args[2:], " ")
		return a.protected(ctx, "/categories/"+id, func(ctx context.Context, _ *models.User) error {
			updated, err := a.categories.Rename(ctx, id, name)
			if err != nil {
				return err
			}
			a.printf("Renamed category %s to %s\n", updated.ID, updated.Name)
			return nil
		})

	case "delete":
		if len(args) != 2 {
			return usage("category delete <id>")
		}
		id := args[1]
		return a.protected(ctx, "/categories/"+id, func(ctx context.Context, _ *models.User) error {
			if err := a.categories.Delete(ctx, id); err != nil {
				return err
			}
			a.println("Deleted.")
			return nil
		})
	}

	return usage(help)
}

// Import uploads a CSV statement.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("import <file>")
	}
	path := args[0]

	return a.protected(ctx, "/transactions/import", func(ctx context.Context, _ *models.User) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := a.transactions.Import(ctx, filepath.Base(path), f)
		if err != nil {
			return err
		}
		a.printf("Imported %d transactions, skipped %d rows.\n", res.Imported, res.Skipped)
		return nil
	})
}
