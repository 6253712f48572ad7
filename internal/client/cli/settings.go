package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/fintrack/internal/client/models"
	"github.com/dmitrijs2005/fintrack/internal/client/prefs"
)

// ShowSettings reloads the settings and prints every field.
func (a *App) ShowSettings(ctx context.Context) error {
	return a.protected(ctx, "/settings", func(ctx context.Context, _ *models.User) error {
		s, err := a.prefs.Load(ctx)
		if err != nil {
			return err
		}
		return a.printSettings(s)
	})
}

func (a *App) printSettings(s models.Settings) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, f := range models.Fields() {
		v, err := s.Field(f)
		if err != nil {
			return err
		}
		scope := ""
		if !models.IsRemoteField(f) {
			scope = "(this device)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f, v, scope)
	}
	return tw.Flush()
}

// EditSettings opens a draft and runs the editor loop on it.
//
//	set <field> <value>   change a field in the draft
//	show                  print the draft
//	diff                  list changed fields
//	save                  store the draft
//	discard               drop all edits
//	done                  leave the editor
func (a *App) EditSettings(ctx context.Context) error {
	return a.protected(ctx, "/settings/edit", func(ctx context.Context, _ *models.User) error {
		d := a.prefs.NewDraft()
		defer d.Close()

		a.println("Editing settings: set <field> <value>, show, diff, save, discard, done")
		for {
			mark := ""
			if len(d.ChangedFields()) > 0 {
				mark = "*"
			}
			line, err := getSimpleText(a.reader, "settings"+mark, a.out)
			if err != nil {
				return nil
			}

			parts := strings.Fields(line)
			if len(parts) == 0 {
				continue
			}

			if err := a.editCommand(ctx, d, parts); err != nil {
				if errors.Is(err, errDone) {
					return nil
				}
				a.println("Error:", describe(err))
			}
		}
	})
}

var errDone = errors.New("done")

func (a *App) editCommand(ctx context.Context, d *prefs.Draft, parts []string) error {
	switch parts[0] {
	case "set":
		if len(parts) < 3 {
			return usage("set <field> <value>")
		}
		return d.Set(parts[1], strings.Join(parts[2:], " "))

	case "show":
		return a.printSettings(d.Value())

	case "diff":
		changed := d.ChangedFields()
		if len(changed) == 0 {
			a.println("No changes.")
			return nil
		}
		shared, draft := a.prefs.Shared(), d.Value()
		for _, f := range changed {
			before, _ := shared.Field(f)
			after, _ := draft.Field(f)
			a.printf("%s: %s -> %s\n", f, before, after)
		}
		return nil

	case "save":
		if len(d.ChangedFields()) == 0 {
			a.println("Nothing to save.")
			return nil
		}
		if err := d.Save(ctx); err != nil {
			return err
		}
		a.println("Saved.")
		return nil

	case "discard":
		d.Discard()
		a.println("Changes discarded.")
		return nil

	case "done", "exit", "quit":
		if n := len(d.ChangedFields()); n > 0 {
			a.printf("Leaving editor, %d unsaved change(s) dropped.\n", n)
		}
		return errDone
	}

	return fmt.Errorf("unknown editor command %q", parts[0])
}
