package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the command surface the REPL dispatches to. The real
// App type satisfies it; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	ListCategories(ctx context.Context) error
	Category(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	ShowSettings(ctx context.Context) error
	EditSettings(ctx context.Context) error
}

// runREPL reads commands from reader, one per line, and dispatches them to
// a. Errors returned by handlers are printed and the loop goes on. It exits
// on EOF, on "exit" or "quit", or when ctx is done.
//
// Commands:
//
//	help                                 show available commands
//	register                             create an account
//	login                                authenticate
//	logout                               end the session
//	me                                   show the current user
//	categories                           list categories
//	category add <name> <type> [color]   create a category
//	category rename <id> <name>          rename a category
//	category delete <id>                 delete a category
//	import <file>                        upload a CSV statement
//	settings                             show settings
//	settings edit                        edit settings in a draft
//	exit | quit                          leave the program
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}

		fmt.Fprintf(w, "fintrack %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				fmt.Fprintln(w, "Available commands: me, categories, category add|rename|delete, import, settings [edit], logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "me":
			cmdErr = a.Me(ctx)

		case "categories":
			cmdErr = a.ListCategories(ctx)

		case "category":
			cmdErr = a.Category(ctx, args)

		case "import":
			cmdErr = a.Import(ctx, args)

		case "settings":
			switch {
			case len(args) == 0:
				cmdErr = a.ShowSettings(ctx)
			case args[0] == "edit":
				cmdErr = a.EditSettings(ctx)
			default:
				cmdErr = usage("settings [edit]")
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", describe(cmdErr))
		}

		if err != nil {
			return
		}
	}
}
