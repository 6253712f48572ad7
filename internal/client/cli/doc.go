// Package cli provides the interactive fintrack command-line client.
//
// It wires configuration, the local session cache, the authenticated API
// executor and services into a REPL. Commands that touch protected
// resources run a session guard first, so an expired session sends the
// user back to "login" instead of failing half way.
//
// Key features:
//   - Register / Login / Logout, current user
//   - Categories: list, add, rename, delete
//   - Transaction statement import (CSV upload)
//   - Settings view and an interactive draft editor
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
