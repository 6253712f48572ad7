// Package models defines client-side data models of the fintrack client.
package models

// User is the identity returned by the backend. The client keeps a cached
// copy to pre-fill forms and as a fallback while offline.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Currency string `json:"currency,omitempty"`
}
