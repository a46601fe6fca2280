// Package directory defines the contact directory boundary: a pure lookup
// from free text or an email address to known contacts. The resolution core
// only reads from it; it never writes.
package directory

import (
	"context"
	"strings"
)

// Contact is one directory entry.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Directory answers contact lookups. Implementations must be safe for
// concurrent use.
type Directory interface {
	// Lookup returns zero or more contacts matching query, which may be a
	// person's name or an email address. An empty result is not an error.
	Lookup(ctx context.Context, query string) ([]Contact, error)
}

// Static is a fixed in-memory [Directory], useful for tests and for small
// single-user deployments configured from a file.
type Static struct {
	contacts []Contact
}

// Compile-time interface check.
var _ Directory = (*Static)(nil)

// NewStatic returns a [Static] directory over the given contacts.
func NewStatic(contacts []Contact) *Static {
	return &Static{contacts: contacts}
}

// Lookup implements [Directory.Lookup] with exact case-insensitive matching
// on name or email.
func (s *Static) Lookup(ctx context.Context, query string) ([]Contact, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	var out []Contact
	for _, c := range s.contacts {
		if strings.EqualFold(c.Name, q) || strings.EqualFold(c.Email, q) {
			out = append(out, c)
		}
	}
	return out, nil
}
