// Package catalog defines the movie catalog domain: entries keyed by a
// short user-facing code, their validation rules, and the store contract.
package catalog

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Entry is a single catalog record.
type Entry struct {
	Code  string
	Title string
	URL   string
	// Views counts successful unlocks. Never decreases.
	Views int64
}

var (
	// ErrNotFound is returned when no entry exists for a code.
	ErrNotFound = errors.New("catalog entry not found")
	// ErrEmptyTitle is returned by Put for a blank title.
	ErrEmptyTitle = errors.New("title must not be empty")
	// ErrInvalidURL is returned by Put for a URL outside the allowed schemes.
	ErrInvalidURL = errors.New("url scheme is not allowed")
)

// allowedSchemes are the URL schemes an entry may link to. "tg" covers
// Telegram deep links (tg://resolve?...).
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"tg":    true,
}

// ValidateTitle reports whether a title is acceptable for storage.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// ValidateURL checks the target against the allowed-scheme predicate.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !allowedSchemes[parsed.Scheme] {
		return ErrInvalidURL
	}
	// http(s) links need a host; tg:// deep links do not.
	if parsed.Scheme != "tg" && parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// IsValidationError reports whether err is a Put argument rejection, as
// opposed to a store fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyTitle) || errors.Is(err, ErrInvalidURL)
}

// Store is the durable catalog contract.
type Store interface {
	// Put upserts an entry. Re-adding an existing code overwrites title and
	// url but preserves the accumulated view count.
	Put(ctx context.Context, code, title, rawURL string) error
	// Get returns the entry for code, or ErrNotFound.
	Get(ctx context.Context, code string) (*Entry, error)
	// IncrementViews atomically adds one view and returns the updated entry.
	// A missing code is a silent no-op: (nil, nil).
	IncrementViews(ctx context.Context, code string) (*Entry, error)
	// List returns up to limit entries ordered by code ascending.
	List(ctx context.Context, limit int) ([]Entry, error)
	// Top returns up to limit entries ordered by views descending,
	// ties broken by code ascending.
	Top(ctx context.Context, limit int) ([]Entry, error)
}
