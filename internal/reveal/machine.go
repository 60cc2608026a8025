// Package reveal implements the two-phase reveal flow: a requested code is
// shown as a locked card, and an explicit "watch" confirmation unlocks the
// link while counting the view exactly once.
//
// The machine holds no durable state. Locked vs. unlocked is re-derived on
// every request from the catalog entry and a fresh subscription check, so
// stale UI, retries and lapsed memberships are all handled by re-evaluation
// rather than remembered state.
package reveal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moviecode-bot/internal/catalog"
)

// defaultDedupTTL bounds how long a confirmed interaction is remembered
// for duplicate-delivery suppression.
const defaultDedupTTL = 10 * time.Minute

// Gate reports the channels a user still has to join. An empty result
// means the gate is satisfied.
type Gate interface {
	MissingChannels(ctx context.Context, userID int64) []string
}

// Machine walks a user through the Locked -> Unlocked transition for a code.
type Machine struct {
	store catalog.Store
	gate  Gate
	seen  *seenStore
}

// NewMachine creates a reveal machine over the given store and gate.
func NewMachine(store catalog.Store, gate Gate) (*Machine, error) {
	if store == nil {
		return nil, errors.New("catalog store cannot be nil")
	}
	if gate == nil {
		return nil, errors.New("subscription gate cannot be nil")
	}
	return &Machine{
		store: store,
		gate:  gate,
		seen:  newSeenStore(defaultDedupTTL),
	}, nil
}

// RequestCode handles a user sending a code. It never mutates the store.
func (m *Machine) RequestCode(ctx context.Context, userID int64, code string) (Response, error) {
	entry, err := m.store.Get(ctx, code)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return NotFound{Code: code}, nil
		}
		return nil, fmt.Errorf("catalog lookup for %q failed: %w", code, err)
	}

	if missing := m.gate.MissingChannels(ctx, userID); len(missing) > 0 {
		return GatePrompt{MissingChannels: missing, PendingCode: code}, nil
	}

	return LockedCard{Code: entry.Code, Title: entry.Title, Views: entry.Views}, nil
}

// ConfirmWatch handles the explicit watch confirmation. The subscription
// gate is re-checked unconditionally: passing it once earlier grants
// nothing. interactionID identifies the logical confirmation (e.g. the
// callback message ID) so that a duplicate delivery of the same
// confirmation re-emits the unlocked card without a second increment.
//
// The increment is the final step, after every check: no failure path
// leaves the counter partially advanced or unlocks without a satisfied
// gate.
func (m *Machine) ConfirmWatch(ctx context.Context, userID int64, code, interactionID string) (Response, error) {
	if missing := m.gate.MissingChannels(ctx, userID); len(missing) > 0 {
		return GatePrompt{MissingChannels: missing, PendingCode: code}, nil
	}

	dedupKey := fmt.Sprintf("%d|%s|%s", userID, code, interactionID)
	if !m.seen.MarkIfNew(dedupKey) {
		// Duplicate delivery: re-emit the current card, views untouched.
		entry, err := m.store.Get(ctx, code)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return NotFound{Code: code}, nil
			}
			return nil, fmt.Errorf("catalog lookup for %q failed: %w", code, err)
		}
		return UnlockedCard{Code: entry.Code, Title: entry.Title, URL: entry.URL, Views: entry.Views}, nil
	}

	entry, err := m.store.IncrementViews(ctx, code)
	if err != nil {
		// The transition aborted; let a retry of the same interaction count.
		m.seen.Forget(dedupKey)
		return nil, fmt.Errorf("view increment for %q failed: %w", code, err)
	}
	if entry == nil {
		// Entry vanished between the card and the confirmation. Nothing
		// was counted, so the interaction must stay retryable in case the
		// code is re-added.
		m.seen.Forget(dedupKey)
		return NotFound{Code: code}, nil
	}

	return UnlockedCard{Code: entry.Code, Title: entry.Title, URL: entry.URL, Views: entry.Views}, nil
}

// Recheck handles the user claiming to have satisfied the gate. It is the
// same derivation as RequestCode; cached gate status is never trusted.
func (m *Machine) Recheck(ctx context.Context, userID int64, code string) (Response, error) {
	return m.RequestCode(ctx, userID, code)
}
