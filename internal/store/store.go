/**
 * @description
 * Storage contracts for the session service. Two small adapters back the
 * session manager: a SessionStore holding the bare PAN so identity survives
 * even if the richer snapshot cache is corrupted or cleared, and an
 * AccountCache mirroring exactly one account snapshot.
 *
 * Both are single-writer; only the session manager mutates them.
 */
package store

import (
	"github.com/ALTER-2357/bank-app-thing/internal/domain"
)

// SessionStore persists the current PAN across process restarts. It is
// consulted at startup before any network activity to decide whether the
// client boots into an authenticated state.
type SessionStore interface {
	// Get returns the stored PAN, or "" when no session is persisted.
	Get() (string, error)
	// Set durably replaces the stored PAN.
	Set(pan string) error
	// Clear removes the stored PAN. Clearing an empty store is a no-op.
	Clear() error
}

// AccountCache persists the single last-known account snapshot.
type AccountCache interface {
	// Read returns the cached snapshot, or nil when nothing is cached.
	Read() (*domain.AccountSnapshot, error)
	// Write replaces the cached snapshot (upsert by PAN, full replace).
	Write(snapshot *domain.AccountSnapshot) error
	// Clear removes the cached snapshot. Clearing an empty cache is a no-op.
	Clear() error
}
