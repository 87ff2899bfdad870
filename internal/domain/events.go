package domain

import "time"

// EventType identifies a committed session-state transition.
type EventType string

const (
	// EventSessionEstablished fires once when a PAN is durably stored and
	// the manager enters the authenticated state.
	EventSessionEstablished EventType = "session_established"
	// EventSnapshotUpdated fires when a reconciliation committed a snapshot
	// that differs from the cached one.
	EventSnapshotUpdated EventType = "snapshot_updated"
	// EventRefreshed fires when a reconciliation succeeded but the fetched
	// snapshot matched the cached one, so no write occurred.
	EventRefreshed EventType = "refreshed"
	// EventLoggedOut fires after both the account cache and the session
	// store have been cleared.
	EventLoggedOut EventType = "logged_out"
)

// Event records one committed state transition. Subscribers receive exactly
// one event per transition, in commit order — never one per network attempt.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	PAN  string    `json:"pan"`
	At   time.Time `json:"at"`
}
