/**
 * @description
 * The session manager is the single authority for "who is the current user"
 * and "what do we last know about their account". It owns the
 * Unauthenticated -> Authenticated state machine, reconciles the local
 * stores against the banking API, and fans committed state transitions out
 * to subscribers.
 *
 * All mutation is serialized under one mutex; the network fetch inside
 * Reconcile is the only operation that runs outside it and rejoins only to
 * commit its result.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ALTER-2357/bank-app-thing/internal/domain"
	"github.com/ALTER-2357/bank-app-thing/internal/store"
	"github.com/ALTER-2357/bank-app-thing/pkg/bankclient"
)

// AccountClient is the slice of the banking API the manager depends on.
type AccountClient interface {
	GetUserDetails(ctx context.Context, pan string) (*bankclient.UserDetails, error)
}

const (
	subscriberBuffer = 16
	historyLimit     = 64
)

// Manager coordinates the session store, the account cache and the remote
// account service. Construct one per process and inject it; there is no
// package-level shared instance.
type Manager struct {
	sessions store.SessionStore
	cache    store.AccountCache
	client   AccountClient
	logger   *slog.Logger

	mu          sync.Mutex
	session     domain.Session
	snapshot    *domain.AccountSnapshot
	lastErr     error
	lastWarn    error
	inFlight    bool
	subscribers map[int]chan domain.Event
	nextSubID   int
	history     []domain.Event
}

// NewManager creates a session manager. Call Restore before serving so the
// persisted session is consulted ahead of any network activity.
func NewManager(sessions store.SessionStore, cache store.AccountCache, client AccountClient, logger *slog.Logger) *Manager {
	return &Manager{
		sessions:    sessions,
		cache:       cache,
		client:      client,
		logger:      logger,
		subscribers: make(map[int]chan domain.Event),
	}
}

// Restore seeds in-memory state from the durable stores. A session-store
// read failure is fatal: without it the client cannot decide its initial
// routing. A broken snapshot cache only costs the warm start.
func (m *Manager) Restore() error {
	pan, err := m.sessions.Get()
	if err != nil {
		return fmt.Errorf("restoring session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = domain.Session{PAN: pan}
	if pan == "" {
		// A snapshot without a session is an orphan from an interrupted
		// logout; drop it rather than resurrecting stale identity.
		if err := m.cache.Clear(); err != nil {
			m.logger.Warn("failed to clear orphaned snapshot", "error", err)
		}
		return nil
	}

	snapshot, err := m.cache.Read()
	if err != nil {
		m.logger.Warn("failed to read cached snapshot; starting cold", "error", err)
		return nil
	}
	if snapshot != nil && snapshot.PAN != pan {
		m.logger.Warn("cached snapshot belongs to a different account; discarding", "cached_pan", snapshot.PAN)
		if err := m.cache.Clear(); err != nil {
			m.logger.Warn("failed to clear mismatched snapshot", "error", err)
		}
		snapshot = nil
	}
	m.snapshot = snapshot
	return nil
}

// CurrentSession returns the in-memory session synchronously. It never
// blocks on the network.
func (m *Manager) CurrentSession() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Snapshot returns a copy of the last-known account snapshot, or nil when
// nothing has been fetched or restored yet.
func (m *Manager) Snapshot() *domain.AccountSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil
	}
	copied := *m.snapshot
	return &copied
}

// LastError returns the most recent reconciliation failure, or nil after a
// successful reconciliation. Consumers use it to show an "unable to
// refresh" hint next to otherwise stale-but-served data.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// LastWarning returns the most recent non-fatal persistence problem.
func (m *Manager) LastWarning() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastWarn
}

// EstablishSession durably stores the PAN and enters the authenticated
// state. Calling it again with the same PAN is a no-op. Entering the
// authenticated state kicks one immediate best-effort reconciliation whose
// failure never unwinds the session.
func (m *Manager) EstablishSession(ctx context.Context, pan string) error {
	if pan == "" {
		return &domain.InvalidRequestError{Reason: "empty PAN"}
	}

	m.mu.Lock()
	if m.session.PAN == pan {
		m.mu.Unlock()
		return nil
	}

	if m.session.PAN != "" {
		// Switching accounts: the prior snapshot is invalidated, never
		// merged with the new account's state.
		if err := m.cache.Clear(); err != nil {
			m.logger.Warn("failed to clear previous snapshot", "error", err)
		}
	}

	// The session store write happens before any cache write for the new
	// PAN, so a crash here leaves a session without a snapshot — a normal
	// transient state — rather than the reverse.
	if err := m.sessions.Set(pan); err != nil {
		m.mu.Unlock()
		return err
	}

	m.session = domain.Session{PAN: pan}
	m.snapshot = nil
	m.lastErr = nil
	m.notifyLocked(domain.EventSessionEstablished, pan)
	m.mu.Unlock()

	if _, err := m.Reconcile(ctx); err != nil {
		m.logger.Warn("initial reconciliation failed; session preserved", "pan", pan, "error", err)
	}
	return nil
}

// Reconcile issues one fetch against the banking API for the current
// session's PAN and commits the result. At most one fetch is in flight at a
// time; an overlapping call is dropped, not queued. A response that arrives
// after the session changed or ended is discarded at commit time.
func (m *Manager) Reconcile(ctx context.Context) (*domain.AccountSnapshot, error) {
	m.mu.Lock()
	if !m.session.IsAuthenticated() {
		m.mu.Unlock()
		return nil, domain.ErrNoSession
	}
	if m.inFlight {
		m.mu.Unlock()
		return nil, domain.ErrRefreshInFlight
	}
	m.inFlight = true
	pan := m.session.PAN
	m.mu.Unlock()

	details, fetchErr := m.client.GetUserDetails(ctx, pan)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false

	stillCurrent := m.session.PAN == pan

	if fetchErr != nil {
		// A transient server failure must never deauthenticate the user:
		// the cached snapshot stays untouched and only the error surfaces.
		if stillCurrent {
			m.lastErr = fetchErr
		}
		return nil, fetchErr
	}

	fresh, err := snapshotFromUserDetails(details)
	if err != nil {
		if stillCurrent {
			m.lastErr = err
		}
		return nil, err
	}
	if fresh.PAN != pan {
		err := &domain.DecodingError{Err: fmt.Errorf("response PAN %q does not match requested PAN", fresh.PAN)}
		if stillCurrent {
			m.lastErr = err
		}
		return nil, err
	}

	if !stillCurrent {
		// Logout or account switch won the race; the late result must not
		// resurrect the cleared session.
		return nil, domain.ErrStaleResponse
	}

	m.lastErr = nil

	if m.snapshot != nil && m.snapshot.Equal(*fresh) {
		m.notifyLocked(domain.EventRefreshed, pan)
		copied := *m.snapshot
		return &copied, nil
	}

	// The durable write happens before the change notification. A failed
	// write still serves the fresh data from memory; it only surfaces as a
	// warning.
	if err := m.cache.Write(fresh); err != nil {
		m.logger.Warn("failed to persist snapshot; serving from memory", "pan", pan, "error", err)
		m.lastWarn = err
	} else {
		m.lastWarn = nil
	}

	m.snapshot = fresh
	m.notifyLocked(domain.EventSnapshotUpdated, pan)
	copied := *fresh
	return &copied, nil
}

// Logout clears the account cache, then the session store, then commits the
// unauthenticated state. Observers never see a cleared session with a
// snapshot still attached.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.session.IsAuthenticated() {
		return nil
	}
	pan := m.session.PAN

	var clearErr error
	if err := m.cache.Clear(); err != nil {
		m.logger.Error("failed to clear account cache on logout", "error", err)
		clearErr = err
	}
	if err := m.sessions.Clear(); err != nil {
		m.logger.Error("failed to clear session store on logout", "error", err)
		clearErr = err
	}

	m.session = domain.Session{}
	m.snapshot = nil
	m.lastErr = nil
	m.lastWarn = nil
	m.notifyLocked(domain.EventLoggedOut, pan)

	return clearErr
}

// Subscribe registers for committed state transitions. Events arrive in
// commit order, one per transition. The returned cancel func releases the
// subscription; the channel is closed afterwards.
func (m *Manager) Subscribe() (<-chan domain.Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	ch := make(chan domain.Event, subscriberBuffer)
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if existing, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Events returns the recent committed transitions, oldest first.
func (m *Manager) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.history))
	copy(out, m.history)
	return out
}

// notifyLocked records and fans out one committed transition. Callers must
// hold m.mu; holding the lock across the sends is what guarantees
// commit-order delivery. Sends never block: a subscriber that stopped
// draining loses events rather than stalling the manager.
func (m *Manager) notifyLocked(eventType domain.EventType, pan string) {
	event := domain.Event{
		ID:   uuid.NewString(),
		Type: eventType,
		PAN:  pan,
		At:   time.Now().UTC(),
	}

	m.history = append(m.history, event)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}

	for id, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			m.logger.Warn("subscriber not draining; dropping event", "subscriber", id, "event", string(eventType))
		}
	}
}
