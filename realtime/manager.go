// Package realtime binds live streaming connections to authenticated
// users, caps connections per user, monitors them with heartbeats, and
// fans filtered domain events out to them.
package realtime

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"relaychat/domain/event"
	"relaychat/hub"
)

type Options struct {
	// MaxConnectionsPerUser caps live connections per user; admitting
	// one past the cap evicts the least-recently-active.
	MaxConnectionsPerUser int
	// StalenessTimeout is how long a connection may sit without
	// observed activity before an admission purges it as dead.
	StalenessTimeout time.Duration
	// HeartbeatInterval drives the periodic tick that keeps the
	// transport open and refreshes the activity timestamp.
	HeartbeatInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxConnectionsPerUser: 3,
		StalenessTimeout:      60 * time.Second,
		HeartbeatInterval:     30 * time.Second,
	}
}

// Transport is one live push channel to a client. Write failures are
// fatal to the connection, never retried.
type Transport interface {
	WriteEvent(data []byte) error
	WriteHeartbeat() error
	Close() error
}

type connection struct {
	id          string
	userID      string
	transport   Transport
	lastActive  time.Time
	unsubscribe func()
	stop        chan struct{}
	closed      bool
}

type Manager struct {
	mu    sync.Mutex
	hub   *hub.Hub
	log   *slog.Logger
	opts  Options
	conns map[string]map[string]*connection
	now   func() time.Time
}

func NewManager(h *hub.Hub, log *slog.Logger, opts Options) *Manager {
	if opts.MaxConnectionsPerUser <= 0 {
		opts.MaxConnectionsPerUser = DefaultOptions().MaxConnectionsPerUser
	}
	if opts.StalenessTimeout <= 0 {
		opts.StalenessTimeout = DefaultOptions().StalenessTimeout
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultOptions().HeartbeatInterval
	}
	return &Manager{
		hub:   h,
		log:   log,
		opts:  opts,
		conns: make(map[string]map[string]*connection),
		now:   time.Now,
	}
}

// Connect admits a new streaming connection for a user and returns its
// cleanup function. Admission first purges the user's stale
// connections, then evicts the least-recently-active one if the cap is
// still reached, registers the newcomer, starts its heartbeat, and
// subscribes it to the event hub.
func (m *Manager) Connect(userID string, t Transport) func() {
	c := &connection{
		id:        uuid.NewString(),
		userID:    userID,
		transport: t,
		stop:      make(chan struct{}),
	}

	m.mu.Lock()
	now := m.now()
	c.lastActive = now

	var evicted []*connection
	for _, existing := range m.conns[userID] {
		if now.Sub(existing.lastActive) > m.opts.StalenessTimeout {
			evicted = append(evicted, existing)
			m.removeLocked(existing)
		}
	}
	if len(m.conns[userID]) >= m.opts.MaxConnectionsPerUser {
		if oldest := m.oldestLocked(userID); oldest != nil {
			evicted = append(evicted, oldest)
			m.removeLocked(oldest)
		}
	}

	if m.conns[userID] == nil {
		m.conns[userID] = make(map[string]*connection)
	}
	m.conns[userID][c.id] = c
	m.mu.Unlock()

	for _, old := range evicted {
		_ = old.transport.Close()
	}

	unsubscribe := m.hub.Subscribe(func(e event.DomainEvent) {
		m.deliver(c, e)
	})

	m.mu.Lock()
	if c.closed {
		// Lost a race with cleanup before the subscription landed.
		m.mu.Unlock()
		unsubscribe()
		return func() {}
	}
	c.unsubscribe = unsubscribe
	m.mu.Unlock()

	go m.heartbeat(c)

	m.log.Debug("connection admitted", "user", userID, "conn", c.id)
	return func() { m.cleanup(c) }
}

// Connections reports the number of live connections for a user.
func (m *Manager) Connections(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns[userID])
}

// deliver filters an event for a connection and writes it. Direct
// message events only reach participants; everything else is
// broadcast. A failed write tears the connection down on the spot.
func (m *Manager) deliver(c *connection, e event.DomainEvent) {
	if direct, ok := e.(event.DirectEvent); ok {
		if !slices.Contains(direct.Participants(), c.userID) {
			return
		}
	}

	data, err := json.Marshal(event.Wrap(e))
	if err != nil {
		m.log.Error("event marshal failed", "kind", e.Kind(), "err", err)
		return
	}
	if err := c.transport.WriteEvent(data); err != nil {
		m.log.Debug("connection write failed, closing", "user", c.userID, "conn", c.id, "err", err)
		m.cleanup(c)
		return
	}
	m.touch(c)
}

func (m *Manager) heartbeat(c *connection) {
	ticker := time.NewTicker(m.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if err := c.transport.WriteHeartbeat(); err != nil {
				m.cleanup(c)
				return
			}
			m.touch(c)
		}
	}
}

func (m *Manager) touch(c *connection) {
	m.mu.Lock()
	c.lastActive = m.now()
	m.mu.Unlock()
}

// cleanup is idempotent: explicit close, transport error, failed write
// and eviction all funnel through here.
func (m *Manager) cleanup(c *connection) {
	m.mu.Lock()
	if c.closed {
		m.mu.Unlock()
		return
	}
	m.removeLocked(c)
	m.mu.Unlock()

	_ = c.transport.Close()
	m.log.Debug("connection closed", "user", c.userID, "conn", c.id)
}

// removeLocked unregisters a connection, stops its heartbeat and
// unsubscribes it. Removing a user's last connection drops the user's
// entry entirely.
func (m *Manager) removeLocked(c *connection) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.stop)
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	delete(m.conns[c.userID], c.id)
	if len(m.conns[c.userID]) == 0 {
		delete(m.conns, c.userID)
	}
}

func (m *Manager) oldestLocked(userID string) *connection {
	var oldest *connection
	for _, c := range m.conns[userID] {
		if oldest == nil || c.lastActive.Before(oldest.lastActive) {
			oldest = c
		}
	}
	return oldest
}
