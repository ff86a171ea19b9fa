package realtime

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relaychat/domain"
	"relaychat/domain/event"
	"relaychat/hub"
)

type fakeTransport struct {
	mu         sync.Mutex
	events     []string
	heartbeats int
	failWrites bool
	closed     bool
}

func (f *fakeTransport) WriteEvent(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return fmt.Errorf("broken pipe")
	}
	f.events = append(f.events, string(data))
	return nil
}

func (f *fakeTransport) WriteHeartbeat() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return fmt.Errorf("broken pipe")
	}
	f.heartbeats++
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestManager(opts Options) (*Manager, *hub.Hub, func(time.Duration)) {
	log := slog.Default()
	h := hub.New(log)
	m := NewManager(h, log, opts)

	base := time.Now()
	offset := time.Duration(0)
	m.now = func() time.Time { return base.Add(offset) }
	advance := func(d time.Duration) { offset += d }
	return m, h, advance
}

func Test_Fourth_Connection_Evicts_The_Least_Recently_Active(t *testing.T) {
	req := require.New(t)
	m, _, advance := newTestManager(Options{
		MaxConnectionsPerUser: 3,
		StalenessTimeout:      time.Hour,
		HeartbeatInterval:     time.Hour,
	})

	first := &fakeTransport{}
	second := &fakeTransport{}
	third := &fakeTransport{}
	fourth := &fakeTransport{}

	m.Connect("u1", first)
	advance(10 * time.Second)
	m.Connect("u1", second)
	advance(10 * time.Second)
	m.Connect("u1", third)
	advance(10 * time.Second)
	m.Connect("u1", fourth)

	req.Equal(3, m.Connections("u1"))
	req.True(first.isClosed())
	req.False(second.isClosed())
	req.False(third.isClosed())
	req.False(fourth.isClosed())
}

func Test_Stale_Connections_Are_Purged_On_Admission(t *testing.T) {
	req := require.New(t)
	m, _, advance := newTestManager(Options{
		MaxConnectionsPerUser: 3,
		StalenessTimeout:      time.Minute,
		HeartbeatInterval:     time.Hour,
	})

	stale := &fakeTransport{}
	m.Connect("u1", stale)
	advance(2 * time.Minute)

	fresh := &fakeTransport{}
	m.Connect("u1", fresh)

	req.True(stale.isClosed())
	req.Equal(1, m.Connections("u1"))
}

func Test_Direct_Message_Events_Only_Reach_Participants(t *testing.T) {
	req := require.New(t)
	m, h, _ := newTestManager(Options{HeartbeatInterval: time.Hour})

	alice := &fakeTransport{}
	eve := &fakeTransport{}
	m.Connect("alice", alice)
	m.Connect("eve", eve)

	h.Publish(event.DirectMessageCreated{
		Message:           domain.Message{ID: "m1", ConversationID: "alice:bob"},
		ConversationUsers: []string{"alice", "bob"},
	})

	req.Equal(1, alice.eventCount())
	req.Zero(eve.eventCount())
}

func Test_Broadcast_Events_Reach_Every_Connection(t *testing.T) {
	req := require.New(t)
	m, h, _ := newTestManager(Options{HeartbeatInterval: time.Hour})

	alice := &fakeTransport{}
	eve := &fakeTransport{}
	m.Connect("alice", alice)
	m.Connect("eve", eve)

	h.Publish(event.MessageCreated{Message: domain.Message{ID: "m1", ChannelID: "c1"}})

	req.Equal(1, alice.eventCount())
	req.Equal(1, eve.eventCount())
	req.Contains(alice.events[0], `"type":"message.created"`)
}

func Test_A_Failed_Write_Tears_The_Connection_Down(t *testing.T) {
	req := require.New(t)
	m, h, _ := newTestManager(Options{HeartbeatInterval: time.Hour})

	broken := &fakeTransport{failWrites: true}
	healthy := &fakeTransport{}
	m.Connect("u1", broken)
	m.Connect("u2", healthy)

	h.Publish(event.MessageCreated{Message: domain.Message{ID: "m1"}})

	req.True(broken.isClosed())
	req.Zero(m.Connections("u1"))
	// The failure stays local to that connection.
	req.Equal(1, healthy.eventCount())

	// And a torn-down connection receives nothing further.
	h.Publish(event.MessageCreated{Message: domain.Message{ID: "m2"}})
	req.Equal(2, healthy.eventCount())
	req.Zero(broken.eventCount())
}

func Test_Cleanup_Is_Idempotent_And_Drops_Empty_User_Entries(t *testing.T) {
	req := require.New(t)
	m, _, _ := newTestManager(Options{HeartbeatInterval: time.Hour})

	transport := &fakeTransport{}
	cleanup := m.Connect("u1", transport)

	cleanup()
	cleanup()

	req.True(transport.isClosed())
	req.Zero(m.Connections("u1"))
	m.mu.Lock()
	_, stillThere := m.conns["u1"]
	m.mu.Unlock()
	req.False(stillThere)
}

func Test_Heartbeats_Flow_And_A_Failing_One_Cleans_Up(t *testing.T) {
	req := require.New(t)
	m, _, _ := newTestManager(Options{HeartbeatInterval: 10 * time.Millisecond})

	transport := &fakeTransport{}
	m.Connect("u1", transport)

	req.Eventually(func() bool {
		transport.mu.Lock()
		defer transport.mu.Unlock()
		return transport.heartbeats >= 2
	}, time.Second, 5*time.Millisecond)

	transport.mu.Lock()
	transport.failWrites = true
	transport.mu.Unlock()

	req.Eventually(func() bool {
		return transport.isClosed() && m.Connections("u1") == 0
	}, time.Second, 5*time.Millisecond)
}
