package engine

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"relaychat/domain"
	"relaychat/domain/event"
	apperrors "relaychat/errors"
	"relaychat/hub"
	"relaychat/store"
)

const adminEmail = "admin@example.com"

// recorder captures every emitted event for assertions.
type recorder struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (r *recorder) record(e event.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []event.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]event.Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind()
	}
	return kinds
}

func (r *recorder) count(kind event.Kind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// newTestEngine spins up an engine over a real badger store in a temp
// dir, bootstraps it, and wires an event recorder. The recorder is
// reset after bootstrap so tests only see their own events.
func newTestEngine(t *testing.T) (*Engine, domain.User, *recorder) {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	eventHub := hub.New(log)
	rec := &recorder{}
	eventHub.Subscribe(rec.record)

	eng := New(store.New(db, store.PlainCodec{}, log), eventHub, log)
	req.NoError(eng.Bootstrap(adminEmail))

	admin, err := eng.GetUserByEmail(adminEmail)
	req.NoError(err)
	rec.reset()
	return eng, admin, rec
}

// addMember creates a regular user invited by the admin.
func addMember(t *testing.T, eng *Engine, admin domain.User, email string) domain.User {
	t.Helper()
	user, err := eng.AddUser(email, admin.ID, false, false)
	require.NoError(t, err)
	return user
}

func Test_Bootstrap_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	req.NoError(eng.Bootstrap(adminEmail))
	req.NoError(eng.Bootstrap(adminEmail))

	users, err := eng.ListUsers()
	req.NoError(err)
	req.Len(users, 1)
	req.True(admin.IsAdmin)

	general, err := eng.GetChannelByName(domain.GeneralChannelName)
	req.NoError(err)
	req.Equal(domain.GeneralChannelName, general.Name)
}

func Test_Bootstrap_General_Is_Unrenamable_And_Undeletable(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	general, err := eng.GetChannelByName(domain.GeneralChannelName)
	req.NoError(err)

	_, err = eng.UpdateChannel(general.ID, "x", admin.ID)
	req.ErrorIs(err, apperrors.ErrForbidden)

	err = eng.DeleteChannel(general.ID, admin.ID)
	req.ErrorIs(err, apperrors.ErrForbidden)
}
