package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

func Test_Conversation_Id_Is_Order_Independent(t *testing.T) {
	req := require.New(t)
	eng, admin, rec := newTestEngine(t)

	other := addMember(t, eng, admin, "other@corp.io")

	first, isNew, err := eng.GetOrCreateConversation(admin.ID, other.ID)
	req.NoError(err)
	req.True(isNew)

	second, isNew, err := eng.GetOrCreateConversation(other.ID, admin.ID)
	req.NoError(err)
	req.False(isNew)
	req.Equal(first.ID, second.ID)

	// Only the creating call emits an event.
	req.Equal(1, rec.count(event.KindConversationCreated))
}

func Test_Conversation_With_Yourself_Is_Rejected(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	_, _, err := eng.GetOrCreateConversation(admin.ID, admin.ID)
	req.ErrorIs(err, apperrors.ErrConflict)
}

func Test_Conversation_Requires_Both_Users(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	_, _, err := eng.GetOrCreateConversation(admin.ID, "ghost")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func Test_Non_Participants_Are_Locked_Out(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	alice := addMember(t, eng, admin, "alice@corp.io")
	bob := addMember(t, eng, admin, "bob@corp.io")
	eve := addMember(t, eng, admin, "eve@corp.io")

	conv, _, err := eng.GetOrCreateConversation(alice.ID, bob.ID)
	req.NoError(err)
	for i := 0; i < 3; i++ {
		_, err = eng.CreateDirectMessage(conv.ID, alice.ID, "secret", nil)
		req.NoError(err)
	}

	_, err = eng.GetConversation(conv.ID, eve.ID)
	req.ErrorIs(err, apperrors.ErrForbidden)
	_, err = eng.ListConversationMessages(conv.ID, eve.ID, 0, "")
	req.ErrorIs(err, apperrors.ErrForbidden)
	_, err = eng.CreateDirectMessage(conv.ID, eve.ID, "let me in", nil)
	req.ErrorIs(err, apperrors.ErrForbidden)

	messages, err := eng.ListConversationMessages(conv.ID, bob.ID, 0, "")
	req.NoError(err)
	req.Len(messages, 3)
}

func Test_Direct_Messages_Have_No_Admin_Override(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	alice := addMember(t, eng, admin, "alice@corp.io")
	conv, _, err := eng.GetOrCreateConversation(alice.ID, admin.ID)
	req.NoError(err)
	dm, err := eng.CreateDirectMessage(conv.ID, alice.ID, "private", nil)
	req.NoError(err)

	// The admin participates in the conversation but still cannot
	// touch someone else's direct message.
	_, _, err = eng.UpdateDirectMessage(dm.ID, admin.ID, "rewritten", nil)
	req.ErrorIs(err, apperrors.ErrForbidden)
	req.ErrorIs(eng.DeleteDirectMessage(dm.ID, admin.ID), apperrors.ErrForbidden)

	_, _, err = eng.UpdateDirectMessage(dm.ID, alice.ID, "fixed", nil)
	req.NoError(err)
	req.NoError(eng.DeleteDirectMessage(dm.ID, alice.ID))
}

func Test_Direct_Message_Events_Carry_The_Participant_Pair(t *testing.T) {
	req := require.New(t)
	eng, admin, rec := newTestEngine(t)

	alice := addMember(t, eng, admin, "alice@corp.io")
	conv, _, err := eng.GetOrCreateConversation(alice.ID, admin.ID)
	req.NoError(err)
	_, err = eng.CreateDirectMessage(conv.ID, alice.ID, "hello", nil)
	req.NoError(err)

	var found bool
	for _, e := range rec.events {
		if created, ok := e.(event.DirectMessageCreated); ok {
			found = true
			req.ElementsMatch(conv.Participants, created.Participants())
		}
	}
	req.True(found)
}

func Test_ListUserConversations_Is_Scoped_To_The_User(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	alice := addMember(t, eng, admin, "alice@corp.io")
	bob := addMember(t, eng, admin, "bob@corp.io")

	_, _, err := eng.GetOrCreateConversation(alice.ID, bob.ID)
	req.NoError(err)
	_, _, err = eng.GetOrCreateConversation(alice.ID, admin.ID)
	req.NoError(err)

	mine, err := eng.ListUserConversations(bob.ID)
	req.NoError(err)
	req.Len(mine, 1)

	hers, err := eng.ListUserConversations(alice.ID)
	req.NoError(err)
	req.Len(hers, 2)
}

func Test_Direct_Messages_Update_Conversation_Activity(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	alice := addMember(t, eng, admin, "alice@corp.io")
	conv, _, err := eng.GetOrCreateConversation(alice.ID, admin.ID)
	req.NoError(err)
	req.True(conv.LastMessageAt.IsZero())

	_, err = eng.CreateDirectMessage(conv.ID, alice.ID, "ping", nil)
	req.NoError(err)

	refreshed, err := eng.GetConversation(conv.ID, alice.ID)
	req.NoError(err)
	req.False(refreshed.LastMessageAt.IsZero())
}
