package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

func Test_CreateChannel_GetChannelByName_Roundtrip(t *testing.T) {
	req := require.New(t)
	eng, admin, rec := newTestEngine(t)

	created, err := eng.CreateChannel("design", admin.ID)
	req.NoError(err)

	found, err := eng.GetChannelByName("design")
	req.NoError(err)
	req.Equal(created.ID, found.ID)
	req.Equal(1, rec.count(event.KindChannelCreated))
}

func Test_CreateChannel_Rejects_Duplicate_Name(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	_, err := eng.CreateChannel("design", admin.ID)
	req.NoError(err)
	_, err = eng.CreateChannel("design", admin.ID)
	req.ErrorIs(err, apperrors.ErrConflict)
}

func Test_Channel_Name_Lookup_Is_Case_Sensitive(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	_, err := eng.CreateChannel("Design", admin.ID)
	req.NoError(err)

	_, err = eng.GetChannelByName("design")
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func Test_UpdateChannel_Requires_Creator_Or_Admin(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	creator := addMember(t, eng, admin, "creator@corp.io")
	bystander := addMember(t, eng, admin, "bystander@corp.io")
	channel, err := eng.CreateChannel("design", creator.ID)
	req.NoError(err)

	_, err = eng.UpdateChannel(channel.ID, "art", bystander.ID)
	req.ErrorIs(err, apperrors.ErrForbidden)

	renamed, err := eng.UpdateChannel(channel.ID, "art", creator.ID)
	req.NoError(err)
	req.Equal("art", renamed.Name)

	// The old name is free again, the new one resolves.
	_, err = eng.GetChannelByName("design")
	req.ErrorIs(err, apperrors.ErrNotFound)
	found, err := eng.GetChannelByName("art")
	req.NoError(err)
	req.Equal(channel.ID, found.ID)
}

func Test_UpdateChannel_Rejects_Taken_Name(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	_, err := eng.CreateChannel("design", admin.ID)
	req.NoError(err)
	channel, err := eng.CreateChannel("art", admin.ID)
	req.NoError(err)

	_, err = eng.UpdateChannel(channel.ID, "design", admin.ID)
	req.ErrorIs(err, apperrors.ErrConflict)
}

func Test_DeleteChannel_Cascades_To_Messages_And_Webhooks(t *testing.T) {
	req := require.New(t)
	eng, admin, rec := newTestEngine(t)

	channel, err := eng.CreateChannel("doomed", admin.ID)
	req.NoError(err)
	msg, err := eng.CreateMessage(channel.ID, admin.ID, "soon gone", nil)
	req.NoError(err)
	reply, err := eng.CreateThreadReply(msg.ID, admin.ID, "me too", nil)
	req.NoError(err)
	webhook, err := eng.CreateWebhook(channel.ID, "bot", admin.ID)
	req.NoError(err)

	rec.reset()
	req.NoError(eng.DeleteChannel(channel.ID, admin.ID))

	_, err = eng.GetChannel(channel.ID)
	req.ErrorIs(err, apperrors.ErrNotFound)
	_, err = eng.GetMessage(msg.ID)
	req.ErrorIs(err, apperrors.ErrNotFound)
	_, err = eng.GetMessage(reply.ID)
	req.ErrorIs(err, apperrors.ErrNotFound)
	_, err = eng.GetWebhookByToken(webhook.Token)
	req.ErrorIs(err, apperrors.ErrInvalidToken)

	// The cascade is one operation: one event.
	req.Equal([]event.Kind{event.KindChannelDeleted}, rec.kinds())
}

func Test_DeleteChannel_Frees_The_Name(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	channel, err := eng.CreateChannel("phoenix", admin.ID)
	req.NoError(err)
	req.NoError(eng.DeleteChannel(channel.ID, admin.ID))

	_, err = eng.CreateChannel("phoenix", admin.ID)
	req.NoError(err)
}
