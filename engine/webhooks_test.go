package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

func Test_Webhook_Management_Is_Admin_Only(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	member := addMember(t, eng, admin, "member@corp.io")
	channel, err := eng.CreateChannel("ops", admin.ID)
	req.NoError(err)

	_, err = eng.CreateWebhook(channel.ID, "bot", member.ID)
	req.ErrorIs(err, apperrors.ErrForbidden)
	_, err = eng.ListWebhooks(channel.ID, member.ID)
	req.ErrorIs(err, apperrors.ErrForbidden)

	webhook, err := eng.CreateWebhook(channel.ID, "bot", admin.ID)
	req.NoError(err)
	req.ErrorIs(eng.DeleteWebhook(webhook.ID, member.ID), apperrors.ErrForbidden)
	req.NoError(eng.DeleteWebhook(webhook.ID, admin.ID))
}

func Test_Webhook_Token_Is_Opaque_And_Resolvable(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	channel, err := eng.CreateChannel("ops", admin.ID)
	req.NoError(err)
	webhook, err := eng.CreateWebhook(channel.ID, "deploy-bot", admin.ID)
	req.NoError(err)

	req.True(strings.HasPrefix(webhook.Token, "whk_"))
	req.Greater(len(webhook.Token), 30)

	resolved, err := eng.GetWebhookByToken(webhook.Token)
	req.NoError(err)
	req.Equal(webhook.ID, resolved.ID)

	_, err = eng.GetWebhookByToken("whk_bogus")
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

func Test_Webhook_Listing_Redacts_Tokens(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	channel, err := eng.CreateChannel("ops", admin.ID)
	req.NoError(err)
	_, err = eng.CreateWebhook(channel.ID, "deploy-bot", admin.ID)
	req.NoError(err)

	webhooks, err := eng.ListWebhooks(channel.ID, admin.ID)
	req.NoError(err)
	req.Len(webhooks, 1)
	req.Empty(webhooks[0].Token)
}

func Test_Webhook_Message_Needs_Only_The_Bearer_Token(t *testing.T) {
	req := require.New(t)
	eng, admin, rec := newTestEngine(t)

	channel, err := eng.CreateChannel("ops", admin.ID)
	req.NoError(err)
	webhook, err := eng.CreateWebhook(channel.ID, "deploy-bot", admin.ID)
	req.NoError(err)

	msg, err := eng.CreateWebhookMessage(webhook.Token, "deploy finished", nil)
	req.NoError(err)
	req.True(msg.Author.IsBot)
	req.Equal("webhook:"+webhook.ID, msg.Author.ID)
	req.Equal("deploy-bot", msg.Author.Name)
	req.Equal(1, rec.count(event.KindMessageCreated))

	_, err = eng.CreateWebhookMessage("whk_wrong", "nope", nil)
	req.ErrorIs(err, apperrors.ErrInvalidToken)

	messages, err := eng.ListChannelMessages(channel.ID, 0, "")
	req.NoError(err)
	req.Len(messages, 1)
}

func Test_Deleted_Webhook_Token_Stops_Working(t *testing.T) {
	req := require.New(t)
	eng, admin, _ := newTestEngine(t)

	channel, err := eng.CreateChannel("ops", admin.ID)
	req.NoError(err)
	webhook, err := eng.CreateWebhook(channel.ID, "bot", admin.ID)
	req.NoError(err)
	req.NoError(eng.DeleteWebhook(webhook.ID, admin.ID))

	_, err = eng.CreateWebhookMessage(webhook.Token, "zombie", nil)
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}
