package engine

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"relaychat/domain"
	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

// CreateWebhook registers a webhook on a channel, admin-only. The
// returned webhook is the only place its bearer token appears in full.
func (e *Engine) CreateWebhook(channelID, name, createdBy string) (domain.Webhook, error) {
	if err := e.requireAdmin(createdBy); err != nil {
		return domain.Webhook{}, err
	}
	if _, err := e.GetChannel(channelID); err != nil {
		return domain.Webhook{}, err
	}
	if strings.TrimSpace(name) == "" {
		return domain.Webhook{}, fmt.Errorf("empty webhook name: %w", apperrors.ErrValidation)
	}

	token, err := newWebhookToken()
	if err != nil {
		return domain.Webhook{}, err
	}
	webhook := domain.Webhook{
		ID:        uuid.NewString(),
		Name:      name,
		ChannelID: channelID,
		Token:     token,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := put(e, webhookKey+webhook.ID, webhook); err != nil {
		return domain.Webhook{}, err
	}
	if err := e.store.Set(webhookTokenKey+token, []byte(webhook.ID), 0); err != nil {
		return domain.Webhook{}, err
	}
	e.emit(event.WebhookCreated{Webhook: webhook.Public()})
	return webhook, nil
}

// DeleteWebhook removes a webhook, admin-only.
func (e *Engine) DeleteWebhook(webhookID, requestedBy string) error {
	if err := e.requireAdmin(requestedBy); err != nil {
		return err
	}
	webhook, ok := get[domain.Webhook](e, webhookKey+webhookID)
	if !ok {
		return fmt.Errorf("webhook %s: %w", webhookID, apperrors.ErrNotFound)
	}
	if err := e.deleteWebhookRecord(webhook); err != nil {
		return err
	}
	e.emit(event.WebhookDeleted{WebhookID: webhook.ID, ChannelID: webhook.ChannelID})
	return nil
}

// ListWebhooks lists a channel's webhooks, admin-only. Tokens are
// redacted; they are only ever shown at creation.
func (e *Engine) ListWebhooks(channelID, requestedBy string) ([]domain.Webhook, error) {
	if err := e.requireAdmin(requestedBy); err != nil {
		return nil, err
	}
	all, err := listByPrefix[domain.Webhook](e, webhookKey)
	if err != nil {
		return nil, err
	}
	var mine []domain.Webhook
	for _, webhook := range all {
		if webhook.ChannelID == channelID {
			mine = append(mine, webhook.Public())
		}
	}
	return mine, nil
}

// GetWebhookByToken resolves a bearer token to its webhook.
func (e *Engine) GetWebhookByToken(token string) (domain.Webhook, error) {
	id, ok := e.store.Get(webhookTokenKey + token)
	if !ok {
		return domain.Webhook{}, fmt.Errorf("webhook token: %w", apperrors.ErrInvalidToken)
	}
	webhook, ok := get[domain.Webhook](e, webhookKey+string(id))
	if !ok {
		return domain.Webhook{}, fmt.Errorf("webhook token: %w", apperrors.ErrInvalidToken)
	}
	return webhook, nil
}

// CreateWebhookMessage posts into the webhook's channel on the
// strength of the bearer token alone; no user identity is involved.
// The message carries the webhook's synthetic author id and IsBot.
func (e *Engine) CreateWebhookMessage(token, content string, images []string) (domain.Message, error) {
	webhook, err := e.GetWebhookByToken(token)
	if err != nil {
		return domain.Message{}, err
	}
	if _, err := e.GetChannel(webhook.ChannelID); err != nil {
		return domain.Message{}, err
	}
	if strings.TrimSpace(content) == "" && len(images) == 0 {
		return domain.Message{}, fmt.Errorf("empty message: %w", apperrors.ErrValidation)
	}

	msg := e.newMessage(domain.Author{
		ID:    webhook.AuthorID(),
		Name:  webhook.Name,
		IsBot: true,
	}, content, images)
	msg.ChannelID = webhook.ChannelID
	if err := e.insertMessage(msg, channelIndexKey+webhook.ChannelID); err != nil {
		return domain.Message{}, err
	}
	e.emit(event.MessageCreated{Message: msg})
	return msg, nil
}

func (e *Engine) deleteWebhookRecord(webhook domain.Webhook) error {
	if err := e.store.Delete(webhookTokenKey + webhook.Token); err != nil {
		return err
	}
	return e.store.Delete(webhookKey + webhook.ID)
}

func (e *Engine) requireAdmin(userID string) error {
	user, err := e.GetUser(userID)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return fmt.Errorf("webhook management requires admin: %w", apperrors.ErrForbidden)
	}
	return nil
}

func newWebhookToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "whk_" + base64.RawURLEncoding.EncodeToString(raw), nil
}
