package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"relaychat/domain"
	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

const generalName = domain.GeneralChannelName

// CreateChannel creates a channel with a unique, case-sensitive name.
func (e *Engine) CreateChannel(name, createdBy string) (domain.Channel, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Channel{}, fmt.Errorf("empty channel name: %w", apperrors.ErrValidation)
	}
	if _, err := e.GetUser(createdBy); err != nil {
		return domain.Channel{}, err
	}
	if _, ok := e.store.Get(channelNameKey + name); ok {
		return domain.Channel{}, fmt.Errorf("channel %q already exists: %w", name, apperrors.ErrConflict)
	}

	now := time.Now().UTC()
	channel := domain.Channel{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := put(e, channelKey+channel.ID, channel); err != nil {
		return domain.Channel{}, err
	}
	if err := e.store.Set(channelNameKey+name, []byte(channel.ID), 0); err != nil {
		return domain.Channel{}, err
	}
	e.emit(event.ChannelCreated{Channel: channel})
	return channel, nil
}

// UpdateChannel renames a channel. Only the creator or an admin may
// rename, and General is never renameable.
func (e *Engine) UpdateChannel(channelID, newName, requestedBy string) (domain.Channel, error) {
	channel, ok := get[domain.Channel](e, channelKey+channelID)
	if !ok {
		return domain.Channel{}, fmt.Errorf("channel %s: %w", channelID, apperrors.ErrNotFound)
	}
	if channel.IsGeneral() {
		return domain.Channel{}, fmt.Errorf("the %s channel cannot be renamed: %w", generalName, apperrors.ErrForbidden)
	}
	if err := e.requireChannelOwnership(channel, requestedBy); err != nil {
		return domain.Channel{}, err
	}
	if strings.TrimSpace(newName) == "" {
		return domain.Channel{}, fmt.Errorf("empty channel name: %w", apperrors.ErrValidation)
	}
	if newName == channel.Name {
		return channel, nil
	}
	if _, ok := e.store.Get(channelNameKey + newName); ok {
		return domain.Channel{}, fmt.Errorf("channel %q already exists: %w", newName, apperrors.ErrConflict)
	}

	oldName := channel.Name
	channel.Name = newName
	channel.UpdatedAt = time.Now().UTC()
	if err := put(e, channelKey+channel.ID, channel); err != nil {
		return domain.Channel{}, err
	}
	if err := e.store.Set(channelNameKey+newName, []byte(channel.ID), 0); err != nil {
		return domain.Channel{}, err
	}
	if err := e.store.Delete(channelNameKey + oldName); err != nil {
		return domain.Channel{}, err
	}
	e.emit(event.ChannelUpdated{Channel: channel})
	return channel, nil
}

// DeleteChannel removes a channel and cascades to its messages (thread
// replies included) and webhooks. General is undeletable. The cascade
// emits no per-message events; the single ChannelDeleted event covers
// the whole operation.
func (e *Engine) DeleteChannel(channelID, requestedBy string) error {
	channel, ok := get[domain.Channel](e, channelKey+channelID)
	if !ok {
		return fmt.Errorf("channel %s: %w", channelID, apperrors.ErrNotFound)
	}
	if channel.IsGeneral() {
		return fmt.Errorf("the %s channel cannot be deleted: %w", generalName, apperrors.ErrForbidden)
	}
	if err := e.requireChannelOwnership(channel, requestedBy); err != nil {
		return err
	}

	for _, id := range e.store.ReadIndex(channelIndexKey + channelID) {
		if msg, ok := get[domain.Message](e, messageKey+id); ok {
			if err := e.deleteMessageRecord(msg); err != nil {
				return err
			}
		}
	}
	webhooks, err := listByPrefix[domain.Webhook](e, webhookKey)
	if err != nil {
		return err
	}
	for _, wh := range webhooks {
		if wh.ChannelID != channelID {
			continue
		}
		if err := e.deleteWebhookRecord(wh); err != nil {
			return err
		}
	}

	if err := e.store.Delete(channelNameKey + channel.Name); err != nil {
		return err
	}
	if err := e.store.Delete(channelKey + channelID); err != nil {
		return err
	}
	e.emit(event.ChannelDeleted{ChannelID: channelID})
	return nil
}

func (e *Engine) GetChannel(channelID string) (domain.Channel, error) {
	channel, ok := get[domain.Channel](e, channelKey+channelID)
	if !ok {
		return domain.Channel{}, fmt.Errorf("channel %s: %w", channelID, apperrors.ErrNotFound)
	}
	return channel, nil
}

func (e *Engine) GetChannelByName(name string) (domain.Channel, error) {
	id, ok := e.store.Get(channelNameKey + name)
	if !ok {
		return domain.Channel{}, fmt.Errorf("channel %q: %w", name, apperrors.ErrNotFound)
	}
	return e.GetChannel(string(id))
}

func (e *Engine) ListChannels() ([]domain.Channel, error) {
	return listByPrefix[domain.Channel](e, channelKey)
}

func (e *Engine) requireChannelOwnership(channel domain.Channel, requestedBy string) error {
	requester, err := e.GetUser(requestedBy)
	if err != nil {
		return err
	}
	if requester.ID != channel.CreatedBy && !requester.IsAdmin {
		return fmt.Errorf("channel %s belongs to another user: %w", channel.ID, apperrors.ErrForbidden)
	}
	return nil
}
