package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"relaychat/domain"
	"relaychat/domain/event"
	apperrors "relaychat/errors"
	"relaychat/store"
)

// CreateMessage posts a message into a channel.
func (e *Engine) CreateMessage(channelID, authorID, content string, images []string) (domain.Message, error) {
	author, err := e.GetUser(authorID)
	if err != nil {
		return domain.Message{}, err
	}
	if _, err := e.GetChannel(channelID); err != nil {
		return domain.Message{}, err
	}
	if strings.TrimSpace(content) == "" && len(images) == 0 {
		return domain.Message{}, fmt.Errorf("empty message: %w", apperrors.ErrValidation)
	}

	msg := e.newMessage(domain.Author{ID: author.ID, Name: author.Name}, content, images)
	msg.ChannelID = channelID
	if err := e.insertMessage(msg, channelIndexKey+channelID); err != nil {
		return domain.Message{}, err
	}
	e.emit(event.MessageCreated{Message: msg})
	return msg, nil
}

// UpdateMessage edits content and images; only the author may edit.
// It returns the set of image references removed by the edit so the
// caller can release those blobs.
func (e *Engine) UpdateMessage(messageID, requestedBy, content string, images []string) (domain.Message, []string, error) {
	msg, ok := get[domain.Message](e, messageKey+messageID)
	if !ok || msg.ConversationID != "" {
		return domain.Message{}, nil, fmt.Errorf("message %s: %w", messageID, apperrors.ErrNotFound)
	}
	if msg.Author.ID != requestedBy {
		return domain.Message{}, nil, fmt.Errorf("only the author may edit: %w", apperrors.ErrForbidden)
	}

	removed := domain.RemovedImages(msg.Images, images)
	msg.Content = content
	msg.Images = images
	msg.UpdatedAt = time.Now().UTC()
	if err := put(e, messageKey+msg.ID, msg); err != nil {
		return domain.Message{}, nil, err
	}
	e.emit(event.MessageUpdated{Message: msg})
	return msg, removed, nil
}

// DeleteMessage removes a channel message; allowed for the author or
// any admin. Deleting a thread parent cascades to all its replies;
// deleting a reply recomputes the parent's thread summary.
func (e *Engine) DeleteMessage(messageID, requestedBy string) error {
	msg, ok := get[domain.Message](e, messageKey+messageID)
	if !ok || msg.ConversationID != "" {
		return fmt.Errorf("message %s: %w", messageID, apperrors.ErrNotFound)
	}
	requester, err := e.GetUser(requestedBy)
	if err != nil {
		return err
	}
	if msg.Author.ID != requestedBy && !requester.IsAdmin {
		return fmt.Errorf("only the author or an admin may delete: %w", apperrors.ErrForbidden)
	}
	return e.purgeMessage(msg)
}

// PurgeMessage is the retention deletion path: same cascade and event
// as DeleteMessage, no authorization. Purging an already-absent
// message is a no-op so a concurrent user deletion mid-sweep is
// tolerated.
func (e *Engine) PurgeMessage(messageID string) error {
	msg, ok := get[domain.Message](e, messageKey+messageID)
	if !ok {
		return nil
	}
	return e.purgeMessage(msg)
}

func (e *Engine) purgeMessage(msg domain.Message) error {
	if err := e.deleteMessageRecord(msg); err != nil {
		return err
	}
	if msg.ThreadID != "" {
		if err := e.refreshThreadMeta(msg.ThreadID); err != nil {
			return err
		}
	}
	e.emit(event.MessageDeleted{
		MessageID: msg.ID,
		ChannelID: msg.ChannelID,
		ThreadID:  msg.ThreadID,
	})
	return nil
}

func (e *Engine) GetMessage(messageID string) (domain.Message, error) {
	msg, ok := get[domain.Message](e, messageKey+messageID)
	if !ok {
		return domain.Message{}, fmt.Errorf("message %s: %w", messageID, apperrors.ErrNotFound)
	}
	return msg, nil
}

// ListChannelMessages returns a pagination window of a channel's
// messages, oldest-first. A zero limit means the whole window.
func (e *Engine) ListChannelMessages(channelID string, limit int, beforeID string) ([]domain.Message, error) {
	if _, err := e.GetChannel(channelID); err != nil {
		return nil, err
	}
	return e.pageMessages(channelIndexKey+channelID, limit, beforeID), nil
}

func (e *Engine) newMessage(author domain.Author, content string, images []string) domain.Message {
	now := time.Now().UTC()
	return domain.Message{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		Images:    images,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// insertMessage writes the record first, then the index entry.
func (e *Engine) insertMessage(msg domain.Message, indexKey string) error {
	if err := put(e, messageKey+msg.ID, msg); err != nil {
		return err
	}
	return e.store.AppendToIndex(indexKey, msg.ID)
}

// deleteMessageRecord removes a message and, for thread parents, all
// of its replies. Index entries go first, records second.
func (e *Engine) deleteMessageRecord(msg domain.Message) error {
	for _, replyID := range e.store.ReadIndex(threadIndexKey + msg.ID) {
		if err := e.store.RemoveFromIndex(threadIndexKey+msg.ID, replyID); err != nil {
			return err
		}
		if err := e.store.Delete(messageKey + replyID); err != nil {
			return err
		}
	}
	if err := e.store.RemoveFromIndex(e.containerIndexKey(msg), msg.ID); err != nil {
		return err
	}
	return e.store.Delete(messageKey + msg.ID)
}

func (e *Engine) containerIndexKey(msg domain.Message) string {
	switch {
	case msg.ThreadID != "":
		return threadIndexKey + msg.ThreadID
	case msg.ConversationID != "":
		return convIndexKey + msg.ConversationID
	default:
		return channelIndexKey + msg.ChannelID
	}
}

// pageMessages resolves a pagination window against an index, dropping
// any id whose record has gone missing rather than failing the page.
func (e *Engine) pageMessages(indexKey string, limit int, beforeID string) []domain.Message {
	ids := e.store.ReadIndex(indexKey)
	window := store.Page(ids, limit, beforeID)
	messages := make([]domain.Message, 0, len(window))
	for _, id := range window {
		if msg, ok := get[domain.Message](e, messageKey+id); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}
