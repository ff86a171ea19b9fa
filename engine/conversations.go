package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"relaychat/domain"
	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

// GetOrCreateConversation resolves the conversation between two users,
// creating it on first contact. The id is canonical, so both argument
// orders land on the same conversation. isNew reports whether this
// call created it; an existing conversation emits no event.
func (e *Engine) GetOrCreateConversation(a, b string) (domain.Conversation, bool, error) {
	if a == b {
		return domain.Conversation{}, false, fmt.Errorf("cannot converse with yourself: %w", apperrors.ErrConflict)
	}
	if _, err := e.GetUser(a); err != nil {
		return domain.Conversation{}, false, err
	}
	if _, err := e.GetUser(b); err != nil {
		return domain.Conversation{}, false, err
	}

	id := domain.ConversationID(a, b)
	if conv, ok := get[domain.Conversation](e, conversationKey+id); ok {
		return conv, false, nil
	}

	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:           id,
		Participants: domain.ParticipantsFromID(id),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := put(e, conversationKey+id, conv); err != nil {
		return domain.Conversation{}, false, err
	}
	e.emit(event.ConversationCreated{Conversation: conv})
	return conv, true, nil
}

// GetConversation loads a conversation for one of its participants.
func (e *Engine) GetConversation(conversationID, requestedBy string) (domain.Conversation, error) {
	conv, ok := get[domain.Conversation](e, conversationKey+conversationID)
	if !ok {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", conversationID, apperrors.ErrNotFound)
	}
	if !conv.HasParticipant(requestedBy) {
		return domain.Conversation{}, fmt.Errorf("not a conversation participant: %w", apperrors.ErrForbidden)
	}
	return conv, nil
}

// ListUserConversations returns a user's conversations, most recently
// active first.
func (e *Engine) ListUserConversations(userID string) ([]domain.Conversation, error) {
	all, err := listByPrefix[domain.Conversation](e, conversationKey)
	if err != nil {
		return nil, err
	}
	var mine []domain.Conversation
	for _, conv := range all {
		if conv.HasParticipant(userID) {
			mine = append(mine, conv)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return mine[i].UpdatedAt.After(mine[j].UpdatedAt)
	})
	return mine, nil
}

// CreateDirectMessage posts into a conversation; only participants may
// post.
func (e *Engine) CreateDirectMessage(conversationID, authorID, content string, images []string) (domain.Message, error) {
	conv, err := e.GetConversation(conversationID, authorID)
	if err != nil {
		return domain.Message{}, err
	}
	author, err := e.GetUser(authorID)
	if err != nil {
		return domain.Message{}, err
	}
	if strings.TrimSpace(content) == "" && len(images) == 0 {
		return domain.Message{}, fmt.Errorf("empty message: %w", apperrors.ErrValidation)
	}

	msg := e.newMessage(domain.Author{ID: author.ID, Name: author.Name}, content, images)
	msg.ConversationID = conversationID
	if err := e.insertMessage(msg, convIndexKey+conversationID); err != nil {
		return domain.Message{}, err
	}

	now := time.Now().UTC()
	conv.LastMessageAt = now
	conv.UpdatedAt = now
	if err := put(e, conversationKey+conv.ID, conv); err != nil {
		return domain.Message{}, err
	}

	e.emit(event.DirectMessageCreated{Message: msg, ConversationUsers: conv.Participants})
	return msg, nil
}

// UpdateDirectMessage edits a direct message. Unlike channel messages
// there is no admin override: only the author may touch it.
func (e *Engine) UpdateDirectMessage(messageID, requestedBy, content string, images []string) (domain.Message, []string, error) {
	msg, conv, err := e.directMessage(messageID)
	if err != nil {
		return domain.Message{}, nil, err
	}
	if msg.Author.ID != requestedBy {
		return domain.Message{}, nil, fmt.Errorf("only the author may edit a direct message: %w", apperrors.ErrForbidden)
	}

	removed := domain.RemovedImages(msg.Images, images)
	msg.Content = content
	msg.Images = images
	msg.UpdatedAt = time.Now().UTC()
	if err := put(e, messageKey+msg.ID, msg); err != nil {
		return domain.Message{}, nil, err
	}
	e.emit(event.DirectMessageUpdated{Message: msg, ConversationUsers: conv.Participants})
	return msg, removed, nil
}

// DeleteDirectMessage removes a direct message, author-only with no
// admin override.
func (e *Engine) DeleteDirectMessage(messageID, requestedBy string) error {
	msg, conv, err := e.directMessage(messageID)
	if err != nil {
		return err
	}
	if msg.Author.ID != requestedBy {
		return fmt.Errorf("only the author may delete a direct message: %w", apperrors.ErrForbidden)
	}
	if err := e.store.RemoveFromIndex(convIndexKey+conv.ID, msg.ID); err != nil {
		return err
	}
	if err := e.store.Delete(messageKey + msg.ID); err != nil {
		return err
	}
	e.emit(event.DirectMessageDeleted{
		MessageID:         msg.ID,
		ConversationID:    conv.ID,
		ConversationUsers: conv.Participants,
	})
	return nil
}

// ListConversationMessages returns a pagination window of a
// conversation's messages for one of its participants, oldest-first.
func (e *Engine) ListConversationMessages(conversationID, requestedBy string, limit int, beforeID string) ([]domain.Message, error) {
	if _, err := e.GetConversation(conversationID, requestedBy); err != nil {
		return nil, err
	}
	return e.pageMessages(convIndexKey+conversationID, limit, beforeID), nil
}

func (e *Engine) directMessage(messageID string) (domain.Message, domain.Conversation, error) {
	msg, ok := get[domain.Message](e, messageKey+messageID)
	if !ok || msg.ConversationID == "" {
		return domain.Message{}, domain.Conversation{}, fmt.Errorf("direct message %s: %w", messageID, apperrors.ErrNotFound)
	}
	conv, ok := get[domain.Conversation](e, conversationKey+msg.ConversationID)
	if !ok {
		return domain.Message{}, domain.Conversation{}, fmt.Errorf("conversation %s: %w", msg.ConversationID, apperrors.ErrNotFound)
	}
	return msg, conv, nil
}
