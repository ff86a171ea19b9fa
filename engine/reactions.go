package engine

import (
	"fmt"
	"strings"
	"time"

	"relaychat/domain"
	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

// AddReaction records a reaction token on a message. Adding a token
// the user already placed is a no-op returning the unchanged message,
// with no event.
func (e *Engine) AddReaction(messageID, userID, reaction string) (domain.Message, error) {
	msg, user, err := e.reactionTarget(messageID, userID, reaction)
	if err != nil {
		return domain.Message{}, err
	}
	if !msg.AddReaction(user.ID, reaction) {
		return msg, nil
	}
	msg.UpdatedAt = time.Now().UTC()
	if err := put(e, messageKey+msg.ID, msg); err != nil {
		return domain.Message{}, err
	}
	e.emit(event.ReactionAdded{MessageID: msg.ID, UserID: user.ID, Reaction: reaction})
	return msg, nil
}

// RemoveReaction drops a reaction token. Removing an absent reaction
// is a no-op returning the unchanged message, not an error.
func (e *Engine) RemoveReaction(messageID, userID, reaction string) (domain.Message, error) {
	msg, user, err := e.reactionTarget(messageID, userID, reaction)
	if err != nil {
		return domain.Message{}, err
	}
	if !msg.RemoveReaction(user.ID, reaction) {
		return msg, nil
	}
	msg.UpdatedAt = time.Now().UTC()
	if err := put(e, messageKey+msg.ID, msg); err != nil {
		return domain.Message{}, err
	}
	e.emit(event.ReactionRemoved{MessageID: msg.ID, UserID: user.ID, Reaction: reaction})
	return msg, nil
}

func (e *Engine) reactionTarget(messageID, userID, reaction string) (domain.Message, domain.User, error) {
	if strings.TrimSpace(reaction) == "" {
		return domain.Message{}, domain.User{}, fmt.Errorf("empty reaction: %w", apperrors.ErrValidation)
	}
	msg, ok := get[domain.Message](e, messageKey+messageID)
	if !ok {
		return domain.Message{}, domain.User{}, fmt.Errorf("message %s: %w", messageID, apperrors.ErrNotFound)
	}
	user, err := e.GetUser(userID)
	if err != nil {
		return domain.Message{}, domain.User{}, err
	}
	if msg.ConversationID != "" {
		conv, ok := get[domain.Conversation](e, conversationKey+msg.ConversationID)
		if !ok || !conv.HasParticipant(user.ID) {
			return domain.Message{}, domain.User{}, fmt.Errorf("not a conversation participant: %w", apperrors.ErrForbidden)
		}
	}
	return msg, user, nil
}
