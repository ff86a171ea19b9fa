package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"relaychat/domain"
	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

// CreateThreadReply posts a reply under a parent channel message.
// Replies to replies are rejected: threads never nest, so a message
// carrying a ThreadID can never carry ThreadMeta of its own.
func (e *Engine) CreateThreadReply(parentID, authorID, content string, images []string) (domain.Message, error) {
	author, err := e.GetUser(authorID)
	if err != nil {
		return domain.Message{}, err
	}
	parent, ok := get[domain.Message](e, messageKey+parentID)
	if !ok {
		return domain.Message{}, fmt.Errorf("parent message %s: %w", parentID, apperrors.ErrNotFound)
	}
	if parent.ThreadID != "" {
		return domain.Message{}, fmt.Errorf("threads cannot nest: %w", apperrors.ErrValidation)
	}
	if parent.ConversationID != "" {
		return domain.Message{}, fmt.Errorf("threads only exist on channel messages: %w", apperrors.ErrValidation)
	}
	if strings.TrimSpace(content) == "" && len(images) == 0 {
		return domain.Message{}, fmt.Errorf("empty message: %w", apperrors.ErrValidation)
	}

	reply := e.newMessage(domain.Author{ID: author.ID, Name: author.Name}, content, images)
	reply.ThreadID = parentID
	if err := e.insertMessage(reply, threadIndexKey+parentID); err != nil {
		return domain.Message{}, err
	}
	if err := e.refreshThreadMeta(parentID); err != nil {
		return domain.Message{}, err
	}
	e.emit(event.MessageCreated{Message: reply})
	return reply, nil
}

// ListThreadReplies returns a pagination window of a thread's replies,
// oldest-first.
func (e *Engine) ListThreadReplies(parentID string, limit int, beforeID string) ([]domain.Message, error) {
	if _, ok := get[domain.Message](e, messageKey+parentID); !ok {
		return nil, fmt.Errorf("parent message %s: %w", parentID, apperrors.ErrNotFound)
	}
	return e.pageMessages(threadIndexKey+parentID, limit, beforeID), nil
}

// refreshThreadMeta recomputes a parent's thread summary from the live
// reply index. Recomputing instead of patching incrementally keeps the
// summary drift-free; when the last reply is gone the summary is
// cleared entirely rather than left as a zero-count shell.
func (e *Engine) refreshThreadMeta(parentID string) error {
	parent, ok := get[domain.Message](e, messageKey+parentID)
	if !ok {
		return nil
	}

	var replies []domain.Message
	for _, id := range e.store.ReadIndex(threadIndexKey + parentID) {
		if reply, ok := get[domain.Message](e, messageKey+id); ok {
			replies = append(replies, reply)
		}
	}

	if len(replies) == 0 {
		parent.ThreadMeta = nil
		return put(e, messageKey+parent.ID, parent)
	}

	last := replies[len(replies)-1]
	var lastReplyAt time.Time
	for _, reply := range replies {
		if reply.CreatedAt.After(lastReplyAt) {
			lastReplyAt = reply.CreatedAt
		}
	}
	parent.ThreadMeta = &domain.ThreadMeta{
		ReplyCount:  len(replies),
		LastReplyAt: lastReplyAt,
		LastReplyBy: last.Author.ID,
		Participants: lo.Uniq(lo.Map(replies, func(m domain.Message, _ int) string {
			return m.Author.ID
		})),
	}
	return put(e, messageKey+parent.ID, parent)
}
