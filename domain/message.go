package domain

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// Author is a snapshot of the message author taken at creation time.
// Webhook-authored messages carry a synthetic id ("webhook:<id>") and
// IsBot set.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot,omitempty"`
}

// ThreadMeta is the derived summary attached to a thread-parent message.
// It is recomputed from the live reply index on every reply add/remove,
// never patched incrementally.
type ThreadMeta struct {
	ReplyCount   int       `json:"replyCount"`
	LastReplyAt  time.Time `json:"lastReplyAt"`
	LastReplyBy  string    `json:"lastReplyBy"`
	Participants []string  `json:"participants"`
}

// Message lives in exactly one container: a channel, a conversation, or
// (for thread replies) the parent message referenced by ThreadID.
type Message struct {
	ID             string              `json:"id"`
	Author         Author              `json:"author"`
	Content        string              `json:"content"`
	Images         []string            `json:"images,omitempty"`
	ChannelID      string              `json:"channelId,omitempty"`
	ConversationID string              `json:"conversationId,omitempty"`
	ThreadID       string              `json:"threadId,omitempty"`
	Reactions      map[string][]string `json:"reactions,omitempty"`
	ThreadMeta     *ThreadMeta         `json:"threadMeta,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// AddReaction records a reaction token for a user. Tokens form a set
// per (message, user); adding a token twice reports false and leaves
// the message unchanged.
func (m *Message) AddReaction(userID, token string) bool {
	if slices.Contains(m.Reactions[userID], token) {
		return false
	}
	if m.Reactions == nil {
		m.Reactions = map[string][]string{}
	}
	m.Reactions[userID] = append(m.Reactions[userID], token)
	return true
}

// RemoveReaction drops a reaction token for a user. Removing an absent
// token reports false.
func (m *Message) RemoveReaction(userID, token string) bool {
	tokens, ok := m.Reactions[userID]
	if !ok || !slices.Contains(tokens, token) {
		return false
	}
	remaining := lo.Without(tokens, token)
	if len(remaining) == 0 {
		delete(m.Reactions, userID)
	} else {
		m.Reactions[userID] = remaining
	}
	return true
}

// RemovedImages returns the image references present before an edit but
// absent after it, so the caller can release the underlying blobs.
func RemovedImages(before, after []string) []string {
	removed, _ := lo.Difference(before, after)
	return removed
}
