package domain

import (
	"slices"
	"strings"
	"time"
)

// Conversation is a direct-message exchange between exactly two users.
// Its id is canonical: both participant orders map to the same record.
type Conversation struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
}

// ConversationID derives the canonical conversation id from two
// participant ids, independent of argument order.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// ParticipantsFromID reverses ConversationID.
func ParticipantsFromID(id string) []string {
	a, b, _ := strings.Cut(id, ":")
	return []string{a, b}
}

func (c Conversation) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}
