// Package event defines the typed domain event union. Every successful
// engine mutation emits exactly one of these; the hub fans them out to
// subscribers with no buffering or replay.
package event

import "relaychat/domain"

type Kind string

const (
	KindUserAdded   Kind = "user.added"
	KindUserUpdated Kind = "user.updated"
	KindUserRemoved Kind = "user.removed"

	KindChannelCreated Kind = "channel.created"
	KindChannelUpdated Kind = "channel.updated"
	KindChannelDeleted Kind = "channel.deleted"

	KindMessageCreated Kind = "message.created"
	KindMessageUpdated Kind = "message.updated"
	KindMessageDeleted Kind = "message.deleted"

	KindReactionAdded   Kind = "reaction.added"
	KindReactionRemoved Kind = "reaction.removed"

	KindConversationCreated Kind = "conversation.created"

	KindDirectMessageCreated Kind = "dm.created"
	KindDirectMessageUpdated Kind = "dm.updated"
	KindDirectMessageDeleted Kind = "dm.deleted"

	KindWebhookCreated Kind = "webhook.created"
	KindWebhookDeleted Kind = "webhook.deleted"
)

type DomainEvent interface {
	Kind() Kind
}

// DirectEvent is implemented by direct-message events. The connection
// manager only delivers them to participants; every other event kind is
// broadcast to all live connections.
type DirectEvent interface {
	DomainEvent
	Participants() []string
}

// Envelope is the wire shape of a pushed event.
type Envelope struct {
	Type    Kind        `json:"type"`
	Payload DomainEvent `json:"payload"`
}

func Wrap(e DomainEvent) Envelope {
	return Envelope{Type: e.Kind(), Payload: e}
}

type UserAdded struct {
	User domain.User `json:"user"`
}

func (UserAdded) Kind() Kind { return KindUserAdded }

type UserUpdated struct {
	User domain.User `json:"user"`
}

func (UserUpdated) Kind() Kind { return KindUserUpdated }

type UserRemoved struct {
	UserID string `json:"userId"`
}

func (UserRemoved) Kind() Kind { return KindUserRemoved }

type ChannelCreated struct {
	Channel domain.Channel `json:"channel"`
}

func (ChannelCreated) Kind() Kind { return KindChannelCreated }

type ChannelUpdated struct {
	Channel domain.Channel `json:"channel"`
}

func (ChannelUpdated) Kind() Kind { return KindChannelUpdated }

type ChannelDeleted struct {
	ChannelID string `json:"channelId"`
}

func (ChannelDeleted) Kind() Kind { return KindChannelDeleted }

type MessageCreated struct {
	Message domain.Message `json:"message"`
}

func (MessageCreated) Kind() Kind { return KindMessageCreated }

type MessageUpdated struct {
	Message domain.Message `json:"message"`
}

func (MessageUpdated) Kind() Kind { return KindMessageUpdated }

type MessageDeleted struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId,omitempty"`
	ThreadID  string `json:"threadId,omitempty"`
}

func (MessageDeleted) Kind() Kind { return KindMessageDeleted }

type ReactionAdded struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	Reaction  string `json:"reaction"`
}

func (ReactionAdded) Kind() Kind { return KindReactionAdded }

type ReactionRemoved struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	Reaction  string `json:"reaction"`
}

func (ReactionRemoved) Kind() Kind { return KindReactionRemoved }

type ConversationCreated struct {
	Conversation domain.Conversation `json:"conversation"`
}

func (ConversationCreated) Kind() Kind { return KindConversationCreated }

func (e ConversationCreated) Participants() []string {
	return e.Conversation.Participants
}

type DirectMessageCreated struct {
	Message           domain.Message `json:"message"`
	ConversationUsers []string       `json:"-"`
}

func (DirectMessageCreated) Kind() Kind { return KindDirectMessageCreated }

func (e DirectMessageCreated) Participants() []string { return e.ConversationUsers }

type DirectMessageUpdated struct {
	Message           domain.Message `json:"message"`
	ConversationUsers []string       `json:"-"`
}

func (DirectMessageUpdated) Kind() Kind { return KindDirectMessageUpdated }

func (e DirectMessageUpdated) Participants() []string { return e.ConversationUsers }

type DirectMessageDeleted struct {
	MessageID         string   `json:"messageId"`
	ConversationID    string   `json:"conversationId"`
	ConversationUsers []string `json:"-"`
}

func (DirectMessageDeleted) Kind() Kind { return KindDirectMessageDeleted }

func (e DirectMessageDeleted) Participants() []string { return e.ConversationUsers }

type WebhookCreated struct {
	Webhook domain.Webhook `json:"webhook"`
}

func (WebhookCreated) Kind() Kind { return KindWebhookCreated }

type WebhookDeleted struct {
	WebhookID string `json:"webhookId"`
	ChannelID string `json:"channelId"`
}

func (WebhookDeleted) Kind() Kind { return KindWebhookDeleted }
