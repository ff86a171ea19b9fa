package domain

import "time"

// Webhook posts bot messages into its owning channel, authenticated by
// an opaque bearer token instead of a user identity.
type Webhook struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ChannelID string    `json:"channelId"`
	Token     string    `json:"token"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthorID is the synthetic author id stamped on webhook messages.
func (w Webhook) AuthorID() string {
	return "webhook:" + w.ID
}

// Public returns a copy without the bearer token. Webhook events are
// broadcast, so the token is only ever returned to the creator.
func (w Webhook) Public() Webhook {
	w.Token = ""
	return w
}
