package domain

import "time"

// GeneralChannelName is the distinguished channel created at bootstrap.
// It can never be renamed or deleted.
const GeneralChannelName = "General"

type Channel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Channel) IsGeneral() bool {
	return c.Name == GeneralChannelName
}
