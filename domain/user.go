// Package domain contains the core entities of the chat system and the
// invariant helpers derived from them. No storage, runtime or transport
// logic belongs here.
package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"isAdmin"`
	AddedBy      string    `json:"addedBy,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns a copy safe to put on the wire: the stored credential
// never leaves the engine.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// DisplayNameFromEmail derives the default display name from the
// local part of an email address ("jane.doe@corp.io" -> "jane.doe").
func DisplayNameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	return local
}
