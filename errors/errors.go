// Package errors defines the error taxonomy shared by every component.
// Operations wrap these sentinels with fmt.Errorf("...: %w", ...) to add
// context; callers classify with errors.Is.
package errors

import "fmt"

var (
	// ErrNotFound marks a referenced user, channel, message,
	// conversation or webhook that does not exist.
	ErrNotFound = fmt.Errorf("not found")

	// ErrForbidden marks an authorization violation: wrong author,
	// non-admin, non-participant, last-admin protection.
	ErrForbidden = fmt.Errorf("forbidden")

	// ErrConflict marks a uniqueness violation: duplicate channel name,
	// duplicate email, self-conversation.
	ErrConflict = fmt.Errorf("conflict")

	// ErrValidation marks malformed input: empty name, short password,
	// nested thread reply.
	ErrValidation = fmt.Errorf("validation failed")

	// ErrInvalidCredentials is returned uniformly by password
	// verification whether the user is absent or the password is wrong,
	// so the caller learns nothing about which.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// ErrInvalidToken covers rejected auth tokens and unknown webhook
	// bearer tokens.
	ErrInvalidToken = fmt.Errorf("invalid token")
)
