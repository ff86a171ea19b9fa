package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"relaychat/auth"
	"relaychat/domain"
	"relaychat/domain/event"
	apperrors "relaychat/errors"
)

// AddUser creates a user invited by addedBy. force skips resolving the
// inviter (bootstrap and self-signup paths); a self-invite — empty
// addedBy — records the new user's own id as its inviter. Creating an
// admin requires the inviter to be an admin, unless forced.
func (e *Engine) AddUser(email, addedBy string, isAdmin, force bool) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := auth.ValidateEmail(email); err != nil {
		return domain.User{}, err
	}
	if _, ok := e.store.Get(userEmailKey + email); ok {
		return domain.User{}, fmt.Errorf("email %s already registered: %w", email, apperrors.ErrConflict)
	}
	if !force {
		adder, ok := get[domain.User](e, userKey+addedBy)
		if !ok {
			return domain.User{}, fmt.Errorf("inviter %s: %w", addedBy, apperrors.ErrNotFound)
		}
		if isAdmin && !adder.IsAdmin {
			return domain.User{}, fmt.Errorf("only admins may create admins: %w", apperrors.ErrForbidden)
		}
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Name:      domain.DisplayNameFromEmail(email),
		Email:     email,
		IsAdmin:   isAdmin,
		AddedBy:   addedBy,
		CreatedAt: time.Now().UTC(),
	}
	if user.AddedBy == "" {
		user.AddedBy = user.ID
	}

	if err := put(e, userKey+user.ID, user); err != nil {
		return domain.User{}, err
	}
	if err := e.store.Set(userEmailKey+email, []byte(user.ID), 0); err != nil {
		return domain.User{}, err
	}
	e.emit(event.UserAdded{User: user.Public()})
	return user, nil
}

// RemoveUser deletes a user on behalf of an admin. The last remaining
// admin can never be removed.
func (e *Engine) RemoveUser(userID, requestedBy string) error {
	requester, ok := get[domain.User](e, userKey+requestedBy)
	if !ok {
		return fmt.Errorf("requester %s: %w", requestedBy, apperrors.ErrNotFound)
	}
	if !requester.IsAdmin {
		return fmt.Errorf("removing users requires admin: %w", apperrors.ErrForbidden)
	}
	return e.deleteUser(userID)
}

// ExitUser is self-service removal: the caller is the authenticated
// user, so no admin check applies. Last-admin protection still does.
func (e *Engine) ExitUser(userID string) error {
	return e.deleteUser(userID)
}

func (e *Engine) deleteUser(userID string) error {
	user, ok := get[domain.User](e, userKey+userID)
	if !ok {
		return fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	if user.IsAdmin {
		n, err := e.adminCount()
		if err != nil {
			return err
		}
		if n <= 1 {
			return fmt.Errorf("cannot remove the last admin: %w", apperrors.ErrForbidden)
		}
	}
	if err := e.store.Delete(userEmailKey + user.Email); err != nil {
		return err
	}
	if err := e.store.Delete(userKey + userID); err != nil {
		return err
	}
	e.emit(event.UserRemoved{UserID: userID})
	return nil
}

func (e *Engine) GetUser(userID string) (domain.User, error) {
	user, ok := get[domain.User](e, userKey+userID)
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	return user, nil
}

func (e *Engine) GetUserByEmail(email string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	id, ok := e.store.Get(userEmailKey + email)
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", email, apperrors.ErrNotFound)
	}
	return e.GetUser(string(id))
}

func (e *Engine) ListUsers() ([]domain.User, error) {
	return listByPrefix[domain.User](e, userKey)
}

// UpdateUserName changes a display name; allowed for the user
// themselves or any admin.
func (e *Engine) UpdateUserName(userID, name, requestedBy string) (domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return domain.User{}, fmt.Errorf("empty display name: %w", apperrors.ErrValidation)
	}
	user, ok := get[domain.User](e, userKey+userID)
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	if requestedBy != userID {
		requester, ok := get[domain.User](e, userKey+requestedBy)
		if !ok || !requester.IsAdmin {
			return domain.User{}, fmt.Errorf("renaming another user requires admin: %w", apperrors.ErrForbidden)
		}
	}
	user.Name = name
	if err := put(e, userKey+user.ID, user); err != nil {
		return domain.User{}, err
	}
	e.emit(event.UserUpdated{User: user.Public()})
	return user, nil
}

// SetPassword hashes and stores a password credential for a user.
func (e *Engine) SetPassword(userID, password string) error {
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	user, ok := get[domain.User](e, userKey+userID)
	if !ok {
		return fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := put(e, userKey+user.ID, user); err != nil {
		return err
	}
	e.emit(event.UserUpdated{User: user.Public()})
	return nil
}

// VerifyPassword resolves an email/password pair to a user. It fails
// with the same error whether the user is absent, has no credential,
// or the password is wrong.
func (e *Engine) VerifyPassword(email, password string) (domain.User, error) {
	user, err := e.GetUserByEmail(email)
	if err != nil || user.PasswordHash == "" {
		return domain.User{}, apperrors.ErrInvalidCredentials
	}
	ok, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !ok {
		return domain.User{}, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

func (e *Engine) adminCount() (int, error) {
	users, err := e.ListUsers()
	if err != nil {
		return 0, err
	}
	return lo.CountBy(users, func(u domain.User) bool { return u.IsAdmin }), nil
}
