package user

import (
	"errors"
	"fmt"
)

var (
	ErrBadInput           = errors.New("bad input")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already exists")
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrNameRequired     = fmt.Errorf("%w: name can not be empty", ErrBadInput)
	ErrUsernameRequired = fmt.Errorf("%w: username can not be empty", ErrBadInput)
	ErrPasswordRequired = fmt.Errorf("%w: password can not be empty", ErrBadInput)
	ErrEmptyUpdate      = fmt.Errorf("%w: data to update can not be empty", ErrBadInput)
	ErrPasswordTooLong  = fmt.Errorf("%w: password exceeds 72 bytes", ErrBadInput)
)

// StorageError marks err as a failure of the store itself.
func StorageError(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

type Kind string

const (
	KindBadInput           Kind = "bad-input"
	KindNotFound           Kind = "not-found"
	KindInvalidCredentials Kind = "invalid-credentials"
	KindConflict           Kind = "conflict"
	KindStorage            Kind = "storage-error"
	KindInternal           Kind = "internal"
)

// KindOf classifies err for the transports.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStorageUnavailable):
		return KindStorage
	case errors.Is(err, ErrBadInput):
		return KindBadInput
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrUserExists):
		return KindConflict
	default:
		return KindInternal
	}
}
