package usermgr

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

var (
	// ErrConfiguration: the backing file or URL is missing, unreadable or malformed.
	ErrConfiguration = errors.New("user data configuration error")
	// ErrPersistence: the user file could not be written.
	ErrPersistence     = errors.New("failed saving user data")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAuthFailed never says whether the user was unknown or the password wrong.
	ErrAuthFailed      = errors.New("authentication failed")
	ErrUnsupportedAuth = errors.New("authentication not supported by this user manager")
	ErrClosed          = errors.New("user manager is closed")
	ErrUserNotFound    = errors.New("user not found")
)

// wrap tags kind with an oops code and key/value context. errors.Is matches
// both kind and cause on the result.
func wrap(code string, kind, cause error, kv ...any) error {
	b := oops.Code(code).In("usermgr")
	if len(kv) > 0 {
		b = b.With(kv...)
	}
	if cause == nil {
		return b.Wrap(kind)
	}
	return b.Wrap(fmt.Errorf("%w: %w", kind, cause))
}

func invalidArgument(format string, args ...any) error {
	return wrap("USERMGR_INVALID_ARGUMENT", fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...), nil)
}
