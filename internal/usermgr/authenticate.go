package usermgr

import (
	"fmt"

	"github.com/hnrobert/fumgr/internal/auth"
	"github.com/hnrobert/fumgr/internal/propfile"
)

// Authenticate resolves a login attempt to a user.
//
// UsernamePassword needs a username; an empty password is checked as "".
// Anonymous succeeds iff a user named "anonymous" exists, without any password
// check. Every rejected credential returns ErrAuthFailed; other kinds return
// ErrUnsupportedAuth.
func (m *Manager) Authenticate(a Authentication) (*User, error) {
	switch v := a.(type) {
	case *UsernamePassword:
		if v != nil {
			a = *v
		}
	case *Anonymous:
		if v != nil {
			a = Anonymous{}
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.tableLocked()
	if err != nil {
		return nil, err
	}

	var u *User
	switch a := a.(type) {
	case UsernamePassword:
		u = checkPassword(t, m.encryptor, a)
	case Anonymous:
		u = readUser(t, AnonymousName)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAuth, a)
	}
	m.metrics.ObserveAuthentication(a.Method(), u != nil)
	if u == nil {
		return nil, ErrAuthFailed
	}
	return u, nil
}

func checkPassword(t *propfile.Table, enc auth.PasswordEncryptor, a UsernamePassword) *User {
	if a.Username == "" {
		return nil
	}
	stored, ok := t.Get(userKeyPrefix(Prefix, a.Username) + AttrPassword)
	if !ok {
		return nil
	}
	if !enc.Matches(a.Password, stored) {
		return nil
	}
	return readUser(t, a.Username)
}
