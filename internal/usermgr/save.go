package usermgr

import (
	"strconv"
	"strings"

	"github.com/hnrobert/fumgr/internal/propfile"
)

// Save writes u to the table and rewrites the backing file.
//
// A nil Password keeps the stored hash of an existing user and stores the
// encrypted empty string for a new one. Write permission, transfer rates and
// concurrent-login caps are obtained by probing u.Authorize; a denied rate or
// login probe removes both keys of that pair.
func (m *Manager) Save(u *User) error {
	if u == nil {
		return invalidArgument("user is nil")
	}
	if !ValidUsername(u.Name) {
		return invalidArgument("invalid user name %q", u.Name)
	}
	if u.MaxIdleTime < 0 {
		return invalidArgument("negative idle time %d", u.MaxIdleTime)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.mutate(func(t *propfile.Table) error {
		return m.writeUser(t, u)
	})
	m.metrics.ObserveWrite("save", err)
	return err
}

func (m *Manager) writeUser(t *propfile.Table, u *User) error {
	base := userKeyPrefix(Prefix, u.Name)

	password, err := m.resolvePassword(t, u)
	if err != nil {
		return err
	}
	t.Set(base+AttrPassword, password)

	home := u.HomeDirectory
	if home == "" {
		home = "/"
	}
	t.Set(base+AttrHome, home)
	t.Set(base+AttrEnable, strconv.FormatBool(u.Enabled))
	_, canWrite := u.Authorize(WriteRequest{})
	t.Set(base+AttrWritePerm, strconv.FormatBool(canWrite))
	t.Set(base+AttrMaxIdleTime, strconv.Itoa(u.MaxIdleTime))

	if g, ok := u.Authorize(TransferRateRequest{}); ok {
		tr, _ := g.(TransferRateRequest)
		if tr.MaxUploadRate < 0 || tr.MaxDownloadRate < 0 {
			return invalidArgument("negative transfer rate for %s", u.Name)
		}
		t.Set(base+AttrMaxUploadRate, strconv.Itoa(tr.MaxUploadRate))
		t.Set(base+AttrMaxDownloadRate, strconv.Itoa(tr.MaxDownloadRate))
	} else {
		t.Delete(base + AttrMaxUploadRate)
		t.Delete(base + AttrMaxDownloadRate)
	}

	// A zero/zero request is within any cap, so this only reads the caps back.
	if g, ok := u.Authorize(ConcurrentLoginRequest{}); ok {
		cr, _ := g.(ConcurrentLoginRequest)
		if cr.MaxConcurrentLogins < 0 || cr.MaxConcurrentLoginsPerIP < 0 {
			return invalidArgument("negative login cap for %s", u.Name)
		}
		t.Set(base+AttrMaxLoginNumber, strconv.Itoa(cr.MaxConcurrentLogins))
		t.Set(base+AttrMaxLoginPerIP, strconv.Itoa(cr.MaxConcurrentLoginsPerIP))
	} else {
		t.Delete(base + AttrMaxLoginNumber)
		t.Delete(base + AttrMaxLoginPerIP)
	}
	return nil
}

// resolvePassword returns the value to store for u's password:
//
//	new password given     -> encrypt(new)
//	else user exists       -> stored hash (encrypt("") when missing)
//	else                   -> encrypt("")
func (m *Manager) resolvePassword(t *propfile.Table, u *User) (string, error) {
	if u.Password != nil {
		h, err := m.encryptor.Encrypt(*u.Password)
		if err != nil {
			return "", wrap("USERMGR_ENCRYPT", ErrPersistence, err, "user", u.Name)
		}
		return h, nil
	}
	base := userKeyPrefix(Prefix, u.Name)
	if t.Has(base + AttrHome) {
		if stored, ok := t.Get(base + AttrPassword); ok {
			return stored, nil
		}
	}
	h, err := m.encryptor.Encrypt("")
	if err != nil {
		return "", wrap("USERMGR_ENCRYPT", ErrPersistence, err, "user", u.Name)
	}
	return h, nil
}

// Delete removes every attribute of name and rewrites the backing file.
// Deleting an unknown user still rewrites the file.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.mutate(func(t *propfile.Table) error {
		base := userKeyPrefix(Prefix, name)
		for _, k := range t.KeysWithPrefix(base) {
			if ownedByNeighbour(t, name, strings.TrimPrefix(k, base)) {
				continue
			}
			t.Delete(k)
		}
		return nil
	})
	m.metrics.ObserveWrite("delete", err)
	return err
}

// ownedByNeighbour reports whether rest, the part of a key after
// "<prefix><name>.", belongs to an existing user whose name extends name,
// like "john.doe" for "john".
func ownedByNeighbour(t *propfile.Table, name, rest string) bool {
	for i := 0; i < len(rest); i++ {
		if rest[i] == '.' && exists(t, name+"."+rest[:i]) {
			return true
		}
	}
	return false
}
