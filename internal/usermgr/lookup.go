package usermgr

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hnrobert/fumgr/internal/propfile"
)

// Exists reports whether name has a homedirectory key.
func (m *Manager) Exists(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.tableLocked()
	if err != nil {
		return false, err
	}
	return exists(t, name), nil
}

// GetByName rebuilds the user from the table, applying defaults for missing
// attributes. It returns ErrUserNotFound when name does not exist.
func (m *Manager) GetByName(name string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.tableLocked()
	if err != nil {
		return nil, err
	}
	u := readUser(t, name)
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ListNames returns the sorted user names.
func (m *Manager) ListNames() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.tableLocked()
	if err != nil {
		return nil, err
	}
	return listNames(t), nil
}

func exists(t *propfile.Table, name string) bool {
	return t.Has(userKeyPrefix(Prefix, name) + AttrHome)
}

func listNames(t *propfile.Table) []string {
	suffix := "." + AttrHome
	var names []string
	for _, k := range t.KeysWithPrefix(Prefix) {
		if !strings.HasSuffix(k, suffix) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(k, Prefix), suffix)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readUser returns nil when name does not exist. The transfer-rate and
// concurrent-login authorities are always attached; zero means unlimited.
func readUser(t *propfile.Table, name string) *User {
	if !exists(t, name) {
		return nil
	}
	base := userKeyPrefix(Prefix, name)
	u := &User{
		Name:          name,
		Enabled:       getBool(t, base+AttrEnable, true),
		HomeDirectory: getString(t, base+AttrHome, "/"),
		MaxIdleTime:   getInt(t, base+AttrMaxIdleTime, 0),
	}
	if getBool(t, base+AttrWritePerm, false) {
		u.Authorities = append(u.Authorities, WritePermission{})
	}
	u.Authorities = append(u.Authorities,
		ConcurrentLoginPermission{
			MaxConcurrentLogins:      getInt(t, base+AttrMaxLoginNumber, 0),
			MaxConcurrentLoginsPerIP: getInt(t, base+AttrMaxLoginPerIP, 0),
		},
		TransferRatePermission{
			MaxUploadRate:   getInt(t, base+AttrMaxUploadRate, 0),
			MaxDownloadRate: getInt(t, base+AttrMaxDownloadRate, 0),
		},
	)
	return u
}

func getString(t *propfile.Table, key, def string) string {
	if v, ok := t.Get(key); ok {
		return v
	}
	return def
}

func getBool(t *propfile.Table, key string, def bool) bool {
	v, ok := t.Get(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	return def
}

func getInt(t *propfile.Table, key string, def int) int {
	v, ok := t.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return def
	}
	return n
}
