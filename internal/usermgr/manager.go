package usermgr

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"

	"github.com/hnrobert/fumgr/internal/auth"
	"github.com/hnrobert/fumgr/internal/diskfs"
	"github.com/hnrobert/fumgr/internal/logger"
	"github.com/hnrobert/fumgr/internal/metrics"
	"github.com/hnrobert/fumgr/internal/propfile"
)

const (
	// Prefix namespaces every user key in the table.
	Prefix = "ftpserver.user."
	// DeprecatedPrefix is accepted on load and rewritten to Prefix.
	DeprecatedPrefix = "FtpServer.user."

	DefaultAdminName = "admin"

	fileHeader = "Generated file - don't edit (please)"
	filePerm   = 0600
)

// Options configures a Manager. When both File and URL are set, File wins.
// With neither, the store starts empty and is kept in memory only.
type Options struct {
	File string
	// URL is read-only: Save and Delete update the table but nothing is written back.
	URL       string
	AdminName string
	// Encryptor defaults to auth.MD5.
	Encryptor auth.PasswordEncryptor
	// Bundle is consulted for File when it does not exist on disk.
	Bundle  *embed.FS
	Metrics *metrics.Collector
	// FS resolves URL and Bundle lookups; defaults to afs.New().
	FS afs.Service
}

// Manager is the user store. All methods are safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	table  *propfile.Table
	closed bool

	file      string
	url       string
	adminName string
	encryptor auth.PasswordEncryptor
	bundle    *embed.FS
	metrics   *metrics.Collector
	fs        afs.Service
}

// New builds a Manager and performs the initial load.
func New(ctx context.Context, opts Options) (*Manager, error) {
	m := &Manager{
		file:      opts.File,
		url:       opts.URL,
		adminName: opts.AdminName,
		encryptor: opts.Encryptor,
		bundle:    opts.Bundle,
		metrics:   opts.Metrics,
		fs:        opts.FS,
	}
	if m.file != "" {
		m.url = ""
	}
	if m.adminName == "" {
		m.adminName = DefaultAdminName
	}
	if m.encryptor == nil {
		m.encryptor = auth.MD5{}
	}
	if m.fs == nil {
		m.fs = afs.New()
	}

	t, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	m.table = t
	m.metrics.SetUsers(len(listNames(t)))
	return m, nil
}

// NewFromFile is New with a file source.
func NewFromFile(ctx context.Context, enc auth.PasswordEncryptor, file, adminName string) (*Manager, error) {
	return New(ctx, Options{File: file, Encryptor: enc, AdminName: adminName})
}

// NewFromURL is New with a URL source.
func NewFromURL(ctx context.Context, enc auth.PasswordEncryptor, url, adminName string) (*Manager, error) {
	return New(ctx, Options{URL: url, Encryptor: enc, AdminName: adminName})
}

func (m *Manager) File() string                      { return m.file }
func (m *Manager) URL() string                       { return m.url }
func (m *Manager) AdminName() string                 { return m.adminName }
func (m *Manager) Encryptor() auth.PasswordEncryptor { return m.encryptor }

// IsAdmin reports whether name is the configured administrator.
func (m *Manager) IsAdmin(name string) bool {
	return name == m.adminName
}

// Refresh rebuilds the table from the original source. The old table stays
// in place when loading fails.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.file != "" {
		abs, _ := filepath.Abs(m.file)
		logger.Debug("Refreshing user manager using file: %s", abs)
	} else if m.url != "" {
		logger.Debug("Refreshing user manager using URL: %s", m.url)
	}
	t, err := m.load(ctx)
	if err != nil {
		return err
	}
	m.table = t
	m.metrics.SetUsers(len(listNames(t)))
	return nil
}

// Dispose drops the table. Every later call that needs it returns ErrClosed.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.table.Clear()
	m.table = nil
	m.closed = true
	m.metrics.SetUsers(0)
}

func (m *Manager) load(ctx context.Context) (*propfile.Table, error) {
	var (
		t    *propfile.Table
		err  error
		kind string
	)
	switch {
	case m.file != "":
		kind = "file"
		t, err = m.loadFile(ctx)
	case m.url != "":
		kind = "url"
		t, err = m.loadURL(ctx)
	default:
		return propfile.New(), nil
	}
	m.metrics.ObserveReload(kind, err)
	if err != nil {
		return nil, err
	}
	migrateDeprecated(t)
	return t, nil
}

func (m *Manager) loadFile(ctx context.Context) (*propfile.Table, error) {
	logger.Debug("File configured, will try loading")
	if diskfs.Exists(m.file) {
		logger.Debug("File found on file system")
		b, err := diskfs.ReadFile(m.file)
		if err != nil {
			return nil, wrap("USERMGR_CONFIG", ErrConfiguration, err, "file", m.file)
		}
		t, err := propfile.Parse(b)
		if err != nil {
			return nil, wrap("USERMGR_CONFIG", ErrConfiguration, err, "file", m.file)
		}
		return t, nil
	}

	logger.Debug("File not found on file system, try loading from bundled resources")
	if m.bundle == nil {
		return nil, wrap("USERMGR_CONFIG", ErrConfiguration, fmt.Errorf("user data file %s could not be located", m.file), "file", m.file)
	}
	u := bundleURL(m.file)
	b, err := m.fs.DownloadWithURL(ctx, u, m.bundle)
	if err != nil {
		return nil, wrap("USERMGR_CONFIG", ErrConfiguration, err, "file", m.file, "bundle", u)
	}
	t, err := propfile.Parse(b)
	if err != nil {
		return nil, wrap("USERMGR_CONFIG", ErrConfiguration, err, "file", m.file, "bundle", u)
	}
	return t, nil
}

func (m *Manager) loadURL(ctx context.Context) (*propfile.Table, error) {
	logger.Debug("URL configured, will try loading")
	rc, err := m.fs.OpenURL(ctx, m.url)
	if err != nil {
		return nil, wrap("USERMGR_CONFIG", ErrConfiguration, err, "url", m.url)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			logger.Warn("closing %s: %v", m.url, cerr)
		}
	}()
	t, err := propfile.Decode(rc)
	if err != nil {
		return nil, wrap("USERMGR_CONFIG", ErrConfiguration, err, "url", m.url)
	}
	return t, nil
}

func bundleURL(file string) string {
	p := filepath.ToSlash(filepath.Clean(file))
	return "embed:///" + strings.TrimPrefix(p, "/")
}

// migrateDeprecated moves legacy-prefixed keys to Prefix. An existing
// canonical key wins over its legacy twin.
func migrateDeprecated(t *propfile.Table) {
	for _, k := range t.KeysWithPrefix(DeprecatedPrefix) {
		v, _ := t.Get(k)
		canonical := Prefix + strings.TrimPrefix(k, DeprecatedPrefix)
		if !t.Has(canonical) {
			t.Set(canonical, v)
		}
		t.Delete(k)
		logger.Debug("Migrated deprecated key %s", k)
	}
}

// tableLocked returns the live table or ErrClosed. Callers hold m.mu.
func (m *Manager) tableLocked() (*propfile.Table, error) {
	if m.closed || m.table == nil {
		return nil, ErrClosed
	}
	return m.table, nil
}

// persistLocked rewrites the whole file. URL-backed and in-memory stores
// have nothing to write.
func (m *Manager) persistLocked() error {
	if m.file == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := propfile.Encode(&buf, m.table, fileHeader, time.Now()); err != nil {
		return wrap("USERMGR_PERSIST", ErrPersistence, err, "file", m.file)
	}
	if err := diskfs.WriteFileAtomic(m.file, buf.Bytes(), diskfs.FileMode(m.file, filePerm)); err != nil {
		logger.Error("Failed saving user data to %s: %v", m.file, err)
		return wrap("USERMGR_PERSIST", ErrPersistence, err, "file", m.file)
	}
	return nil
}

// mutate applies fn to the table and persists it, restoring the previous
// table when either step fails.
func (m *Manager) mutate(fn func(t *propfile.Table) error) error {
	t, err := m.tableLocked()
	if err != nil {
		return err
	}
	snapshot := t.Clone()
	if err := fn(t); err != nil {
		m.table = snapshot
		return err
	}
	if err := m.persistLocked(); err != nil {
		m.table = snapshot
		return err
	}
	m.metrics.SetUsers(len(listNames(m.table)))
	return nil
}
