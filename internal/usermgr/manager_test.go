package usermgr

import (
	"context"
	"embed"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/hnrobert/fumgr/internal/auth"
)

//go:embed testdata/users.properties
var bundled embed.FS

func TestNewFromFileLoadsExistingFile(t *testing.T) {
	path := writeFile(t, confUsrFile)
	m, err := NewFromFile(context.Background(), auth.MD5{}, path, "root")
	require.NoError(t, err)

	ok, err := m.Exists("confUsr")
	require.NoError(t, err)
	assert.True(t, ok)

	u, err := m.GetByName("confUsr")
	require.NoError(t, err)
	assert.Equal(t, "confUsr", u.Name)
	assert.True(t, u.CanWrite("/"))
	assert.Equal(t, 0, u.MaxIdleTime)
	assert.Equal(t, "/", u.HomeDirectory)
	assert.True(t, u.Enabled)

	assert.Equal(t, path, m.File())
	assert.Empty(t, m.URL())
	assert.Equal(t, auth.MD5{}, m.Encryptor())
	assert.True(t, m.IsAdmin("root"))
	assert.False(t, m.IsAdmin("confUsr"))
}

func TestNewDefaults(t *testing.T) {
	m, err := New(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultAdminName, m.AdminName())
	assert.IsType(t, auth.MD5{}, m.Encryptor())
	names, err := m.ListNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNewFileWinsOverURL(t *testing.T) {
	path := writeFile(t, confUsrFile)
	m, err := New(context.Background(), Options{File: path, URL: "mem://localhost/unused"})
	require.NoError(t, err)
	assert.Equal(t, path, m.File())
	assert.Empty(t, m.URL())
}

func TestNewMissingFileIsConfigurationError(t *testing.T) {
	_, err := NewFromFile(context.Background(), auth.MD5{}, filepath.Join(t.TempDir(), "nope.properties"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewMalformedFileIsConfigurationError(t *testing.T) {
	path := writeFile(t, "ftpserver.user.x.homedirectory=\\uZZZZ\n")
	_, err := NewFromFile(context.Background(), auth.MD5{}, path, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewFallsBackToBundle(t *testing.T) {
	t.Chdir(t.TempDir())

	m, err := New(context.Background(), Options{File: "testdata/users.properties", Bundle: &bundled})
	require.NoError(t, err)

	u, err := m.Authenticate(UsernamePassword{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/ftp", u.HomeDirectory)

	// The first save materializes the file on disk.
	require.NoError(t, m.Save(testUser("user1")))
	assert.FileExists(t, "testdata/users.properties")
}

func TestNewFromURL(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	url := "mem://localhost/fumgr/" + strings.ReplaceAll(t.Name(), "/", "_") + ".properties"
	require.NoError(t, fs.Upload(ctx, url, 0644, strings.NewReader(confUsrFile)))

	m, err := New(ctx, Options{URL: url, FS: fs})
	require.NoError(t, err)
	assert.Equal(t, url, m.URL())
	assert.Empty(t, m.File())

	ok, err := m.Exists("confUsr")
	require.NoError(t, err)
	assert.True(t, ok)

	// URL stores keep changes in memory only.
	require.NoError(t, m.Save(testUser("user1")))
	ok, err = m.Exists("user1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Refresh goes back to the URL content.
	require.NoError(t, m.Refresh(ctx))
	ok, err = m.Exists("user1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewFromUnreachableURL(t *testing.T) {
	_, err := NewFromURL(context.Background(), auth.MD5{}, "mem://localhost/fumgr/missing.properties", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadMigratesDeprecatedPrefix(t *testing.T) {
	path := writeFile(t, "FtpServer.user.old.homedirectory=/legacy\n"+
		"FtpServer.user.both.homedirectory=/legacy\n"+
		"ftpserver.user.both.homedirectory=/current\n")
	m, err := NewFromFile(context.Background(), auth.MD5{}, path, "")
	require.NoError(t, err)

	names, err := m.ListNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"both", "old"}, names)

	both, err := m.GetByName("both")
	require.NoError(t, err)
	assert.Equal(t, "/current", both.HomeDirectory)

	require.NoError(t, m.Save(testUser("user1")))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), DeprecatedPrefix)
}

func TestRefreshReplacesTable(t *testing.T) {
	path := writeFile(t, confUsrFile)
	m, err := NewFromFile(context.Background(), auth.MD5{}, path, "")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("ftpserver.user.other.homedirectory=/o\n"), 0600))
	require.NoError(t, m.Refresh(context.Background()))

	names, err := m.ListNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, names)
}

func TestRefreshFailureKeepsTable(t *testing.T) {
	path := writeFile(t, confUsrFile)
	m, err := NewFromFile(context.Background(), auth.MD5{}, path, "")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	err = m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)

	ok, err := m.Exists("confUsr")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDisposeClosesStore(t *testing.T) {
	m := newMemoryManager(t)
	require.NoError(t, m.Save(testUser("user1")))

	ok, err := m.Exists("user1")
	require.NoError(t, err)
	assert.True(t, ok)

	m.Dispose()
	m.Dispose()

	_, err = m.Exists("user1")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.GetByName("user1")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.ListNames()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Authenticate(UsernamePassword{Username: "user1", Password: "pwd"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Save(testUser("user2")), ErrClosed)
	assert.ErrorIs(t, m.Delete("user1"), ErrClosed)
	assert.ErrorIs(t, m.Refresh(context.Background()), ErrClosed)
}
