package usermgr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hnrobert/fumgr/internal/auth"
	"github.com/hnrobert/fumgr/internal/logger"
)

func init() {
	logger.SetOutput(nil)
}

// confUsr mirrors a hand-written file with every attribute plus an unknown one.
const confUsrFile = `ftpserver.user.confUsr.userpassword=310dcbbf4cce62f762a2aaa148d556bd
ftpserver.user.confUsr.homedirectory=/
ftpserver.user.confUsr.enableflag=true
ftpserver.user.confUsr.writepermission=true
ftpserver.user.confUsr.maxloginnumber=0
ftpserver.user.confUsr.maxloginperip=0
ftpserver.user.confUsr.idletime=0
ftpserver.user.confUsr.uploadrate=0
ftpserver.user.confUsr.downloadrate=0
ftpserver.user.confUsr.groups=confUsr,users
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.properties")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newMemoryManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(context.Background(), Options{Encryptor: auth.MD5{}})
	require.NoError(t, err)
	return m
}

func newFileManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf", "users.properties")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0600))
	m, err := NewFromFile(context.Background(), auth.MD5{}, path, "")
	require.NoError(t, err)
	return m, path
}

func testUser(name string) *User {
	u := NewUser(name)
	u.SetPassword("pwd")
	u.HomeDirectory = "/home"
	u.MaxIdleTime = 123
	u.Enabled = false
	return u
}
