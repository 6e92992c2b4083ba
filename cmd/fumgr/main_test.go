package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/fumgr/internal/logger"
	"github.com/hnrobert/fumgr/internal/usermgr"
)

func init() {
	logger.SetOutput(nil)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSaveListCheckDelete(t *testing.T) {
	file := filepath.Join(t.TempDir(), "users.properties")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	out, err := run(t, "--file", file, "save", "alice", "--password", "pwd", "--home", "/home/alice",
		"--idle", "123", "--max-logins", "5", "--max-logins-per-ip", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "saved alice")

	out, err = run(t, "--file", file, "--admin", "alice", "list")
	require.NoError(t, err)
	assert.Equal(t, "alice (admin)\n", out)

	_, err = run(t, "--file", file, "check", "alice", "pwd")
	require.NoError(t, err)
	_, err = run(t, "--file", file, "check", "alice", "wrong")
	assert.ErrorIs(t, err, usermgr.ErrAuthFailed)

	out, err = run(t, "--file", file, "show", "alice")
	require.NoError(t, err)
	var rec record
	require.NoError(t, yaml.Unmarshal([]byte(out), &rec))
	assert.Equal(t, record{
		Name:           "alice",
		Home:           "/home/alice",
		Enabled:        true,
		IdleTime:       123,
		MaxLogins:      5,
		MaxLoginsPerIP: 2,
	}, rec)

	_, err = run(t, "--file", file, "delete", "alice")
	require.NoError(t, err)
	_, err = run(t, "--file", file, "show", "alice")
	assert.ErrorIs(t, err, usermgr.ErrUserNotFound)
}

func TestPasswdKeepsOtherAttributes(t *testing.T) {
	file := filepath.Join(t.TempDir(), "users.properties")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	_, err := run(t, "--file", file, "--encryptor", "crypt", "save", "bob", "--password", "old", "--write", "--upload-rate", "100")
	require.NoError(t, err)
	_, err = run(t, "--file", file, "--encryptor", "crypt", "passwd", "bob", "new")
	require.NoError(t, err)

	_, err = run(t, "--file", file, "--encryptor", "crypt", "check", "bob", "new")
	require.NoError(t, err)
	_, err = run(t, "--file", file, "--encryptor", "crypt", "check", "bob", "old")
	assert.ErrorIs(t, err, usermgr.ErrAuthFailed)

	out, err := run(t, "--file", file, "export")
	require.NoError(t, err)
	var recs []record
	require.NoError(t, yaml.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Write)
	assert.Equal(t, 100, recs[0].UploadRate)
}

func TestBundledDefaultsWhenFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "admin (admin)\nanonymous\n", out)

	_, err = run(t, "check", "--anonymous")
	require.NoError(t, err)
	_, err = run(t, "check", "admin", "admin")
	require.NoError(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "users.properties")
	require.NoError(t, os.WriteFile(file, []byte("ftpserver.user.carol.homedirectory=/c\n"), 0600))
	conf := filepath.Join(dir, "fumgr.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("users:\n  file: "+file+"\n"), 0644))

	out, err := run(t, "--config", conf, "list")
	require.NoError(t, err)
	assert.Equal(t, "carol\n", out)
}

func TestMissingFileWithoutBundleEntry(t *testing.T) {
	_, err := run(t, "--file", filepath.Join(t.TempDir(), "other.properties"), "list")
	assert.ErrorIs(t, err, usermgr.ErrConfiguration)
}
