package diskfs

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/hnrobert/fumgr/internal/logger"
)

// locks holds one *sync.Mutex per absolute path.
var locks sync.Map

// lockPath locks path and returns the matching unlock.
func lockPath(path string) func() {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	v, _ := locks.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func ReadFile(path string) ([]byte, error) {
	defer lockPath(path)()
	return os.ReadFile(path)
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	return st.Mode().IsRegular()
}

func EnsureDir(path string, perm os.FileMode) error {
	defer lockPath(path)()
	return os.MkdirAll(path, perm)
}

// WriteFileAtomic replaces path with data, creating missing parent directories.
// Readers see either the old content or the new one.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir, 0755); err != nil {
		return err
	}
	defer lockPath(path)()

	staged, err := stage(dir, data, perm)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(staged) }()

	err = os.Rename(staged, path)
	switch {
	case err == nil:
		syncDir(dir)
		return nil
	case renameBlocked(err):
		logger.Warn("Replacing %s by rename failed (%v); rewriting in place", path, err)
		return overwrite(path, data, perm)
	default:
		return err
	}
}

// stage writes data to a synced temporary file in dir and returns its name.
func stage(dir string, data []byte, perm os.FileMode) (string, error) {
	f, err := os.CreateTemp(dir, ".fumgr-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := errors.Join(fill(f, data, perm), f.Close()); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func fill(f *os.File, data []byte, perm os.FileMode) error {
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	return f.Sync()
}

// renameBlocked matches rename failures of targets that cannot be replaced,
// such as bind-mounted files.
func renameBlocked(err error) bool {
	return errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.EPERM)
}

func overwrite(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Join(f.Sync(), f.Close())
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// FileMode returns the permission bits of an existing file, or def when it
// does not exist yet.
func FileMode(path string, def os.FileMode) os.FileMode {
	st, err := os.Stat(path)
	if err != nil {
		return def
	}
	return st.Mode().Perm()
}
