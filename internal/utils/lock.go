package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	homedir "github.com/mitchellh/go-homedir"
)

const (
	lockFileName = ".scriptdex.lock"
)

// WriteLock serializes writers to one public root across processes.
type WriteLock struct {
	lock *flock.Flock
	path string
}

// NewWriteLock creates a lock file inside publicRoot.
func NewWriteLock(publicRoot string) (*WriteLock, error) {
	abs, err := filepath.Abs(publicRoot)
	if err != nil {
		return nil, fmt.Errorf("could not resolve public root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("could not create public root: %w", err)
	}
	path := filepath.Join(abs, lockFileName)
	return &WriteLock{lock: flock.New(path), path: path}, nil
}

// Lock acquires the lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *WriteLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another scriptdex process is writing to %s, waiting for it to finish...\n", filepath.Dir(l.path))
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the lock.
func (l *WriteLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// HistoryPath resolves the history database path. An empty path means the
// default location under the home directory.
func HistoryPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "scriptdex", "history.sqlite"), nil
	}
	expanded, err := homedir.Expand(dbPath)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
