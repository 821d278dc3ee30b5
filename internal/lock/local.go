package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a lock file is honoured before it is treated as
// left behind by a crashed run.
const DefaultTTL = 6 * time.Hour

// DefaultDir returns $TMPDIR/bucketpurger.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "bucketpurger")
}

type LocalLocker struct {
	path string
	ttl  time.Duration
	file *os.File
	mu   sync.Mutex
	held bool
}

type LocalOptions struct {
	Dir    string
	Bucket string
	TTL    time.Duration
}

func NewLocal(opts LocalOptions) (*LocalLocker, error) {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir()
	}
	name := strings.TrimSpace(opts.Bucket)
	if name == "" {
		return nil, fmt.Errorf("lock: bucket is required")
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("lock: invalid bucket name %q", name)
	}
	return &LocalLocker{path: filepath.Join(dir, name+".lock"), ttl: opts.TTL}, nil
}

func (l *LocalLocker) Path() string { return l.path }

func (l *LocalLocker) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return fmt.Errorf("lock already held by this process")
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	tryAcquire := func() (*os.File, error) {
		return os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0640)
	}

	file, err := tryAcquire()
	if err != nil {
		if !os.IsExist(err) {
			return fmt.Errorf("create lock file: %w", err)
		}
		holder := readHolder(l.path)
		if l.ttl <= 0 {
			return fmt.Errorf("%w: %s (pid %s)", ErrLocked, l.path, holder)
		}
		info, statErr := os.Stat(l.path)
		if statErr != nil {
			return fmt.Errorf("lock file exists and stat failed: %w", statErr)
		}
		if time.Since(info.ModTime()) < l.ttl {
			return fmt.Errorf("%w: %s (pid %s)", ErrLocked, l.path, holder)
		}
		if removeErr := os.Remove(l.path); removeErr != nil {
			return fmt.Errorf("stale lock file exists, remove failed: %w", removeErr)
		}
		file, err = tryAcquire()
		if err != nil {
			return fmt.Errorf("retry acquire after stale remove: %w", err)
		}
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		_ = file.Close()
		_ = os.Remove(l.path)
		return fmt.Errorf("write lock file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(l.path)
		return fmt.Errorf("sync lock file: %w", err)
	}

	l.file = file
	l.held = true
	return nil
}

func (l *LocalLocker) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	var errs []error
	if l.file != nil {
		if err := l.file.Close(); err != nil {
			errs = append(errs, err)
		}
		l.file = nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	l.held = false
	if len(errs) > 0 {
		return fmt.Errorf("release lock: %v", errs)
	}
	return nil
}

func readHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	if pid := strings.TrimSpace(string(data)); pid != "" {
		return pid
	}
	return "unknown"
}

// CheckDir reports whether locks can be created under dir.
func CheckDir(dir string) error {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("lock dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
