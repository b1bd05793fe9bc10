package tempfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// TempDirs assigns temporary scratch directories, and automatically deletes old ones.
// The external renderer gets one directory per request, which holds the request
// files that we write, and the response files that it writes back.
type TempDirs struct {
	Root string

	lock    sync.Mutex // guards access to all internal state
	counter int64
	maxAge  time.Duration
}

// Wipes/recreates the root directory
func NewTempDirs(root string, maxAge time.Duration) (*TempDirs, error) {
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, fmt.Errorf("Failed to create temporary directory '%v': %w", root, err)
	}
	all, _ := filepath.Glob(filepath.Join(root, "*"))
	for _, fn := range all {
		os.RemoveAll(fn)
	}
	return &TempDirs{
		Root:   root,
		maxAge: maxAge,
	}, nil
}

// Create a new, empty temporary directory
func (t *TempDirs) Get() (string, error) {
	t.lock.Lock()
	t.counter++
	name := fmt.Sprintf("%d-%d", time.Now().UnixNano(), t.counter)
	t.lock.Unlock()

	t.cleanOld()

	dir := filepath.Join(t.Root, name)
	if err := os.Mkdir(dir, 0777); err != nil {
		return "", err
	}
	return dir, nil
}

// Release deletes a directory previously returned by Get
func (t *TempDirs) Release(dir string) {
	os.RemoveAll(dir)
}

// RemoveAll deletes the root directory and everything inside it
func (t *TempDirs) RemoveAll() error {
	return os.RemoveAll(t.Root)
}

// this must not touch any shared mutable state, or take the lock
func (t *TempDirs) cleanOld() {
	if t.maxAge <= 0 {
		return
	}
	all, _ := filepath.Glob(filepath.Join(t.Root, "*"))
	now := time.Now().UnixNano()
	threshold := t.maxAge.Nanoseconds()
	for _, fn := range all {
		base := filepath.Base(fn)
		for i := 0; i < len(base); i++ {
			if base[i] == '-' {
				base = base[:i]
				break
			}
		}
		createdAt, err := strconv.ParseInt(base, 10, 64)
		if err == nil && now-createdAt > threshold {
			os.RemoveAll(fn)
		}
	}
}
