package filestore

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MemFileSystem is an in-memory FileSystem with injectable failures
type MemFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte

	ReadFileError  error
	WriteFileError error
	RenameError    error
}

// NewMemFileSystem creates an empty in-memory file system
func NewMemFileSystem() *MemFileSystem {
	return &MemFileSystem{files: make(map[string][]byte)}
}

type memFileInfo struct {
	name string
	size int64
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() fs.FileMode  { return 0644 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() interface{}   { return nil }

func (m *MemFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return memFileInfo{name: filepath.Base(name), size: int64(len(data))}, nil
}

func (m *MemFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileError != nil {
		return nil, m.ReadFileError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (m *MemFileSystem) WriteFile(name string, data []byte, _ fs.FileMode) error {
	if m.WriteFileError != nil {
		return m.WriteFileError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *MemFileSystem) Rename(oldpath, newpath string) error {
	if m.RenameError != nil {
		return m.RenameError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[oldpath]
	if !ok {
		return os.ErrNotExist
	}
	m.files[newpath] = data
	delete(m.files, oldpath)
	return nil
}

func (m *MemFileSystem) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return os.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

func (m *MemFileSystem) MkdirAll(string, fs.FileMode) error { return nil }

// Exists reports whether a file is present
func (m *MemFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[name]
	return ok
}

// HeldLock is a FileLock that reports itself held by another process
// until Release is called
type HeldLock struct {
	mu       sync.Mutex
	held     bool
	Attempts int
}

func (l *HeldLock) TryLockContext(ctx context.Context, retry time.Duration) (bool, error) {
	return l.try()
}

func (l *HeldLock) TryRLockContext(ctx context.Context, retry time.Duration) (bool, error) {
	return l.try()
}

func (l *HeldLock) try() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Attempts++
	return !l.held, nil
}

func (l *HeldLock) Unlock() error { return nil }

// Hold makes every lock attempt fail until Release
func (l *HeldLock) Hold() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = true
}

// Release lets lock attempts succeed again
func (l *HeldLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
}

// HeldLockFactory hands out a single shared HeldLock
type HeldLockFactory struct {
	Lock *HeldLock
}

func (f HeldLockFactory) New(string) FileLock { return f.Lock }
