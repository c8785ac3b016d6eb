package logger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrAlreadyInitialized is returned by Initialize after the first successful call.
var ErrAlreadyInitialized = errors.New("logging already initialized")

// Modes for opening the log file.
const (
	ModeAppend   = "append"
	ModeTruncate = "truncate"
	ModeRotate   = "rotate"
)

var initialized atomic.Bool

// Settings describes the process log file.
type Settings struct {
	Level string
	Mode  string
	File  string
	// Backups is how many rotated files ModeRotate keeps (file.1 ... file.N).
	Backups int
}

// Handle is the process logger. It owns the open log file until Close.
type Handle struct {
	Logger
	path string
	file *os.File

	closeOnce sync.Once
	closeErr  error
}

// Initialize opens the log file described by s and returns the process logger.
// It succeeds once per process; later calls return ErrAlreadyInitialized.
func Initialize(s Settings) (*Handle, error) {
	if !initialized.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInitialized
	}

	h, err := open(s)
	if err != nil {
		initialized.Store(false)
		return nil, err
	}
	return h, nil
}

func open(s Settings) (*Handle, error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(s.File)
	if path == "" {
		return nil, errors.New("log file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	switch strings.ToLower(strings.TrimSpace(s.Mode)) {
	case ModeAppend, "":
		flags |= os.O_APPEND
	case ModeTruncate:
		flags |= os.O_TRUNC
	case ModeRotate:
		backups := s.Backups
		if backups < 1 {
			backups = 1
		}
		if err := rotate(path, backups); err != nil {
			return nil, fmt.Errorf("rotate log file: %w", err)
		}
		flags |= os.O_TRUNC
	default:
		return nil, fmt.Errorf("unknown log mode %q", s.Mode)
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Handle{
		Logger: NewLeveledLogger(f, level),
		path:   path,
		file:   f,
	}, nil
}

// rotate shifts path.N-1 -> path.N ... path -> path.1, dropping anything past backups.
func rotate(path string, backups int) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	for i := backups - 1; i >= 1; i-- {
		if err := moveIfExists(backupName(path, i), backupName(path, i+1)); err != nil {
			return err
		}
	}
	return moveIfExists(path, backupName(path, 1))
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

func moveIfExists(src, dst string) error {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}

// Path returns the log file location.
func (h *Handle) Path() string {
	return h.path
}

// Close flushes and closes the log file. It is safe to call more than once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.Logger = NopLogger{}
		if err := h.file.Sync(); err != nil && !errors.Is(err, os.ErrClosed) {
			h.closeErr = err
		}
		if err := h.file.Close(); err != nil && h.closeErr == nil {
			h.closeErr = err
		}
	})
	return h.closeErr
}
