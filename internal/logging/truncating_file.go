// Package logging provides the debug-log writer and slog setup shared by the
// HTTP and command surfaces.
package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// DefaultMaxSize is the size past which TruncatingFile restarts the log,
// matching the "rolling; truncated past 5 MB" on-disk layout contract.
const DefaultMaxSize = 5 * 1024 * 1024

// TruncatingFile is an io.WriteCloser for ~/.deco/debug.log. Unlike a
// numbered-backup rotator, it simply truncates and restarts once the file
// would exceed maxSize: debug.log is meant to answer "what just happened",
// not to be an audit trail, so keeping old backups around buys nothing.
type TruncatingFile struct {
	path    string
	maxSize int64

	mu   sync.Mutex
	file *os.File
	size int64
}

// Option configures a TruncatingFile.
type Option func(*TruncatingFile)

// WithMaxSize overrides DefaultMaxSize.
func WithMaxSize(size int64) Option {
	return func(t *TruncatingFile) {
		t.maxSize = size
	}
}

// New creates or appends to the debug log at path.
func New(path string, opts ...Option) (*TruncatingFile, error) {
	t := &TruncatingFile{path: path, maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(t)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := t.openFile(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TruncatingFile) openFile() error {
	file, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	t.file = file
	t.size = info.Size()
	return nil
}

// Write implements io.Writer. Truncates the file in place when the write
// would push it past maxSize, then writes the new record into the empty file.
func (t *TruncatingFile) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.size+int64(len(p)) > t.maxSize {
		if err := t.truncate(); err != nil {
			return 0, err
		}
	}

	n, err := t.file.Write(p)
	t.size += int64(n)
	return n, err
}

func (t *TruncatingFile) truncate() error {
	if err := t.file.Truncate(0); err != nil {
		return err
	}
	if _, err := t.file.Seek(0, 0); err != nil {
		return err
	}
	t.size = 0
	return nil
}

// Close closes the underlying file.
func (t *TruncatingFile) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}

// Setup installs a slog.Logger writing text records to both the debug log
// file (if provided) and stderr, and sets it as slog's default.
func Setup(debugLogPath string, debug bool) (*TruncatingFile, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var file *TruncatingFile
	var err error
	if debugLogPath != "" {
		file, err = New(debugLogPath)
		if err != nil {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil, err
		}
	}

	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})}
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}))
	}

	slog.SetDefault(slog.New(&multiHandler{handlers: handlers}))
	return file, nil
}

// multiHandler fans out log records to every wrapped handler.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
