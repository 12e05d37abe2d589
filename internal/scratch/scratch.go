// Package scratch manages per-request scratch directories.
//
// Every request that touches the filesystem acquires its own directory,
// named by a random token, and releases it when the response is done. Files
// of concurrent requests never share a path, whatever their inputs.
package scratch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dirPrefix = "req-"

// Manager creates scratch scopes under a root directory
type Manager struct {
	root   string
	logger *zap.Logger
}

// NewManager creates the root directory if needed. An empty root selects
// a "voicechat" directory inside the OS temp dir.
func NewManager(root string, logger *zap.Logger) (*Manager, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "voicechat")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch root: %w", err)
	}
	return &Manager{root: root, logger: logger}, nil
}

// Root returns the directory all scopes are created in
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a fresh scope. The caller must Release it.
func (m *Manager) Acquire() (*Scope, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.root, dirPrefix+id)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Scope{id: id, dir: dir, logger: m.logger}, nil
}

// Scope is the scratch directory of one request
type Scope struct {
	id     string
	dir    string
	logger *zap.Logger

	once       sync.Once
	releaseErr error
}

// ID returns the unique token of the scope
func (s *Scope) ID() string { return s.id }

// Dir returns the scope directory
func (s *Scope) Dir() string { return s.dir }

// Path returns the location of name inside the scope. Only the base name
// is kept and characters outside [A-Za-z0-9._-] are replaced.
func (s *Scope) Path(name string) string {
	return filepath.Join(s.dir, SanitizeName(name))
}

// Create opens a new file inside the scope for writing
func (s *Scope) Create(name string) (*os.File, error) {
	return os.OpenFile(s.Path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
}

// WriteFrom copies r into a new file inside the scope and returns its path
// and size. The path is returned on a failed copy too, so the partial file
// can be removed.
func (s *Scope) WriteFrom(name string, r io.Reader) (string, int64, error) {
	f, err := s.Create(name)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return f.Name(), n, err
}

// Remove deletes a single file of the scope ahead of Release
func (s *Scope) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Error cleaning up file", zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Debug("Cleaned up file", zap.String("path", path))
}

// Release removes the scope directory with everything in it. It is safe to
// call more than once; only the first call does work.
func (s *Scope) Release() error {
	s.once.Do(func() {
		if err := os.RemoveAll(s.dir); err != nil {
			s.releaseErr = err
			s.logger.Warn("Error cleaning up scratch directory",
				zap.String("scope", s.id),
				zap.Error(err))
			return
		}
		s.logger.Debug("Cleaned up scratch directory", zap.String("scope", s.id))
	})
	return s.releaseErr
}

// SanitizeName reduces an untrusted filename to a safe base name
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	clean := strings.TrimLeft(b.String(), ".")
	if clean == "" {
		return "upload"
	}
	return clean
}
