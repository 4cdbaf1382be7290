// Package workspace provides per-request scratch directories for uploaded
// and generated workbooks.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrReleased is returned when a file is requested from a released workspace.
var ErrReleased = errors.New("workspace already released")

// Workspace is a private temp directory owned by a single request.
// Release removes it together with everything created inside.
type Workspace struct {
	dir string

	mu       sync.Mutex
	released bool
}

// New creates a workspace under parent, or under os.TempDir() when parent is empty.
func New(parent string) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	dir := filepath.Join(parent, "sheetedit-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Create opens a new file inside the workspace. Only the base of name is used.
func (w *Workspace) Create(name string) (*os.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return nil, ErrReleased
	}

	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		base = "file"
	}
	f, err := os.OpenFile(filepath.Join(w.dir, base), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", base, err)
	}
	return f, nil
}

// Release deletes the workspace. It is safe to call more than once.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return nil
	}
	w.released = true
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("release workspace: %w", err)
	}
	return nil
}
