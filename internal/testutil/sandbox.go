package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Sandbox is a throwaway directory tests can write config files and
// fixtures into without touching the working directory.
type Sandbox struct {
	Root string
}

// NewSandbox creates the backing temp directory and returns a Sandbox
// rooted at it.
func NewSandbox() (*Sandbox, error) {
	root, err := os.MkdirTemp("", "ton_gmp_sandbox")
	if err != nil {
		return nil, err
	}
	return &Sandbox{Root: root}, nil
}

// Path joins name onto the sandbox root.
func (s *Sandbox) Path(name string) string {
	return filepath.Join(s.Root, name)
}

// WriteFile writes data to name under the sandbox root with perm.
func (s *Sandbox) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(s.Path(name), data, perm)
}

// ReadFile reads name back from under the sandbox root.
func (s *Sandbox) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

// Cleanup deletes the sandbox root and everything under it.
func (s *Sandbox) Cleanup() error {
	return os.RemoveAll(s.Root)
}
