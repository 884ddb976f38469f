// Package credentials stores the control-plane endpoints offlinecachectl
// talks to, one named context per daemon.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/marmos91/offlinecache/internal/xdg"
)

const (
	// DefaultConfigDir is the directory under $XDG_CONFIG_HOME.
	DefaultConfigDir = "offlinecachectl"
	// ConfigFileName is the name of the contexts file.
	ConfigFileName = "contexts.json"

	filePermissions = 0600
	dirPermissions  = 0700
)

var (
	// ErrNoCurrentContext indicates no context is selected.
	ErrNoCurrentContext = errors.New("no current context set")
	// ErrContextNotFound indicates the named context does not exist.
	ErrContextNotFound = errors.New("context not found")
)

// Context is one daemon's control-plane endpoint.
type Context struct {
	ServerURL string `json:"server_url"`
	// Token is the control-plane Bearer token, if the daemon requires one.
	Token string `json:"token,omitempty"`
}

// file is the on-disk layout.
type file struct {
	CurrentContext string              `json:"current_context"`
	Contexts       map[string]*Context `json:"contexts"`
}

// Store reads and writes the contexts file.
type Store struct {
	path string
	data file
}

// NewStore opens the contexts file under $XDG_CONFIG_HOME (or ~/.config).
// A missing file yields an empty store.
func NewStore() (*Store, error) {
	path, err := defaultPath()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(path)
}

// NewStoreAt opens the contexts file at path.
func NewStoreAt(path string) (*Store, error) {
	s := &Store{path: path, data: file{Contexts: make(map[string]*Context)}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if s.data.Contexts == nil {
		s.data.Contexts = make(map[string]*Context)
	}
	return s, nil
}

func defaultPath() (string, error) {
	dir, err := xdg.ConfigDir(DefaultConfigDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, filePermissions)
}

// Current returns the selected context and its name.
func (s *Store) Current() (string, *Context, error) {
	name := s.data.CurrentContext
	if name == "" {
		return "", nil, ErrNoCurrentContext
	}
	ctx, ok := s.data.Contexts[name]
	if !ok {
		return name, nil, ErrContextNotFound
	}
	return name, ctx, nil
}

// CurrentName returns the selected context name, or "".
func (s *Store) CurrentName() string {
	return s.data.CurrentContext
}

// Get returns the named context.
func (s *Store) Get(name string) (*Context, error) {
	ctx, ok := s.data.Contexts[name]
	if !ok {
		return nil, ErrContextNotFound
	}
	return ctx, nil
}

// Names returns the context names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.data.Contexts))
	for name := range s.data.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set creates or replaces a context. The first context becomes current.
func (s *Store) Set(name string, ctx *Context) error {
	if name == "" {
		return errors.New("context name is required")
	}
	s.data.Contexts[name] = ctx
	if s.data.CurrentContext == "" {
		s.data.CurrentContext = name
	}
	return s.save()
}

// Use selects the named context.
func (s *Store) Use(name string) error {
	if _, ok := s.data.Contexts[name]; !ok {
		return ErrContextNotFound
	}
	s.data.CurrentContext = name
	return s.save()
}

// Delete removes a context, clearing the selection if it was current.
func (s *Store) Delete(name string) error {
	if _, ok := s.data.Contexts[name]; !ok {
		return ErrContextNotFound
	}
	delete(s.data.Contexts, name)
	if s.data.CurrentContext == name {
		s.data.CurrentContext = ""
	}
	return s.save()
}

// Path returns the contexts file path.
func (s *Store) Path() string {
	return s.path
}
