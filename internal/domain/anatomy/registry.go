package anatomy

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// Built-in layout ids.
const (
	LayoutDetailed = "detailed"
	LayoutSimple   = "simple"
)

//go:embed layouts/*.yaml
var builtinLayouts embed.FS

// ParseLayout decodes and validates one YAML layout document. Unknown keys are
// rejected.
func ParseLayout(data []byte) (*Layout, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLayoutInvalid, "decode layout")
	}
	if err := l.compile(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Registry holds the layouts known to the process: the embedded ones plus any
// *.yaml files in an optional directory, which override embedded layouts with
// the same id. It is safe for concurrent use.
type Registry struct {
	dir       string
	defaultID string

	mu      sync.RWMutex
	layouts map[string]*Layout
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDirectory adds an external layout directory.
func WithDirectory(dir string) RegistryOption {
	return func(r *Registry) { r.dir = dir }
}

// WithDefaultLayout sets the id returned by Default. It defaults to detailed,
// the most complete variant.
func WithDefaultLayout(id string) RegistryOption {
	return func(r *Registry) {
		if id != "" {
			r.defaultID = id
		}
	}
}

// NewRegistry loads all layouts. It fails when any file is invalid or the
// default id is unknown.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{defaultID: LayoutDetailed}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustDefaultRegistry returns a registry of the embedded layouts only. It
// panics if they fail to load, which would be a build defect.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(fmt.Sprintf("anatomy: embedded layouts: %v", err))
	}
	return r
}

// Reload re-reads every layout and swaps them in atomically. On error the
// previous set stays active.
func (r *Registry) Reload() error {
	layouts := make(map[string]*Layout)
	if err := loadFS(builtinLayouts, "layouts", layouts); err != nil {
		return err
	}
	if r.dir != "" {
		if err := loadFS(os.DirFS(r.dir), ".", layouts); err != nil {
			return err
		}
	}
	if _, ok := layouts[r.defaultID]; !ok {
		return errors.New(errors.ErrCodeLayoutNotFound, "default layout not found").WithDetail("id=" + r.defaultID)
	}

	r.mu.Lock()
	r.layouts = layouts
	r.mu.Unlock()
	return nil
}

func loadFS(fsys fs.FS, dir string, into map[string]*Layout) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeLayoutInvalid, "read layout directory")
	}
	for _, e := range entries {
		if e.IsDir() || !isLayoutFile(e.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeLayoutInvalid, "read layout file").WithDetail(e.Name())
		}
		l, err := ParseLayout(data)
		if err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "load layout").WithDetail(e.Name())
		}
		into[l.ID] = l
	}
	return nil
}

func isLayoutFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Get returns the layout with the given id; an empty id yields the default.
func (r *Registry) Get(id string) (*Layout, error) {
	if id == "" {
		return r.Default(), nil
	}
	r.mu.RLock()
	l, ok := r.layouts[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout not found").WithDetail("id=" + id)
	}
	return l, nil
}

// Default returns the default layout.
func (r *Registry) Default() *Layout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.layouts[r.defaultID]
}

// DefaultID returns the id of the default layout.
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// List returns all layouts sorted by id.
func (r *Registry) List() []*Layout {
	r.mu.RLock()
	out := make([]*Layout, 0, len(r.layouts))
	for _, l := range r.layouts {
		out = append(out, l)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Watch reloads the registry whenever a layout file in the external
// directory is written, created, removed or renamed, and reports every
// reload result to onReload. It blocks until ctx is done.
func (r *Registry) Watch(ctx context.Context, onReload func(error)) error {
	if r.dir == "" {
		return errors.New(errors.ErrCodeBadRequest, "no layout directory configured")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "create layout watcher")
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "watch layout directory").WithDetail(r.dir)
	}

	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&relevant == 0 || !isLayoutFile(ev.Name) {
				continue
			}
			err := r.Reload()
			if onReload != nil {
				onReload(err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onReload != nil {
				onReload(errors.Wrap(err, errors.ErrCodeInternal, "layout watcher"))
			}
		}
	}
}
