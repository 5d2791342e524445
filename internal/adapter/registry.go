package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// ErrUnknown is returned for an adapter name nobody registered.
var ErrUnknown = errors.New("unknown adapter")

// Definition describes an adapter in YAML:
//
//	name: frwiktionary
//	boundary: '^== \{\{langue\|[a-z]+\}\} =='
//	split: '\{\{|\||\}\}'
//	index: 2
//
// An empty boundary falls back to the base pattern and an empty split keeps
// the whole value as the language.
type Definition struct {
	Name     string `yaml:"name" json:"name"`
	Boundary string `yaml:"boundary" json:"boundary,omitempty"`
	Split    string `yaml:"split" json:"split,omitempty"`
	Index    int    `yaml:"index" json:"index,omitempty"`
}

func (d Definition) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) != value.(string) {
				return validation.NewError("adapter.name_space", "must not have surrounding spaces")
			}
			return nil
		})),
		validation.Field(&d.Boundary, validation.By(compiles)),
		validation.Field(&d.Split, validation.By(compiles)),
		validation.Field(&d.Index, validation.Min(0)),
	)
}

func compiles(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := regexp.Compile(s); err != nil {
		return validation.NewError("adapter.bad_regexp", err.Error())
	}
	return nil
}

// Build compiles the definition into an Adapter.
func (d Definition) Build() (Adapter, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("adapter %q: %w", d.Name, err)
	}
	a := &splitAdapter{name: d.Name, boundary: baseBoundary, index: d.Index}
	if d.Boundary != "" {
		a.boundary = regexp.MustCompile(d.Boundary)
	}
	if d.Split != "" {
		a.split = regexp.MustCompile(d.Split)
	}
	return a, nil
}

// Registry holds adapters by name. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns a registry preloaded with the built-in adapters.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range []Adapter{Base(), DEWiktionary(), PLWiktionary()} {
		r.adapters[a.Name()] = a
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) error {
	if a == nil || a.Name() == "" {
		return fmt.Errorf("adapter must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
	return nil
}

// ForName returns the named adapter. An empty name selects the base adapter.
func (r *Registry) ForName(name string) (Adapter, error) {
	if name == "" {
		name = BaseName
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return a, nil
}

// List returns the registered adapters sorted by name.
func (r *Registry) List() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// LoadFile registers every definition in a YAML file. The file holds either
// a single definition or a list of them.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		var single Definition
		if err := yaml.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("parsing YAML: %w", err)
		}
		defs = []Definition{single}
	}

	for _, d := range defs {
		a, err := d.Build()
		if err != nil {
			return err
		}
		if err := r.Register(a); err != nil {
			return fmt.Errorf("registering adapter: %w", err)
		}
	}
	return nil
}

// LoadDirectory loads every .yaml and .yml file in dir. A missing directory
// loads nothing.
func (r *Registry) LoadDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, name)); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading adapters: %s", strings.Join(loadErrors, "; "))
	}
	return nil
}
