// Package config implements the layered git-style configuration store.
//
// Three layers are read in increasing precedence: the user's global file, the project's
// .mist/config and a forced layer built from command-line flags. Embedded defaults sit below
// all of them. The effective view is recomputed on every read so writes to any layer are
// visible immediately.
package config

import (
	"errors"
	"maps"
	"slices"

	"github.com/desertthunder/mist/internal/shared"
)

// Store owns the three configuration layers.
type Store struct {
	Global  *Layer
	Project *Layer
	Forced  *Layer

	base map[string]string
}

// NewStore creates a store over the given files. projectPath may be empty when the working
// directory is not a project.
func NewStore(defaults *shared.Defaults, globalPath, projectPath string) *Store {
	base := map[string]string{}
	if defaults != nil {
		for k, v := range defaults.Core {
			base[NewKey("core", "", k).String()] = v
		}
	}
	return &Store{
		Global:  NewLayer(ScopeGlobal, globalPath),
		Project: NewLayer(ScopeProject, projectPath),
		Forced:  NewLayer(ScopeForced, ""),
		base:    base,
	}
}

// Load reads the global layer and, when a project path is set, the project layer.
//
// It returns [shared.ErrNotAProject] if the project file is missing; the global layer is
// still loaded in that case.
func (s *Store) Load() error {
	if err := s.Global.Load(); err != nil {
		return err
	}
	if s.Project.Path() == "" {
		return shared.ErrNotAProject
	}
	return s.Project.Load()
}

// HasProject reports whether a project layer is attached.
func (s *Store) HasProject() bool {
	return s.Project.Path() != ""
}

// SetForced overrides key for this invocation only.
func (s *Store) SetForced(key Key, value string) {
	s.Forced.Set(key, value)
}

// Layer returns the layer for scope.
func (s *Store) Layer(scope Scope) (*Layer, error) {
	switch scope {
	case ScopeGlobal:
		return s.Global, nil
	case ScopeProject:
		if !s.HasProject() {
			return nil, shared.ErrNotAProject
		}
		return s.Project, nil
	case ScopeForced:
		return s.Forced, nil
	}
	return nil, errors.New("unknown scope")
}

// Effective merges defaults, global, project and forced layers, later layers winning.
func (s *Store) Effective() *View {
	v := &View{values: map[string]string{}}
	for _, k := range slices.Sorted(maps.Keys(s.base)) {
		v.put(k, s.base[k])
	}
	for _, layer := range []*Layer{s.Global, s.Project, s.Forced} {
		for _, e := range layer.Entries() {
			v.put(e.Key.String(), e.Value)
		}
	}
	return v
}

// View is a read-only snapshot of the merged configuration.
type View struct {
	values map[string]string
	order  []string
}

func (v *View) put(key, value string) {
	if _, ok := v.values[key]; !ok {
		v.order = append(v.order, key)
	}
	v.values[key] = value
}

// Get returns the effective value of key.
func (v *View) Get(key Key) (string, bool) {
	val, ok := v.values[key.String()]
	return val, ok
}

// Lookup returns the effective value of key, or fallback when it is unset.
func (v *View) Lookup(key Key, fallback string) string {
	if val, ok := v.Get(key); ok {
		return val
	}
	return fallback
}

// Entries lists every effective key=value pair in first-seen order.
func (v *View) Entries() []Entry {
	entries := make([]Entry, 0, len(v.order))
	for _, k := range v.order {
		key, err := ParseKey(k)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: v.values[k]})
	}
	return entries
}
