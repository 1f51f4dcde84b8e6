package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	format "github.com/go-git/go-git/v6/plumbing/format/config"

	"github.com/desertthunder/mist/internal/shared"
)

// Scope identifies one of the configuration layers.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeProject
	ScopeForced
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeProject:
		return "project"
	case ScopeForced:
		return "forced"
	default:
		return "unknown"
	}
}

// Layer is a single configuration file in git-config syntax.
//
// Each layer loads and saves independently. The forced layer has no backing file.
type Layer struct {
	scope Scope
	path  string
	cfg   *format.Config
}

// NewLayer creates an empty layer backed by path.
func NewLayer(scope Scope, path string) *Layer {
	return &Layer{scope: scope, path: path, cfg: format.New()}
}

// Scope returns the layer scope.
func (l *Layer) Scope() Scope { return l.scope }

// Path returns the backing file, empty for the forced layer.
func (l *Layer) Path() string { return l.path }

// Load replaces the in-memory layer with the file contents.
//
// A missing file yields an empty layer, except for the project layer where it means the
// working directory is not a project.
func (l *Layer) Load() error {
	l.cfg = format.New()
	if l.scope == ScopeForced || l.path == "" {
		return nil
	}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		if l.scope == ScopeProject {
			return shared.ErrNotAProject
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s config: %w", l.scope, err)
	}

	if err := format.NewDecoder(bytes.NewReader(data)).Decode(l.cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrConfiguration, l.path, err)
	}
	return nil
}

// Save writes the whole layer back to its file, creating parent directories.
func (l *Layer) Save() error {
	if l.scope == ScopeForced || l.path == "" {
		return fmt.Errorf("%w: %s layer is not persisted", shared.ErrInvalidArgument, l.scope)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := l.encode()
	if err != nil {
		return fmt.Errorf("failed to encode %s config: %w", l.scope, err)
	}

	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s config: %w", l.scope, err)
	}
	return nil
}

// encode writes each section in turn. The encoder drops the header of a section without
// options, so empty sections get theirs written here.
func (l *Layer) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := format.NewEncoder(&buf)
	for _, s := range l.cfg.Sections {
		if len(s.Options) == 0 && len(s.Subsections) == 0 {
			fmt.Fprintf(&buf, "[%s]\n", s.Name)
			continue
		}
		if err := enc.Encode(&format.Config{Sections: format.Sections{s}}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Reset empties the layer in memory.
func (l *Layer) Reset() {
	l.cfg = format.New()
}

// EnsureSection adds an empty section if it does not exist yet.
func (l *Layer) EnsureSection(name string) {
	l.section(name, true)
}

// Get returns the value of key.
func (l *Layer) Get(key Key) (string, bool) {
	opts := l.options(key, false)
	if opts == nil {
		return "", false
	}
	for i := len(*opts) - 1; i >= 0; i-- {
		if strings.EqualFold((*opts)[i].Key, key.Name) {
			return (*opts)[i].Value, true
		}
	}
	return "", false
}

// Set assigns value to key, replacing any existing values.
func (l *Layer) Set(key Key, value string) {
	opts := l.options(key, true)
	for _, o := range *opts {
		if strings.EqualFold(o.Key, key.Name) {
			o.Value = value
			l.dropDuplicates(opts, key.Name)
			return
		}
	}
	*opts = append(*opts, &format.Option{Key: key.Name, Value: value})
}

// Unset removes key and prunes the section or subsection once it is empty.
func (l *Layer) Unset(key Key) bool {
	opts := l.options(key, false)
	if opts == nil {
		return false
	}

	kept := (*opts)[:0]
	removed := false
	for _, o := range *opts {
		if strings.EqualFold(o.Key, key.Name) {
			removed = true
			continue
		}
		kept = append(kept, o)
	}
	*opts = kept

	if removed && len(kept) == 0 {
		l.prune(key)
	}
	return removed
}

// Subsections lists subsection names of section in file order.
func (l *Layer) Subsections(section string) []string {
	s := l.section(section, false)
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Subsections))
	for _, ss := range s.Subsections {
		names = append(names, ss.Name)
	}
	return names
}

// HasSubsection reports whether section contains the named subsection.
func (l *Layer) HasSubsection(section, name string) bool {
	return l.subsection(l.section(section, false), name, false) != nil
}

// AddSubsection creates an empty subsection.
func (l *Layer) AddSubsection(section, name string) {
	l.subsection(l.section(section, true), name, true)
}

// RemoveSubsection deletes a subsection with all of its options.
func (l *Layer) RemoveSubsection(section, name string) bool {
	s := l.section(section, false)
	if s == nil {
		return false
	}
	for i, ss := range s.Subsections {
		if ss.Name == name {
			s.Subsections = append(s.Subsections[:i], s.Subsections[i+1:]...)
			return true
		}
	}
	return false
}

// Entries flattens the layer in file order.
func (l *Layer) Entries() []Entry {
	var entries []Entry
	for _, s := range l.cfg.Sections {
		for _, o := range s.Options {
			entries = append(entries, Entry{Key: NewKey(s.Name, "", o.Key), Value: o.Value})
		}
		for _, ss := range s.Subsections {
			for _, o := range ss.Options {
				entries = append(entries, Entry{Key: NewKey(s.Name, ss.Name, o.Key), Value: o.Value})
			}
		}
	}
	return entries
}

func (l *Layer) section(name string, create bool) *format.Section {
	for _, s := range l.cfg.Sections {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	if !create {
		return nil
	}
	s := &format.Section{Name: strings.ToLower(name)}
	l.cfg.Sections = append(l.cfg.Sections, s)
	return s
}

func (l *Layer) subsection(s *format.Section, name string, create bool) *format.Subsection {
	if s == nil {
		return nil
	}
	for _, ss := range s.Subsections {
		if ss.Name == name {
			return ss
		}
	}
	if !create {
		return nil
	}
	ss := &format.Subsection{Name: name}
	s.Subsections = append(s.Subsections, ss)
	return ss
}

func (l *Layer) options(key Key, create bool) *format.Options {
	s := l.section(key.Section, create)
	if s == nil {
		return nil
	}
	if key.Subsection == "" {
		return &s.Options
	}
	ss := l.subsection(s, key.Subsection, create)
	if ss == nil {
		return nil
	}
	return &ss.Options
}

func (l *Layer) dropDuplicates(opts *format.Options, name string) {
	seen := false
	kept := (*opts)[:0]
	for _, o := range *opts {
		if strings.EqualFold(o.Key, name) {
			if seen {
				continue
			}
			seen = true
		}
		kept = append(kept, o)
	}
	*opts = kept
}

func (l *Layer) prune(key Key) {
	s := l.section(key.Section, false)
	if s == nil {
		return
	}
	if key.Subsection != "" {
		if ss := l.subsection(s, key.Subsection, false); ss != nil && len(ss.Options) == 0 {
			l.RemoveSubsection(key.Section, key.Subsection)
		}
	}
	if len(s.Options) > 0 || len(s.Subsections) > 0 {
		return
	}
	kept := l.cfg.Sections[:0]
	for _, other := range l.cfg.Sections {
		if other != s {
			kept = append(kept, other)
		}
	}
	l.cfg.Sections = kept
}
