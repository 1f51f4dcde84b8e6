// Package remotes manages named remotes stored in the project configuration layer
// and the pointer to the current remote.
package remotes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mist/internal/config"
	"github.com/desertthunder/mist/internal/models"
	"github.com/desertthunder/mist/internal/shared"
)

const section = "remote"

// Registry performs CRUD over remotes. Every mutation is saved to the project layer immediately.
type Registry struct {
	layer       *config.Layer
	pointerPath string
	logger      *log.Logger
}

// NewRegistry creates a registry over a loaded project layer.
func NewRegistry(layer *config.Layer, pointerPath string, logger *log.Logger) *Registry {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Registry{layer: layer, pointerPath: pointerPath, logger: logger}
}

func urlKey(name string) config.Key {
	return config.NewKey(section, name, "url")
}

// Exists reports whether name is a configured remote.
func (r *Registry) Exists(name string) bool {
	return r.layer.HasSubsection(section, name)
}

// Add registers a new remote.
func (r *Registry) Add(name, url string) (models.Remote, error) {
	if r.Exists(name) {
		return models.Remote{}, fmt.Errorf("%w: %q", shared.ErrRemoteExists, name)
	}
	remote, err := r.normalize(name, url)
	if err != nil {
		return models.Remote{}, err
	}

	r.layer.AddSubsection(section, name)
	r.layer.Set(urlKey(name), remote.URL)
	if err := r.layer.Save(); err != nil {
		return models.Remote{}, err
	}
	r.logger.Info("added remote", "remote", name, "url", remote.URL)
	return remote, nil
}

// SetURL changes the URL of an existing remote.
func (r *Registry) SetURL(name, url string) (models.Remote, error) {
	if _, err := r.Ensure(name); err != nil {
		return models.Remote{}, err
	}
	remote, err := r.normalize(name, url)
	if err != nil {
		return models.Remote{}, err
	}

	r.layer.Set(urlKey(name), remote.URL)
	if err := r.layer.Save(); err != nil {
		return models.Remote{}, err
	}
	return remote, nil
}

// Remove deletes a remote. The current-remote pointer is cleared if it referenced it.
func (r *Registry) Remove(name string) error {
	if !r.layer.RemoveSubsection(section, name) {
		return fmt.Errorf("%w: %q", shared.ErrRemoteNotFound, name)
	}
	if err := r.layer.Save(); err != nil {
		return err
	}

	if current, err := r.Current(); err == nil && current == name {
		if err := os.Remove(r.pointerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to clear current remote: %w", err)
		}
	}
	return nil
}

// Ensure returns the named remote or [shared.ErrRemoteNotFound].
func (r *Registry) Ensure(name string) (models.Remote, error) {
	if !r.Exists(name) {
		return models.Remote{}, fmt.Errorf("%w: %q", shared.ErrRemoteNotFound, name)
	}
	url, _ := r.layer.Get(urlKey(name))
	return models.Remote{Name: name, URL: url}, nil
}

// List returns remotes in the order they appear in the project config.
func (r *Registry) List() []models.Remote {
	names := r.layer.Subsections(section)
	remotes := make([]models.Remote, 0, len(names))
	for _, name := range names {
		url, _ := r.layer.Get(urlKey(name))
		remotes = append(remotes, models.Remote{Name: name, URL: url})
	}
	return remotes
}

// SetCurrent points the project at an existing remote.
func (r *Registry) SetCurrent(name string) error {
	if _, err := r.Ensure(name); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.pointerPath), 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := os.WriteFile(r.pointerPath, []byte(name+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write current remote: %w", err)
	}
	return nil
}

// Current returns the name of the current remote or [shared.ErrNoUpstream].
func (r *Registry) Current() (string, error) {
	data, err := os.ReadFile(r.pointerPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", shared.ErrNoUpstream
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current remote: %w", err)
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", shared.ErrNoUpstream
	}
	return name, nil
}

// Resolve returns the named remote, or the current remote when name is empty.
func (r *Registry) Resolve(name string) (models.Remote, error) {
	if name == "" {
		current, err := r.Current()
		if err != nil {
			return models.Remote{}, err
		}
		name = current
	}
	return r.Ensure(name)
}

func (r *Registry) normalize(name, url string) (models.Remote, error) {
	normalized, stripped, err := shared.NormalizeURL(url)
	if err != nil {
		return models.Remote{}, err
	}
	if len(stripped) > 0 {
		r.logger.Warn("stripped tracking parameters from url", "remote", name, "params", strings.Join(stripped, ","))
	}

	remote := models.Remote{Name: name, URL: normalized}
	if err := remote.Validate(); err != nil {
		return models.Remote{}, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return remote, nil
}
