package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed defaults.toml
var defaultsConf []byte

// TitlePlaceholder is returned by title resolution when the upstream throttles us.
// It is never written to the title cache.
const TitlePlaceholder = "<unknown title>"

// Defaults are the built-in values compiled into the binary.
type Defaults struct {
	Layout    LayoutDefaults    `toml:"layout"`
	RateLimit RateLimitDefaults `toml:"ratelimit"`
	Workers   WorkerDefaults    `toml:"workers"`
	Core      map[string]string `toml:"core"`
}

// LayoutDefaults names the on-disk files of a project.
type LayoutDefaults struct {
	ProjectDir    string `toml:"project_dir"`
	GlobalConfig  string `toml:"global_config"`
	DefaultOrigin string `toml:"default_origin"`
}

// RateLimitDefaults bound outbound metadata calls.
type RateLimitDefaults struct {
	MaxCalls      int `toml:"max_calls"`
	PeriodSeconds int `toml:"period_seconds"`
}

// WorkerDefaults bound the fetch worker pool.
type WorkerDefaults struct {
	Max          int     `toml:"max"`
	DispatchRate float64 `toml:"dispatch_rate"`
}

// DefaultDefaults decodes the embedded defaults file.
func DefaultDefaults() *Defaults {
	var d Defaults
	if err := toml.Unmarshal(defaultsConf, &d); err != nil {
		panic(fmt.Sprintf("failed to parse embedded defaults: %v", err))
	}
	return &d
}

// GlobalConfigPath resolves the global configuration file.
//
// MIST_GLOBAL_CONFIG wins over the home directory location.
func (d *Defaults) GlobalConfigPath() (string, error) {
	if p := os.Getenv("MIST_GLOBAL_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, d.Layout.GlobalConfig), nil
}
