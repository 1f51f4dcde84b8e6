package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mist/internal/shared"
)

// ColorMode selects terminal color output.
type ColorMode string

const (
	ColorAuto  ColorMode = "auto"
	ColorOff   ColorMode = "off"
	ColorForce ColorMode = "force"
)

// ParseColorMode accepts auto, off or force. An empty value means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorOff, ColorForce:
		return mode, nil
	}
	return "", fmt.Errorf("%w: invalid color mode %q", shared.ErrConfiguration, s)
}

// Rate is a call budget per period.
type Rate struct {
	Calls  int
	Period time.Duration
}

func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Calls, r.Period)
}

// ParseRate parses values like "10/20s".
func ParseRate(s string) (Rate, error) {
	calls, period, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rate{}, fmt.Errorf("%w: rate %q must look like 10/20s", shared.ErrConfiguration, s)
	}
	n, err := strconv.Atoi(calls)
	if err != nil || n <= 0 {
		return Rate{}, fmt.Errorf("%w: rate %q has an invalid call count", shared.ErrConfiguration, s)
	}
	d, err := time.ParseDuration(period)
	if err != nil || d <= 0 {
		return Rate{}, fmt.Errorf("%w: rate %q has an invalid period", shared.ErrConfiguration, s)
	}
	return Rate{Calls: n, Period: d}, nil
}

// ParseBool accepts the git-config spellings yes/no, on/off, true/false and 1/0.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on", "true", "1":
		return true, nil
	case "no", "off", "false", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", shared.ErrConfiguration, s)
}

// Settings is the typed form of the core section, resolved once per invocation.
type Settings struct {
	Debug     bool
	Verbose   bool
	Sound     bool
	Color     ColorMode
	Editor    string
	LogFile   string
	Workers   int
	RateLimit Rate
}

// Resolve reads core settings from the effective view, falling back to defaults for the
// worker count and the rate limit.
func Resolve(v *View, defaults *shared.Defaults) (Settings, error) {
	var (
		s   Settings
		err error
	)

	bools := []struct {
		key Key
		dst *bool
	}{
		{KeyDebug, &s.Debug},
		{KeyVerbose, &s.Verbose},
		{KeySound, &s.Sound},
	}
	for _, b := range bools {
		if *b.dst, err = ParseBool(v.Lookup(b.key, "false")); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", b.key, err)
		}
	}

	if s.Color, err = ParseColorMode(v.Lookup(KeyColor, "auto")); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", KeyColor, err)
	}

	s.Editor = v.Lookup(KeyEditor, "")
	s.LogFile = v.Lookup(KeyLogFile, "")

	s.Workers = defaults.Workers.Max
	if raw, ok := v.Get(KeyWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return Settings{}, fmt.Errorf("%s: %w: %q is not a worker count", KeyWorkers, shared.ErrConfiguration, raw)
		}
		if n > 0 {
			s.Workers = n
		}
	}

	s.RateLimit = Rate{
		Calls:  defaults.RateLimit.MaxCalls,
		Period: time.Duration(defaults.RateLimit.PeriodSeconds) * time.Second,
	}
	if raw, ok := v.Get(KeyRateLimit); ok {
		if s.RateLimit, err = ParseRate(raw); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", KeyRateLimit, err)
		}
	}

	return s, nil
}
