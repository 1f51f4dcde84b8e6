package config

import (
	"fmt"
	"strings"

	"github.com/desertthunder/mist/internal/shared"
)

// Key addresses one option: section, optional subsection, and option name.
//
// Section and Name are case-insensitive and stored lowercased; Subsection keeps its case.
type Key struct {
	Section    string
	Subsection string
	Name       string
}

// NewKey builds a normalized key.
func NewKey(section, subsection, name string) Key {
	return Key{
		Section:    strings.ToLower(section),
		Subsection: subsection,
		Name:       strings.ToLower(name),
	}
}

// ParseKey parses a dotted key such as core.debug or remote.origin.url.
//
// Everything between the first and the last dot is the subsection, so subsection names may contain dots.
func ParseKey(s string) (Key, error) {
	first := strings.Index(s, ".")
	last := strings.LastIndex(s, ".")
	if first <= 0 || last == len(s)-1 {
		return Key{}, fmt.Errorf("%w: key %q does not contain a section", shared.ErrInvalidArgument, s)
	}
	if first == last {
		return NewKey(s[:first], "", s[last+1:]), nil
	}
	return NewKey(s[:first], s[first+1:last], s[last+1:]), nil
}

// String renders the dotted form of the key.
func (k Key) String() string {
	if k.Subsection == "" {
		return k.Section + "." + k.Name
	}
	return k.Section + "." + k.Subsection + "." + k.Name
}

// Entry is a key with its value.
type Entry struct {
	Key   Key
	Value string
}

var (
	KeyDebug     = NewKey("core", "", "debug")
	KeyVerbose   = NewKey("core", "", "verbose")
	KeySound     = NewKey("core", "", "sound")
	KeyColor     = NewKey("core", "", "color")
	KeyEditor    = NewKey("core", "", "editor")
	KeyLogFile   = NewKey("core", "", "logfile")
	KeyWorkers   = NewKey("core", "", "workers")
	KeyRateLimit = NewKey("core", "", "ratelimit")
)
