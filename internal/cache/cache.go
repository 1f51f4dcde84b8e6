package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const delimiter = ": "

var (
	ErrLoaded    = errors.New("cache already loaded")
	ErrNotLoaded = errors.New("cache not loaded")
	ErrBadKey    = errors.New("invalid cache key")
)

// Codec converts cache values to and from their single-line text form.
type Codec[V any] struct {
	Encode func(V) (string, error)
	Decode func(string) (V, error)
}

// StringCodec stores strings as-is.
func StringCodec() Codec[string] {
	return Codec[string]{
		Encode: func(s string) (string, error) { return s, nil },
		Decode: func(s string) (string, error) { return s, nil },
	}
}

// JSONCodec stores values as compact JSON.
func JSONCodec[V any]() Codec[V] {
	return Codec[V]{
		Encode: func(v V) (string, error) {
			data, err := json.Marshal(v)
			return string(data), err
		},
		Decode: func(s string) (V, error) {
			var v V
			err := json.Unmarshal([]byte(s), &v)
			return v, err
		},
	}
}

// Cache is a key to value map persisted as one "key: value" line per entry.
//
// An instance is loaded at most once, used, then saved, after which it must be loaded again.
// Values matching the skip predicate are returned to callers of [Cache.CachedCall] but never
// stored. The mutex only guards the map; callers own the lifecycle.
type Cache[V any] struct {
	path  string
	codec Codec[V]
	skip  func(V) bool

	mu     sync.Mutex
	loaded bool
	keys   []string
	values map[string]V
}

// New creates an unloaded cache over path.
func New[V any](path string, codec Codec[V], skip func(V) bool) *Cache[V] {
	if skip == nil {
		skip = func(V) bool { return false }
	}
	return &Cache[V]{path: path, codec: codec, skip: skip}
}

// Path returns the backing file.
func (c *Cache[V]) Path() string { return c.path }

// Load reads the backing file. A missing file yields an empty cache.
func (c *Cache[V]) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return fmt.Errorf("%w: %s", ErrLoaded, c.path)
	}

	c.keys = nil
	c.values = make(map[string]V)
	for line, err := range Lines(c.path) {
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", c.path, err)
		}
		key, raw, ok := strings.Cut(line, delimiter)
		if !ok {
			return fmt.Errorf("malformed cache line in %s: %q", c.path, line)
		}
		v, err := c.codec.Decode(unescape(raw))
		if err != nil {
			return fmt.Errorf("failed to decode %q in %s: %w", key, c.path, err)
		}
		c.set(key, v)
	}
	c.loaded = true
	return nil
}

// Save writes every entry in insertion order and unloads the cache.
func (c *Cache[V]) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return fmt.Errorf("%w: %s", ErrNotLoaded, c.path)
	}

	var b strings.Builder
	for _, key := range c.keys {
		raw, err := c.codec.Encode(c.values[key])
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", key, err)
		}
		b.WriteString(key)
		b.WriteString(delimiter)
		b.WriteString(escape(raw))
		b.WriteByte('\n')
	}

	if err := writeFile(c.path, []byte(b.String())); err != nil {
		return err
	}

	c.loaded = false
	c.keys = nil
	c.values = nil
	return nil
}

// Loaded reports whether the cache is between Load and Save.
func (c *Cache[V]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Put stores value under key.
func (c *Cache[V]) Put(key string, value V) error {
	if err := validKey(key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return fmt.Errorf("%w: %s", ErrNotLoaded, c.path)
	}
	c.set(key, value)
	return nil
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// CachedCall returns the value for key, computing and storing it on a miss.
//
// compute runs without the lock held so slow lookups do not block other readers.
func (c *Cache[V]) CachedCall(key string, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	if c.skip(v) {
		return v, nil
	}
	if err := c.Put(key, v); err != nil {
		return v, err
	}
	return v, nil
}

func (c *Cache[V]) set(key string, v V) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = v
}

func validKey(key string) error {
	if key == "" || strings.Contains(key, delimiter) || strings.ContainsAny(key, "\r\n") {
		return fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return nil
}

var (
	escaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)
	unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r")
)

func escape(s string) string   { return escaper.Replace(s) }
func unescape(s string) string { return unescaper.Replace(s) }
