// Package settings provides lazily loaded, write-through persisted settings.
package settings

import (
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Store is a persisted string key-value store.
type Store interface {
	Has(key string) (bool, error)
	GetString(key string) (string, error)
	SetString(key, value string) error
}

// Value is a single persisted scalar.
// The stored value is read once, on first access, and every write is saved immediately.
type Value[T any] struct {
	store  Store
	key    string
	value  T
	prev   T
	loaded bool

	normalize func(T) T
}

// NewValue creates a value bound to key with the given default.
func NewValue[T any](store Store, key string, defaultValue T) *Value[T] {
	return &Value[T]{
		store: store,
		key:   key,
		value: defaultValue,
		prev:  defaultValue,
	}
}

// WithNormalize makes every loaded or set value pass through fn.
func (v *Value[T]) WithNormalize(fn func(T) T) *Value[T] {
	v.normalize = fn
	v.value = fn(v.value)
	v.prev = v.value
	return v
}

// Key returns the store key.
func (v *Value[T]) Key() string {
	return v.key
}

// Get returns the current value, loading it from the store on first access.
func (v *Value[T]) Get() T {
	if !v.loaded {
		v.load()
		v.loaded = true
	}
	return v.value
}

// Set records the previous value, replaces the value and saves it.
func (v *Value[T]) Set(value T) {
	v.Get()
	v.prev = v.value
	v.value = v.normalized(value)
	v.save()
}

// Prev returns the value held before the last Set.
func (v *Value[T]) Prev() T {
	return v.prev
}

func (v *Value[T]) load() {
	ok, err := v.store.Has(v.key)
	if err != nil {
		zlog.Warn().Msgf("settings: failed to look up %s, using default: %v", v.key, err)
		return
	}
	if !ok {
		v.save()
		return
	}

	raw, err := v.store.GetString(v.key)
	if err != nil {
		zlog.Warn().Msgf("settings: failed to read %s, using default: %v", v.key, err)
		return
	}
	decoded, err := Decode[T](raw)
	if err != nil {
		zlog.Warn().Msgf("settings: corrupt value for %s, using default: %v", v.key, err)
		return
	}
	v.value = v.normalized(decoded)
	if v.normalize != nil {
		before, _ := Encode(decoded)
		after, _ := Encode(v.value)
		if before != after {
			zlog.Warn().Msgf("settings: stored %s=%s is out of range, using %s", v.key, before, after)
		}
	}
}

func (v *Value[T]) normalized(value T) T {
	if v.normalize == nil {
		return value
	}
	return v.normalize(value)
}

func (v *Value[T]) save() {
	raw, err := Encode(v.value)
	if err != nil {
		zlog.Warn().Msgf("settings: failed to encode %s: %v", v.key, err)
		return
	}
	if err := v.store.SetString(v.key, raw); err != nil {
		zlog.Warn().Msgf("settings: failed to save %s: %v", v.key, err)
	}
}

// Encode serializes a scalar as a YAML document without the trailing newline.
func Encode[T any](value T) (string, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal value")
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// Decode parses a scalar produced by Encode.
func Decode[T any](raw string) (T, error) {
	var value T
	if strings.TrimSpace(raw) == "" {
		return value, errors.New("empty value")
	}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return value, errors.Wrap(err, "failed to unmarshal value")
	}
	return value, nil
}
