// Package normalization maps loosely written enum values from config files
// and requests onto typed constants.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	clean        Func
	validValues  map[string]T
	defaultValue T
	validKeys    []string
}

// Func cleans raw input before lookup.
type Func func(string) string

// Default lower-cases and trims input.
func Default(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Identifier is Default with '-' and ' ' folded into '_'.
func Identifier(s string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(Default(s))
}

// New creates a normalizer over values using Default cleaning. Aliases are
// expressed as extra keys mapping to the same value.
func New[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	return WithFunc(values, defaultValue, Default)
}

// WithFunc creates a normalizer with custom cleaning.
func WithFunc[T comparable](values map[string]T, defaultValue T, clean Func) *Normalizer[T] {
	n := &Normalizer[T]{
		clean:        clean,
		validValues:  make(map[string]T, len(values)),
		defaultValue: defaultValue,
		validKeys:    make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := clean(k)
		n.validValues[key] = v
		n.validKeys = append(n.validKeys, key)
	}
	sort.Strings(n.validKeys)
	return n
}

// Normalize returns the matching value or the default.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.validValues[n.clean(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// Parse returns the matching value or an error listing the valid keys.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.validValues[n.clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.validKeys)
}

// ValidKeys returns all accepted keys, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}
