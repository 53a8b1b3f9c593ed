// Package options models core option variables: the keys a core declares,
// their allowed values and the current selection, in a global (per-core) and
// a per-game scope.
package options

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// ErrInvalidValue is returned by Set for a value outside the allowed list.
var ErrInvalidValue = errors.New("value not allowed")

// OptionError reports a request for a key that was never declared.
type OptionError struct {
	Key        string
	Suggestion string
}

func (e *OptionError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("option %q not declared (did you mean %q?)", e.Key, e.Suggestion)
	}
	return fmt.Sprintf("option %q not declared", e.Key)
}

// Option is one declared variable.
type Option struct {
	Key         string
	Description string
	Info        string
	Category    string
	Values      []string
	Value       string
	Default     string
	Visible     bool
}

// Allows reports whether v is an allowed value. An option without a value
// list accepts anything.
func (o *Option) Allows(v string) bool {
	return len(o.Values) == 0 || slices.Contains(o.Values, v)
}

func (o Option) clone() Option {
	o.Values = slices.Clone(o.Values)
	return o
}

// Category groups options in the v2 declaration format.
type Category struct {
	Key         string
	Description string
	Info        string
}

// Store is a keyed option set. Listing is always sorted by key.
type Store struct {
	mu         sync.RWMutex
	options    map[string]*Option
	categories map[string]Category
	// persisted holds loaded values for keys not declared yet.
	persisted map[string]string
	dirty     bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		options:    make(map[string]*Option),
		categories: make(map[string]Category),
		persisted:  make(map[string]string),
	}
}

// Merge adds or updates definitions. A current value already held for a key
// (from an earlier declaration, a Set, or a loaded file) survives when it is
// still allowed; otherwise the definition's default is used.
func (s *Store) Merge(defs []Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, def := range defs {
		if def.Key == "" {
			continue
		}
		next := def.clone()
		if next.Default == "" && len(next.Values) > 0 {
			next.Default = next.Values[0]
		}

		candidate := ""
		if cur, ok := s.options[def.Key]; ok {
			candidate = cur.Value
		} else if v, ok := s.persisted[def.Key]; ok {
			candidate = v
			delete(s.persisted, def.Key)
		}

		if candidate != "" && next.Allows(candidate) {
			next.Value = candidate
		} else {
			next.Value = next.Default
		}
		s.options[def.Key] = &next
	}
	s.dirty = true
}

// MergeCategories records v2 categories.
func (s *Store) MergeCategories(cats []Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cats {
		if c.Key != "" {
			s.categories[c.Key] = c
		}
	}
}

// Categories returns the declared categories sorted by key.
func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Get returns the current value of key.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	opt, ok := s.options[key]
	if !ok {
		return "", &OptionError{Key: key, Suggestion: s.suggestLocked(key)}
	}
	return opt.Value, nil
}

// Lookup returns a copy of the option for key.
func (s *Store) Lookup(key string) (Option, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	opt, ok := s.options[key]
	if !ok {
		return Option{}, false
	}
	return opt.clone(), true
}

// Set changes the current value of a declared key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	opt, ok := s.options[key]
	if !ok {
		return &OptionError{Key: key, Suggestion: s.suggestLocked(key)}
	}
	if !opt.Allows(value) {
		return fmt.Errorf("option %q: %w: %q", key, ErrInvalidValue, value)
	}
	if opt.Value != value {
		opt.Value = value
		s.dirty = true
	}
	return nil
}

// SetVisible changes the visibility of a declared key.
func (s *Store) SetVisible(key string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	opt, ok := s.options[key]
	if !ok {
		return &OptionError{Key: key, Suggestion: s.suggestLocked(key)}
	}
	opt.Visible = visible
	return nil
}

// Clone returns a deep copy; the copy and s share nothing.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := NewStore()
	for k, opt := range s.options {
		cp := opt.clone()
		c.options[k] = &cp
	}
	for k, cat := range s.categories {
		c.categories[k] = cat
	}
	for k, v := range s.persisted {
		c.persisted[k] = v
	}
	return c
}

// Keys returns the declared keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.options))
	for k := range s.options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Options returns copies of all declared options sorted by key.
func (s *Store) Options() []Option {
	keys := s.Keys()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Option, 0, len(keys))
	for _, k := range keys {
		if opt, ok := s.options[k]; ok {
			out = append(out, opt.clone())
		}
	}
	return out
}

// Len is the number of declared keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.options)
}

// TakeDirty reports whether any value changed since the last call and clears
// the flag.
func (s *Store) TakeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.dirty
	s.dirty = false
	return d
}

// Suggest returns the declared key closest to key, or "" when nothing is
// reasonably close.
func (s *Store) Suggest(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.suggestLocked(key)
}

func (s *Store) suggestLocked(key string) string {
	best := ""
	bestDist := -1
	for k := range s.options {
		d := levenshtein.ComputeDistance(strings.ToLower(key), strings.ToLower(k))
		if bestDist < 0 || d < bestDist || (d == bestDist && k < best) {
			best, bestDist = k, d
		}
	}
	if best == "" || bestDist > max(len(key), len(best))/2 {
		return ""
	}
	return best
}

// ParseVariable parses the legacy "Description; value1|value2|..." form. The
// first value is the default.
func ParseVariable(key, spec string) (Option, error) {
	desc, rest, ok := strings.Cut(spec, ";")
	if !ok {
		return Option{}, fmt.Errorf("variable %q: missing ';' in %q", key, spec)
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Option{}, fmt.Errorf("variable %q: no values in %q", key, spec)
	}
	values := strings.Split(rest, "|")
	return Option{
		Key:         key,
		Description: strings.TrimSpace(desc),
		Values:      values,
		Default:     values[0],
		Value:       values[0],
		Visible:     true,
	}, nil
}
