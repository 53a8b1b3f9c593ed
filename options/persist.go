package options

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/user-none/retrohost/storage"
)

// fileEntry is one (key, value, allowed values) triple on disk.
type fileEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Values string `json:"values"`
}

// Load reads an option file. Values for declared keys are applied when
// allowed; the rest are kept and applied by a later Merge. A missing file is
// not an error.
func (s *Store) Load(path string) error {
	var entries []fileEntry
	if err := storage.ReadJSON(path, &entries); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load options %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		if opt, ok := s.options[e.Key]; ok {
			if opt.Allows(e.Value) {
				opt.Value = e.Value
			}
			continue
		}
		s.persisted[e.Key] = e.Value
	}
	return nil
}

// Save writes the store sorted by key. Loaded values the core never declared
// are written back unchanged.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	entries := make([]fileEntry, 0, len(s.options)+len(s.persisted))
	for k, opt := range s.options {
		entries = append(entries, fileEntry{Key: k, Value: opt.Value, Values: strings.Join(opt.Values, "|")})
	}
	for k, v := range s.persisted {
		entries = append(entries, fileEntry{Key: k, Value: v})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	if err := storage.AtomicWriteJSON(path, entries); err != nil {
		return fmt.Errorf("save options %s: %w", path, err)
	}
	return nil
}
