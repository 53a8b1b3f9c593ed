package options

import "errors"

// Scopes pairs the global store of a core with the optional per-game store of
// the loaded content.
type Scopes struct {
	Global *Store
	Game   *Store
}

// NewScopes returns scopes with an empty global store and no game store.
func NewScopes() *Scopes {
	return &Scopes{Global: NewStore()}
}

// BeginGame seeds the game scope from a deep copy of the global scope. It is
// a no-op when the game scope already exists.
func (s *Scopes) BeginGame() *Store {
	if s.Game == nil {
		s.Game = s.Global.Clone()
	}
	return s.Game
}

// EndGame drops the game scope.
func (s *Scopes) EndGame() {
	s.Game = nil
}

// Merge applies declarations to both scopes so their key sets stay
// consistent.
func (s *Scopes) Merge(defs []Option) {
	s.Global.Merge(defs)
	if s.Game != nil {
		s.Game.Merge(defs)
	}
}

// MergeCategories applies category declarations to both scopes.
func (s *Scopes) MergeCategories(cats []Category) {
	s.Global.MergeCategories(cats)
	if s.Game != nil {
		s.Game.MergeCategories(cats)
	}
}

// Get prefers the game scope.
func (s *Scopes) Get(key string) (string, error) {
	if s.Game != nil {
		v, err := s.Game.Get(key)
		var oe *OptionError
		if err == nil || !errors.As(err, &oe) {
			return v, err
		}
	}
	return s.Global.Get(key)
}

// Set writes the game scope when it exists, else the global scope.
func (s *Scopes) Set(key, value string) error {
	return s.Active().Set(key, value)
}

// SetVisible updates visibility in both scopes.
func (s *Scopes) SetVisible(key string, visible bool) error {
	err := s.Global.SetVisible(key, visible)
	if s.Game != nil {
		if gerr := s.Game.SetVisible(key, visible); err == nil {
			err = gerr
		}
	}
	return err
}

// Active is the store edits go to.
func (s *Scopes) Active() *Store {
	if s.Game != nil {
		return s.Game
	}
	return s.Global
}

// TakeDirty reports and clears a pending change in either scope.
func (s *Scopes) TakeDirty() bool {
	d := s.Global.TakeDirty()
	if s.Game != nil && s.Game.TakeDirty() {
		d = true
	}
	return d
}

// Suggest returns the closest declared key.
func (s *Scopes) Suggest(key string) string {
	return s.Active().Suggest(key)
}
