package libretro

import (
	"errors"
	"io/fs"
	"os"

	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/options"
)

// loadGlobalOptions creates the option scopes of a freshly opened core and
// loads its saved global values.
func (s *Session) loadGlobalOptions() {
	s.options = options.NewScopes()
	if err := s.options.Global.Load(s.cfg.Layout.GlobalOptionsPath(s.core.Name)); err != nil {
		s.logf(hostapi.LogWarn, "Failed to load options: %v", err)
	}
}

// beginGameOptions opens the per-game scope and applies the saved values of
// the content.
func (s *Session) beginGameOptions() {
	game := s.options.BeginGame()
	path := s.cfg.Layout.GameOptionsPath(s.core.Name, s.content.key)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logf(hostapi.LogWarn, "Failed to read game options: %v", err)
		}
		return
	}
	if err := game.Load(path); err != nil {
		s.logf(hostapi.LogWarn, "Failed to load game options: %v", err)
		return
	}
	s.gameOptionsTouched = true
}

// saveOptions writes the global scope and, when it was used, the game scope.
func (s *Session) saveOptions() {
	if s.options == nil || s.core == nil {
		return
	}
	if err := s.options.Global.Save(s.cfg.Layout.GlobalOptionsPath(s.core.Name)); err != nil {
		s.logf(hostapi.LogWarn, "Failed to save options: %v", err)
	}
	if s.options.Game != nil && s.gameOptionsTouched && s.content != nil {
		if err := s.options.Game.Save(s.cfg.Layout.GameOptionsPath(s.core.Name, s.content.key)); err != nil {
			s.logf(hostapi.LogWarn, "Failed to save game options: %v", err)
		}
	}
}

// mergeOptions applies core declarations to both scopes.
func (s *Session) mergeOptions(cats []options.Category, defs []options.Option) {
	if s.options == nil {
		return
	}
	if len(cats) > 0 {
		s.options.MergeCategories(cats)
	}
	s.options.Merge(defs)
}

func optionValues(vals *[numCoreOptionValuesMax]coreOptionValue) []string {
	var out []string
	for i := range vals {
		if vals[i].value == nil {
			break
		}
		out = append(out, goString(vals[i].value))
	}
	return out
}

// optionsFromV1 converts a retro_core_option_definition array.
func optionsFromV1(first *coreOptionDefinition) ([]options.Option, error) {
	defs, err := scanSentinel(first, maxVariables, func(d *coreOptionDefinition) bool { return d.key == nil })
	if err != nil {
		return nil, err
	}
	out := make([]options.Option, 0, len(defs))
	for i := range defs {
		d := &defs[i]
		out = append(out, options.Option{
			Key:         goString(d.key),
			Description: goString(d.desc),
			Info:        goString(d.info),
			Values:      optionValues(&d.values),
			Default:     goString(d.defaultValue),
			Visible:     true,
		})
	}
	return out, nil
}

// optionsFromV2 converts a retro_core_options_v2 payload.
func optionsFromV2(v2 *coreOptionsV2) ([]options.Category, []options.Option, error) {
	if v2 == nil {
		return nil, nil, nil
	}
	rawCats, err := scanSentinel(v2.categories, maxOptionCategories, func(c *coreOptionV2Category) bool { return c.key == nil })
	if err != nil {
		return nil, nil, err
	}
	cats := make([]options.Category, 0, len(rawCats))
	for i := range rawCats {
		c := &rawCats[i]
		cats = append(cats, options.Category{
			Key:         goString(c.key),
			Description: goString(c.desc),
			Info:        goString(c.info),
		})
	}

	rawDefs, err := scanSentinel(v2.definitions, maxVariables, func(d *coreOptionV2Definition) bool { return d.key == nil })
	if err != nil {
		return nil, nil, err
	}
	defs := make([]options.Option, 0, len(rawDefs))
	for i := range rawDefs {
		d := &rawDefs[i]
		defs = append(defs, options.Option{
			Key:         goString(d.key),
			Description: goString(d.desc),
			Info:        goString(d.info),
			Category:    goString(d.categoryKey),
			Values:      optionValues(&d.values),
			Default:     goString(d.defaultValue),
			Visible:     true,
		})
	}
	return cats, defs, nil
}

// localizeOptions prefers the local definition of each key and falls back
// to the US one. A local entry without values does not count.
func localizeOptions(local, us []options.Option) []options.Option {
	out := make([]options.Option, 0, len(local)+len(us))
	seen := make(map[string]bool, len(local)+len(us))
	for _, o := range local {
		if len(o.Values) == 0 || seen[o.Key] {
			continue
		}
		seen[o.Key] = true
		out = append(out, o)
	}
	for _, o := range us {
		if !seen[o.Key] {
			seen[o.Key] = true
			out = append(out, o)
		}
	}
	return out
}

func localizeCategories(local, us []options.Category) []options.Category {
	out := make([]options.Category, 0, len(local)+len(us))
	seen := make(map[string]bool, len(local)+len(us))
	for _, group := range [][]options.Category{local, us} {
		for _, c := range group {
			if !seen[c.Key] {
				seen[c.Key] = true
				out = append(out, c)
			}
		}
	}
	return out
}
