package libretro

import (
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/options"
)

// handleGetVariable answers from the game scope first, then the global one.
// An undeclared key writes nothing.
func (s *Session) handleGetVariable(data unsafe.Pointer) bool {
	v := (*variable)(data)
	if v.key == nil || s.options == nil {
		return false
	}
	value, err := s.options.Get(goString(v.key))
	if err != nil {
		s.logf(hostapi.LogWarn, "%s: %v", s.coreLabel(), err)
		return false
	}
	v.value = s.strings.cstr(value)
	return true
}

func (s *Session) handleSetVariables(data unsafe.Pointer) bool {
	vars, err := scanSentinel((*variable)(data), maxVariables, func(v *variable) bool { return v.key == nil })
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_VARIABLES: %v", err)
		return false
	}
	defs := make([]options.Option, 0, len(vars))
	for i := range vars {
		opt, err := options.ParseVariable(goString(vars[i].key), goString(vars[i].value))
		if err != nil {
			s.logf(hostapi.LogWarn, "SET_VARIABLES: %v", err)
			continue
		}
		defs = append(defs, opt)
	}
	s.mergeOptions(nil, defs)
	return true
}

func (s *Session) handleGetVariableUpdate(data unsafe.Pointer) bool {
	*(*bool)(data) = s.options != nil && s.options.TakeDirty()
	return true
}

func (s *Session) handleSetVariable(data unsafe.Pointer) bool {
	v := (*variable)(data)
	if v.key == nil || v.value == nil || s.options == nil {
		return false
	}
	if err := s.options.Set(goString(v.key), goString(v.value)); err != nil {
		s.logf(hostapi.LogWarn, "SET_VARIABLE: %v", err)
		return false
	}
	if s.options.Game != nil {
		s.gameOptionsTouched = true
	}
	return true
}

func (s *Session) handleGetCoreOptionsVersion(data unsafe.Pointer) bool {
	*(*uint32)(data) = 2
	return true
}

func (s *Session) handleSetCoreOptions(data unsafe.Pointer) bool {
	defs, err := optionsFromV1((*coreOptionDefinition)(data))
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_CORE_OPTIONS: %v", err)
		return false
	}
	s.mergeOptions(nil, defs)
	return true
}

func (s *Session) handleSetCoreOptionsIntl(data unsafe.Pointer) bool {
	intl := (*coreOptionsIntl)(data)
	us, err := optionsFromV1(intl.us)
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_CORE_OPTIONS_INTL: %v", err)
		return false
	}
	local, err := optionsFromV1(intl.local)
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_CORE_OPTIONS_INTL: ignoring local definitions: %v", err)
		local = nil
	}
	s.mergeOptions(nil, localizeOptions(local, us))
	return true
}

func (s *Session) handleSetCoreOptionsV2(data unsafe.Pointer) bool {
	cats, defs, err := optionsFromV2((*coreOptionsV2)(data))
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_CORE_OPTIONS_V2: %v", err)
		return false
	}
	s.mergeOptions(cats, defs)
	return true
}

func (s *Session) handleSetCoreOptionsV2Intl(data unsafe.Pointer) bool {
	intl := (*coreOptionsV2Intl)(data)
	usCats, us, err := optionsFromV2(intl.us)
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_CORE_OPTIONS_V2_INTL: %v", err)
		return false
	}
	localCats, local, err := optionsFromV2(intl.local)
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_CORE_OPTIONS_V2_INTL: ignoring local definitions: %v", err)
		localCats, local = nil, nil
	}
	s.mergeOptions(localizeCategories(localCats, usCats), localizeOptions(local, us))
	return true
}

func (s *Session) handleSetCoreOptionsDisplay(data unsafe.Pointer) bool {
	d := (*coreOptionDisplay)(data)
	if d.key == nil || s.options == nil {
		return false
	}
	if err := s.options.SetVisible(goString(d.key), d.visible); err != nil {
		s.logf(hostapi.LogDebug, "SET_CORE_OPTIONS_DISPLAY: %v", err)
		return false
	}
	return true
}

func (s *Session) handleSetCoreOptionsUpdateDisplayCallback(data unsafe.Pointer) bool {
	if data == nil {
		s.updateDisplay = coreOptionsUpdateDisplayCallback{}
		return true
	}
	s.updateDisplay = *(*coreOptionsUpdateDisplayCallback)(data)
	return true
}
