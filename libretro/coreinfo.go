package libretro

import "strings"

// InputDescriptor names one input a core reads.
type InputDescriptor struct {
	Port        uint
	Device      uint
	Index       uint
	ID          uint
	Description string
}

// ControllerType is one device a controller port accepts.
type ControllerType struct {
	Description string
	Device      uint
}

// ControllerPort lists the devices a port accepts.
type ControllerPort struct {
	Types []ControllerType
}

// Subsystem is a special content type loaded through
// retro_load_game_special, such as a cartridge with an add-on.
type Subsystem struct {
	Description string
	Ident       string
	ID          uint
	ROMs        []SubsystemROM
}

// SubsystemROM is one content slot of a subsystem.
type SubsystemROM struct {
	Description     string
	ValidExtensions []string
	NeedFullpath    bool
	BlockExtract    bool
	Required        bool
	Memory          []SubsystemMemory
}

// SubsystemMemory is a save memory file of a subsystem slot.
type SubsystemMemory struct {
	Extension string
	Type      uint
}

// MemoryDescriptor describes a region of the emulated address space.
type MemoryDescriptor struct {
	Flags      uint64
	Ptr        uintptr
	Offset     uintptr
	Start      uintptr
	Select     uintptr
	Disconnect uintptr
	Length     uintptr
	AddrSpace  string
}

// contentOverride is one SET_CONTENT_INFO_OVERRIDE entry.
type contentOverride struct {
	extensions     []string
	needFullpath   bool
	persistentData bool
}

func (o contentOverride) matches(ext string) bool {
	for _, e := range o.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// splitExtensions parses a "a|b|c" list into lower-case entries without dots.
func splitExtensions(list string) []string {
	var out []string
	for _, ext := range strings.Split(list, "|") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
