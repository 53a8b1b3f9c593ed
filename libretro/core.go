package libretro

import (
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"runtime/debug"
	"strings"
	"unsafe"

	"github.com/ebitengine/purego"
	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/dynload"
)

// entryPoints is the function table a core exports. Each field is bound to
// the symbol named in its retro tag.
type entryPoints struct {
	Init                    func()                                             `retro:"retro_init"`
	Deinit                  func()                                             `retro:"retro_deinit"`
	APIVersion              func() uint32                                      `retro:"retro_api_version"`
	GetSystemInfo           func(info *systemInfo)                             `retro:"retro_get_system_info"`
	GetSystemAVInfo         func(info *systemAVInfo)                           `retro:"retro_get_system_av_info"`
	SetControllerPortDevice func(port, device uint32)                          `retro:"retro_set_controller_port_device"`
	Reset                   func()                                             `retro:"retro_reset"`
	Run                     func()                                             `retro:"retro_run"`
	SerializeSize           func() uintptr                                     `retro:"retro_serialize_size"`
	Serialize               func(data unsafe.Pointer, size uintptr) bool       `retro:"retro_serialize"`
	Unserialize             func(data unsafe.Pointer, size uintptr) bool       `retro:"retro_unserialize"`
	CheatReset              func()                                             `retro:"retro_cheat_reset"`
	CheatSet                func(index uint32, enabled bool, code *byte)       `retro:"retro_cheat_set"`
	LoadGame                func(game *gameInfo) bool                          `retro:"retro_load_game"`
	LoadGameSpecial         func(typ uint32, info *gameInfo, num uintptr) bool `retro:"retro_load_game_special"`
	UnloadGame              func()                                             `retro:"retro_unload_game"`
	GetRegion               func() uint32                                      `retro:"retro_get_region"`
	GetMemoryData           func(id uint32) unsafe.Pointer                     `retro:"retro_get_memory_data"`
	GetMemorySize           func(id uint32) uintptr                            `retro:"retro_get_memory_size"`

	SetEnvironment      func(cb uintptr) `retro:"retro_set_environment"`
	SetVideoRefresh     func(cb uintptr) `retro:"retro_set_video_refresh"`
	SetAudioSample      func(cb uintptr) `retro:"retro_set_audio_sample"`
	SetAudioSampleBatch func(cb uintptr) `retro:"retro_set_audio_sample_batch"`
	SetInputPoll        func(cb uintptr) `retro:"retro_set_input_poll"`
	SetInputState       func(cb uintptr) `retro:"retro_set_input_state"`
}

// symbolResolver is satisfied by *dynload.Module.
type symbolResolver interface {
	Symbol(name string) (uintptr, error)
}

// bindEntryPoints resolves every tagged symbol before binding any, so a
// missing symbol leaves nothing half bound.
func bindEntryPoints(lib symbolResolver) (*entryPoints, error) {
	var ep entryPoints
	t := reflect.TypeOf(&ep).Elem()
	v := reflect.ValueOf(&ep).Elem()

	addrs := make([]uintptr, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		name := field.Tag.Get("retro")
		if field.Type.Kind() != reflect.Func || name == "" {
			continue
		}
		addr, err := lib.Symbol(name)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}

	for i := range t.NumField() {
		if addrs[i] == 0 {
			continue
		}
		purego.RegisterFunc(v.Field(i).Addr().Interface(), addrs[i])
	}
	return &ep, nil
}

// SystemInfo is the static description a core reports once after loading.
type SystemInfo struct {
	LibraryName     string
	LibraryVersion  string
	ValidExtensions []string
	NeedFullpath    bool
	BlockExtract    bool
}

func (si *SystemInfo) fromC(c *systemInfo) {
	si.LibraryName = goString(c.libraryName)
	si.LibraryVersion = goString(c.libraryVersion)
	si.ValidExtensions = splitExtensions(goString(c.validExtensions))
	si.NeedFullpath = c.needFullpath
	si.BlockExtract = c.blockExtract
}

// Core is a loaded core library with its bound entry points.
type Core struct {
	// Name keys per-core storage, e.g. "snes9x" for snes9x_libretro.so.
	Name string
	// Path is the library path as requested.
	Path string

	ep        *entryPoints
	closer    io.Closer
	callbacks *hostCallbacks
	// call invokes a function pointer the core handed to the host.
	call func(fn uintptr, args ...uintptr) uintptr

	info        SystemInfo
	version     uint32
	initialized bool
}

// CoreOpener loads a core library and binds its entry points.
type CoreOpener func(path string, opts dynload.Options) (*Core, error)

// OpenCore is the native CoreOpener.
func OpenCore(path string, opts dynload.Options) (*Core, error) {
	mod, err := dynload.Open(path, opts)
	if err != nil {
		return nil, err
	}
	ep, err := bindEntryPoints(mod)
	if err != nil {
		mod.Close()
		return nil, err
	}
	return &Core{
		Name:      CoreName(path),
		Path:      path,
		ep:        ep,
		closer:    mod,
		callbacks: nativeCallbacks(),
		call: func(fn uintptr, args ...uintptr) uintptr {
			r, _, _ := purego.SyscallN(fn, args...)
			return r
		},
	}, nil
}

// CoreName derives the storage key of a core from its library path, for
// example "snes9x" for snes9x_libretro.so.
func CoreName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{".dll", ".dylib", ".so", "_android", "_ios", "_libretro"} {
		base = strings.TrimSuffix(base, suffix)
	}
	return base
}

// invoke calls a core-provided function pointer; a zero pointer is skipped.
func (c *Core) invoke(fn uintptr, args ...uintptr) uintptr {
	if fn == 0 || c.call == nil {
		return 0
	}
	return c.call(fn, args...)
}

// startCore loads the core library, snapshots its system info and installs
// the host callbacks. The core is not initialized yet.
func (s *Session) startCore(path string) error {
	opener := s.cfg.OpenCore
	if opener == nil {
		opener = OpenCore
	}
	core, err := opener(path, s.cfg.loaderOptions())
	if err != nil {
		return err
	}
	if core.callbacks == nil {
		core.callbacks = &hostCallbacks{}
	}
	s.core = core

	core.version = core.ep.APIVersion()
	if core.version != apiVersion {
		return &dynload.LoadError{Path: path, Err: fmt.Errorf("%w: %d", ErrAPIVersion, core.version)}
	}

	var si systemInfo
	core.ep.GetSystemInfo(&si)
	core.info.fromC(&si)
	s.logf(hostapi.LogInfo, "loaded core %s %s (%s)", core.info.LibraryName, core.info.LibraryVersion, core.Name)

	s.loadGlobalOptions()

	cb := core.callbacks
	core.ep.SetEnvironment(cb.environment)
	core.ep.SetVideoRefresh(cb.videoRefresh)
	core.ep.SetAudioSample(cb.audioSample)
	core.ep.SetAudioSampleBatch(cb.audioSampleBatch)
	core.ep.SetInputPoll(cb.inputPoll)
	core.ep.SetInputState(cb.inputState)
	return nil
}

// initCore runs retro_init.
func (s *Session) initCore() {
	s.core.ep.Init()
	s.core.initialized = true
}

// stopCore deinitializes and unloads the core. A Go panic during deinit,
// including a memory fault in Go code, is logged and unloading continues.
// A crash inside the core's native code still ends the process. Calling it
// twice is a no-op.
func (s *Session) stopCore() {
	core := s.core
	if core == nil {
		return
	}
	s.core = nil

	if core.initialized {
		core.initialized = false
		s.guardedDeinit(core)
	}
	if core.closer != nil {
		if err := core.closer.Close(); err != nil {
			s.logf(hostapi.LogWarn, "unload core %s: %v", core.Name, err)
		}
	}
}

func (s *Session) guardedDeinit(core *Core) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if r := recover(); r != nil {
			s.logf(hostapi.LogError, "core %s faulted in retro_deinit: %v", core.Name, r)
		}
	}()
	core.ep.Deinit()
}
