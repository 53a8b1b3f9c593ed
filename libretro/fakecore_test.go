package libretro

import (
	"encoding/binary"
	"errors"
	"slices"
	"testing"
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/dynload"
	"github.com/user-none/retrohost/storage"
)

// fakeCore is a libretro core written in Go. Its entry points are closures,
// and it talks to the host through the same host* functions the native
// trampolines call, so every callback is routed by the thread registry.
type fakeCore struct {
	library      string
	exts         string
	fullpath     bool
	blockExtract bool
	apiVersion   uint32
	av           systemAVInfo
	stateSize    int
	openErr      error

	// Hooks run inside the matching entry point.
	onSetEnvironment func(fc *fakeCore)
	onInit           func(fc *fakeCore)
	onLoadGame       func(fc *fakeCore, gi *gameInfo) bool
	onRun            func(fc *fakeCore)
	onDeinit         func(fc *fakeCore)

	calls   []string
	counter uint32
	sram    []byte
	ports   map[uint32]uint32
	cheats  []string
	region  uint32

	loadedPath string
	loadedData []byte
	noGame     bool

	fns  map[uintptr]func(args ...uintptr) uintptr
	strs [][]byte
}

// fakeHostCallbacks stands in for the native trampolines. The values are
// only compared, never called.
var fakeHostCallbacks = hostCallbacks{
	environment:             0x100,
	videoRefresh:            0x101,
	audioSample:             0x102,
	audioSampleBatch:        0x103,
	inputPoll:               0x104,
	inputState:              0x105,
	logPrintf:               0x106,
	rumble:                  0x107,
	led:                     0x108,
	perfGetTimeUsec:         0x109,
	perfGetCPUFeatures:      0x10a,
	perfGetCounter:          0x10b,
	perfRegister:            0x10c,
	perfStart:               0x10d,
	perfStop:                0x10e,
	perfLog:                 0x10f,
	hwGetCurrentFramebuffer: 0x110,
	hwGetProcAddress:        0x111,
}

func newFakeCore() *fakeCore {
	return &fakeCore{
		library:    "Fake",
		exts:       "bin|rom",
		apiVersion: apiVersion,
		av: systemAVInfo{
			geometry: gameGeometry{baseWidth: 2, baseHeight: 2, maxWidth: 4, maxHeight: 4, aspectRatio: 1},
			timing:   systemTiming{fps: 1000, sampleRate: 48000},
		},
		stateSize: 8,
		ports:     make(map[uint32]uint32),
		fns:       make(map[uintptr]func(args ...uintptr) uintptr),
	}
}

func (fc *fakeCore) record(name string) { fc.calls = append(fc.calls, name) }

func (fc *fakeCore) called(name string) bool { return slices.Contains(fc.calls, name) }

// cstr returns a NUL-terminated copy of s that lives as long as the core.
func (fc *fakeCore) cstr(s string) *byte {
	b := append([]byte(s), 0)
	fc.strs = append(fc.strs, b)
	return &b[0]
}

// fn registers f as a core function pointer.
func (fc *fakeCore) fn(f func(args ...uintptr) uintptr) uintptr {
	id := uintptr(0x1000 + len(fc.fns))
	fc.fns[id] = f
	return id
}

func (fc *fakeCore) call(fn uintptr, args ...uintptr) uintptr {
	f, ok := fc.fns[fn]
	if !ok {
		panic("fake core: unknown function pointer")
	}
	return f(args...)
}

func (fc *fakeCore) env(cmd uint32, data unsafe.Pointer) bool {
	return hostEnvironment(cmd, data)
}

func (fc *fakeCore) Close() error {
	fc.record("close")
	return nil
}

func (fc *fakeCore) state() []byte {
	buf := make([]byte, fc.stateSize)
	if len(buf) >= 4 {
		binary.LittleEndian.PutUint32(buf, fc.counter)
	}
	for i := 4; i < len(buf); i++ {
		buf[i] = 0xA5
	}
	return buf
}

func (fc *fakeCore) open(path string, _ dynload.Options) (*Core, error) {
	if fc.openErr != nil {
		return nil, fc.openErr
	}
	cb := fakeHostCallbacks
	ep := &entryPoints{
		Init: func() {
			fc.record("init")
			if fc.onInit != nil {
				fc.onInit(fc)
			}
		},
		Deinit: func() {
			fc.record("deinit")
			if fc.onDeinit != nil {
				fc.onDeinit(fc)
			}
		},
		APIVersion: func() uint32 { return fc.apiVersion },
		GetSystemInfo: func(info *systemInfo) {
			*info = systemInfo{
				libraryName:     fc.cstr(fc.library),
				libraryVersion:  fc.cstr("1.0"),
				validExtensions: fc.cstr(fc.exts),
				needFullpath:    fc.fullpath,
				blockExtract:    fc.blockExtract,
			}
		},
		GetSystemAVInfo:         func(info *systemAVInfo) { *info = fc.av },
		SetControllerPortDevice: func(port, device uint32) { fc.ports[port] = device },
		Reset: func() {
			fc.record("reset")
			fc.counter = 0
		},
		Run: func() {
			fc.record("run")
			fc.counter++
			if fc.onRun != nil {
				fc.onRun(fc)
			}
		},
		SerializeSize: func() uintptr { return uintptr(fc.stateSize) },
		Serialize: func(data unsafe.Pointer, size uintptr) bool {
			fc.record("serialize")
			if int(size) < fc.stateSize {
				return false
			}
			copy(unsafe.Slice((*byte)(data), size), fc.state())
			return true
		},
		Unserialize: func(data unsafe.Pointer, size uintptr) bool {
			fc.record("unserialize")
			if size < 4 {
				return false
			}
			fc.counter = binary.LittleEndian.Uint32(unsafe.Slice((*byte)(data), size))
			return true
		},
		CheatReset: func() { fc.cheats = nil },
		CheatSet: func(index uint32, enabled bool, code *byte) {
			if enabled {
				fc.cheats = append(fc.cheats, goString(code))
			}
		},
		LoadGame: func(gi *gameInfo) bool {
			fc.record("load_game")
			if gi == nil {
				fc.noGame = true
			} else {
				fc.loadedPath = goString(gi.path)
				if gi.data != nil {
					fc.loadedData = slices.Clone(unsafe.Slice((*byte)(gi.data), gi.size))
				}
			}
			if fc.onLoadGame != nil {
				return fc.onLoadGame(fc, gi)
			}
			return true
		},
		LoadGameSpecial: func(uint32, *gameInfo, uintptr) bool { return false },
		UnloadGame:      func() { fc.record("unload_game") },
		GetRegion:       func() uint32 { return fc.region },
		GetMemoryData: func(id uint32) unsafe.Pointer {
			if id != memorySaveRAM || len(fc.sram) == 0 {
				return nil
			}
			return unsafe.Pointer(&fc.sram[0])
		},
		GetMemorySize: func(id uint32) uintptr {
			if id != memorySaveRAM {
				return 0
			}
			return uintptr(len(fc.sram))
		},
		SetEnvironment: func(uintptr) {
			fc.record("set_environment")
			if fc.onSetEnvironment != nil {
				fc.onSetEnvironment(fc)
			}
		},
		SetVideoRefresh:     func(uintptr) {},
		SetAudioSample:      func(uintptr) {},
		SetAudioSampleBatch: func(uintptr) {},
		SetInputPoll:        func(uintptr) {},
		SetInputState:       func(uintptr) {},
	}
	return &Core{
		Name:      CoreName(path),
		Path:      path,
		ep:        ep,
		closer:    fc,
		callbacks: &cb,
		call:      fc.call,
	}, nil
}

var errOpenFailed = errors.New("open failed")

// recordingGraphics keeps every frame converted to RGBA.
type recordingGraphics struct {
	frames   [][]byte
	hwFrames int
	geometry hostapi.Geometry
	rotation int
}

func (g *recordingGraphics) DrawFrame(pixels []byte, width, height, pitch int, format hostapi.PixelFormat) {
	g.frames = append(g.frames, hostapi.ConvertToRGBA(nil, pixels, width, height, pitch, format))
}

func (g *recordingGraphics) DrawHardwareFrame(width, height int) { g.hwFrames++ }

func (g *recordingGraphics) SetGeometry(geom hostapi.Geometry, rotation int) {
	g.geometry = geom
	g.rotation = rotation
}

// glGraphics also hosts hardware contexts.
type glGraphics struct {
	recordingGraphics
	created   []hostapi.HardwareContext
	destroyed int
	createErr error
}

func (g *glGraphics) CreateContext(cfg hostapi.HardwareContext) error {
	if g.createErr != nil {
		return g.createErr
	}
	g.created = append(g.created, cfg)
	return nil
}

func (g *glGraphics) DestroyContext()             { g.destroyed++ }
func (g *glGraphics) CurrentFramebuffer() uintptr { return 7 }

func (g *glGraphics) ProcAddress(symbol string) uintptr {
	if symbol == "glClear" {
		return 0xC1EA
	}
	return 0
}

type recordingAudio struct {
	rate      float64
	samples   []float32
	occupancy uint
	underrun  bool
	clears    int
}

func (a *recordingAudio) SetSampleRate(rate float64)    { a.rate = rate }
func (a *recordingAudio) PushSamples(samples []float32) { a.samples = append(a.samples, samples...) }

func (a *recordingAudio) BufferOccupancy() (uint, bool) { return a.occupancy, a.underrun }
func (a *recordingAudio) ClearQueue()                   { a.clears++ }

// scriptedInput reports fixed button states.
type scriptedInput struct {
	polls   int
	pressed map[[2]uint]bool
	rumble  []uint16
}

func (in *scriptedInput) Poll() { in.polls++ }

func (in *scriptedInput) State(port, device, index, id uint) int16 {
	if in.pressed[[2]uint{port, id}] {
		return 1
	}
	return 0
}

func (in *scriptedInput) SetRumble(port uint, effect hostapi.RumbleEffect, strength uint16) bool {
	in.rumble = append(in.rumble, strength)
	return true
}

type testSinks struct {
	log   *hostapi.MemoryLogger
	video *recordingGraphics
	audio *recordingAudio
	input *scriptedInput
}

func testConfig(t *testing.T, fc *fakeCore) Config {
	t.Helper()
	return Config{
		Layout:   storage.Layout{Root: t.TempDir()},
		Username: "player",
		Language: 3,
		MaxUsers: 2,
		OpenCore: fc.open,
	}
}

func newTestSession(t *testing.T, fc *fakeCore) (*Session, *testSinks) {
	t.Helper()
	ts := &testSinks{
		log:   &hostapi.MemoryLogger{},
		video: &recordingGraphics{},
		audio: &recordingAudio{},
		input: &scriptedInput{pressed: make(map[[2]uint]bool)},
	}
	s := NewSession(testConfig(t, fc), hostapi.Sinks{
		Graphics: ts.video,
		Audio:    ts.audio,
		Input:    ts.input,
		Log:      ts.log,
	})
	return s, ts
}

// writeContent creates dir/name with data and returns dir.
func writeContent(t *testing.T, name string, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	if err := storage.AtomicWriteFile(dir+"/"+name, data); err != nil {
		t.Fatalf("write content: %v", err)
	}
	return dir
}

// startWithContent starts s with a "game.bin" content file. The caller
// must defer s.Stop on the same goroutine.
func startWithContent(t *testing.T, s *Session) {
	t.Helper()
	dir := writeContent(t, "game.bin", []byte("ROMDATA"))
	if err := s.Start("/cores/fake_libretro.so", dir, "game"); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

// declareVariables issues SET_VARIABLES with key/spec pairs.
func (fc *fakeCore) declareVariables(pairs ...string) bool {
	vars := make([]variable, 0, len(pairs)/2+1)
	for i := 0; i+1 < len(pairs); i += 2 {
		vars = append(vars, variable{key: fc.cstr(pairs[i]), value: fc.cstr(pairs[i+1])})
	}
	vars = append(vars, variable{})
	return fc.env(envSetVariables, unsafe.Pointer(&vars[0]))
}

// getVariable issues GET_VARIABLE and returns the answer.
func (fc *fakeCore) getVariable(key string) (string, bool, bool) {
	v := variable{key: fc.cstr(key)}
	ok := fc.env(envGetVariable, unsafe.Pointer(&v))
	return goString(v.value), v.value != nil, ok
}
