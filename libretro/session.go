// Package libretro hosts libretro cores: it loads a core library, answers
// its environment callbacks, feeds it content and forwards its video, audio
// and input traffic to the embedder's sinks.
package libretro

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"time"
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/dynload"
	"github.com/user-none/retrohost/options"
	"github.com/user-none/retrohost/storage"
)

// hwFramebufferValid is RETRO_HW_FRAME_BUFFER_VALID, the data pointer a
// hardware rendered core passes to video refresh.
const hwFramebufferValid = ^uintptr(0)

// Config holds the host settings a session reports to cores.
type Config struct {
	Layout   storage.Layout
	Username string
	Language uint32
	MaxUsers uint32
	// PrivateCopies is "always", "never" or "auto" (platform default).
	PrivateCopies string
	Rewind        storage.RewindConfig

	// OpenCore replaces the native loader. Tests use it to run Go cores.
	OpenCore CoreOpener
}

// ConfigFrom builds a session config from the host configuration.
func ConfigFrom(c *storage.Config) Config {
	return Config{
		Layout:        c.Layout(),
		Username:      c.Username,
		Language:      uint32(c.Language),
		MaxUsers:      uint32(c.MaxUsers),
		PrivateCopies: c.Cores.PrivateCopies,
		Rewind:        c.Rewind,
	}
}

func (c Config) loaderOptions() dynload.Options {
	opts := dynload.DefaultOptions(c.Layout.ScratchDir())
	switch c.PrivateCopies {
	case "always":
		opts.PrivateCopy = true
	case "never":
		opts.PrivateCopy = false
	}
	return opts
}

// hwState is an accepted SET_HW_RENDER negotiation.
type hwState struct {
	cb       hwRenderCallback
	renderer hostapi.HardwareRenderer
}

// Session is one core paired with its content. All methods except the
// constructor must be called from the goroutine that called Start; Runner
// arranges this.
type Session struct {
	cfg   Config
	sinks hostapi.Sinks

	core       *Core
	tid        uint64
	registered bool
	running    bool
	gameLoaded bool

	strings  *stringTable
	commands map[uint32]envCommand
	options  *options.Scopes
	// gameOptionsTouched is set once the per-game option file exists or
	// the game scope was edited.
	gameOptionsTouched bool

	content     *contentState
	loadingGame *gameInfoExt

	pixelFormat      hostapi.PixelFormat
	rotation         int
	performanceLevel uint32
	avInfo           hostapi.AVInfo
	supportNoGame    bool
	achievements     bool
	sharedContext    bool
	quirks           uint64
	minAudioLatency  uint32
	shutdown         bool

	inputDescriptors []InputDescriptor
	controllers      []ControllerPort
	subsystems       []Subsystem
	memoryMaps       []MemoryDescriptor
	contentOverrides []contentOverride
	ffOverride       *fastforwardingOverride

	keyboard      keyboardCallback
	disk          *diskControlExtCallback
	hw            *hwState
	frameTime     frameTimeCallback
	audioCB       audioCallback
	audioStatus   audioBufferStatusCallback
	updateDisplay coreOptionsUpdateDisplayCallback
	procAddress   uintptr
	perfCounters  []*perfCounter

	inputEnabled bool
	fastForward  bool
	ports        map[uint]uint

	stateSize      int
	stateSizeValid bool

	rewind    *rewindBuffer
	audioBuf  []float32
	lastFrame time.Time
	frames    uint64
}

// NewSession returns an idle session. Nil sinks discard their output.
func NewSession(cfg Config, sinks hostapi.Sinks) *Session {
	return &Session{cfg: cfg, sinks: sinks, commands: environmentCommands(), strings: &stringTable{}}
}

// Start loads the core at corePath and the content named contentName in
// contentDir. An empty contentName starts cores that run without content.
// The calling goroutine is locked to its OS thread until Stop. Any failure
// unwinds everything Start did.
func (s *Session) Start(corePath, contentDir, contentName string) (err error) {
	if s.registered {
		return ErrAlreadyRunning
	}
	s.resetNegotiation()

	runtime.LockOSThread()
	tid, err := registry.register(s)
	if err != nil {
		runtime.UnlockOSThread()
		return err
	}
	s.tid = tid
	s.registered = true

	defer func() {
		if err != nil {
			s.teardown()
		}
	}()

	if err = s.startCore(corePath); err != nil {
		return fmt.Errorf("start core %s: %w", corePath, err)
	}

	content, err := s.resolveContent(contentDir, contentName)
	if err != nil {
		var nf *ContentNotFoundError
		if !errors.As(err, &nf) || !s.supportNoGame {
			return err
		}
		s.logf(hostapi.LogInfo, "starting %s without content", s.coreLabel())
		content = &contentState{noGame: true}
	}
	s.content = content
	if !content.noGame {
		s.beginGameOptions()
	}

	s.initCore()
	if err = s.loadContent(content); err != nil {
		return err
	}
	s.afterLoad()

	s.running = true
	return nil
}

// resetNegotiation clears everything a previous core negotiated.
func (s *Session) resetNegotiation() {
	*s = Session{
		cfg:          s.cfg,
		sinks:        s.sinks,
		commands:     s.commands,
		strings:      &stringTable{},
		pixelFormat:  hostapi.PixelFormat0RGB1555,
		inputEnabled: true,
		ports:        make(map[uint]uint),
	}
}

// afterLoad finishes a successful load_game: AV info, hardware context,
// controller defaults, SRAM and rewind.
func (s *Session) afterLoad() {
	var av systemAVInfo
	s.core.ep.GetSystemAVInfo(&av)
	s.applyAVInfo(avInfoFromC(&av), true)

	if s.hw != nil {
		s.core.invoke(s.hw.cb.contextReset)
	}
	if s.audioCB.setState != 0 {
		s.core.invoke(s.audioCB.setState, 1)
	}

	for port := uint(0); port < uint(s.cfg.MaxUsers); port++ {
		if _, ok := s.ports[port]; !ok {
			s.core.ep.SetControllerPortDevice(uint32(port), hostapi.DeviceJoypad)
			s.ports[port] = hostapi.DeviceJoypad
		}
	}

	if err := s.LoadSRAM(); err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, ErrNoSaveRAM) {
		s.logf(hostapi.LogWarn, "Failed to load SRAM: %v", err)
	}

	if s.cfg.Rewind.Enabled {
		s.setupRewind()
	}
}

// Stop unloads content and core and releases the thread. It is a no-op on
// a session that is not started and must run on the goroutine that called
// Start.
func (s *Session) Stop() {
	if !s.registered {
		return
	}
	s.teardown()
}

func (s *Session) teardown() {
	if s.core != nil {
		if s.gameLoaded {
			if s.hw != nil {
				s.core.invoke(s.hw.cb.contextDestroy)
				s.hw.renderer.DestroyContext()
			}
			if err := s.SaveSRAM(); err != nil && !errors.Is(err, ErrNoSaveRAM) {
				s.logf(hostapi.LogWarn, "Failed to save SRAM: %v", err)
			}
			s.core.ep.UnloadGame()
			s.gameLoaded = false
			s.saveOptions()
			if s.options != nil {
				s.options.EndGame()
			}
		} else if s.hw != nil {
			s.hw.renderer.DestroyContext()
		}
		s.hw = nil
		s.stopCore()
	}
	if s.registered {
		registry.unregister(s.tid, s)
		s.registered = false
		runtime.UnlockOSThread()
	}
	if s.strings != nil {
		s.strings.release()
	}
	if s.content != nil {
		s.content.cleanup(s)
		s.content = nil
	}
	s.rewind = nil
	s.running = false
}

// RunFrame runs the core for one video frame.
func (s *Session) RunFrame() error {
	if !s.running {
		return ErrNotRunning
	}
	core := s.core

	now := time.Now()
	if s.frameTime.callback != 0 {
		delta := s.frameTime.reference
		if !s.lastFrame.IsZero() && !s.fastForward {
			delta = now.Sub(s.lastFrame).Microseconds()
		}
		core.invoke(s.frameTime.callback, uintptr(delta))
	}
	s.lastFrame = now

	if s.audioStatus.callback != 0 {
		if r, ok := s.sinks.Audio.(hostapi.AudioBufferReporter); ok {
			pct, underrun := r.BufferOccupancy()
			core.invoke(s.audioStatus.callback, 1, uintptr(pct), b2u(underrun))
		}
	}
	if s.audioCB.callback != 0 {
		core.invoke(s.audioCB.callback)
	}

	core.ep.Run()
	s.flushAudio()
	s.frames++

	if s.rewind != nil {
		s.captureRewind()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not run.
func (s *Session) Running() bool { return s.running }

// ShutdownRequested reports whether the core asked to exit.
func (s *Session) ShutdownRequested() bool { return s.shutdown }

// Frames is the number of frames run since Start.
func (s *Session) Frames() uint64 { return s.frames }

// Reset performs a soft reset of the game.
func (s *Session) Reset() error {
	if !s.running {
		return ErrNotRunning
	}
	s.core.ep.Reset()
	if s.rewind != nil {
		s.rewind.reset()
	}
	s.clearAudioQueue()
	return nil
}

// clearAudioQueue drops audio buffered before the game jumped in time.
func (s *Session) clearAudioQueue() {
	if c, ok := s.sinks.Audio.(hostapi.AudioQueueClearer); ok {
		c.ClearQueue()
	}
}

// SetControllerPortDevice plugs device into port.
func (s *Session) SetControllerPortDevice(port, device uint) error {
	if !s.running {
		return ErrNotRunning
	}
	s.core.ep.SetControllerPortDevice(uint32(port), uint32(device))
	s.ports[port] = device
	return nil
}

// ControllerPortDevice returns the device plugged into port.
func (s *Session) ControllerPortDevice(port uint) uint {
	return s.ports[port]
}

// SetInputEnabled turns input forwarding on or off. While off the core
// reads every input as released.
func (s *Session) SetInputEnabled(enabled bool) { s.inputEnabled = enabled }

// SetFastForward records whether the embedder is running faster than real
// time. Cores read it through GET_FASTFORWARDING.
func (s *Session) SetFastForward(enabled bool) { s.fastForward = enabled }

// FastForward reports the effective fast-forward state, honoring a core
// override.
func (s *Session) FastForward() bool {
	if s.ffOverride != nil && s.ffOverride.fastforward {
		return true
	}
	return s.fastForward
}

// SetOption changes an option in the active scope and tells the core the
// visible set may have changed.
func (s *Session) SetOption(key, value string) error {
	if s.options == nil {
		return ErrNotRunning
	}
	if err := s.options.Set(key, value); err != nil {
		return err
	}
	if s.options.Game != nil {
		s.gameOptionsTouched = true
	}
	if s.updateDisplay.callback != 0 && s.core != nil {
		s.core.invoke(s.updateDisplay.callback)
	}
	return nil
}

// Options lists the options of the active scope sorted by key.
func (s *Session) Options() []options.Option {
	if s.options == nil {
		return nil
	}
	return s.options.Active().Options()
}

// CheatReset clears all cheats.
func (s *Session) CheatReset() error {
	if !s.running {
		return ErrNotRunning
	}
	s.core.ep.CheatReset()
	return nil
}

// CheatSet enables or disables cheat index with the given code.
func (s *Session) CheatSet(index uint, enabled bool, code string) error {
	if !s.running {
		return ErrNotRunning
	}
	var tmp stringTable
	defer tmp.release()
	s.core.ep.CheatSet(uint32(index), enabled, tmp.cstr(code))
	return nil
}

// Region reports the video standard of the loaded game.
func (s *Session) Region() hostapi.Region {
	if !s.running {
		return hostapi.RegionNTSC
	}
	return hostapi.Region(s.core.ep.GetRegion())
}

// SystemInfo returns the core's static description.
func (s *Session) SystemInfo() SystemInfo {
	if s.core == nil {
		return SystemInfo{}
	}
	return s.core.info
}

// CoreName is the storage key of the loaded core.
func (s *Session) CoreName() string {
	if s.core == nil {
		return ""
	}
	return s.core.Name
}

// AVInfo returns the negotiated geometry and timing.
func (s *Session) AVInfo() hostapi.AVInfo { return s.avInfo }

// PixelFormat returns the negotiated software framebuffer format.
func (s *Session) PixelFormat() hostapi.PixelFormat { return s.pixelFormat }

// Rotation returns the requested screen rotation in degrees
// counter-clockwise.
func (s *Session) Rotation() int { return s.rotation }

// PerformanceLevel returns the core's performance hint.
func (s *Session) PerformanceLevel() uint32 { return s.performanceLevel }

// HardwareRendering reports whether the core renders through a GL context.
func (s *Session) HardwareRendering() bool { return s.hw != nil }

// SupportsAchievements reports whether the core declared achievement
// support.
func (s *Session) SupportsAchievements() bool { return s.achievements }

// Subsystems returns the special content types the core declared.
func (s *Session) Subsystems() []Subsystem { return s.subsystems }

// Controllers returns the device types each port accepts.
func (s *Session) Controllers() []ControllerPort { return s.controllers }

// InputDescriptors returns the inputs the core declared.
func (s *Session) InputDescriptors() []InputDescriptor { return s.inputDescriptors }

// MemoryMaps returns the core's memory map.
func (s *Session) MemoryMaps() []MemoryDescriptor { return s.memoryMaps }

func (s *Session) logf(level hostapi.LogLevel, format string, args ...any) {
	if s.sinks.Log == nil {
		return
	}
	s.sinks.Log.Log(level, fmt.Sprintf(format, args...))
}

// coreLabel names the core in log lines.
func (s *Session) coreLabel() string {
	switch {
	case s.core == nil:
		return "core"
	case s.core.info.LibraryName != "":
		return s.core.info.LibraryName
	default:
		return s.core.Name
	}
}

// applyAVInfo stores new AV info and tells the sinks. Timing changes also
// reach the audio sink.
func (s *Session) applyAVInfo(av hostapi.AVInfo, timing bool) {
	s.avInfo = av
	s.stateSizeValid = false
	if s.sinks.Graphics != nil {
		s.sinks.Graphics.SetGeometry(av.Geometry, s.rotation)
	}
	if timing && s.sinks.Audio != nil && av.Timing.SampleRate > 0 {
		s.sinks.Audio.SetSampleRate(av.Timing.SampleRate)
	}
}

func avInfoFromC(c *systemAVInfo) hostapi.AVInfo {
	return hostapi.AVInfo{
		Geometry: geometryFromC(&c.geometry),
		Timing: hostapi.Timing{
			FPS:        c.timing.fps,
			SampleRate: c.timing.sampleRate,
		},
	}
}

func geometryFromC(g *gameGeometry) hostapi.Geometry {
	return hostapi.Geometry{
		BaseWidth:   int(g.baseWidth),
		BaseHeight:  int(g.baseHeight),
		MaxWidth:    int(g.maxWidth),
		MaxHeight:   int(g.maxHeight),
		AspectRatio: float64(g.aspectRatio),
	}
}

// videoRefresh forwards a frame. A nil data pointer repeats the previous
// frame and is dropped.
func (s *Session) videoRefresh(data unsafe.Pointer, width, height, pitch int) {
	g := s.sinks.Graphics
	if g == nil || data == nil {
		return
	}
	if uintptr(data) == hwFramebufferValid {
		g.DrawHardwareFrame(width, height)
		return
	}
	if width <= 0 || height <= 0 || pitch <= 0 {
		return
	}
	n := pitch*(height-1) + width*s.pixelFormat.BytesPerPixel()
	g.DrawFrame(unsafe.Slice((*byte)(data), n), width, height, pitch, s.pixelFormat)
}

func (s *Session) audioSample(left, right int16) {
	s.audioBuf = append(s.audioBuf, float32(left)/32768, float32(right)/32768)
}

func (s *Session) audioSampleBatch(samples []int16) int {
	for _, v := range samples {
		s.audioBuf = append(s.audioBuf, float32(v)/32768)
	}
	return len(samples) / 2
}

func (s *Session) flushAudio() {
	if len(s.audioBuf) == 0 {
		return
	}
	if s.sinks.Audio != nil {
		s.sinks.Audio.PushSamples(s.audioBuf)
	}
	s.audioBuf = s.audioBuf[:0]
}

func (s *Session) inputPoll() {
	if s.inputEnabled && s.sinks.Input != nil {
		s.sinks.Input.Poll()
	}
}

func (s *Session) inputState(port, device, index, id uint) int16 {
	in := s.sinks.Input
	if !s.inputEnabled || in == nil {
		return 0
	}
	if hostapi.DeviceBase(device) == hostapi.DeviceJoypad && id == hostapi.JoypadMask {
		var mask int16
		for b := uint(0); b < hostapi.JoypadButtons; b++ {
			if in.State(port, device, index, b) != 0 {
				mask |= 1 << b
			}
		}
		return mask
	}
	return in.State(port, device, index, id)
}

func (s *Session) setRumble(port, effect uint32, strength uint16) bool {
	r, ok := s.sinks.Input.(hostapi.Rumbler)
	if !ok {
		return false
	}
	return r.SetRumble(uint(port), hostapi.RumbleEffect(effect), strength)
}
