// Command retrohost runs a libretro core with content in a window or
// headless.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/frontend"
	"github.com/user-none/retrohost/libretro"
	"github.com/user-none/retrohost/options"
	"github.com/user-none/retrohost/rdb"
	"github.com/user-none/retrohost/storage"
)

type cliOptions struct {
	configPath string
	corePath   string
	headless   bool
	frames     uint64
	screenshot bool
	info       bool
	logLevel   string
	overrides  map[string]string
	content    string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func parseFlags(args []string) (*cliOptions, error) {
	opts := &cliOptions{overrides: make(map[string]string)}

	flagSet := flag.NewFlagSet("retrohost", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.configPath, "config", "", "Config file (default: user config dir)")
	flagSet.StringVar(&opts.corePath, "core", "", "Core library path, or a file name in the cores directory")
	flagSet.BoolVar(&opts.headless, "headless", false, "Run without a window or audio device")
	flagSet.Uint64Var(&opts.frames, "frames", 0, "Stop after this many frames (0 runs until the core exits)")
	flagSet.BoolVar(&opts.screenshot, "screenshot", false, "Save a screenshot of the last frame on exit")
	flagSet.BoolVar(&opts.info, "info", false, "Print core information and options, then exit")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	flagSet.Func("set", "Set a core option (key=value, repeatable)", func(s string) error {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return fmt.Errorf("expected key=value, got %q", s)
		}
		opts.overrides[key] = value
		return nil
	})
	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: retrohost -core <core> [-headless] [-frames N] [-set key=value] [content]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if opts.corePath == "" {
		return nil, errors.New("-core is required")
	}
	if flagSet.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one content path, got %d", flagSet.NArg())
	}
	opts.content = flagSet.Arg(0)
	return opts, nil
}

// resolveCorePath accepts a path or the file name of an installed core.
func resolveCorePath(layout storage.Layout, core string) string {
	if strings.ContainsRune(core, filepath.Separator) || strings.ContainsRune(core, '/') {
		return core
	}
	if _, err := os.Stat(core); err == nil {
		return core
	}
	return layout.CorePath(core)
}

// splitContent turns a content path into the directory and name Start
// resolves. An empty path starts the core without content.
func splitContent(path string) (dir, name string) {
	if path == "" {
		return "", ""
	}
	return filepath.Dir(path), filepath.Base(path)
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Printf("Error: %v\n", err)
		return 2
	}

	configPath := opts.configPath
	if configPath == "" {
		if configPath, err = storage.ConfigPath(); err != nil {
			log.Printf("Failed to locate config: %v", err)
			return 1
		}
	}
	cfg, err := storage.LoadConfig(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := &hostapi.StdLogger{
		Logger: log.New(os.Stderr, "", log.LstdFlags),
		Min:    hostapi.ParseLogLevel(level),
	}

	layout := cfg.Layout()
	if err := layout.EnsureDirectories(); err != nil {
		logger.Log(hostapi.LogError, fmt.Sprintf("Failed to create directories: %v", err))
		return 1
	}
	if err := layout.ClearScratch(); err != nil {
		logger.Log(hostapi.LogWarn, fmt.Sprintf("Failed to clear scratch directory: %v", err))
	}

	h := &host{
		opts:   opts,
		cfg:    cfg,
		layout: layout,
		log:    logger,
	}
	if err := h.run(); err != nil {
		logger.Log(hostapi.LogError, err.Error())
		return 1
	}
	return 0
}

// host wires a session to the frontend sinks.
type host struct {
	opts   *cliOptions
	cfg    *storage.Config
	layout storage.Layout
	log    *hostapi.StdLogger

	runner  *libretro.Runner
	window  *frontend.Window
	video   *frontend.HeadlessVideo
	audio   *frontend.Audio
	core    string
	content string
	path    string
	game    *rdb.Game
}

func (h *host) logf(level hostapi.LogLevel, format string, args ...any) {
	h.log.Log(level, fmt.Sprintf(format, args...))
}

func (h *host) sinks() hostapi.Sinks {
	sinks := hostapi.Sinks{Log: h.log}
	if h.opts.headless || h.opts.info {
		h.video = &frontend.HeadlessVideo{}
		sinks.Graphics = h.video
		sinks.Audio = &frontend.NullAudio{}
		sinks.Input = frontend.NullInput{}
		return sinks
	}

	h.window = frontend.NewWindow(frontend.WindowOptions{
		Title:         "retrohost",
		Scale:         h.cfg.Video.Scale,
		Mapping:       frontend.BuildMapping(h.cfg.Input.Keyboard, h.cfg.Input.Gamepad),
		DisableAnalog: h.cfg.Input.DisableAnalog,
		Hotkeys:       h.hotkeys(),
		Keyboard:      true,
	})
	sinks.Graphics = h.window
	sinks.Input = h.window

	sinks.Audio = &frontend.NullAudio{}
	if !h.cfg.Audio.Disabled {
		audio, err := frontend.NewAudio(h.cfg.Audio.Volume)
		if err != nil {
			h.logf(hostapi.LogWarn, "Warning: audio initialization failed: %v", err)
		} else {
			h.audio = audio
			sinks.Audio = audio
		}
	}
	return sinks
}

func (h *host) run() error {
	session := libretro.NewSession(libretro.ConfigFrom(h.cfg), h.sinks())
	h.runner = libretro.NewRunner(session)
	h.runner.OnFrame = h.onFrame
	defer func() {
		if h.audio != nil {
			h.audio.Close()
		}
	}()

	corePath := resolveCorePath(h.layout, h.opts.corePath)
	dir, name := splitContent(h.opts.content)
	if err := h.runner.Start(corePath, dir, name); err != nil {
		return fmt.Errorf("failed to start %s: %w", corePath, err)
	}
	defer func() {
		h.runner.Stop()
		h.runner.Wait()
	}()

	h.runner.Do(func(s *libretro.Session) error {
		h.core = s.CoreName()
		if c, err := s.Content(); err == nil {
			h.content = c.Name
			h.path = c.Path
		} else {
			h.content = h.core
		}
		return nil
	})
	h.applyOverrides()
	h.identify()

	switch {
	case h.opts.info:
		return h.printInfo(os.Stdout)
	case h.window != nil:
		return h.runWindow()
	default:
		return h.runHeadless()
	}
}

// identify looks the content up in the game databases.
func (h *host) identify() {
	if h.path == "" {
		return
	}
	db, err := rdb.LoadDir(h.layout.DatabaseDir(), func(path string, err error) {
		h.logf(hostapi.LogWarn, "Failed to load database %s: %v", path, err)
	})
	if err != nil || db.Len() == 0 {
		return
	}
	g, ok, err := db.Identify(h.path)
	if err != nil {
		h.logf(hostapi.LogWarn, "Failed to identify content: %v", err)
		return
	}
	if !ok {
		h.logf(hostapi.LogDebug, "%s not in any database", h.path)
		return
	}
	h.game = &g
	h.logf(hostapi.LogInfo, "identified %s as %q", h.content, g.Name)
}

// title is the display name of the running content.
func (h *host) title() string {
	if h.game != nil {
		return h.game.DisplayName()
	}
	return h.content
}

func (h *host) applyOverrides() {
	for key, value := range h.opts.overrides {
		err := h.runner.SetOption(key, value)
		var oe *options.OptionError
		switch {
		case err == nil:
		case errors.As(err, &oe):
			h.logf(hostapi.LogWarn, "%v", oe)
		default:
			h.logf(hostapi.LogWarn, "Failed to set option %s: %v", key, err)
		}
	}
}

// onFrame runs on the core thread after every frame.
func (h *host) onFrame(s *libretro.Session) {
	if h.window != nil {
		for _, ev := range h.window.TakeKeyEvents() {
			s.KeyboardEvent(ev.Down, ev.Keycode, ev.Character, ev.Mods)
		}
	}
	if h.opts.frames > 0 && s.Frames() >= h.opts.frames {
		h.runner.Stop()
	}
}

func (h *host) hotkeys() frontend.Hotkeys {
	return frontend.Hotkeys{
		Quit: func() {
			h.runner.Stop()
			h.window.Close()
		},
		TogglePause: func() {
			if h.runner.Paused() {
				h.runner.Resume()
			} else {
				h.runner.Pause()
			}
		},
		SaveState: func(slot int) {
			if err := h.runner.SaveState(slot); err != nil {
				h.logf(hostapi.LogWarn, "Failed to save state: %v", err)
			}
		},
		LoadState: func(slot int) {
			if err := h.runner.LoadState(slot); err != nil {
				h.logf(hostapi.LogWarn, "Failed to load state: %v", err)
			}
		},
		Reset: func() {
			if err := h.runner.Reset(); err != nil {
				h.logf(hostapi.LogWarn, "Failed to reset: %v", err)
			}
		},
		Screenshot: func() {
			h.saveScreenshot(h.window)
		},
		FastForward: func(on bool) {
			h.runner.SetFastForward(on)
		},
		Rewind: func() {
			h.runner.Rewind(1)
		},
		SlotChanged: func(slot int) {
			h.window.SetTitle(fmt.Sprintf("retrohost - %s (slot %d)", h.title(), slot))
		},
	}
}

func (h *host) saveScreenshot(snap frontend.Snapshotter) {
	path, err := frontend.SaveScreenshot(snap, h.layout, h.core, h.content, h.cfg.Video.Scale)
	if err != nil {
		h.logf(hostapi.LogWarn, "Failed to save screenshot: %v", err)
		return
	}
	h.logf(hostapi.LogInfo, "screenshot saved to %s", path)
}

func (h *host) runWindow() error {
	h.window.SetTitle(fmt.Sprintf("retrohost - %s", h.title()))
	go func() {
		<-h.runner.Done()
		h.window.Close()
	}()
	if err := h.window.Run(); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

func (h *host) runHeadless() error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-h.runner.Done():
	case <-sig:
		h.runner.Stop()
	}
	h.runner.Wait()

	sw, hw := h.video.Frames()
	h.logf(hostapi.LogInfo, "presented %d frames (%d hardware)", sw, hw)
	if h.opts.screenshot {
		h.saveScreenshot(h.video)
	}
	return nil
}

func (h *host) printInfo(w io.Writer) error {
	return h.runner.Do(func(s *libretro.Session) error {
		info := s.SystemInfo()
		av := s.AVInfo()
		fmt.Fprintf(w, "Core:       %s %s\n", info.LibraryName, info.LibraryVersion)
		fmt.Fprintf(w, "Extensions: %s\n", strings.Join(info.ValidExtensions, ", "))
		fmt.Fprintf(w, "Geometry:   %dx%d (max %dx%d, aspect %.3f)\n",
			av.Geometry.BaseWidth, av.Geometry.BaseHeight,
			av.Geometry.MaxWidth, av.Geometry.MaxHeight, av.Geometry.EffectiveAspectRatio())
		fmt.Fprintf(w, "Timing:     %.3f fps, %.0f Hz\n", av.Timing.FPS, av.Timing.SampleRate)
		fmt.Fprintf(w, "Pixels:     %s\n", s.PixelFormat())
		fmt.Fprintf(w, "Region:     %s\n", s.Region())
		if h.game != nil {
			fmt.Fprintf(w, "Database:   %s", h.game.Name)
			if r, ok := h.game.Region(); ok && r != s.Region() {
				fmt.Fprintf(w, " (expects %s)", r)
			}
			fmt.Fprintln(w)
		}
		if n, err := s.StateSize(); err == nil {
			fmt.Fprintf(w, "State size: %d bytes\n", n)
		}
		for i, port := range s.Controllers() {
			var names []string
			for _, t := range port.Types {
				names = append(names, t.Description)
			}
			fmt.Fprintf(w, "Port %d:     %s\n", i+1, strings.Join(names, ", "))
		}
		for _, opt := range s.Options() {
			if !opt.Visible {
				continue
			}
			fmt.Fprintf(w, "Option:     %s = %s [%s]\n", opt.Key, opt.Value, strings.Join(opt.Values, "|"))
		}
		return nil
	})
}
