// Package dynload loads native shared libraries and resolves their exported
// symbols. On platforms where a loaded image is shared process-wide by path
// the library can first be copied to a private instance file so several
// instances of the same library coexist.
package dynload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// ErrUnsupportedPlatform is returned by Open on platforms without a loader.
var ErrUnsupportedPlatform = errors.New("dynload: unsupported platform")

// ErrClosed is returned by Symbol after Close.
var ErrClosed = errors.New("dynload: module closed")

// LoadError reports a library that is missing or that the platform loader
// rejected.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MissingSymbolError reports an exported symbol absent from a library.
type MissingSymbolError struct {
	Path   string
	Symbol string
	Err    error
}

func (e *MissingSymbolError) Error() string {
	return fmt.Sprintf("%s: missing symbol %s", filepath.Base(e.Path), e.Symbol)
}

func (e *MissingSymbolError) Unwrap() error { return e.Err }

// Options controls how Open loads a library.
type Options struct {
	// PrivateCopy copies the library to ScratchDir/instances/<uuid>/ before
	// loading it.
	PrivateCopy bool
	// ScratchDir is the parent of the instances directory. Empty means
	// os.TempDir().
	ScratchDir string
}

// DefaultOptions returns the platform default: private copies on windows and
// darwin, in-place loading elsewhere.
func DefaultOptions(scratchDir string) Options {
	return Options{
		PrivateCopy: runtime.GOOS == "windows" || runtime.GOOS == "darwin" || runtime.GOOS == "ios",
		ScratchDir:  scratchDir,
	}
}

// loader is the platform load/resolve/unload primitive.
type loader interface {
	open(path string) (uintptr, error)
	symbol(handle uintptr, name string) (uintptr, error)
	close(handle uintptr) error
}

// Module is a loaded shared library.
type Module struct {
	mu          sync.Mutex
	ld          loader
	handle      uintptr
	path        string
	loadedPath  string
	instanceDir string
	closed      bool
}

// Open loads the library at path.
func Open(path string, opts Options) (*Module, error) {
	return openWith(nativeLoader{}, path, opts)
}

func openWith(ld loader, path string, opts Options) (*Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Err: errors.New("is a directory")}
	}

	m := &Module{ld: ld, path: path, loadedPath: path}
	if opts.PrivateCopy {
		dir, copyPath, err := newInstanceCopy(path, opts.ScratchDir)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		m.instanceDir = dir
		m.loadedPath = copyPath
	}

	handle, err := ld.open(m.loadedPath)
	if err != nil {
		m.removeInstance()
		return nil, &LoadError{Path: path, Err: err}
	}
	m.handle = handle
	return m, nil
}

// Symbol returns the address of an exported symbol.
func (m *Module) Symbol(name string) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, &MissingSymbolError{Path: m.path, Symbol: name, Err: ErrClosed}
	}
	addr, err := m.ld.symbol(m.handle, name)
	if err != nil {
		return 0, &MissingSymbolError{Path: m.path, Symbol: name, Err: err}
	}
	if addr == 0 {
		return 0, &MissingSymbolError{Path: m.path, Symbol: name, Err: errors.New("null address")}
	}
	return addr, nil
}

// Path is the path Open was called with.
func (m *Module) Path() string { return m.path }

// LoadedPath is the file actually loaded; it differs from Path for private
// copies.
func (m *Module) LoadedPath() string { return m.loadedPath }

// Close unloads the library and removes its private copy. Closing twice is a
// no-op.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	err := m.ld.close(m.handle)
	m.handle = 0
	if rmErr := m.removeInstance(); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

func (m *Module) removeInstance() error {
	if m.instanceDir == "" {
		return nil
	}
	dir := m.instanceDir
	m.instanceDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove instance copy: %w", err)
	}
	return nil
}

// newInstanceCopy copies src into a fresh scratch/instances/<uuid> directory
// keeping its base name.
func newInstanceCopy(src, scratchDir string) (dir, path string, err error) {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	dir = filepath.Join(scratchDir, "instances", uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create instance dir: %w", err)
	}
	path = filepath.Join(dir, filepath.Base(src))
	if err := copyFile(src, path); err != nil {
		os.RemoveAll(dir)
		return "", "", err
	}
	return dir, path, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// LibraryName returns the conventional file name of a core for the running
// platform, for example "snes9x_libretro.so".
func LibraryName(core string) string {
	return core + "_libretro" + libraryExt(runtime.GOOS)
}

func libraryExt(goos string) string {
	switch goos {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	case "ios":
		return "_ios.dylib"
	case "android":
		return "_android.so"
	default:
		return ".so"
	}
}
