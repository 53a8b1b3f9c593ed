// Package storage owns the host's on-disk layout: one configurable root with
// fixed subdirectories for cores, options, system files, per-core assets,
// saves, states and a scratch area.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

const (
	coresDir       = "cores"
	optionsDir     = "options"
	systemDir      = "system"
	assetsDir      = "assets"
	savesDir       = "saves"
	statesDir      = "states"
	screenshotsDir = "screenshots"
	databaseDir    = "database"
	scratchDir     = "temp"
)

// Layout resolves every host path below Root.
type Layout struct {
	Root string
}

// DefaultRoot returns the per-user data directory for appName. Example paths:
// - macOS: ~/Library/Application Support/<appName>
// - Linux: ~/.local/share/<appName>
// - Windows: %APPDATA%/<appName>
func DefaultRoot(appName string) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, appName), nil
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", appName), nil
	}
}

// EnsureDirectories creates the root and all fixed subdirectories.
func (l Layout) EnsureDirectories() error {
	dirs := []string{
		l.Root,
		l.CoresDir(),
		l.OptionsDir(),
		l.SystemDir(),
		filepath.Join(l.Root, assetsDir),
		filepath.Join(l.Root, savesDir),
		filepath.Join(l.Root, statesDir),
		filepath.Join(l.Root, screenshotsDir),
		l.DatabaseDir(),
		l.ScratchDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ClearScratch removes everything below the scratch directory and recreates
// it empty. Called once at process start.
func (l Layout) ClearScratch() error {
	dir := l.ScratchDir()
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear scratch directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return nil
}

// CoresDir is where core libraries are installed.
func (l Layout) CoresDir() string { return filepath.Join(l.Root, coresDir) }

// CorePath returns the path of a core library file.
func (l Layout) CorePath(libraryName string) string {
	return filepath.Join(l.CoresDir(), libraryName)
}

// OptionsDir holds option files.
func (l Layout) OptionsDir() string { return filepath.Join(l.Root, optionsDir) }

// GlobalOptionsPath is the per-core option file.
func (l Layout) GlobalOptionsPath(core string) string {
	return filepath.Join(l.OptionsDir(), core+".json")
}

// GameOptionsPath is the per core+content option file.
func (l Layout) GameOptionsPath(core, content string) string {
	return filepath.Join(l.OptionsDir(), core, content+".json")
}

// SystemDir holds BIOS and other system files shared by all cores.
func (l Layout) SystemDir() string { return filepath.Join(l.Root, systemDir) }

// AssetsDir is the per-core asset cache.
func (l Layout) AssetsDir(core string) string {
	return filepath.Join(l.Root, assetsDir, core)
}

// SaveDir is the per-core save directory reported to the core.
func (l Layout) SaveDir(core string) string {
	return filepath.Join(l.Root, savesDir, core)
}

// SRAMPath is the battery save file of one core+content pair.
func (l Layout) SRAMPath(core, content string) string {
	return filepath.Join(l.SaveDir(core), content+".srm")
}

// StatePath is the save-state file of one core+content+slot.
func (l Layout) StatePath(core, content string, slot int) string {
	return filepath.Join(l.Root, statesDir, core, content, "state"+strconv.Itoa(slot)+".state")
}

// ScreenshotPath is a screenshot of one core+content pair taken at stamp.
func (l Layout) ScreenshotPath(core, content, stamp string) string {
	return filepath.Join(l.Root, screenshotsDir, core, content, stamp+".png")
}

// DatabaseDir holds .rdb game databases used to identify content.
func (l Layout) DatabaseDir() string { return filepath.Join(l.Root, databaseDir) }

// ScratchDir is cleared at process start.
func (l Layout) ScratchDir() string { return filepath.Join(l.Root, scratchDir) }

// AtomicWriteJSON writes data to a JSON file atomically.
// It writes to a temporary file first, then renames to the target path.
func AtomicWriteJSON(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return AtomicWriteFile(path, jsonData)
}

// AtomicWriteFile writes data through a temporary file and a rename so the
// target is never partially written. The parent directory is created.
func AtomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// ReadJSON reads and unmarshals a JSON file
func ReadJSON(path string, data interface{}) error {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(jsonData, data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
