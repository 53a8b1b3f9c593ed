package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLayoutPaths(t *testing.T) {
	l := Layout{Root: "/data"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"cores", l.CoresDir(), filepath.Join("/data", "cores")},
		{"core path", l.CorePath("snes_libretro.so"), filepath.Join("/data", "cores", "snes_libretro.so")},
		{"global options", l.GlobalOptionsPath("snes"), filepath.Join("/data", "options", "snes.json")},
		{"game options", l.GameOptionsPath("snes", "Mario"), filepath.Join("/data", "options", "snes", "Mario.json")},
		{"system", l.SystemDir(), filepath.Join("/data", "system")},
		{"assets", l.AssetsDir("snes"), filepath.Join("/data", "assets", "snes")},
		{"saves", l.SaveDir("snes"), filepath.Join("/data", "saves", "snes")},
		{"sram", l.SRAMPath("snes", "Mario"), filepath.Join("/data", "saves", "snes", "Mario.srm")},
		{"state", l.StatePath("snes", "Mario", 2), filepath.Join("/data", "states", "snes", "Mario", "state2.state")},
		{"screenshot", l.ScreenshotPath("snes", "Mario", "1700000000"), filepath.Join("/data", "screenshots", "snes", "Mario", "1700000000.png")},
		{"database", l.DatabaseDir(), filepath.Join("/data", "database")},
		{"scratch", l.ScratchDir(), filepath.Join("/data", "temp")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	l := Layout{Root: filepath.Join(t.TempDir(), "root")}
	if err := l.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{l.CoresDir(), l.OptionsDir(), l.SystemDir(), l.DatabaseDir(), l.ScratchDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected %s to exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", dir)
		}
	}
}

func TestClearScratch(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	leftover := filepath.Join(l.ScratchDir(), "content", "old", "game.bin")
	if err := os.MkdirAll(filepath.Dir(leftover), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(leftover, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := l.ClearScratch(); err != nil {
		t.Fatalf("ClearScratch failed: %v", err)
	}

	entries, err := os.ReadDir(l.ScratchDir())
	if err != nil {
		t.Fatalf("scratch dir missing after clear: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty scratch dir, got %d entries", len(entries))
	}
}

func TestAtomicWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.json")

	type payload struct {
		Key   string `json:"key"`
		Value int    `json:"value"`
	}

	if err := AtomicWriteJSON(path, payload{Key: "a", Value: 7}); err != nil {
		t.Fatalf("AtomicWriteJSON failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after successful write")
	}

	var got payload
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.Key != "a" || got.Value != 7 {
		t.Errorf("unexpected round trip result: %+v", got)
	}
}

func TestReadJSONCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	var v map[string]string
	if err := ReadJSON(path, &v); err == nil {
		t.Error("expected error for corrupted JSON")
	}
}

func TestReadJSONMissing(t *testing.T) {
	var v map[string]string
	err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &v)
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
