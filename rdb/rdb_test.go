package rdb

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	hostapi "github.com/user-none/retrohost/api"
)

// encoder writes the MessagePack subset used by game databases.
type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	e := &encoder{buf: []byte(magic)}
	e.buf = append(e.buf, make([]byte, headerSize-len(magic))...)
	return e
}

func (e *encoder) mapHeader(n int) {
	if n < 16 {
		e.buf = append(e.buf, 0x80|byte(n))
		return
	}
	e.buf = append(e.buf, 0xde)
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(n))
}

func (e *encoder) str(s string) {
	switch {
	case len(s) < 32:
		e.buf = append(e.buf, 0xa0|byte(len(s)))
	default:
		e.buf = append(e.buf, 0xd9, byte(len(s)))
	}
	e.buf = append(e.buf, s...)
}

func (e *encoder) bin(b []byte) {
	e.buf = append(e.buf, 0xc4, byte(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) uint32(v uint32) {
	e.buf = append(e.buf, 0xce)
	e.buf = binary.BigEndian.AppendUint32(e.buf, v)
}

func (e *encoder) end() []byte {
	return append(e.buf, 0xc0)
}

func crcBytes(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func sampleDB() []byte {
	e := newEncoder()
	e.mapHeader(4)
	e.str("name")
	e.str("Sonic the Hedgehog (USA, Europe)")
	e.str("crc")
	e.bin(crcBytes(0x12345678))
	e.str("md5")
	e.bin([]byte{0xab, 0xcd, 0xef, 0x01})
	e.str("releaseyear")
	e.uint32(1991)

	e.mapHeader(3)
	e.str("name")
	e.str("Alex Kidd in Miracle World (Europe)")
	e.str("crc")
	e.bin(crcBytes(0xAABBCCDD))
	e.str("description")
	e.str("A long description that needs the str8 encoding to fit")

	// Entries without a name or checksum are dropped.
	e.mapHeader(1)
	e.str("genre")
	e.str("Puzzle")
	return e.end()
}

func TestParse(t *testing.T) {
	db, err := Parse(sampleDB())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if db.Len() != 2 {
		t.Fatalf("Len = %d, want 2", db.Len())
	}

	g, ok := db.FindByCRC32(0x12345678)
	if !ok || g.Name != "Sonic the Hedgehog (USA, Europe)" || g.ReleaseYear != 1991 || g.MD5 != "abcdef01" {
		t.Errorf("FindByCRC32 = %+v, %v", g, ok)
	}
	if g, ok := db.FindByMD5("ABCDEF01"); !ok || g.CRC32 != 0x12345678 {
		t.Errorf("FindByMD5 = %+v, %v", g, ok)
	}
	if g, ok := db.FindByCRC32(0xAABBCCDD); !ok || g.Description == "" {
		t.Errorf("second entry = %+v, %v", g, ok)
	}
	if _, ok := db.FindByCRC32(0); ok {
		t.Error("found a game for checksum 0")
	}
}

func TestParseMap16(t *testing.T) {
	e := newEncoder()
	e.mapHeader(16)
	e.str("name")
	e.str("Big Entry")
	for range 15 {
		e.str("unknown")
		e.str("x")
	}
	db, err := Parse(e.end())
	if err != nil || db.Len() != 1 {
		t.Fatalf("Parse = %d games, %v", db.Len(), err)
	}
}

func TestParseErrors(t *testing.T) {
	truncated := sampleDB()
	truncated = truncated[:len(truncated)-10]

	tests := []struct {
		name  string
		data  []byte
		games int
	}{
		{"empty", nil, -1},
		{"bad magic", append([]byte("NOTADB\x00\x00"), make([]byte, 8)...), -1},
		{"truncated", truncated, 2},
		{"unexpected type", append(newEncoder().buf, 0xa1, 'x'), 0},
		{"unsupported type", append(newEncoder().buf, 0xc1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Parse(tt.data)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
			if tt.games < 0 {
				if db != nil {
					t.Error("database returned for a bad header")
				}
				return
			}
			if db.Len() != tt.games {
				t.Errorf("kept %d games, want %d", db.Len(), tt.games)
			}
		})
	}
}

func TestParseHeaderOnly(t *testing.T) {
	db, err := Parse(newEncoder().end())
	if err != nil || db.Len() != 0 {
		t.Errorf("Parse = %v, %v", db, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.rdb"), sampleDB(), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.rdb"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	var skipped []string
	db, err := LoadDir(dir, func(path string, err error) {
		skipped = append(skipped, filepath.Base(path))
	})
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if db.Len() != 2 {
		t.Errorf("Len = %d, want 2", db.Len())
	}
	if len(skipped) != 1 || skipped[0] != "broken.rdb" {
		t.Errorf("skipped = %v", skipped)
	}

	empty, err := LoadDir(filepath.Join(dir, "missing"), nil)
	if err != nil || empty.Len() != 0 {
		t.Errorf("missing dir = %v, %v", empty, err)
	}
}

func TestIdentify(t *testing.T) {
	content := []byte("ROMDATA")
	e := newEncoder()
	e.mapHeader(2)
	e.str("name")
	e.str("Test Game (Japan)")
	e.str("crc")
	e.bin(crcBytes(crc32.ChecksumIEEE(content)))
	db, err := Parse(e.end())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "game.bin")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	g, ok, err := db.Identify(path)
	if err != nil || !ok || g.DisplayName() != "Test Game" {
		t.Errorf("Identify = %+v, %v, %v", g, ok, err)
	}
	if _, _, err := db.Identify(path + ".missing"); err == nil {
		t.Error("no error for a missing file")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Sonic the Hedgehog (USA)", "Sonic the Hedgehog"},
		{"Zillion (Japan) (Rev 2)", "Zillion"},
		{"Wonder Boy", "Wonder Boy"},
		{"", ""},
		{"(USA)", "(USA)"},
	}
	for _, tt := range tests {
		if got := (Game{Name: tt.input}).DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRegion(t *testing.T) {
	tests := []struct {
		input string
		want  hostapi.Region
		ok    bool
	}{
		{"Sonic (USA)", hostapi.RegionNTSC, true},
		{"Sonic (USA, Europe)", hostapi.RegionNTSC, true},
		{"Phantasy Star (Japan)", hostapi.RegionNTSC, true},
		{"Black Belt (World)", hostapi.RegionNTSC, true},
		{"Alex Kidd (Europe)", hostapi.RegionPAL, true},
		{"Game (EUROPE)", hostapi.RegionPAL, true},
		{"Game (Germany)", hostapi.RegionPAL, true},
		{"Game (Brazil)", hostapi.RegionNTSC, false},
		{"Wonder Boy", hostapi.RegionNTSC, false},
	}
	for _, tt := range tests {
		got, ok := (Game{Name: tt.input}).Region()
		if got != tt.want || ok != tt.ok {
			t.Errorf("Region(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
