// Package rdb reads libretro game databases (.rdb): a "RARCHDB" header
// followed by MessagePack maps, one per game, terminated by nil.
package rdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	hostapi "github.com/user-none/retrohost/api"
)

const (
	magic      = "RARCHDB\x00"
	headerSize = 0x10
)

// ErrMalformed is returned for data that is not a game database.
var ErrMalformed = errors.New("malformed rdb")

// Game is one database entry.
type Game struct {
	Name         string // No-Intro name, e.g. "Sonic the Hedgehog (USA, Europe)"
	Description  string
	Genre        string
	Developer    string
	Publisher    string
	Franchise    string
	ESRBRating   string
	ROMName      string
	ReleaseMonth uint
	ReleaseYear  uint
	Size         uint64
	CRC32        uint32
	Serial       string
	MD5          string
}

// DB indexes games by checksum.
type DB struct {
	games   []Game
	byCRC32 map[uint32]int
	byMD5   map[string]int
}

// Load parses the database at path.
func Load(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}
	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// LoadDir merges every .rdb file in dir. Unreadable files are skipped and
// reported through skip; a missing dir yields an empty database.
func LoadDir(dir string, skip func(path string, err error)) (*DB, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.rdb"))
	if err != nil {
		return nil, err
	}
	db := newDB()
	for _, p := range paths {
		part, err := Load(p)
		if err != nil {
			if skip != nil {
				skip(p, err)
			}
			continue
		}
		for _, g := range part.games {
			db.add(g)
		}
	}
	return db, nil
}

func newDB() *DB {
	return &DB{byCRC32: make(map[uint32]int), byMD5: make(map[string]int)}
}

func (db *DB) add(g Game) {
	db.games = append(db.games, g)
	i := len(db.games) - 1
	if g.CRC32 != 0 {
		db.byCRC32[g.CRC32] = i
	}
	if g.MD5 != "" {
		db.byMD5[g.MD5] = i
	}
}

// Parse decodes database content. Entries read before a truncation are
// kept and returned with the error.
func Parse(data []byte) (*DB, error) {
	if len(data) < headerSize || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad header", ErrMalformed)
	}
	db := newDB()
	r := &reader{data: data, pos: headerSize}
	for {
		v, err := r.next()
		if err != nil {
			return db, err
		}
		switch v.kind {
		case kindNil:
			return db, nil
		case kindMap:
		default:
			return db, fmt.Errorf("%w: expected map at offset %d", ErrMalformed, r.pos)
		}
		var g Game
		for range v.n {
			k, err := r.next()
			if err != nil {
				return db, err
			}
			val, err := r.next()
			if err != nil {
				return db, err
			}
			if k.kind == kindStr {
				g.set(string(k.raw), val)
			}
		}
		if g.Name != "" || g.CRC32 != 0 {
			db.add(g)
		}
	}
}

// FindByCRC32 returns the game with the given checksum.
func (db *DB) FindByCRC32(sum uint32) (Game, bool) {
	i, ok := db.byCRC32[sum]
	if !ok {
		return Game{}, false
	}
	return db.games[i], true
}

// FindByMD5 returns the game with the given lower-case hex MD5.
func (db *DB) FindByMD5(sum string) (Game, bool) {
	i, ok := db.byMD5[strings.ToLower(sum)]
	if !ok {
		return Game{}, false
	}
	return db.games[i], true
}

// Identify looks a content file up by its CRC32.
func (db *DB) Identify(path string) (Game, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return Game{}, false, err
	}
	defer f.Close()
	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return Game{}, false, fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	g, ok := db.FindByCRC32(h.Sum32())
	return g, ok, nil
}

// Len returns the number of games.
func (db *DB) Len() int { return len(db.games) }

// DisplayName drops the parenthesised tags from a No-Intro name.
func (g Game) DisplayName() string {
	if i := strings.Index(g.Name, " ("); i > 0 {
		return strings.TrimSpace(g.Name[:i])
	}
	return g.Name
}

// Region guesses the video standard from the name's region tag. Europe
// and its countries are PAL; USA, Japan and World are NTSC.
func (g Game) Region() (hostapi.Region, bool) {
	lower := strings.ToLower(g.Name)
	for _, tag := range []string{"(usa", "(us)", ", usa)", "(world)", "(japan", "(jp)", ", japan)"} {
		if strings.Contains(lower, tag) {
			return hostapi.RegionNTSC, true
		}
	}
	for _, tag := range []string{"(europe", "(eu)", ", europe)", "(germany", "(france", "(uk)", "(australia"} {
		if strings.Contains(lower, tag) {
			return hostapi.RegionPAL, true
		}
	}
	return hostapi.RegionNTSC, false
}

func (g *Game) set(key string, v value) {
	switch key {
	case "name":
		g.Name = v.str()
	case "description":
		g.Description = v.str()
	case "genre":
		g.Genre = v.str()
	case "developer":
		g.Developer = v.str()
	case "publisher":
		g.Publisher = v.str()
	case "franchise":
		g.Franchise = v.str()
	case "esrb_rating":
		g.ESRBRating = v.str()
	case "serial":
		g.Serial = v.str()
	case "rom_name":
		g.ROMName = v.str()
	case "size":
		g.Size = v.uint()
	case "releasemonth":
		g.ReleaseMonth = uint(v.uint())
	case "releaseyear":
		g.ReleaseYear = uint(v.uint())
	case "crc":
		g.CRC32 = uint32(v.uint())
	case "md5":
		g.MD5 = fmt.Sprintf("%x", v.raw)
	}
}

type kind int

const (
	kindNil kind = iota
	kindMap
	kindStr
	kindBin
	kindUint
)

type value struct {
	kind kind
	raw  []byte
	n    uint64
}

func (v value) str() string { return string(v.raw) }

// uint reads unsigned integers and the big-endian binary blobs the
// database uses for checksums.
func (v value) uint() uint64 {
	switch v.kind {
	case kindUint:
		return v.n
	case kindBin:
		var n uint64
		for _, b := range v.raw {
			n = n<<8 | uint64(b)
		}
		return n
	}
	return 0
}

// reader decodes the MessagePack subset found in game databases.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrMalformed, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) length(size int) (int, error) {
	b, err := r.take(size)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return int(b[0]), nil
	case 2:
		return int(binary.BigEndian.Uint16(b)), nil
	default:
		return int(binary.BigEndian.Uint32(b)), nil
	}
}

func (r *reader) next() (value, error) {
	b, err := r.take(1)
	if err != nil {
		return value{}, err
	}
	tag := b[0]
	switch {
	case tag < 0x80:
		return value{kind: kindUint, n: uint64(tag)}, nil
	case tag&0xf0 == 0x80:
		return value{kind: kindMap, n: uint64(tag & 0x0f)}, nil
	case tag&0xe0 == 0xa0:
		raw, err := r.take(int(tag & 0x1f))
		return value{kind: kindStr, raw: raw}, err
	}

	switch tag {
	case 0xc0:
		return value{kind: kindNil}, nil
	case 0xd9, 0xda, 0xdb: // str8/16/32
		n, err := r.length(1 << (tag - 0xd9))
		if err != nil {
			return value{}, err
		}
		raw, err := r.take(n)
		return value{kind: kindStr, raw: raw}, err
	case 0xc4, 0xc5, 0xc6: // bin8/16/32
		n, err := r.length(1 << (tag - 0xc4))
		if err != nil {
			return value{}, err
		}
		raw, err := r.take(n)
		return value{kind: kindBin, raw: raw}, err
	case 0xcc, 0xcd, 0xce, 0xcf: // uint8/16/32/64
		raw, err := r.take(1 << (tag - 0xcc))
		if err != nil {
			return value{}, err
		}
		v := value{kind: kindBin, raw: raw}
		return value{kind: kindUint, n: v.uint()}, nil
	case 0xde, 0xdf: // map16/32
		n, err := r.length(2 << (tag - 0xde))
		return value{kind: kindMap, n: uint64(n)}, err
	}
	return value{}, fmt.Errorf("%w: unsupported type 0x%02x at offset %d", ErrMalformed, tag, r.pos-1)
}
