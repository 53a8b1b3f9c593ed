package libretro

import (
	"errors"
	"testing"
)

func TestStringTableInterns(t *testing.T) {
	var st stringTable
	defer st.release()

	a := st.cstr("system")
	b := st.cstr("system")
	c := st.cstr("saves")
	if a != b {
		t.Error("equal strings not shared")
	}
	if a == c {
		t.Error("different strings share a copy")
	}
	if st.size() != 2 {
		t.Errorf("size = %d, want 2", st.size())
	}
	if goString(a) != "system" || goString(c) != "saves" {
		t.Errorf("goString = %q, %q", goString(a), goString(c))
	}

	st.release()
	if st.size() != 0 {
		t.Errorf("size after release = %d", st.size())
	}
	if d := st.cstr("system"); goString(d) != "system" {
		t.Error("table unusable after release")
	}
}

func TestStringTableEmptyString(t *testing.T) {
	var st stringTable
	defer st.release()
	p := st.cstr("")
	if p == nil || *p != 0 {
		t.Error("empty string is not a valid C string")
	}
}

func TestGoString(t *testing.T) {
	if goString(nil) != "" {
		t.Error("nil pointer not empty")
	}
	buf := []byte("abc\x00def")
	if got := goString(&buf[0]); got != "abc" {
		t.Errorf("goString = %q, want abc", got)
	}
}

type sentinelEntry struct {
	key   *byte
	value uint32
}

func TestScanSentinel(t *testing.T) {
	k := []byte("k\x00")
	end := func(e *sentinelEntry) bool { return e.key == nil }

	entries := []sentinelEntry{{&k[0], 1}, {&k[0], 2}, {}}
	got, err := scanSentinel(&entries[0], 8, end)
	if err != nil || len(got) != 2 || got[1].value != 2 {
		t.Errorf("scanSentinel = %v, %v", got, err)
	}

	got, err = scanSentinel(&entries[2], 8, end)
	if err != nil || len(got) != 0 {
		t.Errorf("empty array = %v, %v", got, err)
	}

	unterminated := []sentinelEntry{{&k[0], 1}, {&k[0], 2}, {&k[0], 3}}
	if _, err := scanSentinel(&unterminated[0], len(unterminated), end); !errors.Is(err, ErrUnterminatedArray) {
		t.Errorf("err = %v, want ErrUnterminatedArray", err)
	}

	if got, err := scanSentinel[sentinelEntry](nil, 8, end); got != nil || err != nil {
		t.Errorf("nil array = %v, %v", got, err)
	}
}

func TestCountedSlice(t *testing.T) {
	vals := []uint32{4, 5, 6}
	got, err := countedSlice(&vals[0], 2, 4)
	if err != nil || len(got) != 2 || got[1] != 5 {
		t.Errorf("countedSlice = %v, %v", got, err)
	}
	if &got[0] != &vals[0] {
		t.Error("countedSlice copied the array")
	}
	if _, err := countedSlice(&vals[0], 5, 4); !errors.Is(err, ErrArrayTooLarge) {
		t.Errorf("err = %v, want ErrArrayTooLarge", err)
	}
	if got, err := countedSlice(&vals[0], 0, 4); got != nil || err != nil {
		t.Errorf("zero count = %v, %v", got, err)
	}
	if got, _ := countedSlice[uint32](nil, 3, 4); got != nil {
		t.Errorf("nil array = %v", got)
	}
}
