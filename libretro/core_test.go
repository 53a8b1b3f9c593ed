package libretro

import (
	"errors"
	"reflect"
	"testing"

	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/dynload"
)

// symbolTable resolves names from a map and records every lookup.
type symbolTable struct {
	addrs   map[string]uintptr
	lookups []string
}

func (st *symbolTable) Symbol(name string) (uintptr, error) {
	st.lookups = append(st.lookups, name)
	addr, ok := st.addrs[name]
	if !ok {
		return 0, &dynload.MissingSymbolError{Path: "fake.so", Symbol: name, Err: errors.New("not exported")}
	}
	return addr, nil
}

func retroSymbols() []string {
	var names []string
	t := reflect.TypeOf(entryPoints{})
	for i := range t.NumField() {
		if name := t.Field(i).Tag.Get("retro"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func TestEntryPointTags(t *testing.T) {
	names := retroSymbols()
	if len(names) != reflect.TypeOf(entryPoints{}).NumField() {
		t.Errorf("%d of %d entry points are tagged", len(names), reflect.TypeOf(entryPoints{}).NumField())
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Errorf("symbol %s bound twice", n)
		}
		seen[n] = true
	}
}

func TestBindEntryPointsMissingSymbol(t *testing.T) {
	st := &symbolTable{addrs: make(map[string]uintptr)}
	for i, name := range retroSymbols() {
		if name != "retro_get_region" {
			st.addrs[name] = uintptr(0x1000 + i)
		}
	}

	ep, err := bindEntryPoints(st)
	if ep != nil {
		t.Error("partial entry point table returned")
	}
	var mse *dynload.MissingSymbolError
	if !errors.As(err, &mse) || mse.Symbol != "retro_get_region" {
		t.Fatalf("err = %v, want MissingSymbolError for retro_get_region", err)
	}
	// Lookups stop at the first missing symbol.
	if last := st.lookups[len(st.lookups)-1]; last != "retro_get_region" {
		t.Errorf("last lookup = %s", last)
	}
}

func TestStartCoreMissingEntryPoint(t *testing.T) {
	fc := newFakeCore()
	fc.openErr = &dynload.MissingSymbolError{Path: fakeCorePath, Symbol: "retro_run", Err: errors.New("not exported")}
	s, _ := newTestSession(t, fc)

	err := s.Start(fakeCorePath, t.TempDir(), "game")
	var mse *dynload.MissingSymbolError
	if !errors.As(err, &mse) || mse.Symbol != "retro_run" {
		t.Errorf("Start = %v, want MissingSymbolError", err)
	}
	if s.Running() {
		t.Error("session running after a failed load")
	}
}

func TestSystemInfoSnapshot(t *testing.T) {
	fc := newFakeCore()
	fc.exts = "SFC|smc"
	fc.fullpath = true
	s, _ := newTestSession(t, fc)
	dir := writeContent(t, "game.smc", []byte("x"))
	if err := s.Start(fakeCorePath, dir, "game"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	si := s.SystemInfo()
	if si.LibraryName != "Fake" || si.LibraryVersion != "1.0" || !si.NeedFullpath {
		t.Errorf("SystemInfo = %+v", si)
	}
	if !reflect.DeepEqual(si.ValidExtensions, []string{"sfc", "smc"}) {
		t.Errorf("extensions = %v", si.ValidExtensions)
	}
}

func TestInvokeNilPointer(t *testing.T) {
	c := &Core{call: func(uintptr, ...uintptr) uintptr {
		t.Fatal("zero function pointer called")
		return 0
	}}
	if c.invoke(0, 1, 2) != 0 {
		t.Error("invoke(0) returned non-zero")
	}
	if (&Core{}).invoke(0x10) != 0 {
		t.Error("invoke without a caller returned non-zero")
	}
}

func TestStopCoreRecoversDeinitPanic(t *testing.T) {
	s, ts := newTestSession(t, newFakeCore())
	c := &Core{Name: "fake", initialized: true}
	c.ep.Deinit = func() { panic("deinit failed") }
	s.core = c

	s.stopCore()
	if s.core != nil {
		t.Error("core still attached")
	}
	if !ts.log.Contains(hostapi.LogError, "faulted in retro_deinit") {
		t.Error("deinit panic not logged")
	}
	s.stopCore()
}
