package options

import (
	"errors"
	"testing"
)

func TestScopeIndependence(t *testing.T) {
	s := NewScopes()
	s.Merge([]Option{aspectOption(t)})
	s.BeginGame()

	if err := s.Set("aspect", "16:9"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get("aspect"); v != "16:9" {
		t.Errorf("scoped get = %q, want 16:9", v)
	}
	if v, _ := s.Global.Get("aspect"); v != "4:3" {
		t.Errorf("global changed to %q", v)
	}
}

func TestScopesGetFallsBackToGlobal(t *testing.T) {
	s := NewScopes()
	s.Merge([]Option{aspectOption(t)})
	if v, err := s.Get("aspect"); err != nil || v != "4:3" {
		t.Errorf("Get = %q, %v", v, err)
	}
	_, err := s.Get("missing")
	var oe *OptionError
	if !errors.As(err, &oe) {
		t.Errorf("expected OptionError, got %v", err)
	}
}

func TestLaterDeclarationsReachBothScopes(t *testing.T) {
	s := NewScopes()
	s.Merge([]Option{aspectOption(t)})
	s.BeginGame()
	s.Merge([]Option{{Key: "turbo", Values: []string{"off", "on"}}})

	gk := s.Game.Keys()
	gl := s.Global.Keys()
	if len(gk) != 2 || len(gl) != 2 {
		t.Fatalf("key sets diverged: game=%v global=%v", gk, gl)
	}
}

func TestBeginGameOnce(t *testing.T) {
	s := NewScopes()
	s.Merge([]Option{aspectOption(t)})
	g := s.BeginGame()
	if err := g.Set("aspect", "16:9"); err != nil {
		t.Fatal(err)
	}
	if s.BeginGame() != g {
		t.Error("BeginGame should return the existing game scope")
	}
	s.EndGame()
	if s.Active() != s.Global {
		t.Error("expected global scope active after EndGame")
	}
}
