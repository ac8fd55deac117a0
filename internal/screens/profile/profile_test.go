package profile

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/taishitsu/internal/store"
)

var (
	enter = tea.KeyPressMsg{Code: tea.KeyEnter}
	down  = tea.KeyPressMsg{Code: tea.KeyDown}
)

func TestProfileCollectsBothFields(t *testing.T) {
	var got store.Profile
	calls := 0
	s := New(func(p store.Profile) tea.Cmd {
		calls++
		got = p
		return nil
	})

	s.Update(down)
	s.Update(down)
	s.Update(enter)
	if calls != 0 {
		t.Fatal("next called before gender was chosen")
	}
	s.Update(down)
	s.Update(enter)

	if calls != 1 {
		t.Fatalf("expected next called once, got %d", calls)
	}
	want := store.Profile{Age: "30-39", Gender: "Female"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	s.Update(enter)
	if calls != 1 {
		t.Errorf("next called again after completion")
	}
}

func TestProfileShiftTabReopensAge(t *testing.T) {
	s := New(nil)
	s.Update(enter)
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if s.pos != 0 {
		t.Fatalf("expected to be back on age, pos=%d", s.pos)
	}
	s.Update(down)
	s.Update(enter)
	if got := s.Profile().Age; got != "20-29" {
		t.Errorf("expected age 20-29, got %q", got)
	}
}
