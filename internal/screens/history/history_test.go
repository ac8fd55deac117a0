package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/router"
	"github.com/abhisek/taishitsu/internal/store"
)

type fakeRepo struct {
	store.RecordRepo
	recs []*store.Record
	err  error
}

func (f *fakeRepo) History(context.Context, store.QueryOpts) ([]*store.Record, error) {
	return f.recs, f.err
}

func (f *fakeRepo) Stats(context.Context) (*store.Stats, error) {
	return &store.Stats{Total: len(f.recs), ByCategory: []store.Count{{Key: "blood-stasis", Count: len(f.recs)}}}, nil
}

func load(t *testing.T, s *HistoryScreen) {
	t.Helper()
	s.Update(s.Init()())
}

func TestHistoryRendersRecords(t *testing.T) {
	repo := &fakeRepo{recs: []*store.Record{
		{ID: "a", CreatedAt: time.Now(), Category: "blood-stasis", Score: 100, Confidence: 80,
			AllScores: map[string]float64{"blood-stasis": 100, "balanced": 0}, FreeTextConcern: "stiff neck"},
		{ID: "b", CreatedAt: time.Now(), Category: "blood-stasis", Score: 90, Confidence: 70},
	}}
	s := New(catalog.Default(), repo)
	load(t, s)

	v := s.View(100, 40)
	if !strings.Contains(v, "2 results") || !strings.Contains(v, "Blood stasis") {
		t.Fatalf("unexpected view:\n%s", v)
	}
	if strings.Contains(v, "stiff neck") {
		t.Error("details should be collapsed initially")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(s.View(100, 40), "stiff neck") {
		t.Error("expected concern after expanding")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if s.selected != 1 {
		t.Errorf("selection should stop at last record, got %d", s.selected)
	}
}

func TestHistoryEmptyAndError(t *testing.T) {
	s := New(catalog.Default(), &fakeRepo{})
	load(t, s)
	if !strings.Contains(s.View(100, 40), "No results yet") {
		t.Error("expected empty message")
	}

	s = New(catalog.Default(), &fakeRepo{err: errors.New("disk gone")})
	load(t, s)
	if !strings.Contains(s.View(100, 40), "disk gone") {
		t.Error("expected error message")
	}
}

func TestHistoryEscPops(t *testing.T) {
	s := New(catalog.Default(), &fakeRepo{})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
}
