package store

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"entgo.io/ent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/taishitsu/ent/schema"
	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/response"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func tableColumns(t *testing.T, s *Store, table string) []string {
	t.Helper()
	rows, err := s.DB().Query("SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	return cols
}

// schemaColumns lists columns in ent's order: id, mixin fields, own fields.
func schemaColumns(mixins []ent.Mixin, fields []ent.Field) []string {
	cols := []string{"id"}
	for _, m := range mixins {
		for _, f := range m.Fields() {
			cols = append(cols, f.Descriptor().Name)
		}
	}
	for _, f := range fields {
		if name := f.Descriptor().Name; name != "id" {
			cols = append(cols, name)
		}
	}
	return cols
}

func TestTablesMatchEntSchema(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		table  string
		mixins []ent.Mixin
		fields []ent.Field
	}{
		{recordsTable, schema.Record{}.Mixin(), schema.Record{}.Fields()},
		{llmEventsTable, schema.LLMRequestEvent{}.Mixin(), schema.LLMRequestEvent{}.Fields()},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, schemaColumns(tt.mixins, tt.fields), tableColumns(t, s, tt.table))
		})
	}
	assert.Equal(t, tableColumns(t, s, recordsTable), recordColumns)
	assert.Equal(t, tableColumns(t, s, llmEventsTable), llmEventColumns)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}
}

func TestMigrateCreatesIndexes(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.DB().Query(`SELECT name FROM sqlite_master WHERE type = 'index' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{
		"llmrequestevent_provider",
		"llmrequestevent_purpose",
		"record_age",
		"record_category",
		"record_gender",
		"record_timestamp",
	}, names)
}

func diagnose(t *testing.T, yes ...int) (*engine.Result, map[string]string) {
	t.Helper()
	cat := catalog.Default()
	e := engine.New(cat, engine.WithJitter(engine.NoJitter))
	b := response.NewBuilder(cat.NoneSelected())
	for _, id := range yes {
		q, _ := cat.Question(id)
		b.Answer(id, q.Text, cat.PositiveAnswer())
	}
	b.Answer(cat.FreeTextQuestion(), "", "  stiff shoulders  ")
	raw := b.Map()
	return e.DiagnoseMap(raw), raw
}

func TestNewRecord(t *testing.T) {
	res, raw := diagnose(t, 4, 7)
	rec := NewRecord(res, Profile{Age: "30-39", Gender: "female"}, raw, catalog.Default().FreeTextQuestion())

	assert.Equal(t, res.ID, rec.ID)
	assert.Equal(t, "blood-stasis", rec.Category)
	assert.Equal(t, "stiff shoulders", rec.FreeTextConcern)
	assert.Equal(t, raw, rec.Responses)
	assert.Len(t, rec.AllScores, len(res.AllScores))

	raw["question_4"] = "No"
	assert.Equal(t, "Yes", rec.Responses["question_4"])
}

func TestRecordSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := context.Background()

	res, raw := diagnose(t, 0, 6)
	rec := NewRecord(res, Profile{Age: "20-29", Gender: "male"}, raw, 10)
	require.NoError(t, repo.Save(ctx, rec))
	assert.Positive(t, rec.Sequence)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Profile, got.Profile)
	assert.Equal(t, rec.Category, got.Category)
	assert.InDelta(t, rec.Score, got.Score, 1e-9)
	assert.InDelta(t, rec.Confidence, got.Confidence, 1e-9)
	assert.Equal(t, rec.Fallback, got.Fallback)
	assert.Equal(t, "v1.2.0", got.CatalogVersion)
	assert.Equal(t, rec.Responses, got.Responses)
	assert.Equal(t, rec.FreeTextConcern, got.FreeTextConcern)
	assert.InDeltaMapValues(t, rec.AllScores, got.AllScores, 1e-9)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestRecordGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.RecordRepo().Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordSaveRejectsDuplicateID(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := context.Background()

	rec := &Record{ID: "dup", Category: "balanced"}
	require.NoError(t, repo.Save(ctx, rec))
	assert.Error(t, repo.Save(ctx, &Record{ID: "dup", Category: "balanced"}))
	assert.Error(t, repo.Save(ctx, &Record{Category: "balanced"}))
}

func TestHistoryNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cats := []string{"qi-deficiency", "blood-stasis", "qi-deficiency", "balanced"}
	for i, c := range cats {
		rec := &Record{
			ID:        c + "-" + string(rune('a'+i)),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Category:  c,
		}
		require.NoError(t, repo.Save(ctx, rec))
	}

	all, err := repo.History(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"balanced-d", "qi-deficiency-c", "blood-stasis-b", "qi-deficiency-a"}, ids)

	limited, err := repo.History(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	filtered, err := repo.History(ctx, QueryOpts{Category: "qi-deficiency"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	ranged, err := repo.History(ctx, QueryOpts{From: base.Add(time.Hour), To: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, "qi-deficiency-c", ranged[0].ID)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.RecordRepo()
	ctx := context.Background()

	empty, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.ByCategory)

	rows := []struct {
		cat, age, gender string
	}{
		{"qi-deficiency", "20-29", "female"},
		{"qi-deficiency", "30-39", "female"},
		{"blood-stasis", "30-39", "male"},
		{"qi-deficiency", "30-39", ""},
	}
	for i, r := range rows {
		rec := &Record{
			ID:       string(rune('a' + i)),
			Category: r.cat,
			Profile:  Profile{Age: r.age, Gender: r.gender},
		}
		require.NoError(t, repo.Save(ctx, rec))
	}

	st, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, []Count{{"qi-deficiency", 3}, {"blood-stasis", 1}}, st.ByCategory)
	assert.Equal(t, []Count{{"30-39", 3}, {"20-29", 1}}, st.ByAge)
	assert.Equal(t, []Count{{"female", 2}, {"", 1}, {"male", 1}}, st.ByGender)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "m1", Purpose: "advice", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "anthropic", Model: "m1", Purpose: "advice", InputTokens: 120, OutputTokens: 30, LatencyMs: 400, Success: true},
		{Provider: "openai", Model: "m2", Purpose: "summary", Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "summary", got[0].Purpose)
	assert.False(t, got[0].Success)
	assert.Equal(t, "rate limited", got[0].ErrorMessage)

	one, err := repo.GetLLMEvent(ctx, got[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, one.InputTokens)

	_, err = repo.GetLLMEvent(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, LLMUsage{Purpose: "advice", Calls: 2, InputTokens: 220, OutputTokens: 80, AvgLatencyMs: 300}, byPurpose[0])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	models := []string{byModel[0].Model, byModel[1].Model}
	assert.True(t, slices.Equal([]string{"m1", "m2"}, models))
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRepo().Save(ctx, &Record{ID: "x", Category: "balanced"}))
	require.NoError(t, s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "advice", Success: true}))

	require.NoError(t, s.Reset(ctx))

	st, err := s.RecordRepo().Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Total)
	events, err := s.EventRepo().QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, events)
}
