package batch

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/response"
	"github.com/abhisek/taishitsu/internal/store"
)

func testEngine() *engine.Engine {
	return engine.New(catalog.Default(), engine.WithJitter(engine.NoJitter))
}

func yes(ids ...int) map[string]string {
	cat := catalog.Default()
	b := response.NewBuilder(cat.NoneSelected())
	for _, id := range ids {
		q, _ := cat.Question(id)
		b.Answer(id, q.Text, cat.PositiveAnswer())
	}
	return b.Map()
}

func TestProcessKeepsInputOrder(t *testing.T) {
	entries := []Entry{
		{Ref: "a", Responses: yes(0, 6)},
		{Ref: "b", Responses: yes(1, 5)},
		{Ref: "c", Responses: yes(2)},
		{Ref: "d", Responses: nil},
		{Ref: "e", Responses: yes(4)},
	}

	outcomes := NewProcessor(testEngine(), nil, 3).Process(context.Background(), entries)
	require.Len(t, outcomes, len(entries))

	want := []catalog.Category{"qi-deficiency", "qi-stagnation", "fluid-retention", "balanced", "blood-stasis"}
	for i, o := range outcomes {
		require.NoError(t, o.Err, entries[i].Ref)
		assert.Equal(t, i, o.Index)
		assert.Equal(t, entries[i].Ref, o.Ref)
		assert.Equal(t, want[i], o.Result.Category, entries[i].Ref)
		assert.Equal(t, o.Result.ID, o.Record.ID)
	}
	assert.True(t, outcomes[3].Result.Fallback)
}

func TestProcessPersists(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "batch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	entries := make([]Entry, 20)
	for i := range entries {
		entries[i] = Entry{Age: "40-49", Gender: "male", Responses: yes(i % 10)}
	}

	outcomes := NewProcessor(testEngine(), s.RecordRepo(), 4).Process(context.Background(), entries)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		assert.NotZero(t, o.Record.Sequence)
	}

	stats, err := s.RecordRepo().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Total)
	require.Len(t, stats.ByAge, 1)
	assert.Equal(t, store.Count{Key: "40-49", Count: 20}, stats.ByAge[0])
}

type failingRepo struct {
	store.RecordRepo
	calls atomic.Int32
}

func (f *failingRepo) Save(ctx context.Context, rec *store.Record) error {
	if f.calls.Add(1) == 2 {
		return assert.AnError
	}
	return nil
}

func TestProcessReportsSaveErrors(t *testing.T) {
	repo := &failingRepo{}
	outcomes := NewProcessor(testEngine(), repo, 1).Process(context.Background(), []Entry{
		{Responses: yes(0)}, {Responses: yes(1)}, {Responses: yes(2)},
	})

	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, assert.AnError)
	assert.NotNil(t, outcomes[1].Result)
	assert.NoError(t, outcomes[2].Err)
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []Entry{{Ref: "x"}, {Ref: "y"}}
	outcomes := NewProcessor(testEngine(), nil, 2).Process(ctx, entries)
	require.Len(t, outcomes, 2)
	for i, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Equal(t, entries[i].Ref, o.Ref)
		assert.Nil(t, o.Result)
	}
}

func TestProcessEmpty(t *testing.T) {
	assert.Empty(t, NewProcessor(testEngine(), nil, 2).Process(context.Background(), nil))
}

func TestReadEntries(t *testing.T) {
	input := `
# sample
{"ref": "r1", "age": "20-29", "gender": "female", "responses": {"question_0": "Yes"}}

{"question_1": "Yes", "question_1_follow_up_0": "Mood swings"}
`
	entries, err := ReadEntries(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{Ref: "r1", Age: "20-29", Gender: "female", Responses: map[string]string{"question_0": "Yes"}}, entries[0])
	assert.Equal(t, "", entries[1].Ref)
	assert.Equal(t, "Mood swings", entries[1].Responses["question_1_follow_up_0"])
}

func TestReadEntriesReportsLine(t *testing.T) {
	_, err := ReadEntries(strings.NewReader("{\"question_0\": \"Yes\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadEntriesFileMissing(t *testing.T) {
	_, err := ReadEntriesFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
