package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/response"
)

var recordColumns = []string{
	"id", "sequence", "timestamp", "age", "gender", "category", "score",
	"confidence", "fallback", "catalog_version", "responses",
	"free_text_concern", "all_scores",
}

// NewRecord builds a record from a diagnosis result and the response map it
// was computed from. The free-text concern is taken from the answer to
// freeTextQuestion.
func NewRecord(res *engine.Result, p Profile, raw map[string]string, freeTextQuestion int) *Record {
	rec := &Record{
		ID:              res.ID,
		CreatedAt:       res.CreatedAt,
		Profile:         p,
		Category:        string(res.Category),
		Score:           res.Score,
		Confidence:      res.Confidence,
		Fallback:        res.Fallback,
		CatalogVersion:  res.CatalogVersion,
		Responses:       make(map[string]string, len(raw)),
		FreeTextConcern: strings.TrimSpace(raw[response.AnswerKey(freeTextQuestion)]),
		AllScores:       make(map[string]float64, len(res.AllScores)),
	}
	for k, v := range raw {
		rec.Responses[k] = v
	}
	for cat, score := range res.AllScores {
		rec.AllScores[string(cat)] = score
	}
	return rec
}

type recordRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *recordRepo) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("save record: empty id")
	}
	responses, err := json.Marshal(nonNilMap(rec.Responses))
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	scores, err := json.Marshal(nonNilMap(rec.AllScores))
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query, args := builder().Insert(recordsTable).
		Columns(recordColumns...).
		Values(
			rec.ID, seqNum, rec.CreatedAt.UTC().Format(timeLayout),
			rec.Profile.Age, rec.Profile.Gender, rec.Category, rec.Score,
			rec.Confidence, rec.Fallback, rec.CatalogVersion, string(responses),
			rec.FreeTextConcern, string(scores),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	rec.Sequence = seqNum
	return nil
}

func (r *recordRepo) Get(ctx context.Context, id string) (*Record, error) {
	b := builder()
	query, args := b.Select(recordColumns...).
		From(b.Table(recordsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	recs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return recs[0], nil
}

func (r *recordRepo) History(ctx context.Context, opts QueryOpts) ([]*Record, error) {
	b := builder()
	sel := b.Select(recordColumns...).
		From(b.Table(recordsTable)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Category != "" {
		sel.Where(entsql.EQ("category", opts.Category))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC().Format(timeLayout)))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC().Format(timeLayout)))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	recs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return recs, nil
}

func (r *recordRepo) Stats(ctx context.Context) (*Stats, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(recordsTable)).Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	st := &Stats{}
	if rows.Next() {
		if err := rows.Scan(&st.Total); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan count: %w", err)
		}
	}
	rows.Close()

	groups := []struct {
		column string
		dst    *[]Count
	}{
		{"category", &st.ByCategory},
		{"age", &st.ByAge},
		{"gender", &st.ByGender},
	}
	for _, g := range groups {
		counts, err := r.countBy(ctx, g.column)
		if err != nil {
			return nil, err
		}
		*g.dst = counts
	}
	return st, nil
}

// countBy groups records by column, largest bucket first.
func (r *recordRepo) countBy(ctx context.Context, column string) ([]Count, error) {
	b := builder()
	query, args := b.Select(column, entsql.As(entsql.Count("*"), "n")).
		From(b.Table(recordsTable)).
		GroupBy(column).
		OrderBy(entsql.Desc("n"), column).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()

	counts := []Count{}
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", column, err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *recordRepo) query(ctx context.Context, query string, args []any) ([]*Record, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanRecord(rows *entsql.Rows) (*Record, error) {
	var (
		rec       Record
		ts        string
		responses string
		scores    string
	)
	err := rows.Scan(
		&rec.ID, &rec.Sequence, &ts, &rec.Profile.Age, &rec.Profile.Gender,
		&rec.Category, &rec.Score, &rec.Confidence, &rec.Fallback,
		&rec.CatalogVersion, &responses, &rec.FreeTextConcern, &scores,
	)
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, ts); err != nil {
		return nil, fmt.Errorf("record %s: parse timestamp: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(responses), &rec.Responses); err != nil {
		return nil, fmt.Errorf("record %s: decode responses: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(scores), &rec.AllScores); err != nil {
		return nil, fmt.Errorf("record %s: decode scores: %w", rec.ID, err)
	}
	return &rec, nil
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
