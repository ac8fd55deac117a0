// Package batch diagnoses many response sets concurrently.
package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/store"
)

// maxLine bounds a single JSON line in an input file.
const maxLine = 1 << 20

// Entry is one response set to diagnose.
type Entry struct {
	Ref       string            `json:"ref,omitempty"`
	Age       string            `json:"age,omitempty"`
	Gender    string            `json:"gender,omitempty"`
	Responses map[string]string `json:"responses"`
}

// Outcome is the result of one entry. Index is the entry's position in the
// input.
type Outcome struct {
	Index  int
	Ref    string
	Result *engine.Result
	Record *store.Record
	Err    error
}

type diagnoseJob struct {
	index int
	entry Entry
	proc  *Processor
}

func (j *diagnoseJob) Execute(ctx context.Context) Outcome {
	out := Outcome{Index: j.index, Ref: j.entry.Ref}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	eng := j.proc.eng
	res := eng.DiagnoseMap(j.entry.Responses)
	out.Result = res

	rec := store.NewRecord(res, store.Profile{Age: j.entry.Age, Gender: j.entry.Gender},
		j.entry.Responses, eng.Catalog().FreeTextQuestion())
	out.Record = rec

	if j.proc.repo != nil {
		if err := j.proc.repo.Save(ctx, rec); err != nil {
			out.Err = fmt.Errorf("save %s: %w", rec.ID, err)
		}
	}
	return out
}

// Processor fans entries out over a worker pool.
type Processor struct {
	eng     *engine.Engine
	repo    store.RecordRepo
	workers int
}

// NewProcessor returns a processor. repo may be nil to skip persistence.
func NewProcessor(eng *engine.Engine, repo store.RecordRepo, workers int) *Processor {
	return &Processor{eng: eng, repo: repo, workers: workers}
}

// Process diagnoses entries and returns one outcome per entry in input
// order. Entries not reached before ctx is cancelled carry ctx's error.
func (p *Processor) Process(ctx context.Context, entries []Entry) []Outcome {
	outcomes := make([]Outcome, len(entries))
	if len(entries) == 0 {
		return outcomes
	}
	done := make([]bool, len(entries))

	pool := NewPool(ctx, p.workers)
	pool.Start()

	go func() {
		for i, e := range entries {
			if !pool.Submit(&diagnoseJob{index: i, entry: e, proc: p}) {
				break
			}
		}
		pool.Close()
	}()

	for out := range pool.Results() {
		outcomes[out.Index] = out
		done[out.Index] = true
	}

	for i := range outcomes {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = Outcome{Index: i, Ref: entries[i].Ref, Err: err}
		}
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	slog.DebugContext(ctx, "batch processed", "entries", len(entries), "failed", failed, "workers", p.workers)
	return outcomes
}

// ReadEntries parses JSON lines. Blank lines and lines starting with # are
// skipped. A line may be an Entry or a bare response map.
func ReadEntries(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var entries []Entry
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := ParseEntry([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return entries, nil
}

// ReadEntriesFile reads entries from path.
func ReadEntriesFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadEntries(f)
}

// ParseEntry decodes one JSON document holding an Entry or a bare response
// map.
func ParseEntry(data []byte) (Entry, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Entry{}, fmt.Errorf("decode: %w", err)
	}
	if _, ok := envelope["responses"]; ok {
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return Entry{}, fmt.Errorf("decode entry: %w", err)
		}
		return e, nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, fmt.Errorf("decode responses: %w", err)
	}
	return Entry{Responses: raw}, nil
}
