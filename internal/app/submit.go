package app

import (
	"context"
	"log/slog"

	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/export"
	"github.com/abhisek/taishitsu/internal/store"
)

// Outcome is a scored questionnaire plus anything that went wrong while
// keeping it.
type Outcome struct {
	Result   *engine.Result
	Record   *store.Record
	Warnings []string
}

// Submit diagnoses raw and persists the result to the store and CSV file
// when configured. Persistence failures become warnings; the diagnosis
// itself never fails.
func Submit(ctx context.Context, opts Options, p store.Profile, raw map[string]string) Outcome {
	eng := opts.Engine
	res := eng.DiagnoseMap(raw)
	rec := store.NewRecord(res, p, raw, eng.Catalog().FreeTextQuestion())
	out := Outcome{Result: res, Record: rec}

	if opts.Records != nil {
		if err := opts.Records.Save(ctx, rec); err != nil {
			slog.WarnContext(ctx, "save result", "id", rec.ID, "error", err)
			out.Warnings = append(out.Warnings, "Result could not be saved to history.")
		}
	}
	if opts.CSVPath != "" {
		if err := export.AppendCSV(opts.CSVPath, rec, eng.Catalog().Questions()); err != nil {
			slog.WarnContext(ctx, "append csv", "path", opts.CSVPath, "error", err)
			out.Warnings = append(out.Warnings, "Result could not be written to the CSV file.")
		}
	}
	return out
}
