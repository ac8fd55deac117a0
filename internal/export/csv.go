// Package export writes diagnosis records as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/response"
	"github.com/abhisek/taishitsu/internal/store"
)

const timestampLayout = "2006-01-02 15:04:05"

// Header returns the CSV header for a catalog's questions: the fixed result
// columns followed by one Q column per question in catalog order.
func Header(questions []catalog.Question) []string {
	h := []string{"timestamp", "age", "gender", "category", "score", "confidence"}
	for i := range questions {
		h = append(h, "Q"+strconv.Itoa(i+1))
	}
	return h
}

// Row renders rec in the column order of Header.
func Row(rec *store.Record, questions []catalog.Question) []string {
	row := []string{
		rec.CreatedAt.Local().Format(timestampLayout),
		rec.Profile.Age,
		rec.Profile.Gender,
		rec.Category,
		strconv.FormatFloat(rec.Score, 'f', -1, 64),
		fmt.Sprintf("%.1f%%", rec.Confidence),
	}
	for _, q := range questions {
		row = append(row, rec.Responses[response.AnswerKey(q.ID)])
	}
	return row
}

// AppendCSV appends rec to the CSV file at path, creating the file and its
// directory when missing. The header is written only for a new file.
func AppendCSV(path string, rec *store.Record, questions []catalog.Question) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat csv: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header(questions)); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := w.Write(Row(rec, questions)); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSV writes a header and one row per record to w.
func WriteCSV(w io.Writer, records []*store.Record, questions []catalog.Question) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(questions)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec, questions)); err != nil {
			return fmt.Errorf("write csv row %s: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
