package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/taishitsu/internal/batch"
	"github.com/abhisek/taishitsu/internal/export"
	"github.com/abhisek/taishitsu/internal/store"
)

// batchLine is one line of batch output.
type batchLine struct {
	Index      int                `json:"index"`
	Ref        string             `json:"ref,omitempty"`
	ID         string             `json:"id,omitempty"`
	Category   string             `json:"category,omitempty"`
	Score      float64            `json:"score,omitempty"`
	Confidence float64            `json:"confidence,omitempty"`
	Fallback   bool               `json:"fallback,omitempty"`
	AllScores  map[string]float64 `json:"all_scores,omitempty"`
	Error      string             `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <file.jsonl>",
	Short: "Score many response sets from a JSON lines file",
	Long: `Score every line of a JSON lines file concurrently. Each line holds a raw
response map or an entry with "ref", "age", "gender" and "responses" fields.
One JSON line per input line is written to stdout, in input order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = cfg.Batch.Workers
		}
		save, _ := cmd.Flags().GetBool("save")

		entries, err := batch.ReadEntriesFile(args[0])
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		var repo store.RecordRepo
		if save {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			repo = st.RecordRepo()
		}

		outcomes := batch.NewProcessor(eng, repo, workers).Process(ctx, entries)

		enc := json.NewEncoder(cmd.OutOrStdout())
		failed := 0
		for _, o := range outcomes {
			line := batchLine{Index: o.Index, Ref: o.Ref}
			if o.Result != nil {
				line.ID = o.Result.ID
				line.Category = string(o.Result.Category)
				line.Score = o.Result.Score
				line.Confidence = o.Result.Confidence
				line.Fallback = o.Result.Fallback
				line.AllScores = o.Record.AllScores
			}
			if o.Err != nil {
				failed++
				line.Error = o.Err.Error()
			} else if save && cfg.CSV != "" {
				if err := export.AppendCSV(cfg.CSV, o.Record, eng.Catalog().Questions()); err != nil {
					fmt.Fprintln(os.Stderr, "warning:", err)
				}
			}
			if err := enc.Encode(line); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}

		fmt.Fprintf(os.Stderr, "%d entries scored, %d failed\n", len(outcomes)-failed, failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d entries failed", failed, len(outcomes))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().IntP("workers", "w", 0, "Concurrent workers (default from config, 4)")
	batchCmd.Flags().Bool("save", false, "Store every result in history and the CSV file")
}
