package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/taishitsu/internal/advice"
	"github.com/abhisek/taishitsu/internal/app"
	"github.com/abhisek/taishitsu/internal/batch"
	"github.com/abhisek/taishitsu/internal/catalog"
	"github.com/abhisek/taishitsu/internal/engine"
	"github.com/abhisek/taishitsu/internal/store"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [file|-]",
	Short: "Score one response set read from a JSON file or stdin",
	Long: `Score one response set. The input is a JSON object holding either the raw
response map ({"question_0": "Yes", ...}) or an entry with "age", "gender"
and "responses" fields. With no argument or "-" the object is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		save, _ := cmd.Flags().GetBool("save")
		asJSON, _ := cmd.Flags().GetBool("json")
		withAdvice, _ := cmd.Flags().GetBool("advice")

		entry, err := readEntry(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		if a, _ := cmd.Flags().GetString("age"); a != "" {
			entry.Age = a
		}
		if g, _ := cmd.Flags().GetString("gender"); g != "" {
			entry.Gender = g
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		opts := app.Options{Engine: eng}
		var events store.EventRepo
		if save {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			opts.Records = st.RecordRepo()
			opts.CSVPath = cfg.CSV
			events = st.EventRepo()
		}

		p := store.Profile{Age: entry.Age, Gender: entry.Gender}
		out := app.Submit(ctx, opts, p, entry.Responses)
		for _, w := range out.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}

		var narration *advice.Narration
		if withAdvice {
			svc := newAdvice(ctx, eng.Catalog(), events)
			narration = svc.Narrate(ctx, svc.Input(out.Result, p.Age, p.Gender, out.Record.FreeTextConcern))
		}

		w := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(w, struct {
				*engine.Result
				Name   string            `json:"name"`
				Advice *advice.Narration `json:"advice,omitempty"`
			}{out.Result, eng.Catalog().Name(out.Result.Category), narration})
		}
		printResult(w, eng.Catalog(), out.Result, narration)
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().Bool("save", false, "Store the result in history and the CSV file")
	diagnoseCmd.Flags().Bool("json", false, "Print the result as JSON")
	diagnoseCmd.Flags().Bool("advice", true, "Include advice for the winning type")
	diagnoseCmd.Flags().String("age", "", "Respondent age band, overriding the input")
	diagnoseCmd.Flags().String("gender", "", "Respondent gender, overriding the input")
}

func readEntry(stdin io.Reader, args []string) (batch.Entry, error) {
	src := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return batch.Entry{}, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		src = f
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return batch.Entry{}, fmt.Errorf("read input: %w", err)
	}
	entry, err := batch.ParseEntry(data)
	if err != nil {
		return batch.Entry{}, fmt.Errorf("parse input: %w", err)
	}
	return entry, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, cat *catalog.Catalog, res *engine.Result, n *advice.Narration) {
	fmt.Fprintf(w, "Constitution:  %s (%s)\n", cat.Name(res.Category), res.Category)
	fmt.Fprintf(w, "Score:         %.1f\n", res.Score)
	fmt.Fprintf(w, "Confidence:    %.1f%%\n", res.Confidence)
	if res.Fallback {
		fmt.Fprintln(w, "Note:          no evidence in the answers, default type reported")
	}
	fmt.Fprintf(w, "Result ID:     %s\n", res.ID)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-24s  %5s  %5s  %6s  %7s\n", "Type", "Raw", "Max", "Bonus", "Final")
	fmt.Fprintln(w, strings.Repeat("─", 54))
	for _, l := range res.Ranked() {
		fmt.Fprintf(w, "%-24s  %5d  %5d  %6.1f  %7.1f\n",
			truncate(cat.Name(l.Category), 24), l.RawScore, l.MaxScore, l.Bonus, l.Final)
	}

	if n == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, n.Summary)
	for _, tip := range n.Tips {
		fmt.Fprintf(w, "  - %s\n", tip)
	}
}
