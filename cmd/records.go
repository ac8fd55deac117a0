package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/taishitsu/internal/export"
	"github.com/abhisek/taishitsu/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored diagnosis results, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := queryOptsFromFlags(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.RecordRepo().History(cmd.Context(), opts)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if asJSON {
			if recs == nil {
				recs = []*store.Record{}
			}
			return writeJSON(w, recs)
		}
		if len(recs) == 0 {
			fmt.Fprintln(w, "No results stored yet.")
			return nil
		}

		fmt.Fprintf(w, "%-36s  %-16s  %-18s  %6s  %6s  %-7s  %s\n",
			"ID", "Time", "Category", "Score", "Conf", "Age", "Gender")
		fmt.Fprintln(w, strings.Repeat("─", 110))
		for _, r := range recs {
			cat := r.Category
			if r.Fallback {
				cat += "*"
			}
			fmt.Fprintf(w, "%-36s  %-16s  %-18s  %6.1f  %6.1f  %-7s  %s\n",
				r.ID,
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				truncate(cat, 18),
				r.Score,
				r.Confidence,
				orDash(r.Profile.Age),
				orDash(r.Profile.Gender),
			)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show counts of stored results by type, age and gender",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.RecordRepo().Stats(cmd.Context())
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(w, stats)
		}
		if stats.Total == 0 {
			fmt.Fprintln(w, "No results stored yet.")
			return nil
		}

		fmt.Fprintf(w, "Total results: %d\n", stats.Total)
		printCounts(w, "By type", stats.ByCategory, stats.Total)
		printCounts(w, "By age", stats.ByAge, stats.Total)
		printCounts(w, "By gender", stats.ByGender, stats.Total)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored results as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := queryOptsFromFlags(cmd)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")

		c, err := loadCatalog()
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.RecordRepo().History(cmd.Context(), opts)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := export.WriteCSV(w, recs, c.Questions()); err != nil {
			return err
		}
		if out != "" && out != "-" {
			fmt.Fprintf(os.Stderr, "Wrote %d results to %s\n", len(recs), out)
		}
		return nil
	},
}

func init() {
	addQueryFlags(historyCmd, 20)
	addQueryFlags(exportCmd, 0)
	historyCmd.Flags().Bool("json", false, "Print results as JSON")
	statsCmd.Flags().Bool("json", false, "Print stats as JSON")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}

func addQueryFlags(c *cobra.Command, limit int) {
	c.Flags().IntP("limit", "n", limit, "Maximum number of results (0 for all)")
	c.Flags().StringP("category", "c", "", "Only results of this type")
	c.Flags().String("from", "", "Only results at or after this time (RFC 3339 or YYYY-MM-DD)")
	c.Flags().String("to", "", "Only results at or before this time (RFC 3339 or YYYY-MM-DD)")
}

func queryOptsFromFlags(cmd *cobra.Command) (store.QueryOpts, error) {
	var opts store.QueryOpts
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	opts.Category, _ = cmd.Flags().GetString("category")

	var err error
	from, _ := cmd.Flags().GetString("from")
	if opts.From, err = parseTime(from, false); err != nil {
		return opts, fmt.Errorf("--from: %w", err)
	}
	to, _ := cmd.Flags().GetString("to")
	if opts.To, err = parseTime(to, true); err != nil {
		return opts, fmt.Errorf("--to: %w", err)
	}
	return opts, nil
}

// parseTime accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func parseTime(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func printCounts(w io.Writer, title string, counts []store.Count, total int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", 40))
	for _, c := range counts {
		pct := float64(c.Count) / float64(total) * 100
		fmt.Fprintf(w, "%-22s  %6d  %6.1f%%\n", truncate(orDash(c.Key), 22), c.Count, pct)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
