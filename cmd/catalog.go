package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/taishitsu/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate question catalogs",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarise the active catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			if cfg.Catalog == "" {
				_, err := w.Write(catalog.DefaultSource())
				return err
			}
			data, err := os.ReadFile(cfg.Catalog)
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}
			_, err = w.Write(data)
			return err
		}

		c, err := loadCatalog()
		if err != nil {
			return err
		}
		source := "built-in"
		if cfg.Catalog != "" {
			source = cfg.Catalog
		}
		fmt.Fprintf(w, "Catalog %s (%s)\n", c.Version(), source)
		fmt.Fprintf(w, "Default type: %s, score %.0f\n\n", c.DefaultCategory(), c.DefaultScore())

		fmt.Fprintf(w, "%-18s  %-24s  %7s  %8s  %8s\n", "ID", "Name", "Primary", "Symptoms", "Keywords")
		fmt.Fprintln(w, strings.Repeat("─", 74))
		for _, cat := range c.Categories() {
			rs, _ := c.Rules(cat)
			fmt.Fprintf(w, "%-18s  %-24s  %7d  %8d  %8d\n",
				cat, truncate(c.Name(cat), 24), len(rs.Primary), len(rs.Symptoms), len(rs.Keywords))
		}

		fmt.Fprintln(w)
		for _, q := range c.Questions() {
			fmt.Fprintf(w, "%2d. %s\n", q.ID, q.Text)
			for j, g := range q.FollowUps {
				fmt.Fprintf(w, "      follow-up %d: %s (%d options)\n", j, g.Prompt, len(g.Options))
			}
		}
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a catalog file against the schema and reference rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: catalog %s is valid (%d types, %d questions)\n",
			args[0], c.Version(), len(c.Categories()), len(c.Questions()))
		return nil
	},
}

func init() {
	catalogShowCmd.Flags().Bool("raw", false, "Print the catalog YAML source")

	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}
