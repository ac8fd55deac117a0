package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/taishitsu/internal/advice"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored result, LLM event and shared advice cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("reset deletes all stored results; pass --yes to confirm")
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Reset(cmd.Context()); err != nil {
			return err
		}
		if cfg.Advice.RedisURL != "" {
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			svc := advice.NewService(c, nil, narratorConfig())
			if err := svc.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("flush advice cache: %w", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All stored results deleted.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
