package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/taishitsu/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect taishitsu configuration",
	Long: `Configuration is resolved from, highest priority first:
  1. command-line flags
  2. environment variables (TAISHITSU_*, e.g. TAISHITSU_SERVE_ADDR)
  3. the config file ($XDG_CONFIG_HOME/taishitsu/config.yaml or --config)
  4. built-in defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := vp.ConfigFileUsed(); used != "" {
			if _, err := os.Stat(used); err == nil {
				fmt.Fprintf(os.Stderr, "Configuration file: %s\n", used)
			}
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
