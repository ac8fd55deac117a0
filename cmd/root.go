package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/taishitsu/internal/config"
	"github.com/abhisek/taishitsu/internal/logging"
	"github.com/abhisek/taishitsu/internal/store"
)

var (
	cfgFile string
	vp      = config.New()
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taishitsu",
	Short: "Constitution questionnaire and scoring engine",
	Long: `Taishitsu asks a short health questionnaire and scores the answers against
a catalog of constitution types, reporting the best match, a confidence value
and everyday advice for that type.

Run without a subcommand to start the interactive questionnaire.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(vp, cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		_, err = logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/taishitsu/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides TAISHITSU_DB env var)")
	pf.String("catalog", "", "Catalog YAML file replacing the built-in catalog")
	pf.String("csv", "", "Append every completed diagnosis to this CSV file")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")

	// Flags win over env and file values only when set explicitly.
	_ = vp.BindPFlag("db", pf.Lookup("db"))
	_ = vp.BindPFlag("catalog", pf.Lookup("catalog"))
	_ = vp.BindPFlag("csv", pf.Lookup("csv"))
	_ = vp.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = vp.BindPFlag("log.format", pf.Lookup("log-format"))

	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path from --db, TAISHITSU_DB or the
// config file, then the default XDG path.
func resolveDBPath() (string, error) {
	if p := cfg.DB; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
