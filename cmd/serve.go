package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/taishitsu/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the diagnosis engine over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Serve.Addr
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		deps := httpapi.Deps{Engine: eng, CSVPath: cfg.CSV}
		if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			deps.Records = st.RecordRepo()
			deps.Advice = newAdvice(ctx, eng.Catalog(), st.EventRepo())
		} else {
			deps.Advice = newAdvice(ctx, eng.Catalog(), nil)
		}

		return httpapi.ListenAndServe(ctx, httpapi.ServerConfig{
			Addr:         addr,
			ReadTimeout:  cfg.Serve.ReadTimeout,
			WriteTimeout: cfg.Serve.WriteTimeout,
		}, httpapi.NewRouter(deps))
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().Bool("no-history", false, "Do not store results or expose history endpoints")
}
