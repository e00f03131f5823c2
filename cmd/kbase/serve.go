package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"kbase/internal/channel"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge base over an HTTP JSON API",
	Long: `Serve exposes POST /ask, POST /search and POST /feedback on the
configured api_host and api_port, until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		a, fc, err := st.newAgent(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := channel.NewServer(a, st.searchService(cfg.TopK), fc)
		addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
		return srv.ListenAndServe(ctx, addr)
	},
}
