package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	var flags daemonFlags
	rootCmd := &cobra.Command{
		Use:   "focd",
		Short: "Watch an inbox of export declarations and serve FOC extraction over gRPC",
		Long: `focd watches an inbox directory, extracts free-of-charge items from every new
declaration, records each result in the run-history database, and serves the
focextractor.v1.ExtractionService gRPC API with Prometheus metrics.

Configuration comes from FOCX_* environment variables (or .env); flags override them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags)
		},
	}
	rootCmd.Flags().StringVar(&flags.inbox, "inbox", "", "directory to watch (default FOCX_SERVER_INBOX_DIR)")
	rootCmd.Flags().StringVar(&flags.grpcAddr, "grpc-addr", "", "gRPC listen address (default FOCX_SERVER_GRPC_ADDR)")
	rootCmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "metrics listen address (default FOCX_SERVER_METRICS_ADDR)")
	rootCmd.Flags().BoolVar(&flags.noInitialScan, "no-initial-scan", false, "ignore files already in the inbox at startup")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
