// Package main provides homactl, the admin CLI for the Homa core server:
// fact queries, override management, and action execution.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version    = "0.2.0"
	serverAddr string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "homactl",
		Short:   "Admin CLI for the Homa assistant core",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", "http://localhost:8080", "Homa core server address")

	rootCmd.AddCommand(
		newFactCmd(),
		newOverrideCmd(),
		newActionsCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
