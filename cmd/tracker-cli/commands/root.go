package commands

import (
	"context"
	"fmt"
	"os"

	"blogtracker-backend/services/tracker"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tracker-cli",
	Short: "tracker-cli inspects blog visitor stats, recent posts and search exposure.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func createService() (*tracker.Service, error) {
	return tracker.NewService(tracker.Config{})
}
