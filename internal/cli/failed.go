package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/chainsink/internal/core/config"
	redisclient "github.com/vietddude/chainsink/internal/infra/redis"
)

var failedCmd = &cobra.Command{
	Use:   "failed [processor]",
	Short: "List the dead-letter queue of a processor",
	Args:  cobra.ExactArgs(1),
	Run:   runFailed,
}

func init() {
	rootCmd.AddCommand(failedCmd)
}

func runFailed(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	repo := redisclient.NewFailedBatchRepo(client, args[0])
	batches, err := repo.GetAll(context.Background())
	if err != nil {
		slog.Error("Failed to list failed batches", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tRANGE\tRETRIES\tFAILED AT\tERROR")
	for _, fb := range batches {
		_, _ = fmt.Fprintf(w, "%s\t%d-%d\t%d\t%s\t%s\n",
			fb.ID, fb.StartVersion, fb.EndVersion, fb.RetryCount,
			fb.FailedAt.Format(time.RFC3339), fb.Error)
	}
	_ = w.Flush()
}
