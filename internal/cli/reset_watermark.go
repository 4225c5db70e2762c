package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vietddude/chainsink/internal/core/config"
	"github.com/vietddude/chainsink/internal/infra/storage/postgres"
)

var resetWatermarkCmd = &cobra.Command{
	Use:   "reset-watermark [processor] [version]",
	Short: "Reset a processor watermark to a given transaction version",
	Args:  cobra.ExactArgs(2),
	Run:   runResetWatermark,
}

func init() {
	rootCmd.AddCommand(resetWatermarkCmd)
}

func runResetWatermark(cmd *cobra.Command, args []string) {
	processor := args[0]
	version, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Invalid version: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	// Direct SQL so an operator can move the watermark backwards, which
	// the regular save path refuses to do.
	query := `
		INSERT INTO processor_status (processor, last_success_version, last_updated, last_transaction_timestamp)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (processor) DO UPDATE SET
			last_success_version = EXCLUDED.last_success_version,
			last_updated = EXCLUDED.last_updated`
	if _, err := db.ExecContext(ctx, query, processor, version); err != nil {
		slog.Error("Failed to reset watermark", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully reset watermark for %s to version %d\n", processor, version)
}
