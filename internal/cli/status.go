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
	"github.com/vietddude/chainsink/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the watermark of every processor",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
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

	rows, err := db.QueryContext(ctx,
		"SELECT processor, last_success_version, last_updated, last_transaction_timestamp FROM processor_status ORDER BY processor")
	if err != nil {
		slog.Error("Failed to query processor status", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = rows.Close()
	}()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "PROCESSOR\tVERSION\tUPDATED\tCHAIN TIME")

	for rows.Next() {
		var processor string
		var version uint64
		var updated, chainTime time.Time
		if err := rows.Scan(&processor, &version, &updated, &chainTime); err != nil {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			processor, version,
			updated.Format(time.RFC3339), chainTime.Format(time.RFC3339))
	}
	_ = w.Flush()
}
