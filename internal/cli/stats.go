package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daedalus-s/threat-gdg-adk/internal/db"
	"github.com/daedalus-s/threat-gdg-adk/internal/metrics"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event store and runtime statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the full statistics as JSON")
}

// statsOutput combines store state with the process-local operation
// metrics for one stats response.
type statsOutput struct {
	Store   db.StoreStats    `json:"store"`
	Runtime metrics.Snapshot `json:"runtime"`
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	storeStats, err := dbClient.Stats(ctx, cfg.CapacityHint)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	out := statsOutput{Store: storeStats, Runtime: collector.Snapshot()}

	if statsJSON {
		return printJSON(out)
	}

	fmt.Printf("Total records: %d\n", out.Store.TotalRecords)
	fmt.Printf("Dimension:     %d\n", out.Store.Dimension)
	fmt.Printf("Fullness:      %.4f\n", out.Store.Fullness)
	for _, line := range renderRuntime(out.Runtime) {
		fmt.Println(line)
	}
	return nil
}

// renderRuntime formats the operation metrics, one line per operation
// that has recorded activity.
func renderRuntime(snap metrics.Snapshot) []string {
	lines := []string{fmt.Sprintf("Uptime:        %.1fs", snap.UptimeSeconds)}

	ops := []struct {
		name string
		snap *metrics.OperationSnapshot
	}{
		{"embedding", snap.Embedding},
		{"upsert", snap.Upsert},
		{"time_range", snap.TimeRange},
		{"semantic", snap.Semantic},
	}
	for _, op := range ops {
		if op.snap == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-10s count=%d failures=%d avg=%.1fms min=%dms max=%dms",
			op.name, op.snap.Count, op.snap.Failures, op.snap.AvgTimeMs, op.snap.MinTimeMs, op.snap.MaxTimeMs))
	}
	return lines
}
