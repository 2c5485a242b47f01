package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/sitekit/internal/observability"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

var (
	statsJSON  bool
	statsSince string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display entry and timing statistics",
	Long: `Display aggregated statistics derived from the entry history.

Statistics include entry counts per level and the number, average and
maximum of recorded performance measurements.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if StatsCalc == nil {
			return fmt.Errorf("stats calculator not initialized (history may be disabled)")
		}

		sinceTime, err := observability.ParseSince(statsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		stats, err := StatsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting stats as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		// Table format.
		fmt.Fprintf(out, "Stats (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-24s %d\n", "Entries recorded:", stats.EntryCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Measurements:", stats.Measurements)
		if stats.Measurements > 0 {
			fmt.Fprintf(out, "  %-24s %.2fms\n", "Average duration:", stats.AverageMs)
			fmt.Fprintf(out, "  %-24s %.2fms (%s)\n", "Slowest:", stats.MaxMs, stats.SlowestLabel)
		}

		if len(stats.ByLevel) > 0 {
			fmt.Fprintln(out, "\n  Entries by level:")
			for _, level := range models.AllLevels {
				if count, ok := stats.ByLevel[string(level)]; ok {
					fmt.Fprintf(out, "    %-20s %d\n", string(level)+":", count)
				}
			}
			// Levels outside the known set, e.g. from hand-edited history.
			var other []string
			for level := range stats.ByLevel {
				if !models.Level(level).Valid() {
					other = append(other, level)
				}
			}
			sort.Strings(other)
			for _, level := range other {
				fmt.Fprintf(out, "    %-20s %d\n", level+":", stats.ByLevel[level])
			}
		}

		if stats.OldestEntry != nil {
			fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest entry:", stats.OldestEntry.Format(time.RFC3339))
		}
		if stats.NewestEntry != nil {
			fmt.Fprintf(out, "  %-24s %s\n", "Newest entry:", stats.NewestEntry.Format(time.RFC3339))
		}

		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output stats as JSON")
	statsCmd.Flags().StringVar(&statsSince, "since", "7d", "Time window for stats (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(statsCmd)
}
