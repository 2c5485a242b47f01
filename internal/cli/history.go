package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/sitekit/internal/observability"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

var (
	historySince string
	historyLevel string
	historyGrep  string
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Search the entry history",
	Long: `Search the rotating history file that receives every recorded entry,
including entries since evicted from the buffer.

Filter by age with --since (e.g. 24h, 7d), by exact level with --level, and by
a case-insensitive message substring with --grep.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EntryLog == nil {
			return fmt.Errorf("entry history not initialized (set history.enabled in .sitekit)")
		}

		filter := observability.EntryFilter{Grep: historyGrep}
		if historySince != "" {
			since, err := observability.ParseSince(historySince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}
		if historyLevel != "" {
			level, err := models.ParseLevel(historyLevel)
			if err != nil {
				return err
			}
			filter.Level = level
		}

		entries, err := EntryLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting history as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		printEntries(out, entries)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "", "Only entries newer than this (e.g. 7d, 24h)")
	historyCmd.Flags().StringVar(&historyLevel, "level", "", "Only entries at exactly this level")
	historyCmd.Flags().StringVar(&historyGrep, "grep", "", "Only entries whose message contains this text")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output entries as JSON")
	rootCmd.AddCommand(historyCmd)
}
