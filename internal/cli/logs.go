package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/sitekit/internal/diaglog"
	"github.com/valter-silva-au/sitekit/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	logsJSON  bool
	logsYAML  bool
	logsLevel string
	logsLimit int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the buffered diagnostic entries",
	Long: `Show the entries currently held in the diagnostic buffer, oldest first.

Use --level to show only entries at or above a severity and --limit to show
only the newest entries. --json and --yaml print the raw entries.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Logger == nil {
			return fmt.Errorf("logger not initialized")
		}
		if logsJSON && logsYAML {
			return fmt.Errorf("--json and --yaml are mutually exclusive")
		}

		entries, err := selectEntries(Logger.GetLogs(), logsLevel, logsLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case logsJSON:
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting entries as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
		case logsYAML:
			data, err := yaml.Marshal(entries)
			if err != nil {
				return fmt.Errorf("formatting entries as YAML: %w", err)
			}
			fmt.Fprint(out, string(data))
		default:
			printEntries(out, entries)
		}
		return nil
	},
}

// selectEntries keeps entries at or above level (all when empty) and then the
// newest limit of them (all when limit is zero).
func selectEntries(entries []models.LogEntry, level string, limit int) ([]models.LogEntry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("--limit must be non-negative, got %d", limit)
	}
	minLevel := models.LevelDebug
	if level != "" {
		l, err := models.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		minLevel = l
	}

	selected := make([]models.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Level.AtLeast(minLevel) {
			selected = append(selected, e)
		}
	}
	if limit > 0 && len(selected) > limit {
		selected = selected[len(selected)-limit:]
	}
	return selected, nil
}

// printEntries writes one "timestamp tag message payload" line per entry.
func printEntries(w io.Writer, entries []models.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	prefix := ""
	if Config != nil {
		prefix = Config.Logger.Prefix
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s\n", e.Timestamp, diaglog.FormatLine(prefix, e))
	}
}

func init() {
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Output entries as JSON")
	logsCmd.Flags().BoolVar(&logsYAML, "yaml", false, "Output entries as YAML")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Minimum severity to show")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 0, "Show only the newest N entries")
	rootCmd.AddCommand(logsCmd)
}
