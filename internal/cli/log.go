package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/sitekit/internal/diaglog"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

var logData string

var logCmd = &cobra.Command{
	Use:   "log <level> <message...>",
	Short: "Record a diagnostic entry",
	Long: `Record a diagnostic entry at the given level (debug, info, success, warn,
error). The message words are joined with spaces. An optional JSON payload
can be attached with --data; use --data - to read it from stdin.

Entries below the configured logger.level are dropped.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Logger == nil {
			return fmt.Errorf("logger not initialized")
		}

		level, err := models.ParseLevel(args[0])
		if err != nil {
			return err
		}

		raw := logData
		if raw == "-" {
			in, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			raw = strings.TrimSpace(string(in))
		}

		var data []any
		if raw != "" {
			var payload any
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return fmt.Errorf("parsing --data: %w", err)
			}
			data = append(data, payload)
		}

		return diaglog.LogAt(Logger, level, strings.Join(args[1:], " "), data...)
	},
}

func init() {
	logCmd.Flags().StringVar(&logData, "data", "", "JSON payload attached to the entry (- reads stdin)")
	rootCmd.AddCommand(logCmd)
}
