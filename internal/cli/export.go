package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the diagnostic buffer as JSON",
	Long: `Export the diagnostic buffer as an indented JSON array named
sitekit-logs-<timestamp>.json. The file is written to the working directory,
or moved into --dir when given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Logger == nil {
			return fmt.Errorf("logger not initialized")
		}

		location, err := Logger.ExportLogs()
		if err != nil {
			return fmt.Errorf("exporting logs: %w", err)
		}

		if exportDir != "" {
			if err := os.MkdirAll(exportDir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", exportDir, err)
			}
			dest := filepath.Join(exportDir, filepath.Base(location))
			if err := os.Rename(location, dest); err != nil {
				return fmt.Errorf("moving export to %s: %w", exportDir, err)
			}
			location = dest
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", location)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Directory to place the export in")
	rootCmd.AddCommand(exportCmd)
}
