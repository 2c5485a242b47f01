package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the diagnostic buffer",
	Long: `Empty the diagnostic buffer and remove its persisted copy. A single
"Logs cleared" entry is recorded afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Logger == nil {
			return fmt.Errorf("logger not initialized")
		}
		removed := len(Logger.GetLogs())
		Logger.ClearLogs()
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries.\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
