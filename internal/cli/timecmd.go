package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var timeCmd = &cobra.Command{
	Use:   "time <label> -- <command> [args...]",
	Short: "Run a command and record how long it took",
	Long: `Run a command with a performance mark named <label> around it. The elapsed
time is recorded as an info entry "<label>: <ms>ms" once the command exits.

A command that exits non-zero is also recorded as an error entry and its
failure is returned.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Logger == nil {
			return fmt.Errorf("logger not initialized")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		label := args[0]
		child := exec.CommandContext(ctx, args[1], args[2:]...)
		child.Stdin = os.Stdin
		child.Stdout = cmd.OutOrStdout()
		child.Stderr = cmd.ErrOrStderr()

		Logger.StartPerformance(label)
		runErr := child.Run()
		elapsed, _ := Logger.EndPerformance(label)

		if runErr != nil {
			data := map[string]any{"label": label, "command": args[1], "error": runErr.Error()}
			var exitErr *exec.ExitError
			if errors.As(runErr, &exitErr) {
				data["exitCode"] = exitErr.ExitCode()
			}
			Logger.Error("Command failed", data)
			return fmt.Errorf("running %s: %w", args[1], runErr)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %.2fms\n", label, float64(elapsed.Microseconds())/1000)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timeCmd)
}
