package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/parsecdata/wfrun/pkg/monitor"
	"github.com/parsecdata/wfrun/pkg/output"
)

var watchCmd = &cobra.Command{
	Use:   "watch <run-id>",
	Short: "Watch an already-started run to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var (
	watchTimeout  time.Duration
	watchInterval time.Duration
	watchOutput   string
	watchQuiet    bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "Watch ceiling (default from config, 1h)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Poll interval (default from config, 5s)")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Write JSONL records to this file (- for stdout)")
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Suppress progress output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid run ID", err)
	}

	client, cfg, err := backendClient()
	if err != nil {
		return err
	}

	r := newRunner(client, cfg, monitor.Options{Timeout: watchTimeout, PollInterval: watchInterval})

	// A watched run was not submitted here, so a fresh correlation ID
	// stands in for the submission ID in the JSONL envelope.
	writer, cleanup, err := openOutputWriter(watchOutput, uuid.New().String(), "")
	if err != nil {
		return err
	}
	defer cleanup()

	onProgress := func(message string) {
		if writer != nil {
			_ = writer.WriteProgress(ctx, &output.ProgressRecord{RunID: runID, Message: message})
		}
		if !watchQuiet {
			fmt.Println(message)
		}
	}

	outcome, err := r.Watch(ctx, runID, onProgress)
	if err != nil {
		if writer != nil {
			_ = writer.WriteError(ctx, &output.ErrorRecord{Stage: "watch", Message: err.Error()})
		}
		if ctx.Err() != nil {
			return exitError(foundry.ExitSignalInt, "Watch cancelled", err)
		}
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed while watching run", err)
	}

	if writer != nil {
		_ = writer.WriteOutcome(ctx, &output.OutcomeRecord{
			RunID:          runID,
			Status:         string(outcome.Status),
			StateMessage:   outcome.StateMessage,
			LifecycleState: string(outcome.LifecycleState),
			ResultState:    string(outcome.ResultState),
		})
	}

	if outcome.Succeeded() {
		fmt.Printf("Run %d finished: SUCCESS\n", runID)
		return nil
	}

	fmt.Printf("Run %d finished: %s\n", runID, outcome.Status)
	if outcome.StateMessage != "" {
		fmt.Printf("  %s\n", outcome.StateMessage)
	}
	for _, te := range outcome.TaskErrors {
		fmt.Printf("  task %s (%s): %s\n", te.TaskKey, te.ResultState, te.StateMessage)
	}
	return fmt.Errorf("run %d finished %s", runID, outcome.Status)
}
