package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parsecdata/wfrun/internal/config"
	"github.com/parsecdata/wfrun/internal/observability"
	"github.com/parsecdata/wfrun/pkg/jobspec"
	"github.com/parsecdata/wfrun/pkg/monitor"
	"github.com/parsecdata/wfrun/pkg/output"
	"github.com/parsecdata/wfrun/pkg/runlog"
	"github.com/parsecdata/wfrun/pkg/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit a job and watch it to completion",
	Long: `Submit one run of a job and watch it until it finishes.

The --job flag takes either a logical job name or the path to a job
config file. Names are resolved against the workspace deployment-prefix
first, so the dev copy of a job wins over a bare-named one.

Example:
  wfrun run --job nightly-load --param run_date=2026-08-20
  wfrun run --job job_configs/nightly_load.yaml -p mode=full
  wfrun run --job nightly-load --no-wait
  wfrun run --job nightly-load --output runs.jsonl`,
	RunE: runRun,
}

var (
	runJob      string
	runParams   []string
	runTimeout  time.Duration
	runInterval time.Duration
	runNoWait   bool
	runOutput   string
	runQuiet    bool
	runJSON     bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runJob, "job", "j", "", "Job name or path to job config (required)")
	runCmd.Flags().StringArrayVarP(&runParams, "param", "p", nil, "Job parameter as key=value (repeatable)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Watch ceiling (default from config, 1h)")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Poll interval (default from config, 5s)")
	runCmd.Flags().BoolVar(&runNoWait, "no-wait", false, "Start the run and return without watching")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write JSONL records to this file (- for stdout)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress progress output")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the final result as JSON")

	_ = runCmd.MarkFlagRequired("job")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, cfg, err := backendClient()
	if err != nil {
		return err
	}

	jobName, spec, err := resolveJobSpec(cfg, runJob)
	if err != nil {
		return err
	}

	params, err := parseParams(runParams)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid --param value", err)
	}

	if spec != nil {
		if fieldErrs := spec.ValidateValues(params); len(fieldErrs) > 0 {
			for _, fe := range fieldErrs {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Name, fe.Message)
			}
			return exitError(foundry.ExitInvalidArgument, "Invalid job parameters",
				fmt.Errorf("%d parameter(s) failed validation", len(fieldErrs)))
		}
		params = spec.LaunchParameters(params)
	}

	store := runlog.NewStore(cfg.RunLogDir())
	record := runlog.NewRecord(jobName)
	record.Parameters = params

	writer, cleanup, err := openOutputWriter(runOutput, record.ID, jobName)
	if err != nil {
		return err
	}
	defer cleanup()

	r := newRunner(client, cfg, monitor.Options{Timeout: runTimeout, PollInterval: runInterval})

	result, err := r.Submit(ctx, jobName, params)
	if err != nil {
		if writer != nil {
			_ = writer.WriteError(ctx, &output.ErrorRecord{Stage: "submit", Message: err.Error()})
		}
		if runner.IsNotFound(err) {
			return exitError(foundry.ExitInvalidArgument, "Unknown job", err)
		}
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to submit job", err)
	}

	record.JobID = result.JobID
	record.RunID = result.Handle.RunID
	record.RunURL = result.RunURL
	if err := store.Write(record); err != nil {
		observability.CLILogger.Warn("Failed to record submission", zap.Error(err))
	}

	if !runJSON && !runQuiet {
		fmt.Printf("Submitted %s (job %d) as run %d\n", result.JobName, result.JobID, result.Handle.RunID)
		fmt.Printf("Follow along: %s\n", result.RunURL)
	}

	if runNoWait {
		if runJSON {
			return printJSON(result)
		}
		return nil
	}

	onProgress := func(message string) {
		if writer != nil {
			_ = writer.WriteProgress(ctx, &output.ProgressRecord{RunID: result.Handle.RunID, Message: message})
		}
		if !runJSON && !runQuiet {
			fmt.Println(message)
		}
	}

	outcome, err := r.Watch(ctx, result.Handle.RunID, onProgress)
	if err != nil {
		if writer != nil {
			_ = writer.WriteError(ctx, &output.ErrorRecord{Stage: "watch", Message: err.Error()})
		}
		finishRecord(store, record, runlog.StatusError, err.Error(), nil)
		if ctx.Err() != nil {
			return exitError(foundry.ExitSignalInt, "Watch cancelled", err)
		}
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed while watching run", err)
	}
	result.Outcome = outcome

	finishRecord(store, record, recordStatus(outcome.Status), outcome.StateMessage, outcome.TaskErrors)

	if writer != nil {
		_ = writer.WriteOutcome(ctx, outcomeRecord(result))
	}

	if runJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printOutcome(result)
	}

	if !outcome.Succeeded() {
		return fmt.Errorf("run %d finished %s", result.Handle.RunID, outcome.Status)
	}
	return nil
}

// resolveJobSpec maps the --job value to a logical name and, when one is
// configured, its job spec. A bare name with no config is allowed; the
// workspace is the source of truth for what exists.
func resolveJobSpec(cfg *config.Config, value string) (string, *jobspec.Spec, error) {
	if isSpecPath(value) {
		spec, err := jobspec.Load(value)
		if err != nil {
			return "", nil, exitError(foundry.ExitFileReadError, "Invalid job config", err)
		}
		return spec.JobName, spec, nil
	}

	specs, err := loadCatalog(cfg)
	if err != nil {
		return "", nil, err
	}
	return value, specs[value], nil
}

// openOutputWriter opens a JSONL destination from an --output value. A
// nil writer means JSONL output is disabled.
func openOutputWriter(dest, submissionID, jobName string) (output.Writer, func(), error) {
	if dest == "" {
		return nil, func() {}, nil
	}

	var w io.Writer = os.Stdout
	cleanup := func() {}
	if dest != "-" {
		f, err := os.Create(dest)
		if err != nil {
			return nil, nil, exitError(foundry.ExitFileWriteError, "Failed to create output file", err)
		}
		w = f
		cleanup = func() { _ = f.Close() }
	}

	jw := output.NewJSONLWriter(w, submissionID, jobName)
	return jw, func() {
		_ = jw.Close()
		cleanup()
	}, nil
}

// finishRecord stamps the final disposition onto the run log record.
func finishRecord(store *runlog.Store, record *runlog.Record, status runlog.Status, message string, taskErrs []monitor.TaskError) {
	record.Status = status
	record.StateMessage = message
	for _, te := range taskErrs {
		record.TaskFailures = append(record.TaskFailures, runlog.TaskFailure{
			TaskKey:      te.TaskKey,
			StateMessage: te.StateMessage,
			ResultState:  string(te.ResultState),
		})
	}
	now := time.Now().UTC()
	record.CompletedAt = &now
	if err := store.Write(record); err != nil {
		observability.CLILogger.Warn("Failed to record outcome", zap.Error(err))
	}
}

func recordStatus(status monitor.Status) runlog.Status {
	switch status {
	case monitor.StatusSuccess:
		return runlog.StatusSuccess
	case monitor.StatusFailed:
		return runlog.StatusFailed
	case monitor.StatusTimeout:
		return runlog.StatusTimeout
	default:
		return runlog.StatusUnknown
	}
}

func outcomeRecord(result *runner.Result) *output.OutcomeRecord {
	rec := &output.OutcomeRecord{
		RunID:          result.Handle.RunID,
		JobID:          result.JobID,
		RunURL:         result.RunURL,
		Status:         string(result.Outcome.Status),
		StateMessage:   result.Outcome.StateMessage,
		LifecycleState: string(result.Outcome.LifecycleState),
		ResultState:    string(result.Outcome.ResultState),
	}
	for _, te := range result.Outcome.TaskErrors {
		rec.TaskErrors = append(rec.TaskErrors, output.TaskErrorRecord{
			TaskKey:      te.TaskKey,
			StateMessage: te.StateMessage,
			ResultState:  string(te.ResultState),
		})
	}
	return rec
}

func printOutcome(result *runner.Result) {
	out := result.Outcome
	if out.Succeeded() {
		fmt.Printf("Run %d finished: SUCCESS\n", result.Handle.RunID)
		return
	}

	fmt.Printf("Run %d finished: %s\n", result.Handle.RunID, out.Status)
	if out.StateMessage != "" {
		fmt.Printf("  %s\n", out.StateMessage)
	}
	for _, te := range out.TaskErrors {
		fmt.Printf("  task %s (%s): %s\n", te.TaskKey, te.ResultState, te.StateMessage)
	}
	fmt.Printf("Details: %s\n", result.RunURL)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to encode result", err)
	}
	return nil
}
