package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/parsecdata/wfrun/pkg/monitor"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <job-name>",
	Short: "Resolve a logical job name to a workspace job ID",
	Long: `Resolve a logical job name the same way run does: the caller's
deployment-prefixed copy wins, then any deployment-prefixed copy, then
the bare name.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobName := args[0]

	client, cfg, err := backendClient()
	if err != nil {
		return err
	}

	r := newRunner(client, cfg, monitor.Options{})

	jobID, found, err := r.Resolve(ctx, jobName)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to resolve job", err)
	}
	if !found {
		return fmt.Errorf("job %q not found in workspace", jobName)
	}

	if prefix, ok := r.Resolver().Prefix(ctx); ok {
		fmt.Printf("%s -> job %d (resolving as %s)\n", jobName, jobID, prefix)
	} else {
		fmt.Printf("%s -> job %d\n", jobName, jobID)
	}
	return nil
}
