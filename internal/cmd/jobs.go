package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs in the workspace",
	Long: `List the jobs visible in the workspace, including their numeric IDs.

Deployment-prefixed names are shown as deployed; use resolve to see
which job a logical name maps to.`,
	RunE: runJobs,
}

var jobsJSON bool

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().BoolVar(&jobsJSON, "json", false, "Print the listing as JSON")
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, _, err := backendClient()
	if err != nil {
		return err
	}

	jobs, err := client.ListJobs(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to list jobs", err)
	}

	if jobsJSON {
		return printJSON(jobs)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB ID\tNAME")
	for _, job := range jobs {
		fmt.Fprintf(tw, "%d\t%s\n", job.JobID, job.Name)
	}
	return tw.Flush()
}
