package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/parsecdata/wfrun/internal/config"
	"github.com/parsecdata/wfrun/pkg/runlog"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show locally recorded submissions, newest first",
	RunE:  runHistory,
}

var (
	historyLimit int
	historyJSON  bool
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum records to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print records as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()

	store := runlog.NewStore(cfg.RunLogDir())
	records, err := store.List()
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to read run history", err)
	}

	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if historyJSON {
		return printJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No recorded submissions.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMITTED\tJOB\tSTATUS\tRUN ID\tURL")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			rec.SubmittedAt.Format("2006-01-02 15:04:05"),
			rec.JobName, rec.Status, rec.RunID, rec.RunURL)
	}
	return tw.Flush()
}
