package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/btbeal-db/agent-eval-request-job/internal/ledger"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List review sessions created from this machine",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of runs to show")
}

func runList(cmd *cobra.Command, args []string) error {
	l, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("open run ledger: %w", err)
	}
	defer l.Close()

	runs, err := l.List(cmd.Context(), listLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No review sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSESSION\tEXPERIMENT\tTRACES\tREVIEWERS\tURL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.SessionName,
			run.ExperimentID,
			run.TraceCount,
			strings.Join(run.Reviewers, ","),
			run.SessionURL,
		)
	}

	return w.Flush()
}
