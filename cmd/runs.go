package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent analysis runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return errors.New("runs: store.driver is none")
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func formatRunsList(w io.Writer, runs []model.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tINCIDENTS\tTRACTS\tMETRIC\tCORRELATION\tCREATED")
	for _, r := range runs {
		incidents, tracts, metric, corr := "-", "-", "-", "-"
		if r.Summary != nil {
			incidents = fmt.Sprintf("%d", r.Summary.Incidents)
			tracts = fmt.Sprintf("%d", r.Summary.Tracts)
			metric = r.Summary.Metric
			corr = fmt.Sprintf("%.4f", r.Summary.Correlation)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, incidents, tracts, metric, corr,
			r.CreatedAt.Local().Format(time.DateTime),
		)
	}
	_ = tw.Flush()
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}
