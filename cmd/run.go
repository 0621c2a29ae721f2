package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/pipeline"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/summary"
)

var (
	runNoSummary bool
	runReport    string
	runOutput    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Join incidents to tracts and correlate crime with poverty",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		jc, err := joinConfig(cfg.Join)
		if err != nil {
			return err
		}

		output := cfg.Data.Path(cfg.Data.OutputFile)
		if runOutput != "" {
			output = runOutput
		}

		var sum *summary.Summarizer
		if !runNoSummary {
			sum = newSummarizer(cfg.Anthropic)
		}

		p := pipeline.New(pipeline.Options{
			CrimeFile:      cfg.Data.Path(cfg.Data.CrimeFile),
			TractFile:      cfg.Data.Path(cfg.Data.TractFile),
			RentalFile:     cfg.Data.Path(cfg.Data.RentalFile),
			TractShapefile: cfg.Data.Path(cfg.Data.TractShapefile),
			GEOIDField:     cfg.Data.GEOIDField,
			OutputFile:     output,
			Join:           jc,
		}, newLoader(cfg.Data), st, sum)

		result, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if runReport != "" {
			if err := result.WriteReport(runReport); err != nil {
				return err
			}
			zap.L().Info("report written", zap.String("path", runReport))
		}

		formatResult(os.Stdout, result)
		return nil
	},
}

func formatResult(w io.Writer, r *pipeline.Result) {
	if r.RunID != "" {
		fmt.Fprintf(w, "Run:        %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Incidents:  %d\n", r.Incidents)
	fmt.Fprintf(w, "Tracts:     %d\n", r.TractCount)
	if r.Rentals > 0 {
		fmt.Fprintf(w, "Rentals:    %d\n", r.Rentals)
	}
	fmt.Fprintf(w, "Metric:     %s\n", r.Metric)
	if r.Incidents > 0 {
		fmt.Fprintf(w, "Distance:   mean %.3f km, max %.3f km\n", r.MeanDistKM, r.MaxDistKM)
	}
	for _, c := range r.Clean {
		if n := c.TotalDropped(); n > 0 {
			fmt.Fprintf(w, "Dropped:    %d %s rows\n", n, c.Dataset)
		}
	}
	if r.OutputFile != "" {
		fmt.Fprintf(w, "Output:     %s\n", r.OutputFile)
	}

	fmt.Fprintf(w, "\n%s\n\n%s\n\n%s\n", r.CrimeStats, r.PovertyStats, r.Correlation)

	switch {
	case r.Summary != "":
		fmt.Fprintf(w, "\nSummary:\n%s\n", r.Summary)
	case r.SummaryError != "":
		fmt.Fprintf(w, "\nSummary unavailable: %s\n", r.SummaryError)
	}
}

func init() {
	runCmd.Flags().BoolVar(&runNoSummary, "no-summary", false, "skip the LLM summary")
	runCmd.Flags().StringVar(&runReport, "report", "", "write a YAML run report to this path")
	runCmd.Flags().StringVar(&runOutput, "output", "", "processed table path, .csv or .xlsx (default from config)")
	rootCmd.AddCommand(runCmd)
}
