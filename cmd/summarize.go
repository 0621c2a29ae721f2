package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/dataset"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/pipeline"
)

var summarizeInput string

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Describe a processed table and ask the model for a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		input := summarizeInput
		if input == "" {
			input = cfg.Data.Path(cfg.Data.OutputFile)
		}
		tracts, err := dataset.ReadProcessed(ctx, input)
		if err != nil {
			return err
		}

		crime, poverty, corr, err := pipeline.Describe(tracts)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s\n\n%s\n\n%s\n", crime, poverty, corr)

		sum := newSummarizer(cfg.Anthropic)
		if sum == nil {
			return errors.New("summarize: anthropic.key is not set")
		}
		text, err := sum.Summarize(ctx, crime, poverty, corr)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\nSummary:\n%s\n", text)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeInput, "input", "", "processed table to read (default from config)")
	rootCmd.AddCommand(summarizeCmd)
}
