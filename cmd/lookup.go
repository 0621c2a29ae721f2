package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/dataset"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/store"
)

var (
	lookupInput string
	lookupRun   string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <geoid>",
	Short: "Show one tract from the processed table or a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		geoid := args[0]

		if lookupRun != "" {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("lookup --run needs a store; store.driver is none")
			}
			defer st.Close() //nolint:errcheck

			t, err := st.GetTractCount(ctx, lookupRun, geoid)
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintln(os.Stdout, "Tract not found")
				return nil
			}
			if err != nil {
				return err
			}
			formatTract(os.Stdout, *t)
			return nil
		}

		input := lookupInput
		if input == "" {
			input = cfg.Data.Path(cfg.Data.OutputFile)
		}
		tracts, err := dataset.ReadProcessed(ctx, input)
		if err != nil {
			return err
		}
		t, ok := model.Lookup(tracts, geoid)
		if !ok {
			fmt.Fprintln(os.Stdout, "Tract not found")
			return nil
		}
		formatTract(os.Stdout, t)
		return nil
	},
}

func formatTract(w io.Writer, t model.Tract) {
	fmt.Fprintf(w, "%-12s %s\n", dataset.ColTractID, t.GEOID)
	fmt.Fprintf(w, "%-12s %.6f\n", dataset.ColTractLat, t.Latitude)
	fmt.Fprintf(w, "%-12s %.6f\n", dataset.ColTractLng, t.Longitude)
	if math.IsNaN(t.PovertyPct) {
		fmt.Fprintf(w, "%-12s %s\n", dataset.ColTractPoverty, "NaN")
	} else {
		fmt.Fprintf(w, "%-12s %g\n", dataset.ColTractPoverty, t.PovertyPct)
	}
	fmt.Fprintf(w, "%-12s %d\n", dataset.ColCrimeCount, t.CrimeCount)
}

func init() {
	lookupCmd.Flags().StringVar(&lookupInput, "input", "", "processed table to read (default from config)")
	lookupCmd.Flags().StringVar(&lookupRun, "run", "", "read the tract from a stored run instead")
	rootCmd.AddCommand(lookupCmd)
}
