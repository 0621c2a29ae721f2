package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/dataset"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/geo"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/resilience"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/store"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/summary"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/pkg/anthropic"
)

const crimeCSV = `DATEEND,LAT,LONG,CODE_DEFINED,ADDRESS
2024-01-05,43.051,-76.151,LARCENY,100 MAIN ST
2024-01-06,43.049,-76.149,ASSAULT,102 MAIN ST
2024-01-07,43.050,-76.152,BURGLARY,104 MAIN ST
2024-01-08,43.001,-76.101,LARCENY,5 ELM ST
2024-01-09,,,LARCENY,UNKNOWN
`

const tractCSV = `Cnss_Tr,Latitude,Longitude,PvrtyPr
100,43.05,-76.15,31.2
200,43.00,-76.10,10
300,42.95,-76.20,
`

const rentalCSV = `ADDRESS,zip,completion_date
1 ELM ST,13210.0,2023-06-01
2 OAK ST,13203,
`

type fakeClient struct {
	reply string
	err   error
}

func (f *fakeClient) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: f.reply}}}, nil
}

func writeInputs(t *testing.T) (string, Options) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	return dir, Options{
		CrimeFile:  write("crime.csv", crimeCSV),
		TractFile:  write("tracts.csv", tractCSV),
		OutputFile: filepath.Join(dir, "processed_analysis.csv"),
		Join:       geo.JoinConfig{Metric: geo.Haversine, Concurrency: 2},
	}
}

func openStore(t *testing.T, dir string) store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(dir, "civic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func summarizer(c anthropic.Client) *summary.Summarizer {
	return summary.New(c, summary.Options{
		Model: "claude-sonnet-4-5-20250929",
		Retry: resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond},
	})
}

func TestRun(t *testing.T) {
	dir, opts := writeInputs(t)
	st := openStore(t, dir)
	sum := summarizer(&fakeClient{reply: "Higher-poverty tracts record more incidents in this sample."})

	res, err := New(opts, dataset.NewLoader(nil, dir), st, sum).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Incidents)
	assert.Equal(t, 3, res.TractCount)
	assert.Equal(t, "haversine", res.Metric)
	assert.Greater(t, res.MaxDistKM, 0.0)
	assert.Less(t, res.MaxDistKM, 1.0)
	assert.Greater(t, res.MeanDistKM, 0.0)
	assert.LessOrEqual(t, res.MeanDistKM, res.MaxDistKM)
	require.Len(t, res.Tracts, 3)
	assert.Equal(t, int64(3), res.Tracts[0].CrimeCount)
	assert.Equal(t, int64(1), res.Tracts[1].CrimeCount)
	assert.Equal(t, int64(0), res.Tracts[2].CrimeCount)

	assert.Equal(t, 2, res.Correlation.Pairs)
	assert.InDelta(t, 1, res.Correlation.Coefficient(), 1e-12)
	assert.Equal(t, 3, res.CrimeStats.Count)
	assert.Equal(t, 2, res.PovertyStats.Count)
	assert.NotEmpty(t, res.Summary)
	assert.Empty(t, res.SummaryError)

	require.Len(t, res.Clean, 2)
	assert.Equal(t, 1, res.Clean[0].Dropped["missing_coordinates"])

	names := make([]string, len(res.Phases))
	for i, p := range res.Phases {
		names[i] = p.Name
		assert.Equal(t, PhaseComplete, p.Status)
	}
	assert.Equal(t, []string{"load", "join", "qa", "stats", "write", "persist", "summary"}, names)

	written, err := dataset.ReadProcessed(context.Background(), opts.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, int64(4), model.TotalCrimes(written))

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Summary)
	assert.Equal(t, 4, run.Summary.Incidents)

	saved, err := st.ListTractCounts(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, saved, 3)
}

func TestRun_NoStoreNoSummary(t *testing.T) {
	dir, opts := writeInputs(t)
	opts.OutputFile = ""

	res, err := New(opts, dataset.NewLoader(nil, dir), nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
	assert.Empty(t, res.Summary)
	assert.Len(t, res.Phases, 4)
}

func TestRun_SummaryFailureIsRecorded(t *testing.T) {
	dir, opts := writeInputs(t)
	sum := summarizer(&fakeClient{reply: "Poverty causes crime."})

	res, err := New(opts, dataset.NewLoader(nil, dir), nil, sum).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Summary)
	assert.NotEmpty(t, res.SummaryError)
	last := res.Phases[len(res.Phases)-1]
	assert.Equal(t, "summary", last.Name)
	assert.Equal(t, PhaseFailed, last.Status)
}

func TestRun_MissingInputFailsRun(t *testing.T) {
	dir, opts := writeInputs(t)
	opts.TractFile = filepath.Join(dir, "missing.csv")
	st := openStore(t, dir)

	res, err := New(opts, dataset.NewLoader(nil, dir), st, nil).Run(context.Background())
	require.Error(t, err)
	require.NotEmpty(t, res.RunID)

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
}

func TestRun_RentalsOptional(t *testing.T) {
	dir, opts := writeInputs(t)

	opts.RentalFile = filepath.Join(dir, "missing_rentals.csv")
	res, err := New(opts, dataset.NewLoader(nil, dir), nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Rentals)

	opts.RentalFile = filepath.Join(dir, "rentals.csv")
	require.NoError(t, os.WriteFile(opts.RentalFile, []byte(rentalCSV), 0o644))
	res, err = New(opts, dataset.NewLoader(nil, dir), nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rentals)
}

func TestRun_PlanarMetric(t *testing.T) {
	dir, opts := writeInputs(t)
	opts.Join.Metric = geo.Planar

	res, err := New(opts, dataset.NewLoader(nil, dir), nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "planar", res.Metric)
	assert.Equal(t, int64(3), res.Tracts[0].CrimeCount)
}

func TestWriteReport(t *testing.T) {
	dir, opts := writeInputs(t)
	res, err := New(opts, dataset.NewLoader(nil, dir), nil, nil).Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(dir, "report.yaml")
	require.NoError(t, res.WriteReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, 4, got["incidents"])
	assert.Equal(t, "haversine", got["metric"])
	assert.Contains(t, got, "correlation")
	assert.NotContains(t, got, "Tracts")
}

func TestResultRunSummary(t *testing.T) {
	r := &Result{Incidents: 2, TractCount: 1, Metric: "planar"}
	r.Correlation.R = [2][2]float64{{math.NaN(), math.NaN()}, {math.NaN(), math.NaN()}}
	s := r.RunSummary()
	assert.Equal(t, 2, s.Incidents)
	assert.True(t, math.IsNaN(s.Correlation))
}
