package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "LAT,LONG\n43.05,-76.15\n43.02,-76.12\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"LAT", "LONG"}, rows[0])
	assert.Equal(t, []string{"43.02", "-76.12"}, rows[2])
}

func TestStreamCSV_WithHeaderAndBOM(t *testing.T) {
	input := "\xEF\xBB\xBFCnss_Tr,PvrtyPr\n100,31.2\n200,12.5\n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"100", "31.2"}, rows[0])

	header := <-headerCh
	assert.Equal(t, []string{"Cnss_Tr", "PvrtyPr"}, header)
}

func TestStreamCSV_TrimSpaceAndRagged(t *testing.T) {
	input := " a , b \n1\n2,3,4\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1"}, {"2", "3", "4"}}, rows)
}

func TestStreamCSV_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	for range 10000 {
		sb.WriteString("43.0,-76.1\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestStreamCSV_MalformedQuote(t *testing.T) {
	input := "a,\"b\nc,d\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crime.csv")
	require.NoError(t, writeTestFile(path, "LAT,LONG,DATEEND\n43.05,-76.15,2024-01-02\n,,\n"))

	header, rows, err := ReadCSVFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"LAT", "LONG", "DATEEND"}, header)
	assert.Equal(t, [][]string{{"43.05", "-76.15", "2024-01-02"}, {"", "", ""}}, rows)
}

func TestReadCSVFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, writeTestFile(path, ""))

	_, _, err := ReadCSVFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, _, err := ReadCSVFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := WriteCSVFile(path, []string{"Cnss_Tr", "crime_count"}, [][]string{{"100", "3"}, {"200", "0"}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Cnss_Tr,crime_count\n100,3\n200,0\n", string(data))
}
