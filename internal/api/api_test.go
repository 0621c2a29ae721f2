package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/geo"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	tracts := []model.Tract{
		{GEOID: "100", Latitude: 43.05, Longitude: -76.15, PovertyPct: 31.2, CrimeCount: 3},
		{GEOID: "200", Latitude: 43.00, Longitude: -76.10, PovertyPct: 10, CrimeCount: 1},
		{GEOID: "300", Latitude: 42.95, Longitude: -76.20, PovertyPct: math.NaN(), CrimeCount: 0},
	}
	s, err := NewServer(tracts, geo.JoinConfig{Metric: geo.Haversine})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := testServer(t)
	var body map[string]any
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["tracts"])
}

func TestListTracts(t *testing.T) {
	ts := testServer(t)

	var all []tractResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/tracts", &all))
	require.Len(t, all, 3)
	assert.Nil(t, all[2].PovertyPct)
	require.NotNil(t, all[0].PovertyPct)
	assert.Equal(t, 31.2, *all[0].PovertyPct)

	var some []tractResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/tracts?min_count=1", &some))
	assert.Len(t, some, 2)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/tracts?min_count=-2", &errBody))
}

func TestGetTract(t *testing.T) {
	ts := testServer(t)

	var tr tractResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/tracts/200", &tr))
	assert.Equal(t, int64(1), tr.CrimeCount)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/tracts/999", &errBody))
	assert.Equal(t, "tract not found", errBody["error"])
}

func TestSummary(t *testing.T) {
	ts := testServer(t)

	var body struct {
		Tracts      int                 `json:"tracts"`
		Incidents   int64               `json:"incidents"`
		Crime       describeResponse    `json:"crime"`
		Poverty     describeResponse    `json:"poverty"`
		Correlation correlationResponse `json:"correlation"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/summary", &body))
	assert.Equal(t, 3, body.Tracts)
	assert.Equal(t, int64(4), body.Incidents)
	assert.Equal(t, 3, body.Crime.Count)
	assert.Equal(t, 2, body.Poverty.Count)
	assert.Equal(t, 2, body.Correlation.Pairs)
	require.NotNil(t, body.Correlation.Coefficient)
	assert.InDelta(t, 1, *body.Correlation.Coefficient, 1e-12)
}

func TestNearest(t *testing.T) {
	ts := testServer(t)

	var body struct {
		Tract      tractResponse `json:"tract"`
		DistanceKM float64       `json:"distance_km"`
		Metric     string        `json:"metric"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/nearest?lat=43.049&lon=-76.151", &body))
	assert.Equal(t, "100", body.Tract.GEOID)
	assert.Less(t, body.DistanceKM, 1.0)
	assert.Equal(t, "haversine", body.Metric)
}

func TestNearest_K(t *testing.T) {
	ts := testServer(t)

	var body struct {
		Neighbors []neighborResponse `json:"neighbors"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/nearest?lat=43.049&lon=-76.151&k=2", &body))
	require.Len(t, body.Neighbors, 2)
	assert.Equal(t, "100", body.Neighbors[0].Tract.GEOID)
	assert.Equal(t, "200", body.Neighbors[1].Tract.GEOID)
	assert.LessOrEqual(t, body.Neighbors[0].Distance, body.Neighbors[1].Distance)
}

func TestNearest_BadInput(t *testing.T) {
	ts := testServer(t)
	for _, q := range []string{"", "?lat=43", "?lat=abc&lon=-76", "?lat=95&lon=-76", "?lat=43&lon=-76&k=0", "?lat=43&lon=-76&k=11"} {
		var errBody map[string]string
		assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/nearest"+q, &errBody), q)
		assert.NotEmpty(t, errBody["error"])
	}
}

func TestCORS(t *testing.T) {
	ts := testServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
