package pipeline

import (
	"math"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
)

func TestCheckQuality(t *testing.T) {
	incidents := []model.Incident{
		{Latitude: 43.05, Longitude: -76.15, TractGEOID: "100"},
		{Latitude: 43.00, Longitude: -76.10, TractGEOID: "200"},
	}
	tracts := []model.Tract{
		{GEOID: "100", CrimeCount: 1},
		{GEOID: "200", CrimeCount: 1},
		{GEOID: "300", CrimeCount: 0},
	}
	assert.NoError(t, CheckQuality(incidents, tracts))
}

func TestCheckQuality_ReportsEveryFailure(t *testing.T) {
	incidents := []model.Incident{
		{Latitude: math.NaN(), Longitude: -76.15, TractGEOID: "100"},
		{Latitude: 43.00, Longitude: -76.10},
	}
	tracts := []model.Tract{
		{GEOID: "100", CrimeCount: 5},
		{GEOID: "200", CrimeCount: -1},
	}

	err := CheckQuality(incidents, tracts)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "missing coordinates")
	assert.Contains(t, msg, "no tract")
	assert.Contains(t, msg, "negative crime_count")
	assert.Contains(t, msg, "does not match")

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	require.Len(t, joined.Unwrap(), 4)
	for _, e := range joined.Unwrap() {
		assert.True(t, strings.HasPrefix(e.Error(), "qa: "), e.Error())
		assert.NotEmpty(t, eris.Unpack(e).ErrRoot.Stack, "qa failures carry a stack trace")
	}
}

func TestCheckQuality_Empty(t *testing.T) {
	assert.NoError(t, CheckQuality(nil, []model.Tract{{GEOID: "100"}}))
}
