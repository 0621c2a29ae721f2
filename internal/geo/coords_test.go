package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRadians(t *testing.T) {
	c, err := ToRadians(LatLng{Lat: 90, Lng: -180})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, c.Lat, 1e-15)
	assert.InDelta(t, -math.Pi, c.Lng, 1e-15)

	back := c.Degrees()
	assert.InDelta(t, 90, back.Lat, 1e-12)
	assert.InDelta(t, -180, back.Lng, 1e-12)
}

func TestToRadians_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		in     LatLng
		reason string
	}{
		{"nan lat", LatLng{Lat: math.NaN()}, "latitude is not finite"},
		{"inf lng", LatLng{Lng: math.Inf(-1)}, "longitude is not finite"},
		{"lat too high", LatLng{Lat: 90.0001}, "latitude out of range"},
		{"lat too low", LatLng{Lat: -91}, "latitude out of range"},
		{"lng too high", LatLng{Lng: 180.5}, "longitude out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToRadians(tt.in)
			var pe *PreconditionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, -1, pe.Index)
			assert.Contains(t, pe.Reason, tt.reason)
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	got, err := NormalizeAll([]LatLng{{Lat: 0, Lng: 0}, {Lat: 45, Lng: 90}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Coord{}, got[0])
	assert.InDelta(t, math.Pi/4, got[1].Lat, 1e-15)
	assert.InDelta(t, math.Pi/2, got[1].Lng, 1e-15)

	empty, err := NormalizeAll(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNormalizeAll_ReportsPosition(t *testing.T) {
	_, err := NormalizeAll([]LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 200, Lng: 0}})
	var pe *PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Index)
	assert.Contains(t, err.Error(), "element 2")
}
