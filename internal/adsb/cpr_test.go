package adsb

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known odd/even pair for aircraft 40621D.
const (
	testEvenLatCPR = 93000
	testEvenLonCPR = 51372
	testOddLatCPR  = 74158
	testOddLonCPR  = 50194
)

// TestCPRDecodeSingleParity tests that one parity alone resolves nothing
func TestCPRDecodeSingleParity(t *testing.T) {
	decoder := NewCPRDecoder(logrus.New())

	_, _, ok := decoder.Decode("40621D", 0, testEvenLatCPR, testEvenLonCPR)
	assert.False(t, ok)
}

// TestCPRDecodeGlobalOddLatest tests global resolution with the odd frame most recent
func TestCPRDecodeGlobalOddLatest(t *testing.T) {
	decoder := NewCPRDecoder(logrus.New())

	_, _, ok := decoder.Decode("40621D", 0, testEvenLatCPR, testEvenLonCPR)
	require.False(t, ok)

	lat, lon, ok := decoder.Decode("40621D", 1, testOddLatCPR, testOddLonCPR)
	require.True(t, ok)
	assert.InDelta(t, 52.26578, lat, 0.0001)
	assert.InDelta(t, 3.93891, lon, 0.0001)
}

// TestCPRDecodeGlobalEvenLatest tests global resolution with the even frame most recent
func TestCPRDecodeGlobalEvenLatest(t *testing.T) {
	decoder := NewCPRDecoder(logrus.New())

	_, _, ok := decoder.Decode("40621D", 1, testOddLatCPR, testOddLonCPR)
	require.False(t, ok)

	lat, lon, ok := decoder.Decode("40621D", 0, testEvenLatCPR, testEvenLonCPR)
	require.True(t, ok)
	assert.InDelta(t, 52.25720, lat, 0.0001)
	assert.InDelta(t, 3.91937, lon, 0.0001)
}

// TestCPRDecodePerAircraftState tests that different aircraft never pair frames
func TestCPRDecodePerAircraftState(t *testing.T) {
	decoder := NewCPRDecoder(logrus.New())

	_, _, ok := decoder.Decode("40621D", 0, testEvenLatCPR, testEvenLonCPR)
	require.False(t, ok)

	// Odd frame from a different aircraft must not complete the pair.
	_, _, ok = decoder.Decode("ABCDEF", 1, testOddLatCPR, testOddLonCPR)
	assert.False(t, ok)
}

// TestNLLookup tests the longitude zone table
func TestNLLookup(t *testing.T) {
	tests := []struct {
		lat  float64
		want int
	}{
		{0.0, 59},
		{52.25720, 36},
		{-52.25720, 36},
		{86.9, 2},
		{89.0, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, nlLookup(tt.lat), "lat %.4f", tt.lat)
	}
}

// TestModPos tests the always-positive modulus
func TestModPos(t *testing.T) {
	assert.Equal(t, 8, modPos(8, 60))
	assert.Equal(t, 52, modPos(-8, 60))
	assert.Equal(t, 0, modPos(0, 59))
}
