package adsb

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// altitudeFrame builds a 14-byte frame whose bytes 2-4 carry the given
// 13-bit altitude field.
func altitudeFrame(field uint16) []byte {
	frame := make([]byte, FrameLength)
	window := uint32(field) << 4
	frame[2] = byte(window >> 16)
	frame[3] = byte(window >> 8)
	frame[4] = byte(window)
	return frame
}

// TestDecodeBarometricQBitOne tests the 25 ft LSB branch
func TestDecodeBarometricQBitOne(t *testing.T) {
	decoder := NewAltitudeDecoder(DefaultAltitudeConfig(), logrus.New())

	// Altitude code 1560 with the Q-bit inserted at field bit 4.
	field := uint16(0x0C38)
	require.Equal(t, uint16(1), (field>>4)&0x01)

	alt, err := decoder.DecodeBarometric(altitudeFrame(field))
	require.NoError(t, err)
	assert.Equal(t, 38000, alt)

	stats := decoder.Stats()
	assert.Equal(t, float64(1), stats["q_bit_one_count"])
	assert.Equal(t, float64(0), stats["q_bit_zero_count"])
}

// TestDecodeBarometricGillham tests the Q=0 Gray-coded branch
func TestDecodeBarometricGillham(t *testing.T) {
	decoder := NewAltitudeDecoder(DefaultAltitudeConfig(), logrus.New())

	tests := []struct {
		name  string
		field uint16
		want  int
	}{
		{"gray 2 decodes to 3", 0b0010, -700},
		{"gray 8 decodes to 15", 0b1000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, uint16(0), (tt.field>>4)&0x01)
			alt, err := decoder.DecodeBarometric(altitudeFrame(tt.field))
			require.NoError(t, err)
			assert.Equal(t, tt.want, alt)
		})
	}

	assert.Equal(t, float64(2), decoder.Stats()["gillham_conversions"])
}

// TestDecodeBarometricOffsetCorrection tests the 1000 ft band correction
func TestDecodeBarometricOffsetCorrection(t *testing.T) {
	decoder := NewAltitudeDecoder(DefaultAltitudeConfig(), logrus.New())

	// Altitude code 320 raw-decodes to 7000 ft and sits in the band that
	// reads 1000 ft low.
	field := uint16(0x0290)
	alt, err := decoder.DecodeBarometric(altitudeFrame(field))
	require.NoError(t, err)
	assert.Equal(t, 8000, alt)
}

// TestDecodeBarometricShortFrame tests the frame length guard
func TestDecodeBarometricShortFrame(t *testing.T) {
	decoder := NewAltitudeDecoder(DefaultAltitudeConfig(), logrus.New())

	_, err := decoder.DecodeBarometric([]byte{0x8D, 0x40})
	assert.ErrorIs(t, err, ErrFrameTooShort)
}

// TestDecodeGeometric tests the 6.25 ft resolution geometric decode
func TestDecodeGeometric(t *testing.T) {
	decoder := NewAltitudeDecoder(DefaultAltitudeConfig(), logrus.New())

	frame := make([]byte, FrameLength)
	// geo code 480 -> 480*6.25 - 1000 = 2000 ft
	window := uint32(480) << 5
	frame[2] = byte(window >> 16)
	frame[3] = byte(window >> 8)
	frame[4] = byte(window)

	alt, err := decoder.DecodeGeometric(frame)
	require.NoError(t, err)
	assert.Equal(t, 2000, alt)
}

// TestDecodeAltitudeTypeCodeDispatch tests which type codes carry altitude
func TestDecodeAltitudeTypeCodeDispatch(t *testing.T) {
	decoder := NewAltitudeDecoder(DefaultAltitudeConfig(), logrus.New())
	frame := altitudeFrame(0x0C38)

	tests := []struct {
		name     string
		typeCode uint8
		wantBaro bool
		wantGeo  bool
	}{
		{"TC 9 barometric", 9, true, false},
		{"TC 18 barometric", 18, true, false},
		{"TC 31 geometric", 31, false, true},
		{"TC 4 no altitude", 4, false, false},
		{"TC 19 no altitude", 19, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := decoder.DecodeAltitude(frame, tt.typeCode)
			if !tt.wantBaro && !tt.wantGeo {
				assert.Nil(t, data)
				return
			}
			require.NotNil(t, data)
			assert.Equal(t, tt.wantBaro, data.BaroFt != nil)
			assert.Equal(t, tt.wantGeo, data.GeoFt != nil)
			assert.False(t, data.DecodedAt.IsZero())
		})
	}
}

// TestValidateAltitudeRange tests the sanity check bounds
func TestValidateAltitudeRange(t *testing.T) {
	decoder := NewAltitudeDecoder(DefaultAltitudeConfig(), logrus.New())

	tests := []struct {
		name string
		baro int
		want bool
	}{
		{"below minimum", -1001, false},
		{"at minimum", -1000, true},
		{"zero", 0, true},
		{"at maximum", 60000, true},
		{"above maximum", 60001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baro := tt.baro
			assert.Equal(t, tt.want, decoder.Validate(&AltitudeData{BaroFt: &baro}))
		})
	}

	assert.Equal(t, float64(2), decoder.Stats()["sanity_check_failures"])
}

// TestValidateDisabled tests that disabled sanity checks accept everything
func TestValidateDisabled(t *testing.T) {
	config := DefaultAltitudeConfig()
	config.EnableSanityChecks = false
	decoder := NewAltitudeDecoder(config, logrus.New())

	baro := 999999
	assert.True(t, decoder.Validate(&AltitudeData{BaroFt: &baro}))
	assert.Equal(t, float64(0), decoder.Stats()["sanity_check_failures"])
}

// TestDecodeAltitudeRejectsOutOfRange tests that rejected values produce no data
func TestDecodeAltitudeRejectsOutOfRange(t *testing.T) {
	config := DefaultAltitudeConfig()
	config.MaxValidAltitudeFt = 10000
	decoder := NewAltitudeDecoder(config, logrus.New())

	// 38000 ft exceeds the configured ceiling.
	assert.Nil(t, decoder.DecodeAltitude(altitudeFrame(0x0C38), 11))
	assert.Equal(t, float64(0), decoder.Stats()["altitudes_decoded"])
}

// TestAltitudeStatsReset tests counter reset
func TestAltitudeStatsReset(t *testing.T) {
	decoder := NewAltitudeDecoder(DefaultAltitudeConfig(), logrus.New())

	_ = decoder.DecodeAltitude(altitudeFrame(0x0C38), 11)
	assert.Equal(t, float64(1), decoder.Stats()["altitudes_decoded"])

	decoder.ResetStats()
	assert.Equal(t, float64(0), decoder.Stats()["altitudes_decoded"])
	assert.Equal(t, float64(0), decoder.Stats()["q_bit_one_count"])
}
