package gdl90

import (
	"encoding/hex"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsFrame tests the GDL-90 frame heuristic
func TestIsFrame(t *testing.T) {
	d := NewDeframer(logrus.New())

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"valid frame", append(append([]byte{FlagByte}, make([]byte, 12)...), FlagByte), true},
		{"no leading flag", append(make([]byte, 13), FlagByte), false},
		{"no trailing flag", append([]byte{FlagByte}, make([]byte, 13)...), false},
		{"too short", []byte{FlagByte, 0x26, FlagByte}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsFrame(tt.data))
		})
	}
}

// TestUnstuff tests KISS escape sequence removal
func TestUnstuff(t *testing.T) {
	d := NewDeframer(logrus.New())

	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{
			name:  "escaped flag byte",
			input: []byte{0x26, 0x00, 0x7D, 0x5E, 0x12},
			want:  []byte{0x26, 0x00, 0x7E, 0x12},
		},
		{
			name:  "escaped escape byte",
			input: []byte{0x26, 0x00, 0x7D, 0x5D, 0x12},
			want:  []byte{0x26, 0x00, 0x7D, 0x12},
		},
		{
			name:  "no escapes",
			input: []byte{0x26, 0x00, 0x8D, 0x48},
			want:  []byte{0x26, 0x00, 0x8D, 0x48},
		},
		{
			name:  "lone escape passes through",
			input: []byte{0x26, 0x7D, 0x01},
			want:  []byte{0x26, 0x7D, 0x01},
		},
		{
			name:  "trailing escape passes through",
			input: []byte{0x26, 0x00, 0x7D},
			want:  []byte{0x26, 0x00, 0x7D},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Unstuff(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := d.Unstuff(nil)
	assert.False(t, ok)
}

// TestDeframeADSBLongReport tests end-to-end payload extraction with byte stuffing
func TestDeframeADSBLongReport(t *testing.T) {
	d := NewDeframer(logrus.New())

	framed, err := hex.DecodeString("7E26008B9A7D5E479967CCD9C82B84D1FFEBCCA07E")
	require.NoError(t, err)

	payloads := d.Deframe(framed)
	require.Len(t, payloads, 1)
	assert.Equal(t, "8b9a7e479967ccd9c82b84d1ffebcca0", hex.EncodeToString(payloads[0]))
	assert.Equal(t, uint8(17), (payloads[0][0]>>3)&0x1F)

	stats := d.Stats()
	assert.Equal(t, float64(1), stats["adsb_messages_found"])
	assert.Equal(t, float64(1), stats["byte_unstuff_operations"])
}

// TestDeframeMultipleFrames tests that a shared flag closes one frame and opens the next
func TestDeframeMultipleFrames(t *testing.T) {
	d := NewDeframer(logrus.New())

	payload := make([]byte, 14)
	payload[0] = 0x8D // DF 17

	var buf []byte
	buf = append(buf, FlagByte)
	buf = append(buf, 0x26, 0x00)
	buf = append(buf, payload...)
	buf = append(buf, FlagByte)
	buf = append(buf, 0x26, 0x00)
	buf = append(buf, payload...)
	buf = append(buf, FlagByte)

	payloads := d.Deframe(buf)
	assert.Len(t, payloads, 2)
}

// TestDeframeRejections tests the payload validation rules
func TestDeframeRejections(t *testing.T) {
	frame := func(content []byte) []byte {
		out := append([]byte{FlagByte}, content...)
		return append(out, FlagByte)
	}

	df17 := make([]byte, 14)
	df17[0] = 0x8D

	tests := []struct {
		name    string
		content []byte
	}{
		{"wrong message id", append([]byte{0x00, 0x00}, df17...)},
		{"payload too short", []byte{0x26, 0x00, 0x8D, 0x00, 0x00}},
		{"payload too long", append([]byte{0x26, 0x00}, make([]byte, 19)...)},
		{"non extended squitter df", append([]byte{0x26, 0x00}, make([]byte, 14)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeframer(logrus.New())
			assert.Empty(t, d.Deframe(frame(tt.content)))
		})
	}
}
