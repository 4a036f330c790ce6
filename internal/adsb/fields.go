package adsb

import "fmt"

// Fields holds the fixed-position fields of a Mode S Extended Squitter
// frame. Derived deterministically from the raw bytes; no lifecycle of
// its own.
type Fields struct {
	DF       uint8   // Downlink Format (5 bits)
	CA       uint8   // Capability (3 bits)
	ICAO     string  // 24-bit aircraft address as 6 hex chars
	TypeCode uint8   // ME type code (5 bits)
	ME       [7]byte // 56-bit message field
	Parity   uint32  // 24-bit parity / interrogator field
}

// ExtractFields pulls the Mode S fields from a raw frame. The frame must
// be at least 14 bytes; longer candidates (28-byte PASSCOM records) are
// read from their leading 14 bytes.
func ExtractFields(frame []byte) (*Fields, error) {
	if len(frame) < FrameLength {
		return nil, ErrFrameTooShort
	}

	f := &Fields{
		DF:   (frame[0] >> 3) & 0x1F,
		CA:   frame[0] & 0x07,
		ICAO: fmt.Sprintf("%02X%02X%02X", frame[1], frame[2], frame[3]),
	}
	copy(f.ME[:], frame[4:11])
	f.TypeCode = (f.ME[0] >> 3) & 0x1F
	f.Parity = uint32(frame[11])<<16 | uint32(frame[12])<<8 | uint32(frame[13])

	return f, nil
}

// DownlinkFormat reads the DF of a candidate frame without a full field
// extraction. Returns 0 for empty input.
func DownlinkFormat(frame []byte) uint8 {
	if len(frame) == 0 {
		return 0
	}
	return (frame[0] >> 3) & 0x1F
}
