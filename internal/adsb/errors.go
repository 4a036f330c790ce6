package adsb

import "errors"

// Decode error taxonomy. Sub-decoders return these; the orchestrator
// treats every one of them as "this candidate failed, try the next".
var (
	// ErrFrameTooShort is returned when a candidate frame is shorter
	// than the 14 bytes a Mode S Extended Squitter requires.
	ErrFrameTooShort = errors.New("mode s frame too short")

	// ErrInvalidMarker is returned when a framing marker check fails.
	ErrInvalidMarker = errors.New("invalid frame marker")

	// ErrIncompleteFrame signals that more bytes are needed before a
	// frame can be extracted. It is flow control, not a failure.
	ErrIncompleteFrame = errors.New("incomplete frame, awaiting more data")

	// ErrInvalidEncoding is returned when an ASCII-hex payload fails to
	// decode. Callers recover by treating the payload as raw binary.
	ErrInvalidEncoding = errors.New("invalid ascii-hex encoding")

	// ErrValidationFailed is returned when a decoded altitude falls
	// outside the configured sanity range.
	ErrValidationFailed = errors.New("altitude validation failed")

	// ErrUnsupportedDownlinkFormat is returned for frames whose DF is
	// not in the accepted set.
	ErrUnsupportedDownlinkFormat = errors.New("unsupported downlink format")

	// ErrConversionFailed is returned if a Gray-code conversion
	// violates an internal invariant.
	ErrConversionFailed = errors.New("gray code conversion failed")
)
