// Package gdl90 extracts ADS-B Long Report payloads from GDL-90/KISS
// framed data: 0x7E flag delimited frames with HDLC-style byte stuffing.
package gdl90

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Framing constants
const (
	FlagByte   = 0x7E // frame boundary marker
	EscapeByte = 0x7D // KISS escape byte
	EscapeFlag = 0x5E // escaped 0x7E
	EscapeEsc  = 0x5D // escaped 0x7D

	MsgADSBLong = 0x26 // ADS-B Long Report message ID

	minPayloadLength = 14 // 112-bit Mode S message
	maxPayloadLength = 18 // anything longer is not an ADS-B Long Report
)

// Deframer finds GDL-90 frames, removes byte stuffing and extracts the
// embedded Mode S payloads. Purely functional apart from its atomic
// counters; malformed frames are skipped, never fatal.
type Deframer struct {
	logger *logrus.Logger

	framesProcessed       atomic.Uint64
	framesExtracted       atomic.Uint64
	adsbMessagesFound     atomic.Uint64
	deframingErrors       atomic.Uint64
	byteUnstuffOperations atomic.Uint64
}

// NewDeframer creates a GDL-90 deframer.
func NewDeframer(logger *logrus.Logger) *Deframer {
	return &Deframer{logger: logger}
}

// IsFrame reports whether data plausibly is a GDL-90 frame: flag bytes at
// both ends and enough length to hold a report.
func (d *Deframer) IsFrame(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return data[0] == FlagByte && data[len(data)-1] == FlagByte && len(data) > 10
}

// Deframe extracts every valid ADS-B Long Report payload from data.
func (d *Deframer) Deframe(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}

	var payloads [][]byte

	for _, bounds := range d.findFrameBoundaries(data) {
		d.framesProcessed.Add(1)

		content := data[bounds[0]+1 : bounds[1]]

		unstuffed, ok := d.Unstuff(content)
		if !ok {
			continue
		}

		payload, ok := d.extractPayload(unstuffed)
		if !ok {
			d.deframingErrors.Add(1)
			continue
		}

		d.adsbMessagesFound.Add(1)
		payloads = append(payloads, payload)

		d.logger.WithFields(logrus.Fields{
			"payload_len": len(payload),
			"df":          (payload[0] >> 3) & 0x1F,
		}).Debug("Extracted ADS-B payload from GDL-90 frame")
	}

	d.framesExtracted.Add(uint64(len(payloads)))
	return payloads
}

// findFrameBoundaries pairs consecutive 0x7E positions into frames. A
// flag byte both closes the current frame and opens the next one.
func (d *Deframer) findFrameBoundaries(data []byte) [][2]int {
	var boundaries [][2]int
	start := -1

	for i, b := range data {
		if b != FlagByte {
			continue
		}
		if start == -1 {
			start = i
			continue
		}
		if i > start+1 {
			boundaries = append(boundaries, [2]int{start, i})
		}
		start = i
	}

	return boundaries
}

// Unstuff removes KISS/HDLC byte stuffing in one left-to-right pass:
// 0x7D 0x5E becomes 0x7E and 0x7D 0x5D becomes 0x7D. A 0x7D followed by
// anything else is a protocol violation passed through as-is. Returns
// false only for empty input.
func (d *Deframer) Unstuff(frame []byte) ([]byte, bool) {
	if len(frame) == 0 {
		return nil, false
	}

	unstuffed := make([]byte, 0, len(frame))
	for i := 0; i < len(frame); i++ {
		if frame[i] == EscapeByte && i+1 < len(frame) {
			switch frame[i+1] {
			case EscapeFlag:
				unstuffed = append(unstuffed, FlagByte)
				d.byteUnstuffOperations.Add(1)
				i++
				continue
			case EscapeEsc:
				unstuffed = append(unstuffed, EscapeByte)
				d.byteUnstuffOperations.Add(1)
				i++
				continue
			}
		}
		unstuffed = append(unstuffed, frame[i])
	}

	return unstuffed, true
}

// extractPayload validates the message ID and length of an unstuffed
// frame and returns the Mode S payload after the 2-byte header.
func (d *Deframer) extractPayload(unstuffed []byte) ([]byte, bool) {
	if len(unstuffed) < 2 {
		return nil, false
	}

	if unstuffed[0] != MsgADSBLong {
		d.logger.WithField("msg_id", unstuffed[0]).Debug("Skipping non-ADS-B GDL-90 message")
		return nil, false
	}

	if len(unstuffed) < 2+minPayloadLength {
		d.logger.WithField("frame_len", len(unstuffed)).Warn("GDL-90 ADS-B frame too short")
		return nil, false
	}

	payload := unstuffed[2:]
	if len(payload) > maxPayloadLength {
		d.logger.WithField("payload_len", len(payload)).Warn("GDL-90 ADS-B payload too long")
		return nil, false
	}

	df := (payload[0] >> 3) & 0x1F
	if df != 17 && df != 18 && df != 19 {
		d.logger.WithField("df", df).Debug("GDL-90 payload has non-extended-squitter DF")
		return nil, false
	}

	return payload, true
}

// Stats returns a snapshot of the deframer counters.
func (d *Deframer) Stats() map[string]float64 {
	processed := d.framesProcessed.Load()
	found := d.adsbMessagesFound.Load()

	divisor := processed
	if divisor == 0 {
		divisor = 1
	}
	return map[string]float64{
		"frames_processed":        float64(processed),
		"frames_extracted":        float64(d.framesExtracted.Load()),
		"adsb_messages_found":     float64(found),
		"deframing_errors":        float64(d.deframingErrors.Load()),
		"byte_unstuff_operations": float64(d.byteUnstuffOperations.Load()),
		"success_rate":            float64(found) / float64(divisor) * 100,
	}
}

// ResetStats clears all deframer counters.
func (d *Deframer) ResetStats() {
	d.framesProcessed.Store(0)
	d.framesExtracted.Store(0)
	d.adsbMessagesFound.Store(0)
	d.deframingErrors.Store(0)
	d.byteUnstuffOperations.Store(0)
}
