// Package passcom parses NovAtel PASSCOM/PASSTHROUGH wrapped ADS-B data:
// length-prefixed records behind a 0x7E 0x26 marker, optionally carrying
// human-readable diagnostic text and ASCII-hex encoded payloads.
package passcom

import (
	"bytes"
	"encoding/hex"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// frameStartMarker is the PASSCOM start-of-record sequence ("~&").
var frameStartMarker = []byte{0x7E, 0x26}

// wrapperPattern matches the diagnostic text some PASSCOM dumps prepend
// to the frame body. The anchored form strips a leading wrapper; the
// unanchored form detects wrapper text anywhere during sniffing.
var (
	wrapperPattern       = regexp.MustCompile(`^Received packet from [^:]+:\d+: `)
	wrapperSearchPattern = regexp.MustCompile(`Received packet from [^:]+:\d+: `)
)

// retainTail is how much unmatched buffer survives a failed marker scan,
// in case the marker spans a future append boundary.
const retainTail = 100

// Parser reassembles PASSCOM records from a byte stream and extracts
// Mode S candidate frames from them.
//
// The internal buffer makes Parse stateful across calls: partial records
// are retained until the remainder arrives. The buffer is mutex-guarded
// and the counters are atomic, so Stats and BufferedBytes are safe from
// other goroutines, but Parse calls must still arrive in stream order;
// reassembly depends on append order.
type Parser struct {
	logger *logrus.Logger

	mu     sync.Mutex
	buffer []byte

	framesProcessed      atomic.Uint64
	framesParsed         atomic.Uint64
	wrapperStripCount    atomic.Uint64
	asciiHexConversions  atomic.Uint64
	modeSFramesExtracted atomic.Uint64
	parseErrors          atomic.Uint64
}

// NewParser creates a PASSCOM parser with an empty reassembly buffer.
func NewParser(logger *logrus.Logger) *Parser {
	return &Parser{
		logger: logger,
		buffer: make([]byte, 0, 4096),
	}
}

// IsFrame reports whether data looks PASSCOM wrapped: it contains the
// start-of-record marker or the diagnostic wrapper text.
func (p *Parser) IsFrame(data []byte) bool {
	if bytes.Contains(data, frameStartMarker) {
		return true
	}
	return wrapperSearchPattern.Match(data)
}

// Parse appends raw to the reassembly buffer and extracts every Mode S
// candidate frame that is now complete. Incomplete records stay buffered
// for the next call.
func (p *Parser) Parse(raw []byte) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.framesProcessed.Add(1)
	p.buffer = append(p.buffer, raw...)

	var frames [][]byte
	for {
		body, ok := p.nextRecord()
		if !ok {
			break
		}
		frames = append(frames, p.processRecord(body)...)
	}

	if len(frames) > 0 {
		p.framesParsed.Add(1)
	}
	return frames
}

// nextRecord pops one complete length-prefixed record body off the
// buffer. Returns false when no complete record is buffered.
func (p *Parser) nextRecord() ([]byte, bool) {
	markerPos := bytes.Index(p.buffer, frameStartMarker)
	if markerPos == -1 {
		// Keep a tail in case the marker spans the append boundary.
		if len(p.buffer) > retainTail {
			p.buffer = append(p.buffer[:0], p.buffer[len(p.buffer)-retainTail:]...)
		}
		return nil, false
	}

	if markerPos > 0 {
		p.buffer = append(p.buffer[:0], p.buffer[markerPos:]...)
	}

	// Marker (2) plus big-endian length (2).
	if len(p.buffer) < 4 {
		return nil, false
	}

	dataLength := int(p.buffer[2])<<8 | int(p.buffer[3])
	total := 4 + dataLength
	if len(p.buffer) < total {
		p.logger.WithFields(logrus.Fields{
			"need": total,
			"have": len(p.buffer),
		}).Debug("PASSCOM record incomplete, awaiting more data")
		return nil, false
	}

	body := make([]byte, dataLength)
	copy(body, p.buffer[4:total])
	p.buffer = append(p.buffer[:0], p.buffer[total:]...)

	return body, true
}

// processRecord strips the wrapper text, undoes ASCII-hex encoding and
// segments the binary into Mode S candidate frames.
func (p *Parser) processRecord(body []byte) [][]byte {
	cleaned := p.stripWrapper(body)
	if len(cleaned) == 0 {
		return nil
	}

	binary := p.convertASCIIHex(cleaned)
	if len(binary) == 0 {
		return nil
	}

	return p.segmentModeS(binary)
}

// stripWrapper removes the "Received packet from host:port: " prefix
// when present.
func (p *Parser) stripWrapper(body []byte) []byte {
	loc := wrapperPattern.FindIndex(body)
	if loc == nil {
		return body
	}

	p.wrapperStripCount.Add(1)
	p.logger.WithField("remaining", len(body)-loc[1]).Debug("Stripped PASSCOM wrapper text")
	return body[loc[1]:]
}

// convertASCIIHex hex-decodes the body when its first byte looks like an
// ASCII hex digit. Decode failures fall back to the raw bytes.
func (p *Parser) convertASCIIHex(body []byte) []byte {
	if !isHexDigit(body[0]) {
		return body
	}

	cleaned := make([]byte, 0, len(body))
	for _, b := range body {
		switch b {
		case ' ', '\n', '\r', '\t':
		default:
			cleaned = append(cleaned, b)
		}
	}

	// Hex decoding needs an even number of digits.
	if len(cleaned)%2 != 0 {
		cleaned = cleaned[:len(cleaned)-1]
	}

	decoded := make([]byte, len(cleaned)/2)
	if _, err := hex.Decode(decoded, cleaned); err != nil {
		p.parseErrors.Add(1)
		p.logger.WithError(err).Debug("ASCII-hex decode failed, treating as binary")
		return body
	}

	p.asciiHexConversions.Add(1)
	p.logger.WithFields(logrus.Fields{
		"chars": len(cleaned),
		"bytes": len(decoded),
	}).Debug("Converted ASCII-hex PASSCOM payload")
	return decoded
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

// segmentModeS slices binary data into 14/28-byte Mode S candidates
// using the leading Downlink Format of each segment.
func (p *Parser) segmentModeS(binary []byte) [][]byte {
	var frames [][]byte
	offset := 0

	for offset < len(binary) {
		if offset+1 >= len(binary) {
			break
		}

		df := (binary[offset] >> 3) & 0x1F

		var frameLength int
		switch df {
		case 0, 4, 5, 11, 16, 20, 21:
			frameLength = 14
		case 17, 18, 19, 24:
			frameLength = 28
		default:
			frameLength = 14
		}

		if offset+frameLength > len(binary) {
			// A truncated long record may still hold one short frame.
			if frameLength == 28 && offset+14 <= len(binary) {
				frameLength = 14
			} else {
				break
			}
		}

		frame := binary[offset : offset+frameLength]
		if frameDF := (frame[0] >> 3) & 0x1F; frameDF <= 31 {
			frames = append(frames, frame)
			p.modeSFramesExtracted.Add(1)

			p.logger.WithFields(logrus.Fields{
				"df":  frameDF,
				"len": frameLength,
			}).Debug("Extracted Mode S candidate frame")
		}

		offset += frameLength
	}

	return frames
}

// BufferedBytes reports the current reassembly buffer size.
func (p *Parser) BufferedBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// ClearBuffer drops any partially buffered record.
func (p *Parser) ClearBuffer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = p.buffer[:0]
}

// Stats returns a snapshot of the parser counters.
func (p *Parser) Stats() map[string]float64 {
	p.mu.Lock()
	buffered := len(p.buffer)
	p.mu.Unlock()

	processed := p.framesProcessed.Load()
	parsed := p.framesParsed.Load()

	divisor := processed
	if divisor == 0 {
		divisor = 1
	}
	return map[string]float64{
		"frames_processed":        float64(processed),
		"frames_parsed":           float64(parsed),
		"wrapper_strip_count":     float64(p.wrapperStripCount.Load()),
		"ascii_hex_conversions":   float64(p.asciiHexConversions.Load()),
		"mode_s_frames_extracted": float64(p.modeSFramesExtracted.Load()),
		"parse_errors":            float64(p.parseErrors.Load()),
		"buffer_size":             float64(buffered),
		"success_rate":            float64(parsed) / float64(divisor) * 100,
	}
}

// ResetStats clears all parser counters. The reassembly buffer is kept.
func (p *Parser) ResetStats() {
	p.framesProcessed.Store(0)
	p.framesParsed.Store(0)
	p.wrapperStripCount.Store(0)
	p.asciiHexConversions.Store(0)
	p.modeSFramesExtracted.Store(0)
	p.parseErrors.Store(0)
}
