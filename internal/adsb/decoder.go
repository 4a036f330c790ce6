package adsb

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"goadsb/internal/gdl90"
	"goadsb/internal/passcom"
)

// Config is the decoder tuning surface.
type Config struct {
	Altitude                AltitudeConfig
	AcceptedDownlinkFormats []uint8
	EnableGeometricAltitude bool
	EnablePasscomParser     bool
}

// DefaultConfig returns the documented decoder defaults.
func DefaultConfig() Config {
	return Config{
		Altitude:                DefaultAltitudeConfig(),
		AcceptedDownlinkFormats: []uint8{DFExtendedSquitter, DFExtendedSquitterNon, DFMilitary},
		EnableGeometricAltitude: true,
		EnablePasscomParser:     true,
	}
}

// route is one transport detection entry: candidates go to the first
// route whose predicate matches. The order is load-bearing; PASSCOM is
// checked before GDL-90 because a PASSCOM record can also satisfy the
// GDL-90 start/end-flag heuristic.
type route struct {
	name    string
	match   func([]byte) bool
	deframe func([]byte) [][]byte
}

// Decoder is the decode pipeline orchestrator: it sniffs the transport
// encapsulation, recovers Mode S candidate frames, and dispatches them
// to the field, altitude, position, identity and velocity sub-decoders.
//
// One instance per input stream; Decode calls must be serialized by the
// caller (PASSCOM reassembly depends on append order). Statistics
// counters are atomic, so Stats may be read from another goroutine.
type Decoder struct {
	logger   *logrus.Logger
	config   Config
	accepted map[uint8]bool

	passcom  *passcom.Parser
	gdl90    *gdl90.Deframer
	altitude *AltitudeDecoder
	cpr      *CPRDecoder
	routes   []route

	messagesParsed   atomic.Uint64
	parseErrors      atomic.Uint64
	passcomProcessed atomic.Uint64
	gdl90Processed   atomic.Uint64
	rawProcessed     atomic.Uint64
}

// NewDecoder creates a decoder with the given configuration.
func NewDecoder(config Config, logger *logrus.Logger) *Decoder {
	d := &Decoder{
		logger:   logger,
		config:   config,
		accepted: make(map[uint8]bool, len(config.AcceptedDownlinkFormats)),
		gdl90:    gdl90.NewDeframer(logger),
		altitude: NewAltitudeDecoder(config.Altitude, logger),
		cpr:      NewCPRDecoder(logger),
	}
	for _, df := range config.AcceptedDownlinkFormats {
		d.accepted[df] = true
	}

	if config.EnablePasscomParser {
		d.passcom = passcom.NewParser(logger)
		d.routes = append(d.routes, route{
			name:  "passcom",
			match: d.passcom.IsFrame,
			deframe: func(raw []byte) [][]byte {
				d.passcomProcessed.Add(1)
				return d.passcom.Parse(raw)
			},
		})
	}

	d.routes = append(d.routes,
		route{
			name:  "gdl90",
			match: d.gdl90.IsFrame,
			deframe: func(raw []byte) [][]byte {
				d.gdl90Processed.Add(1)
				return d.gdl90.Deframe(raw)
			},
		},
		route{
			name:  "raw",
			match: func([]byte) bool { return true },
			deframe: func(raw []byte) [][]byte {
				d.rawProcessed.Add(1)
				return [][]byte{raw}
			},
		},
	)

	return d
}

// Decode runs one transport payload through the pipeline and returns the
// first successfully decoded record among the candidate frames, or nil.
// Malformed input never panics; failed candidates are skipped.
func (d *Decoder) Decode(raw []byte) *Record {
	if len(raw) == 0 {
		return nil
	}

	var candidates [][]byte
	for _, r := range d.routes {
		if !r.match(raw) {
			continue
		}
		d.logger.WithFields(logrus.Fields{
			"transport": r.name,
			"bytes":     len(raw),
		}).Debug("Transport selected")
		candidates = r.deframe(raw)
		break
	}

	for _, candidate := range candidates {
		if record := d.decodeCandidate(candidate); record != nil {
			return record
		}
	}
	return nil
}

// decodeCandidate decodes one Mode S candidate frame into a record.
func (d *Decoder) decodeCandidate(frame []byte) *Record {
	fields, err := ExtractFields(frame)
	if err != nil {
		d.parseErrors.Add(1)
		d.logger.WithError(err).Debug("Field extraction failed")
		return nil
	}

	if !d.accepted[fields.DF] {
		d.logger.WithField("df", fields.DF).Debug("Skipping unaccepted downlink format")
		return nil
	}

	d.messagesParsed.Add(1)

	record := &Record{
		ICAO:      fields.ICAO,
		TypeCode:  fields.TypeCode,
		Timestamp: time.Now().UTC(),
	}

	switch {
	case fields.TypeCode >= 1 && fields.TypeCode <= 4:
		if id := DecodeIdentity(fields.ME[:]); id != nil {
			record.Callsign = id.Callsign
			category := id.Category
			record.Category = &category
		}

	case fields.TypeCode >= 9 && fields.TypeCode <= 18:
		if alt := d.altitude.DecodeAltitude(frame, fields.TypeCode); alt != nil {
			record.AltitudeBaroFt = alt.BaroFt
		}
		if fFlag, latCPR, lonCPR, ok := extractCPRFields(frame); ok {
			if lat, lon, ok := d.cpr.Decode(fields.ICAO, fFlag, latCPR, lonCPR); ok {
				record.Latitude = &lat
				record.Longitude = &lon
			}
		}

	case fields.TypeCode == 19:
		if v := DecodeVelocity(fields.ME[:]); v != nil {
			speed := v.SpeedKnots
			track := v.TrackDeg
			rate := v.VerticalRateFPM
			record.SpeedKnots = &speed
			record.HeadingDeg = &track
			record.VerticalRateFPM = &rate
		}

	case fields.TypeCode == 31:
		if d.config.EnableGeometricAltitude {
			if alt := d.altitude.DecodeAltitude(frame, fields.TypeCode); alt != nil {
				record.AltitudeGeoFt = alt.GeoFt
			}
		}
	}

	if !record.HasData() {
		d.logger.WithFields(logrus.Fields{
			"icao":      record.ICAO,
			"type_code": record.TypeCode,
		}).Debug("No aviation data extracted")
		return nil
	}

	return record
}

// AltitudeStats exposes the altitude sub-decoder counters.
func (d *Decoder) AltitudeStats() map[string]float64 { return d.altitude.Stats() }

// GDL90Stats exposes the GDL-90 deframer counters.
func (d *Decoder) GDL90Stats() map[string]float64 { return d.gdl90.Stats() }

// PasscomStats exposes the PASSCOM parser counters, nil when disabled.
func (d *Decoder) PasscomStats() map[string]float64 {
	if d.passcom == nil {
		return nil
	}
	return d.passcom.Stats()
}

// Stats returns a snapshot of the orchestrator counters.
func (d *Decoder) Stats() map[string]float64 {
	parsed := d.messagesParsed.Load()
	errors := d.parseErrors.Load()

	attempts := parsed + errors
	if attempts == 0 {
		attempts = 1
	}
	return map[string]float64{
		"messages_parsed":            float64(parsed),
		"parse_errors":               float64(errors),
		"passcom_messages_processed": float64(d.passcomProcessed.Load()),
		"gdl90_messages_processed":   float64(d.gdl90Processed.Load()),
		"raw_messages_processed":     float64(d.rawProcessed.Load()),
		"success_rate":               float64(parsed) / float64(attempts) * 100,
	}
}

// ResetStats clears the orchestrator and all sub-decoder counters.
func (d *Decoder) ResetStats() {
	d.messagesParsed.Store(0)
	d.parseErrors.Store(0)
	d.passcomProcessed.Store(0)
	d.gdl90Processed.Store(0)
	d.rawProcessed.Store(0)
	d.altitude.ResetStats()
	d.gdl90.ResetStats()
	if d.passcom != nil {
		d.passcom.ResetStats()
	}
}
