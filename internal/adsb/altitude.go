package adsb

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// AltitudeConfig bounds the altitude sanity checks.
type AltitudeConfig struct {
	MinValidAltitudeFt int
	MaxValidAltitudeFt int
	EnableSanityChecks bool
}

// DefaultAltitudeConfig returns the standard validation bounds.
func DefaultAltitudeConfig() AltitudeConfig {
	return AltitudeConfig{
		MinValidAltitudeFt: DefaultMinValidAltitudeFt,
		MaxValidAltitudeFt: DefaultMaxValidAltitudeFt,
		EnableSanityChecks: true,
	}
}

// AltitudeData carries at most one altitude decode per message: barometric
// for TC 9-18, geometric for TC 31.
type AltitudeData struct {
	BaroFt    *int
	GeoFt     *int
	DecodedAt time.Time
}

// AltitudeDecoder decodes barometric and geometric altitude fields from
// Mode S Extended Squitter frames, with Q-bit handling, Gillham (Gray)
// conversion and configurable sanity checks.
//
// Statistics counters are atomic; Stats may be read while another
// goroutine is decoding.
type AltitudeDecoder struct {
	logger *logrus.Logger
	config AltitudeConfig

	altitudesDecoded    atomic.Uint64
	barometricAltitudes atomic.Uint64
	geometricAltitudes  atomic.Uint64
	qBitZeroCount       atomic.Uint64
	qBitOneCount        atomic.Uint64
	gillhamConversions  atomic.Uint64
	sanityCheckFailures atomic.Uint64
	decodeErrors        atomic.Uint64
}

// NewAltitudeDecoder creates an altitude decoder with the given bounds.
func NewAltitudeDecoder(config AltitudeConfig, logger *logrus.Logger) *AltitudeDecoder {
	return &AltitudeDecoder{
		logger: logger,
		config: config,
	}
}

// DecodeAltitude decodes the altitude carried by a frame according to its
// type code. Returns nil when the type code carries no altitude, when the
// field fails to decode, or when sanity checks reject the value.
func (d *AltitudeDecoder) DecodeAltitude(frame []byte, typeCode uint8) *AltitudeData {
	data := &AltitudeData{}

	switch {
	case typeCode >= 9 && typeCode <= 18:
		alt, err := d.DecodeBarometric(frame)
		if err != nil {
			d.decodeErrors.Add(1)
			d.logger.WithError(err).Debug("Barometric altitude decode failed")
			return nil
		}
		data.BaroFt = &alt
		d.barometricAltitudes.Add(1)

	case typeCode == 31:
		alt, err := d.DecodeGeometric(frame)
		if err != nil {
			d.decodeErrors.Add(1)
			d.logger.WithError(err).Debug("Geometric altitude decode failed")
			return nil
		}
		data.GeoFt = &alt
		d.geometricAltitudes.Add(1)

	default:
		return nil
	}

	if d.config.EnableSanityChecks && !d.Validate(data) {
		return nil
	}

	d.altitudesDecoded.Add(1)
	data.DecodedAt = time.Now().UTC()
	return data
}

// DecodeBarometric decodes the 13-bit barometric altitude field from an
// airborne position message (TC 9-18).
//
// The field lives in bits 20-32 of the frame, within bytes 2-4. The Q-bit
// (bit 4 of the field) selects 25 ft LSB encoding; Q=0 frames fall back
// to Gillham (Gray) conversion.
func (d *AltitudeDecoder) DecodeBarometric(frame []byte) (int, error) {
	if len(frame) < FrameLength {
		return 0, ErrFrameTooShort
	}

	window := uint32(frame[2])<<16 | uint32(frame[3])<<8 | uint32(frame[4])
	altitudeField := uint16(window>>4) & 0x1FFF
	qBit := (altitudeField >> 4) & 0x01

	var altitudeFt int
	if qBit == 1 {
		d.qBitOneCount.Add(1)

		// Remove the Q-bit and reassemble the 11-bit altitude code.
		altitudeCode := ((altitudeField & 0x1FE0) >> 1) | (altitudeField & 0x000F)
		altitudeFt = int(altitudeCode)*25 - 1000

		d.logger.WithFields(logrus.Fields{
			"altitude_field": altitudeField,
			"altitude_code":  altitudeCode,
			"altitude_ft":    altitudeFt,
		}).Debug("Q-bit=1 altitude decode")
	} else {
		d.qBitZeroCount.Add(1)

		gillhamFt, err := d.decodeGillham(altitudeField)
		if err != nil {
			return 0, err
		}
		altitudeFt = gillhamFt
	}

	// Encoding ambiguity at 500 ft band boundaries: when bits 6-8 of the
	// reconstructed code equal 5 the value reads 1000 ft low.
	check := (altitudeFt + 1000) / 25
	if (check>>6)&0x07 == 5 {
		altitudeFt += 1000
		d.logger.WithField("altitude_ft", altitudeFt).Debug("Applied 1000 ft offset correction")
	}

	return altitudeFt, nil
}

// DecodeGeometric decodes the geometric altitude field from a TC 31
// operational status message at 6.25 ft resolution.
//
// NOTE: this reads the same byte window as the barometric field, which
// does NOT match the DO-260 subtype-dependent framing for TC=31. The
// placement is inherited behavior; confirm against real TC=31 traffic
// before relying on these values.
func (d *AltitudeDecoder) DecodeGeometric(frame []byte) (int, error) {
	if len(frame) < FrameLength {
		return 0, ErrFrameTooShort
	}

	window := uint32(frame[2])<<16 | uint32(frame[3])<<8 | uint32(frame[4])
	geoCode := (window >> 5) & 0x0FFF

	geoFt := float64(geoCode)*6.25 - 1000

	d.logger.WithFields(logrus.Fields{
		"geo_code": geoCode,
		"geo_ft":   geoFt,
	}).Debug("Geometric altitude decode")

	return int(geoFt), nil
}

// decodeGillham converts a Q=0 altitude field via a single Gray-to-binary
// pass over the whole 13-bit field, 100 ft per count.
//
// Known simplification: real Gillham code interleaves separately
// Gray-coded 100s and 500s groups with special-case corrections. The
// single-pass conversion is kept for compatibility with the values
// downstream consumers already see.
func (d *AltitudeDecoder) decodeGillham(altitudeField uint16) (int, error) {
	d.gillhamConversions.Add(1)

	binary := GrayToBinary(altitudeField)
	if binary > 0x1FFF {
		// The fold can never widen a 13-bit input; treat it as corrupt.
		return 0, ErrConversionFailed
	}

	altitudeFt := int(binary)*100 - 1000

	d.logger.WithFields(logrus.Fields{
		"altitude_field": altitudeField,
		"binary":         binary,
		"altitude_ft":    altitudeFt,
	}).Debug("Gillham altitude decode")

	return altitudeFt, nil
}

// Validate applies the configured range checks to every altitude present
// and the barometric/geometric cross-consistency check. Any out-of-range
// value fails the whole validation; cross-check disagreement only warns.
func (d *AltitudeDecoder) Validate(data *AltitudeData) bool {
	if !d.config.EnableSanityChecks {
		return true
	}

	if data.BaroFt != nil && !d.isAltitudeValid(*data.BaroFt) {
		d.logger.WithField("altitude_baro_ft", *data.BaroFt).Warn("Barometric altitude out of range")
		d.sanityCheckFailures.Add(1)
		return false
	}

	if data.GeoFt != nil && !d.isAltitudeValid(*data.GeoFt) {
		d.logger.WithField("altitude_geo_ft", *data.GeoFt).Warn("Geometric altitude out of range")
		d.sanityCheckFailures.Add(1)
		return false
	}

	if data.BaroFt != nil && data.GeoFt != nil {
		diff := *data.GeoFt - *data.BaroFt
		if diff < 0 {
			diff = -diff
		}
		if diff > altitudeConsistencyLimitFt {
			d.logger.WithFields(logrus.Fields{
				"altitude_baro_ft": *data.BaroFt,
				"altitude_geo_ft":  *data.GeoFt,
			}).Warn("Large barometric/geometric altitude difference")
		}
	}

	return true
}

func (d *AltitudeDecoder) isAltitudeValid(altitudeFt int) bool {
	return altitudeFt >= d.config.MinValidAltitudeFt && altitudeFt <= d.config.MaxValidAltitudeFt
}

// Stats returns a snapshot of the decoder counters.
func (d *AltitudeDecoder) Stats() map[string]float64 {
	decoded := d.altitudesDecoded.Load()
	qZero := d.qBitZeroCount.Load()
	qOne := d.qBitOneCount.Load()
	errors := d.decodeErrors.Load()

	qTotal := qZero + qOne
	if qTotal == 0 {
		qTotal = 1
	}
	attempts := decoded + errors
	if attempts == 0 {
		attempts = 1
	}

	return map[string]float64{
		"altitudes_decoded":     float64(decoded),
		"barometric_altitudes":  float64(d.barometricAltitudes.Load()),
		"geometric_altitudes":   float64(d.geometricAltitudes.Load()),
		"q_bit_zero_count":      float64(qZero),
		"q_bit_one_count":       float64(qOne),
		"q_bit_one_percent":     float64(qOne) / float64(qTotal) * 100,
		"gillham_conversions":   float64(d.gillhamConversions.Load()),
		"sanity_check_failures": float64(d.sanityCheckFailures.Load()),
		"decode_errors":         float64(errors),
		"success_rate":          float64(decoded) / float64(attempts) * 100,
	}
}

// ResetStats clears all decoder counters.
func (d *AltitudeDecoder) ResetStats() {
	d.altitudesDecoded.Store(0)
	d.barometricAltitudes.Store(0)
	d.geometricAltitudes.Store(0)
	d.qBitZeroCount.Store(0)
	d.qBitOneCount.Store(0)
	d.gillhamConversions.Store(0)
	d.sanityCheckFailures.Store(0)
	d.decodeErrors.Store(0)
}
