package adsb

import "time"

// Record is the decoded output of one Extended Squitter message. Which
// optional fields are populated is determined entirely by the type code.
// Records are immutable once returned; merging per-aircraft state is the
// caller's concern.
type Record struct {
	ICAO      string    `json:"icao"`
	TypeCode  uint8     `json:"type_code"`
	Timestamp time.Time `json:"timestamp"`

	// Identification (TC 1-4)
	Callsign string `json:"callsign,omitempty"`
	Category *uint8 `json:"category,omitempty"`

	// Position and altitude (TC 9-18, TC 31)
	AltitudeBaroFt *int     `json:"altitude_baro_ft,omitempty"`
	AltitudeGeoFt  *int     `json:"altitude_geo_ft,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`

	// Velocity (TC 19)
	SpeedKnots      *int     `json:"speed_knots,omitempty"`
	HeadingDeg      *float64 `json:"heading_deg,omitempty"`
	VerticalRateFPM *int     `json:"vertical_rate_fpm,omitempty"`
}

// HasData reports whether the record carries anything beyond the base
// ICAO/type-code fields.
func (r *Record) HasData() bool {
	return r.Callsign != "" || r.Category != nil ||
		r.AltitudeBaroFt != nil || r.AltitudeGeoFt != nil ||
		r.Latitude != nil || r.Longitude != nil ||
		r.SpeedKnots != nil || r.HeadingDeg != nil || r.VerticalRateFPM != nil
}
