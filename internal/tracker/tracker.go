// Package tracker keeps a last-value-wins table of aircraft state keyed
// by ICAO address, with TTL expiry for aircraft that go quiet.
package tracker

import (
	"time"

	"github.com/patrickmn/go-cache"

	"goadsb/internal/adsb"
)

const (
	// DefaultTTL is how long an aircraft survives without a message.
	DefaultTTL = 60 * time.Second

	cleanupInterval = 10 * time.Second
)

// Aircraft is the merged last-known state of one transponder.
type Aircraft struct {
	ICAO            string    `json:"icao"`
	Callsign        string    `json:"callsign,omitempty"`
	AltitudeBaroFt  *int      `json:"altitude_baro_ft,omitempty"`
	AltitudeGeoFt   *int      `json:"altitude_geo_ft,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	SpeedKnots      *int      `json:"speed_knots,omitempty"`
	HeadingDeg      *float64  `json:"heading_deg,omitempty"`
	VerticalRateFPM *int      `json:"vertical_rate_fpm,omitempty"`
	Messages        int64     `json:"messages"`
	LastSeen        time.Time `json:"last_seen"`
}

// Tracker merges decoded records into per-aircraft state. Field updates
// are last-value-wins: a record only overwrites the fields it carries.
type Tracker struct {
	aircraft *cache.Cache
}

// New creates an aircraft tracker with the given TTL.
func New(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		aircraft: cache.New(ttl, cleanupInterval),
	}
}

// Update merges one decoded record into the table and returns the
// resulting aircraft state.
func (t *Tracker) Update(record *adsb.Record) *Aircraft {
	if record == nil || record.ICAO == "" {
		return nil
	}

	var ac *Aircraft
	if cached, found := t.aircraft.Get(record.ICAO); found {
		ac = cached.(*Aircraft)
	} else {
		ac = &Aircraft{ICAO: record.ICAO}
	}

	if record.Callsign != "" {
		ac.Callsign = record.Callsign
	}
	if record.AltitudeBaroFt != nil {
		ac.AltitudeBaroFt = record.AltitudeBaroFt
	}
	if record.AltitudeGeoFt != nil {
		ac.AltitudeGeoFt = record.AltitudeGeoFt
	}
	if record.Latitude != nil {
		ac.Latitude = record.Latitude
	}
	if record.Longitude != nil {
		ac.Longitude = record.Longitude
	}
	if record.SpeedKnots != nil {
		ac.SpeedKnots = record.SpeedKnots
	}
	if record.HeadingDeg != nil {
		ac.HeadingDeg = record.HeadingDeg
	}
	if record.VerticalRateFPM != nil {
		ac.VerticalRateFPM = record.VerticalRateFPM
	}
	ac.Messages++
	ac.LastSeen = record.Timestamp

	t.aircraft.SetDefault(record.ICAO, ac)
	return ac
}

// Get returns the state for one ICAO address, or nil.
func (t *Tracker) Get(icao string) *Aircraft {
	if cached, found := t.aircraft.Get(icao); found {
		return cached.(*Aircraft)
	}
	return nil
}

// Snapshot returns all currently tracked aircraft.
func (t *Tracker) Snapshot() []*Aircraft {
	items := t.aircraft.Items()
	aircraft := make([]*Aircraft, 0, len(items))
	for _, item := range items {
		aircraft = append(aircraft, item.Object.(*Aircraft))
	}
	return aircraft
}

// Count returns the number of tracked aircraft.
func (t *Tracker) Count() int {
	return t.aircraft.ItemCount()
}
