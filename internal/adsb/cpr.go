package adsb

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// cprFrame is one stored CPR-encoded position report.
type cprFrame struct {
	latCPR uint32
	lonCPR uint32
	fFlag  uint8
	seen   time.Time
}

// cprState pairs the most recent odd and even frames for one aircraft.
type cprState struct {
	even *cprFrame
	odd  *cprFrame
}

// CPRDecoder resolves Compact Position Reporting coordinates using the
// global odd/even algorithm. It keeps per-aircraft frame state; a
// position is produced only once both parities have been seen.
type CPRDecoder struct {
	mu     sync.Mutex
	states map[string]*cprState
	logger *logrus.Logger
}

// NewCPRDecoder creates a CPR decoder with empty aircraft state.
func NewCPRDecoder(logger *logrus.Logger) *CPRDecoder {
	return &CPRDecoder{
		states: make(map[string]*cprState),
		logger: logger,
	}
}

// Decode stores the given CPR frame for the aircraft and, when both
// parities are available, returns the resolved position. ok is false
// until a pair exists or when the pair straddles a latitude zone.
func (c *CPRDecoder) Decode(icao string, fFlag uint8, latCPR, lonCPR uint32) (lat, lon float64, ok bool) {
	frame := &cprFrame{
		latCPR: latCPR,
		lonCPR: lonCPR,
		fFlag:  fFlag,
		seen:   time.Now(),
	}

	c.mu.Lock()
	state, exists := c.states[icao]
	if !exists {
		state = &cprState{}
		c.states[icao] = state
	}
	if fFlag == 0 {
		state.even = frame
	} else {
		state.odd = frame
	}
	even, odd := state.even, state.odd
	c.mu.Unlock()

	if even == nil || odd == nil {
		return 0, 0, false
	}

	lat, lon, ok = c.resolveGlobal(even, odd)
	if ok {
		c.logger.WithFields(logrus.Fields{
			"icao": icao,
			"lat":  lat,
			"lon":  lon,
		}).Debug("CPR position resolved")
	}
	return lat, lon, ok
}

// resolveGlobal runs the global unambiguous decode over an odd/even pair.
func (c *CPRDecoder) resolveGlobal(even, odd *cprFrame) (float64, float64, bool) {
	const dLatEven = 360.0 / 60.0
	const dLatOdd = 360.0 / 59.0

	lat0 := float64(even.latCPR)
	lat1 := float64(odd.latCPR)
	lon0 := float64(even.lonCPR)
	lon1 := float64(odd.lonCPR)

	// Latitude zone index.
	j := int(math.Floor((59*lat0-60*lat1)/cprMax + 0.5))

	rlat0 := dLatEven * (float64(modPos(j, 60)) + lat0/cprMax)
	rlat1 := dLatOdd * (float64(modPos(j, 59)) + lat1/cprMax)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}

	// Both frames must fall in the same longitude zone count.
	if nlLookup(rlat0) != nlLookup(rlat1) {
		return 0, 0, false
	}

	var rlat, rlon float64
	if odd.seen.After(even.seen) {
		nl := nlLookup(rlat1)
		ni := longitudeZones(rlat1, 1)
		m := int(math.Floor((lon0*float64(nl-1)-lon1*float64(nl))/cprMax + 0.5))
		rlon = (360.0 / float64(ni)) * (float64(modPos(m, ni)) + lon1/cprMax)
		rlat = rlat1
	} else {
		nl := nlLookup(rlat0)
		ni := longitudeZones(rlat0, 0)
		m := int(math.Floor((lon0*float64(nl-1)-lon1*float64(nl))/cprMax + 0.5))
		rlon = (360.0 / float64(ni)) * (float64(modPos(m, ni)) + lon0/cprMax)
		rlat = rlat0
	}

	// Renormalize longitude to -180 .. +180.
	rlon -= math.Floor((rlon+180)/360) * 360

	return rlat, rlon, true
}

// modPos is the always-positive modulus.
func modPos(a, b int) int {
	res := a % b
	if res < 0 {
		res += b
	}
	return res
}

// longitudeZones returns NL(lat) adjusted for frame parity, floored at 1.
func longitudeZones(lat float64, fFlag int) int {
	n := nlLookup(lat) - fFlag
	if n < 1 {
		n = 1
	}
	return n
}

// nlTransitions holds the latitude thresholds at which the number of
// longitude zones decreases, from NL=59 down to NL=2.
var nlTransitions = [...]float64{
	10.47047130, 14.82817437, 18.18626357, 21.02939493, 23.54504487,
	25.82924707, 27.93898710, 29.91135686, 31.77209708, 33.53993436,
	35.22899598, 36.85025108, 38.41241892, 39.92256684, 41.38651832,
	42.80914012, 44.19454951, 45.54626723, 46.86733252, 48.16039128,
	49.42776439, 50.67150166, 51.89342469, 53.09516153, 54.27817472,
	55.44378444, 56.59318756, 57.72747354, 58.84763776, 59.95459277,
	61.04917774, 62.13216659, 63.20427479, 64.26616523, 65.31845310,
	66.36171008, 67.39646774, 68.42322022, 69.44242631, 70.45451075,
	71.45986473, 72.45884545, 73.45177442, 74.43893416, 75.42056257,
	76.39684391, 77.36789461, 78.33374083, 79.29428225, 80.24923213,
	81.19801349, 82.13956981, 83.07199445, 83.99173563, 84.89166191,
	85.75541621, 86.53536998, 87.00000000,
}

// nlLookup returns the number of longitude zones for a latitude.
func nlLookup(lat float64) int {
	absLat := math.Abs(lat)
	for i, threshold := range nlTransitions {
		if absLat < threshold {
			return 59 - i
		}
	}
	return 1
}
