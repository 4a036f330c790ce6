package adsb

import (
	"math"
	"strings"
)

// getBits extracts up to 16 bits from data using 1-based bit indexing,
// MSB first (the convention ADS-B field tables are written in).
func getBits(data []byte, firstBit, lastBit int) uint16 {
	if firstBit < 1 || lastBit < firstBit || len(data) == 0 {
		return 0
	}

	fbi := firstBit - 1
	lbi := lastBit - 1
	nbi := lastBit - firstBit + 1
	if nbi > 16 {
		return 0
	}

	fby := fbi / 8
	lby := lbi / 8
	if lby >= len(data) {
		return 0
	}

	shift := 7 - (lbi % 8)
	topMask := uint8(0xFF >> (fbi % 8))

	var result uint32
	for i := fby; i <= lby; i++ {
		if i == fby {
			result = uint32(data[i] & topMask)
		} else {
			result = (result << 8) | uint32(data[i])
		}
	}

	return uint16((result >> shift) & ((1 << nbi) - 1))
}

// Identity is the decoded content of an aircraft identification message.
type Identity struct {
	Callsign string
	Category uint8
}

// DecodeIdentity decodes the callsign and emitter category from a TC 1-4
// message. Eight 6-bit characters from ME bits 9-56; undefined code
// points render as '?' and a callsign containing one is discarded.
func DecodeIdentity(me []byte) *Identity {
	if len(me) < 7 {
		return nil
	}

	var callsign [8]byte
	for i := 0; i < 8; i++ {
		first := 9 + i*6
		callsign[i] = identityCharset[getBits(me, first, first+5)&0x3F]
	}

	for _, ch := range callsign {
		if ch == '?' {
			return nil
		}
	}

	return &Identity{
		Callsign: strings.TrimSpace(string(callsign[:])),
		Category: me[0] & 0x07,
	}
}

// Velocity is the decoded content of an airborne velocity message.
type Velocity struct {
	SpeedKnots      int
	TrackDeg        float64
	VerticalRateFPM int
}

// DecodeVelocity decodes a TC 19 airborne velocity message. Subtypes 1-2
// carry ground speed vectors, subtypes 3-4 carry airspeed and heading
// (the airspeed is reported in the speed field as an approximation).
// Returns nil for unsupported subtypes.
func DecodeVelocity(me []byte) *Velocity {
	if len(me) < 7 {
		return nil
	}

	subtype := me[0] & 0x07
	if subtype < 1 || subtype > 4 {
		return nil
	}

	v := &Velocity{}

	if subtype == 1 || subtype == 2 {
		ewRaw := getBits(me, 15, 24)
		nsRaw := getBits(me, 26, 35)

		if ewRaw != 0 && nsRaw != 0 {
			// Supersonic subtype scales by 4.
			scale := 1 << (subtype - 1)

			ewVel := int(ewRaw-1) * scale
			if getBits(me, 14, 14) != 0 {
				ewVel = -ewVel
			}
			nsVel := int(nsRaw-1) * scale
			if getBits(me, 25, 25) != 0 {
				nsVel = -nsVel
			}

			v.SpeedKnots = int(math.Sqrt(float64(nsVel*nsVel+ewVel*ewVel)) + 0.5)
			if v.SpeedKnots > 0 {
				track := math.Atan2(float64(ewVel), float64(nsVel)) * 180.0 / math.Pi
				if track < 0 {
					track += 360
				}
				v.TrackDeg = track
			}
		}
	} else {
		if getBits(me, 14, 14) != 0 {
			v.TrackDeg = float64(getBits(me, 15, 24)) * 360.0 / 1024.0
		}

		airspeedRaw := getBits(me, 26, 35)
		if airspeedRaw != 0 {
			v.SpeedKnots = int(airspeedRaw-1) * (1 << (subtype - 3))
		}
	}

	if vrRaw := getBits(me, 38, 46); vrRaw != 0 {
		rate := int(vrRaw-1) * 64
		if getBits(me, 37, 37) != 0 {
			rate = -rate
		}
		v.VerticalRateFPM = rate
	}

	return v
}

// extractCPRFields pulls the odd/even flag and the 17-bit CPR latitude
// and longitude from an airborne position frame.
func extractCPRFields(frame []byte) (fFlag uint8, latCPR, lonCPR uint32, ok bool) {
	if len(frame) < 11 {
		return 0, 0, 0, false
	}

	fFlag = (frame[6] >> 2) & 0x01
	latCPR = (uint32(frame[6]&0x03)<<15 | uint32(frame[7])<<7 | uint32(frame[8])>>1) & 0x1FFFF
	lonCPR = (uint32(frame[8]&0x01)<<16 | uint32(frame[9])<<8 | uint32(frame[10])) & 0x1FFFF
	return fFlag, latCPR, lonCPR, true
}
