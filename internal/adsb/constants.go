package adsb

// Mode S frame geometry
const (
	FrameLength     = 14 // 112 bits = 14 bytes (Extended Squitter)
	LongFrameLength = 28 // extended PASSCOM record carrying a 112-bit message
)

// Downlink Formats carrying Extended Squitter data
const (
	DFExtendedSquitter    = 17 // ADS-B
	DFExtendedSquitterNon = 18 // TIS-B / non-transponder
	DFMilitary            = 19 // Military extended squitter
)

// Identity character set used in aircraft identification messages (TC 1-4).
// 6-bit values map as: 0 = space, 1-26 = 'A'-'Z', 48-57 = '0'-'9';
// everything else is undefined and rendered as '?'.
const identityCharset = " ABCDEFGHIJKLMNOPQRSTUVWXYZ?????????????????????0123456789??????"

// Altitude validation defaults
const (
	DefaultMinValidAltitudeFt = -1000
	DefaultMaxValidAltitudeFt = 60000

	// Barometric vs geometric disagreement beyond this is logged but not
	// rejected: geoid separation can legitimately reach a few hundred feet.
	altitudeConsistencyLimitFt = 1000
)

// CPR position encoding constants
const (
	cprBits = 17
	cprMax  = 131072.0 // 2^17
)
