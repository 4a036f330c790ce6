package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"goadsb/internal/adsb"
)

// Default listener settings.
const (
	DefaultUDPHost = "0.0.0.0"
	DefaultUDPPort = 4000
)

// Config holds application settings loaded from flags and environment.
type Config struct {
	// UDP listener
	UDPHost string
	UDPPort int

	// ReplayFile, when set, disables the listener and feeds hex lines
	// from this file through the decode pipeline instead.
	ReplayFile string

	// Output
	LogDir string
	UseUTC bool

	// NATSURL enables JetStream publishing when non-empty.
	NATSURL string

	Verbose     bool
	ShowVersion bool

	Decoder adsb.Config
}

// LoadEnv overlays environment variables (and an optional .env file)
// onto a config. Unset variables leave the existing values alone.
func (c *Config) LoadEnv() error {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	if v := os.Getenv("MIN_VALID_ALTITUDE_FT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MIN_VALID_ALTITUDE_FT %q: %w", v, err)
		}
		c.Decoder.Altitude.MinValidAltitudeFt = n
	}
	if v := os.Getenv("MAX_VALID_ALTITUDE_FT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_VALID_ALTITUDE_FT %q: %w", v, err)
		}
		c.Decoder.Altitude.MaxValidAltitudeFt = n
	}
	if v := os.Getenv("ENABLE_ALTITUDE_SANITY_CHECKS"); v != "" {
		c.Decoder.Altitude.EnableSanityChecks = parseBool(v)
	}
	if v := os.Getenv("ENABLE_GEOMETRIC_ALTITUDE"); v != "" {
		c.Decoder.EnableGeometricAltitude = parseBool(v)
	}
	if v := os.Getenv("ENABLE_PASSCOM_PARSER"); v != "" {
		c.Decoder.EnablePasscomParser = parseBool(v)
	}
	if v := os.Getenv("ACCEPTED_DOWNLINK_FORMATS"); v != "" {
		formats, err := parseDownlinkFormats(v)
		if err != nil {
			return err
		}
		c.Decoder.AcceptedDownlinkFormats = formats
	}
	if v := os.Getenv("NATS_URL"); v != "" && c.NATSURL == "" {
		c.NATSURL = v
	}

	return nil
}

// Validate checks the config for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.ReplayFile == "" {
		if c.UDPPort < 1 || c.UDPPort > 65535 {
			return fmt.Errorf("invalid UDP port %d", c.UDPPort)
		}
	}
	if c.Decoder.Altitude.MinValidAltitudeFt >= c.Decoder.Altitude.MaxValidAltitudeFt {
		return fmt.Errorf("altitude range is empty: min %d >= max %d",
			c.Decoder.Altitude.MinValidAltitudeFt, c.Decoder.Altitude.MaxValidAltitudeFt)
	}
	if len(c.Decoder.AcceptedDownlinkFormats) == 0 {
		return fmt.Errorf("no accepted downlink formats configured")
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseDownlinkFormats(s string) ([]uint8, error) {
	parts := strings.Split(s, ",")
	formats := make([]uint8, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 8)
		if err != nil || n > 31 {
			return nil, fmt.Errorf("invalid downlink format %q in ACCEPTED_DOWNLINK_FORMATS", part)
		}
		formats = append(formats, uint8(n))
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("ACCEPTED_DOWNLINK_FORMATS is empty")
	}
	return formats, nil
}
