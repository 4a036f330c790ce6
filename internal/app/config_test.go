package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goadsb/internal/adsb"
)

func baseConfig() Config {
	return Config{
		UDPHost: DefaultUDPHost,
		UDPPort: DefaultUDPPort,
		LogDir:  "./logs",
		Decoder: adsb.DefaultConfig(),
	}
}

// TestLoadEnvOverrides tests environment variable overlay
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MIN_VALID_ALTITUDE_FT", "-500")
	t.Setenv("MAX_VALID_ALTITUDE_FT", "45000")
	t.Setenv("ENABLE_ALTITUDE_SANITY_CHECKS", "false")
	t.Setenv("ENABLE_GEOMETRIC_ALTITUDE", "no")
	t.Setenv("ENABLE_PASSCOM_PARSER", "1")
	t.Setenv("ACCEPTED_DOWNLINK_FORMATS", "17, 18")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	config := baseConfig()
	require.NoError(t, config.LoadEnv())

	assert.Equal(t, -500, config.Decoder.Altitude.MinValidAltitudeFt)
	assert.Equal(t, 45000, config.Decoder.Altitude.MaxValidAltitudeFt)
	assert.False(t, config.Decoder.Altitude.EnableSanityChecks)
	assert.False(t, config.Decoder.EnableGeometricAltitude)
	assert.True(t, config.Decoder.EnablePasscomParser)
	assert.Equal(t, []uint8{17, 18}, config.Decoder.AcceptedDownlinkFormats)
	assert.Equal(t, "nats://localhost:4222", config.NATSURL)
}

// TestLoadEnvDefaults tests that unset variables leave values alone
func TestLoadEnvDefaults(t *testing.T) {
	config := baseConfig()
	require.NoError(t, config.LoadEnv())

	assert.Equal(t, adsb.DefaultMinValidAltitudeFt, config.Decoder.Altitude.MinValidAltitudeFt)
	assert.Equal(t, adsb.DefaultMaxValidAltitudeFt, config.Decoder.Altitude.MaxValidAltitudeFt)
	assert.True(t, config.Decoder.Altitude.EnableSanityChecks)
}

// TestLoadEnvRejectsBadValues tests malformed environment values
func TestLoadEnvRejectsBadValues(t *testing.T) {
	t.Run("non numeric altitude", func(t *testing.T) {
		t.Setenv("MIN_VALID_ALTITUDE_FT", "low")
		config := baseConfig()
		assert.Error(t, config.LoadEnv())
	})

	t.Run("downlink format out of range", func(t *testing.T) {
		t.Setenv("ACCEPTED_DOWNLINK_FORMATS", "17,99")
		config := baseConfig()
		assert.Error(t, config.LoadEnv())
	})

	t.Run("empty downlink format list", func(t *testing.T) {
		t.Setenv("ACCEPTED_DOWNLINK_FORMATS", " , ")
		config := baseConfig()
		assert.Error(t, config.LoadEnv())
	})
}

// TestValidate tests the config validation rules
func TestValidate(t *testing.T) {
	t.Run("valid defaults", func(t *testing.T) {
		config := baseConfig()
		assert.NoError(t, config.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		config := baseConfig()
		config.UDPPort = 0
		assert.Error(t, config.Validate())
	})

	t.Run("replay mode ignores port", func(t *testing.T) {
		config := baseConfig()
		config.UDPPort = 0
		config.ReplayFile = "frames.hex"
		assert.NoError(t, config.Validate())
	})

	t.Run("empty altitude range", func(t *testing.T) {
		config := baseConfig()
		config.Decoder.Altitude.MinValidAltitudeFt = 1000
		config.Decoder.Altitude.MaxValidAltitudeFt = 1000
		assert.Error(t, config.Validate())
	})

	t.Run("no accepted downlink formats", func(t *testing.T) {
		config := baseConfig()
		config.Decoder.AcceptedDownlinkFormats = nil
		assert.Error(t, config.Validate())
	})
}

// TestParseBool tests the permissive boolean parser
func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("YES"))
	assert.True(t, parseBool(" 1 "))
	assert.True(t, parseBool("on"))
	assert.False(t, parseBool("false"))
	assert.False(t, parseBool("0"))
	assert.False(t, parseBool("banana"))
}
