package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeeRate_DefaultWhenEmpty(t *testing.T) {
	rate, err := parseFeeRate("")
	require.NoError(t, err)
	assert.Equal(t, "0.025", rate.String())
}

func TestParseFeeRate_Custom(t *testing.T) {
	rate, err := parseFeeRate(" 0.05 ")
	require.NoError(t, err)
	assert.Equal(t, "0.05", rate.String())
}

func TestParseFeeRate_Invalid(t *testing.T) {
	for _, in := range []string{"abc", "-0.01", "1", "1.5", "0.0250001"} {
		_, err := parseFeeRate(in)
		assert.Error(t, err, in)
	}
}

func TestParseFeeRate_TrailingZerosFitColumn(t *testing.T) {
	rate, err := parseFeeRate("0.02500000")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.025")))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "test")
	t.Setenv("PLATFORM_FEE_RATE", "")
	t.Setenv("NEGOTIATION_EVENTS_CHANNEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "negotiations:events", cfg.EventsChannel)
	assert.Equal(t, "0.025", cfg.PlatformFeeRate.String())
}
