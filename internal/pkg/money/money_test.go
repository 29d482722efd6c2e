package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	_, err = NormalizeCurrency("EURO")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
	_, err = NormalizeCurrency("ZZZ")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestMinorUnits(t *testing.T) {
	eur, err := MinorUnits("EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(2), eur)

	jpy, err := MinorUnits("JPY")
	require.NoError(t, err)
	assert.Equal(t, int32(0), jpy)
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("245000"), "EUR"))
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.01"), "EUR"))
	assert.ErrorIs(t, ValidateAmount(decimal.Zero, "EUR"), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("-5"), "EUR"), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("10.005"), "EUR"), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("10.5"), "JPY"), ErrInvalidAmount)
}

func TestValidateAmount_FitsStorage(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("9999999999999999.99"), "EUR"))
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("10000000000000000"), "EUR"), ErrInvalidAmount)
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("123456789012345678901234.5"), "EUR"), ErrInvalidAmount)

	// three-decimal currencies keep their precision
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("1.234"), "KWD"))
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("1.2345"), "KWD"), ErrInvalidAmount)
	kwd, err := MinorUnits("KWD")
	require.NoError(t, err)
	assert.Equal(t, int32(3), kwd)
}

func TestToMinor_Overflow(t *testing.T) {
	_, err := ToMinor(decimal.RequireFromString("99999999999999999999"), "EUR")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRoundAndToMinor(t *testing.T) {
	r, err := Round(decimal.RequireFromString("6125.005"), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "6125.01", r.StringFixed(2))

	cents, err := ToMinor(decimal.RequireFromString("245000.50"), "EUR")
	require.NoError(t, err)
	assert.Equal(t, int64(24500050), cents)
}
