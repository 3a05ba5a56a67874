package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMajorRoundsToCents(t *testing.T) {
	m, err := FromMajor(19.999, "usd")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), m.Amount)
	assert.Equal(t, "USD", m.Currency)

	_, err = FromMajor(-1, "USD")
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestAddRequiresSameCurrency(t *testing.T) {
	_, err := Must(100, "USD").Add(Must(100, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := Must(100, "USD").Add(Must(250, "USD"))
	require.NoError(t, err)
	assert.Equal(t, 3.5, sum.Major())
}

func TestMultiply(t *testing.T) {
	assert.Equal(t, Must(30000, "USD"), Must(10000, "USD").Multiply(3))
}
