package money

import (
	"errors"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrNegativeAmount   = errors.New("money: amount cannot be negative")
)

const DefaultCurrency = "USD"

// Money keeps amounts in integer cents to avoid floating point drift.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs Money from cents and a three-letter currency code.
func New(cents int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: cents, Currency: strings.ToUpper(currency)}, nil
}

// FromMajor converts a decimal amount (e.g. 100.50 dollars) to Money.
func FromMajor(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return New(int64(math.Round(amount*100)), currency)
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(cents int64, currency string) Money {
	m, err := New(cents, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// Major returns the amount in major units (dollars).
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
