package datatype

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNumberPatternIsValid(t *testing.T) {
	require := require.New(t)

	p, err := CompileNumberPattern("#,##0.00")
	require.NoError(err)
	require.Equal(3, p.PrimaryGroupSize)
	require.Equal(1, p.MinIntegerDigits)
	require.Equal(2, p.DecimalDigits)
	require.Equal(2, p.SignificantDecimalDigits)

	require.True(p.IsValid("1,234.50"))
	require.False(p.IsValid("1234.50"))
	require.False(p.IsValid("1,23.50"))
	require.False(p.IsValid("1,234.5"))
	require.False(p.IsValid("1,234.501"))
}

func TestNumberPatternGrouping(t *testing.T) {
	require := require.New(t)

	// Indian-style grouping: secondary groups of two.
	p, err := CompileNumberPattern("#,##,##0")
	require.NoError(err)
	require.Equal(3, p.PrimaryGroupSize)
	require.Equal(2, p.SecondaryGroupSize)

	require.True(p.IsValid("12,34,567"))
	require.False(p.IsValid("1,234,567"))
}

func TestNumberPatternFormatDecimal(t *testing.T) {
	require := require.New(t)

	p, err := CompileNumberPattern("#,##0.00")
	require.NoError(err)

	cases := []struct {
		in   string
		want string
	}{
		{"1234.5", "1,234.50"},
		{"-1234.5", "-1,234.50"},
		{"0.125", "0.13"},
		{"1234567", "1,234,567.00"},
		{"0", "0.00"},
	}
	for _, c := range cases {
		d := decimal.RequireFromString(c.in)
		require.Equal(c.want, p.FormatDecimal(d), c.in)
	}
}

func TestNumberPatternNegativeSubpattern(t *testing.T) {
	require := require.New(t)

	_, err := CompileNumberPattern("0.0;(0.0);0")
	require.ErrorIs(err, ErrInvalidDescription)

	p, err := CompileNumberPattern("0.0;(0.0)")
	require.NoError(err)
	require.Equal("0.0;(0.0)", p.Source)
}
