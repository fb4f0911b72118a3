package datatype

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateTimePatternBasic(t *testing.T) {
	require := require.New(t)

	p, err := CompileDateTimePattern("yyyy-MM-dd", false)
	require.NoError(err)

	v, err := p.Parse("date", "2024-01-31")
	require.NoError(err)
	require.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), v)

	_, err = p.Parse("date", "2024-1-31")
	require.Error(err)

	_, err = p.Parse("date", "2024-02-30")
	require.Error(err)
}

func TestDateTimePatternDashDates(t *testing.T) {
	require := require.New(t)

	// The trailing component of a "-"-separated date looks like a UTC
	// offset; without a timezone marker it must stay part of the date.
	p, err := CompileDateTimePattern("dd-MM-yyyy", false)
	require.NoError(err)
	v, err := p.Parse("date", "22-03-2015")
	require.NoError(err)
	require.Equal(time.Date(2015, 3, 22, 0, 0, 0, 0, time.UTC), v)
	require.Equal("22-03-2015", p.Format(v))

	dt, err := FromValue("date")
	require.NoError(err)
	dv, err := dt.Read("2018-12-10")
	require.NoError(err)
	require.Equal(time.Date(2018, 12, 10, 0, 0, 0, 0, time.UTC), dv)
	require.Equal("2018-12-10", dt.Formatted(dv))
}

func TestDateTimePatternIdempotentRoundtrip(t *testing.T) {
	require := require.New(t)

	p, err := CompileDateTimePattern("d.M.yyyy HH:mm", false)
	require.NoError(err)

	v, err := p.Parse("dateTime", "3.2.2024 10:05")
	require.NoError(err)
	out := p.Format(v)
	require.Equal("3.2.2024 10:05", out)

	v2, err := p.Parse("dateTime", out)
	require.NoError(err)
	require.Equal(v, v2)
}

func TestDateTimePatternTimezones(t *testing.T) {
	require := require.New(t)

	p, err := CompileDateTimePattern("yyyy-MM-ddTHH:mm:ssXXX", false)
	require.NoError(err)
	require.Equal("XXX", p.TZMarker)

	v, err := p.Parse("dateTime", "2024-06-01T12:00:00+03:30")
	require.NoError(err)
	_, offset := v.Zone()
	require.Equal(3*3600+30*60, offset)
	require.Equal("2024-06-01T12:00:00+03:30", p.Format(v))

	v, err = p.Parse("dateTime", "2024-06-01T12:00:00Z")
	require.NoError(err)
	require.Equal("2024-06-01T12:00:00Z", p.Format(v))
}

func TestDateTimePatternFraction(t *testing.T) {
	require := require.New(t)

	p, err := CompileDateTimePattern("HH:mm:ss.SS", true)
	require.NoError(err)

	v, err := p.Parse("time", "10:20:30.45")
	require.NoError(err)
	require.Equal("10:20:30.45", p.Format(v))

	// More digits than the pattern allows.
	_, err = p.Parse("time", "10:20:30.456")
	require.Error(err)
}

func TestDateTimePatternInvalid(t *testing.T) {
	require := require.New(t)

	for _, pattern := range []string{
		"yyyy/MM",       // not in the date whitelist
		"HH:mm:ss.",     // empty fraction
		"yyyy-MM-ddXx",  // mixed timezone markers
		"ss:mm:HH",      // not in the time whitelist
		"yyyy-MM-dd HH", // time part not in the whitelist
	} {
		_, err := CompileDateTimePattern(pattern, false)
		require.ErrorIs(err, ErrInvalidDescription, pattern)
	}
}

func TestDateTimeStampRequiresTimezone(t *testing.T) {
	require := require.New(t)

	_, err := FromValue(map[string]any{"base": "dateTimeStamp", "format": "yyyy-MM-ddTHH:mm:ss"})
	require.ErrorIs(err, ErrInvalidDescription)

	dt, err := FromValue("dateTimeStamp")
	require.NoError(err)

	_, err = dt.Read("2018-12-10T20:20:20.000000+01:00")
	require.NoError(err)

	// A value without a timezone suffix is outside the lexical space.
	_, err = dt.Read("2018-12-10T20:20:20.000000")
	require.Error(err)
}
