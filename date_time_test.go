package ics

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatePerhapsTimeEncoding(t *testing.T) {
	tenAM := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		value    DatePerhapsTime
		line     string
		rendered string
	}{
		{
			name:     "date",
			value:    NewDate(2024, time.January, 1),
			line:     "DTSTART;VALUE=DATE:20240101",
			rendered: "VALUE=DATE:20240101",
		},
		{
			name:     "floating",
			value:    FloatingOf(tenAM),
			line:     "DTSTART:20240101T100000",
			rendered: "20240101T100000",
		},
		{
			name:     "utc from another offset",
			value:    UTCOf(time.Date(2024, 1, 1, 11, 0, 0, 0, time.FixedZone("CET", 3600))),
			line:     "DTSTART:20240101T100000Z",
			rendered: "20240101T100000Z",
		},
		{
			name:     "zoned",
			value:    ZonedOf(tenAM, "Europe/Berlin"),
			line:     "DTSTART;TZID=Europe/Berlin:20240101T100000",
			rendered: "TZID=Europe/Berlin:20240101T100000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.value.ToProperty(PropertyDtstart)
			assert.Equal(t, tt.line, p.String())
			assert.Equal(t, tt.rendered, tt.value.String())

			got, err := ParseDatePerhapsTime(p)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestDatePerhapsTimeEdgeRoundTrip(t *testing.T) {
	tenAM := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	maxUTC := UTCDateTime{DateTime: civil.DateTime{
		Date: civil.Date{Year: 9999, Month: time.December, Day: 31},
		Time: civil.Time{Hour: 23, Minute: 59, Second: 59},
	}}

	tests := []struct {
		name     string
		value    DatePerhapsTime
		line     string
		expected DatePerhapsTime
	}{
		{
			name:     "zoned with empty tzid",
			value:    ZonedOf(tenAM, ""),
			line:     "DTSTART;TZID=:20240101T100000",
			expected: ZonedDateTime{DateTime: civil.DateTimeOf(tenAM), TZID: ""},
		},
		{
			name:     "utc after year 9999",
			value:    UTCOf(time.Date(10000, 1, 1, 10, 0, 0, 0, time.UTC)),
			line:     "DTSTART:99991231T235959Z",
			expected: maxUTC,
		},
		{
			name:     "floating before year 0",
			value:    FloatingOf(time.Date(-5, 6, 1, 10, 0, 0, 0, time.UTC)),
			line:     "DTSTART:00000101T000000",
			expected: FloatingDateTime{DateTime: civil.DateTime{Date: civil.Date{Year: 0, Month: time.January, Day: 1}}},
		},
		{
			name:     "date after year 9999",
			value:    NewDate(12000, time.March, 1),
			line:     "DTSTART;VALUE=DATE:99991231",
			expected: NewDate(9999, time.December, 31),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value)
			p := tt.value.ToProperty(PropertyDtstart)
			assert.Equal(t, tt.line, p.String())
			got, err := ParseDatePerhapsTime(p)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}

	literal := DateOnly{Date: civil.Date{Year: 10000, Month: time.January, Day: 1}}
	assert.Equal(t, "DTSTART;VALUE=DATE:99991231", literal.ToProperty(PropertyDtstart).String())
}

func TestParseDatePerhapsTime(t *testing.T) {
	tests := []struct {
		name     string
		property *BaseProperty
		expected DatePerhapsTime
	}{
		{
			name:     "bare date without VALUE",
			property: NewProperty(PropertyDtstart, "20231231"),
			expected: NewDate(2023, time.December, 31),
		},
		{
			name:     "lower case value parameter",
			property: NewProperty(PropertyDtstart, "20231231", Param{Key: "value", Value: "date"}),
			expected: NewDate(2023, time.December, 31),
		},
		{
			name:     "utc wins over tzid",
			property: NewProperty(PropertyDtstart, "20240101T100000Z", WithTZID("Europe/Berlin")),
			expected: UTCDateTime{DateTime: civil.DateTime{Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Time: civil.Time{Hour: 10}}},
		},
		{
			name:     "explicit DATE-TIME",
			property: NewProperty(PropertyDtend, "20240101T235959", WithValue(ValueDataTypeDateTime)),
			expected: FloatingDateTime{DateTime: civil.DateTime{Date: civil.Date{Year: 2024, Month: 1, Day: 1}, Time: civil.Time{Hour: 23, Minute: 59, Second: 59}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatePerhapsTime(tt.property)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDatePerhapsTimeMalformed(t *testing.T) {
	for _, p := range []*BaseProperty{
		NewProperty(PropertyDtstart, ""),
		NewProperty(PropertyDtstart, "2024-01-01"),
		NewProperty(PropertyDtstart, "20240101T1000"),
		NewProperty(PropertyDtstart, "20241301"),
		NewProperty(PropertyDtstart, "20240101T250000Z"),
		NewProperty(PropertyDtstart, "20240101T100000", WithValue(ValueDataTypeDate)),
		NewProperty(PropertyDtstart, "20240101", WithValue(ValueDataTypeDateTime)),
	} {
		_, err := ParseDatePerhapsTime(p)
		assert.ErrorIs(t, err, ErrMalformedDateTime, p.String())
	}

	_, err := ParseDatePerhapsTime(nil)
	assert.True(t, errors.Is(err, ErrorPropertyNotFound))
}

func TestSubSecondPrecisionIsDropped(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	withNanos := base.Add(500 * time.Millisecond)

	assert.Equal(t, UTCOf(base), UTCOf(withNanos))
	assert.Equal(t, FloatingOf(base), FloatingOf(withNanos))
	assert.Equal(t, ZonedOf(base, "UTC"), ZonedOf(withNanos, "UTC"))
	assert.Equal(t, base, UTCOf(withNanos).Time())
}

func TestZonedIn(t *testing.T) {
	loc := time.FixedZone("Test/Zone", 2*3600)
	z := ZonedIn(time.Date(2024, 6, 1, 8, 30, 0, 0, loc))
	assert.Equal(t, "Test/Zone", z.TZID)
	assert.Equal(t, "DUE;TZID=Test/Zone:20240601T083000", z.ToProperty(PropertyDue).String())
	assert.Equal(t, time.Date(2024, 6, 1, 8, 30, 0, 0, loc), z.In(loc))
}

func TestParseDatePerhapsTimeList(t *testing.T) {
	dts, err := ParseDatePerhapsTimeList(NewProperty(PropertyExdate, "20240101T100000Z, 20240108T100000Z"))
	require.NoError(t, err)
	assert.Equal(t, []DatePerhapsTime{
		UTCOf(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)),
		UTCOf(time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)),
	}, dts)

	dts, err = ParseDatePerhapsTimeList(NewProperty(PropertyExdate, "20240101,nope"))
	assert.ErrorIs(t, err, ErrMalformedDateTime)
	assert.Len(t, dts, 1)
}

func TestParseUTCDateTime(t *testing.T) {
	u, err := ParseUTCDateTime("20240101T093000Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), u.Time())

	_, err = ParseUTCDateTime("20240101T093000")
	assert.ErrorIs(t, err, ErrMalformedDateTime)
}
