package ics

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	icalTimestampFormatUtc   = "20060102T150405Z"
	icalTimestampFormatLocal = "20060102T150405"
	icalDateFormatLocal      = "20060102"
)

var timeStampVariations = regexp.MustCompile("^([0-9]{8})(T([0-9]{6}))?(Z)?$")

// DatePerhapsTime is one of the RFC 5545 date or date-time shapes a
// property such as DTSTART can carry: DateOnly, FloatingDateTime,
// UTCDateTime or ZonedDateTime. All variants are comparable with ==.
type DatePerhapsTime interface {
	// ToProperty renders the value as a property with the given key.
	ToProperty(key Property) *BaseProperty
	String() string
	isDatePerhapsTime()
}

var (
	_ DatePerhapsTime = DateOnly{}
	_ DatePerhapsTime = FloatingDateTime{}
	_ DatePerhapsTime = UTCDateTime{}
	_ DatePerhapsTime = ZonedDateTime{}
)

// DateOnly is a calendar date without a time, written with VALUE=DATE.
type DateOnly struct {
	Date civil.Date
}

// FloatingDateTime is a local date-time with no zone, interpreted in the
// viewer's time zone.
type FloatingDateTime struct {
	DateTime civil.DateTime
}

// UTCDateTime is an instant written in the trailing Z form.
type UTCDateTime struct {
	DateTime civil.DateTime
}

// ZonedDateTime is a local date-time qualified by a TZID. The identifier is
// carried as text and never looked up.
type ZonedDateTime struct {
	DateTime civil.DateTime
	TZID     string
}

// The text form has four year digits. Constructors clamp into this range
// and the encoders do the same for values built as struct literals.
var (
	minDateTime = civil.DateTime{Date: civil.Date{Year: 0, Month: time.January, Day: 1}}
	maxDateTime = civil.DateTime{
		Date: civil.Date{Year: 9999, Month: time.December, Day: 31},
		Time: civil.Time{Hour: 23, Minute: 59, Second: 59},
	}
)

// NewDate builds a date; years outside 0000..9999 are clamped.
func NewDate(year int, month time.Month, day int) DateOnly {
	return DateOnly{Date: clampDate(civil.Date{Year: year, Month: month, Day: day})}
}

// DateOf takes the calendar date of t in t's location.
func DateOf(t time.Time) DateOnly {
	return DateOnly{Date: clampDate(civil.DateOf(t))}
}

// FloatingOf takes the wall clock reading of t and drops its location.
func FloatingOf(t time.Time) FloatingDateTime {
	return FloatingDateTime{DateTime: representable(civil.DateTimeOf(t))}
}

func UTCOf(t time.Time) UTCDateTime {
	return UTCDateTime{DateTime: representable(civil.DateTimeOf(t.UTC()))}
}

// ZonedOf takes the wall clock reading of t and labels it with tzid. An
// empty tzid is kept and written as an empty TZID parameter.
func ZonedOf(t time.Time, tzid string) ZonedDateTime {
	return ZonedDateTime{DateTime: representable(civil.DateTimeOf(t)), TZID: tzid}
}

// ZonedIn labels the wall clock reading of t with the name of t's location,
// e.g. "Europe/Berlin".
func ZonedIn(t time.Time) ZonedDateTime {
	return ZonedOf(t, t.Location().String())
}

// representable drops sub-second precision and clamps dt into the range
// the text form can carry.
func representable(dt civil.DateTime) civil.DateTime {
	dt.Time.Nanosecond = 0
	if dt.Before(minDateTime) {
		return minDateTime
	}
	if dt.After(maxDateTime) {
		return maxDateTime
	}
	return dt
}

func clampDate(d civil.Date) civil.Date {
	if d.Before(minDateTime.Date) {
		return minDateTime.Date
	}
	if d.After(maxDateTime.Date) {
		return maxDateTime.Date
	}
	return d
}

func formatDate(d civil.Date) string {
	return clampDate(d).In(time.UTC).Format(icalDateFormatLocal)
}

func formatDateTime(dt civil.DateTime, layout string) string {
	return representable(dt).In(time.UTC).Format(layout)
}

func (d DateOnly) ToProperty(key Property) *BaseProperty {
	return NewProperty(key, formatDate(d.Date), WithValue(ValueDataTypeDate))
}

func (d DateOnly) String() string {
	return "VALUE=DATE:" + formatDate(d.Date)
}

// In returns midnight of the date in loc.
func (d DateOnly) In(loc *time.Location) time.Time {
	return d.Date.In(loc)
}

func (f FloatingDateTime) ToProperty(key Property) *BaseProperty {
	return NewProperty(key, f.String())
}

func (f FloatingDateTime) String() string {
	return formatDateTime(f.DateTime, icalTimestampFormatLocal)
}

// In interprets the floating time in loc.
func (f FloatingDateTime) In(loc *time.Location) time.Time {
	return f.DateTime.In(loc)
}

func (u UTCDateTime) ToProperty(key Property) *BaseProperty {
	return NewProperty(key, u.String())
}

func (u UTCDateTime) String() string {
	return formatDateTime(u.DateTime, icalTimestampFormatUtc)
}

func (u UTCDateTime) Time() time.Time {
	return u.DateTime.In(time.UTC)
}

func (z ZonedDateTime) ToProperty(key Property) *BaseProperty {
	return NewProperty(key, formatDateTime(z.DateTime, icalTimestampFormatLocal), WithTZID(z.TZID))
}

func (z ZonedDateTime) String() string {
	return "TZID=" + z.TZID + ":" + formatDateTime(z.DateTime, icalTimestampFormatLocal)
}

// In interprets the wall clock reading in loc, which the caller is expected
// to have resolved from TZID.
func (z ZonedDateTime) In(loc *time.Location) time.Time {
	return z.DateTime.In(loc)
}

func (DateOnly) isDatePerhapsTime()         {}
func (FloatingDateTime) isDatePerhapsTime() {}
func (UTCDateTime) isDatePerhapsTime()      {}
func (ZonedDateTime) isDatePerhapsTime()    {}

// ParseDatePerhapsTime selects the variant from the VALUE and TZID
// parameters and the trailing Z of the value. A bare 8 digit value is
// accepted as a date even without VALUE=DATE.
func ParseDatePerhapsTime(p *BaseProperty) (DatePerhapsTime, error) {
	if p == nil {
		return nil, ErrorPropertyNotFound
	}
	return parseDatePerhapsTimeValue(p, p.Value)
}

func parseDatePerhapsTimeValue(p *BaseProperty, timeVal string) (DatePerhapsTime, error) {
	matched := timeStampVariations.FindStringSubmatch(timeVal)
	if matched == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrMalformedDateTime, p.IANAToken, timeVal)
	}
	dateStr, timeStr, zGrp := matched[1], matched[3], matched[4]
	valueType, _ := p.ParameterValue(ParameterValue)

	if timeStr == "" {
		if strings.EqualFold(valueType, string(ValueDataTypeDateTime)) {
			return nil, fmt.Errorf("%w: %s %q has no time", ErrMalformedDateTime, p.IANAToken, timeVal)
		}
		t, err := time.ParseInLocation(icalDateFormatLocal, dateStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDateTime, p.IANAToken, err)
		}
		return DateOf(t), nil
	}
	if strings.EqualFold(valueType, string(ValueDataTypeDate)) {
		return nil, fmt.Errorf("%w: %s %q is not a date", ErrMalformedDateTime, p.IANAToken, timeVal)
	}

	t, err := time.ParseInLocation(icalTimestampFormatLocal, dateStr+"T"+timeStr, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDateTime, p.IANAToken, err)
	}
	if zGrp == "Z" {
		return UTCOf(t), nil
	}
	if tzid, ok := p.ParameterValue(ParameterTzid); ok {
		return ZonedOf(t, tzid), nil
	}
	return FloatingOf(t), nil
}

// ParseDatePerhapsTimeList decodes a property whose value may hold several
// comma separated dates, as EXDATE and RDATE allow.
func ParseDatePerhapsTimeList(p *BaseProperty) ([]DatePerhapsTime, error) {
	if p == nil {
		return nil, ErrorPropertyNotFound
	}
	var r []DatePerhapsTime
	for _, v := range strings.Split(p.Value, ",") {
		dt, err := parseDatePerhapsTimeValue(p, strings.TrimSpace(v))
		if err != nil {
			return r, err
		}
		r = append(r, dt)
	}
	return r, nil
}

// ParseUTCDateTime decodes the YYYYMMDDTHHMMSSZ form used by DTSTAMP.
func ParseUTCDateTime(s string) (UTCDateTime, error) {
	t, err := time.ParseInLocation(icalTimestampFormatUtc, s, time.UTC)
	if err != nil {
		return UTCDateTime{}, fmt.Errorf("%w: %v", ErrMalformedDateTime, err)
	}
	return UTCOf(t), nil
}
