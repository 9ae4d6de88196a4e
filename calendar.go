package ics

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ComponentType enumerates the component names this package can build.
type ComponentType string

const (
	// ComponentVCalendar is the VCALENDAR container component.
	ComponentVCalendar ComponentType = "VCALENDAR"
	// ComponentVEvent represents a VEVENT component (RFC 5545 section 3.6.1).
	ComponentVEvent ComponentType = "VEVENT"
	// ComponentVTodo represents a VTODO component (RFC 5545 section 3.6.2).
	ComponentVTodo ComponentType = "VTODO"
	// ComponentVVenue represents a VVENUE component from the iCalendar
	// venue draft (draft-norris-ical-venue).
	ComponentVVenue ComponentType = "VVENUE"
)

// ParseComponentType maps a component name onto one of the buildable kinds.
func ParseComponentType(s string) (ComponentType, error) {
	switch ct := ComponentType(strings.ToUpper(strings.TrimSpace(s))); ct {
	case ComponentVEvent, ComponentVTodo, ComponentVVenue:
		return ct, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownComponentType, s)
}

// Property is the name of a content line, e.g. SUMMARY or DTSTART.
type Property string

const (
	PropertyCalscale        Property = "CALSCALE"
	PropertyMethod          Property = "METHOD"
	PropertyProductId       Property = "PRODID"
	PropertyVersion         Property = "VERSION"
	PropertyName            Property = "NAME"
	PropertyColor           Property = "COLOR"
	PropertyRefreshInterval Property = "REFRESH-INTERVAL"
	PropertyXWRCalName      Property = "X-WR-CALNAME"
	PropertyXWRCalDesc      Property = "X-WR-CALDESC"
	PropertyXWRTimezone     Property = "X-WR-TIMEZONE"

	PropertyUid             Property = "UID"
	PropertyDtstamp         Property = "DTSTAMP"
	PropertyDtstart         Property = "DTSTART"
	PropertyDtend           Property = "DTEND"
	PropertyDue             Property = "DUE"
	PropertyCompleted       Property = "COMPLETED"
	PropertyRecurrenceId    Property = "RECURRENCE-ID"
	PropertyExdate          Property = "EXDATE"
	PropertyRrule           Property = "RRULE"
	PropertyPriority        Property = "PRIORITY"
	PropertyPercentComplete Property = "PERCENT-COMPLETE"
	PropertySummary         Property = "SUMMARY"
	PropertyDescription     Property = "DESCRIPTION"
	PropertyLocation        Property = "LOCATION"
	PropertyClass           Property = "CLASS"
	PropertyUrl             Property = "URL"
	PropertyStatus          Property = "STATUS"
	PropertyComment         Property = "COMMENT"
	PropertyCategories      Property = "CATEGORIES"
	PropertyContact         Property = "CONTACT"
	PropertyResources       Property = "RESOURCES"
	PropertyTzid            Property = "TZID"

	// Venue properties, draft-norris-ical-venue section 4.
	PropertyStreetAddress   Property = "STREET-ADDRESS"
	PropertyExtendedAddress Property = "EXTENDED-ADDRESS"
	PropertyLocality        Property = "LOCALITY"
	PropertyRegion          Property = "REGION"
	PropertyCountry         Property = "COUNTRY"
	PropertyPostalCode      Property = "POSTAL-CODE"
	PropertyLocationType    Property = "LOCATION-TYPE"
)

// IsText reports whether values of this property are of type TEXT and
// therefore need escaping on output. Unknown and X- properties default to
// TEXT (RFC 5545 section 3.8.8.2); only the known structured keys are not.
func (p Property) IsText() bool {
	switch p {
	case PropertyDtstamp, PropertyDtstart, PropertyDtend, PropertyDue, PropertyCompleted,
		PropertyRecurrenceId, PropertyExdate, PropertyRrule, PropertyPriority, PropertyPercentComplete,
		PropertyUrl, PropertyClass, PropertyStatus, PropertyMethod, PropertyVersion, PropertyCalscale,
		PropertyRefreshInterval:
		return false
	}
	return true
}

type Parameter string

// IsQuoted reports whether the parameter's value is always quoted when
// serialized. RFC 5545 section 3.2 requires it for ALTREP.
func (p Parameter) IsQuoted() bool {
	switch p {
	case ParameterAltrep:
		return true
	}
	return false
}

const (
	ParameterAltrep   Parameter = "ALTREP"
	ParameterCn       Parameter = "CN"
	ParameterEncoding Parameter = "ENCODING"
	ParameterFmttype  Parameter = "FMTTYPE"
	ParameterLanguage Parameter = "LANGUAGE"
	ParameterRange    Parameter = "RANGE"
	ParameterRsvp     Parameter = "RSVP"
	ParameterTzid     Parameter = "TZID"
	ParameterValue    Parameter = "VALUE"
	// ParameterVVenue points a LOCATION at a VVENUE component by UID.
	ParameterVVenue Parameter = "VVENUE"
)

type ValueDataType string

// ValueDataType lists the VALUE parameter types described in RFC 5545 section 3.3.
const (
	ValueDataTypeDate     ValueDataType = "DATE"
	ValueDataTypeDateTime ValueDataType = "DATE-TIME"
	ValueDataTypeDuration ValueDataType = "DURATION"
	ValueDataTypeRecur    ValueDataType = "RECUR"
	ValueDataTypeText     ValueDataType = "TEXT"
	ValueDataTypeUri      ValueDataType = "URI"
)

// Classification enumerates CLASS property values (RFC 5545 section 3.8.1.3).
type Classification string

const (
	ClassificationPublic       Classification = "PUBLIC"
	ClassificationPrivate      Classification = "PRIVATE"
	ClassificationConfidential Classification = "CONFIDENTIAL"
)

// ParseClassification returns false for anything outside the known
// vocabulary.
func ParseClassification(s string) (Classification, bool) {
	switch c := Classification(strings.ToUpper(s)); c {
	case ClassificationPublic, ClassificationPrivate, ClassificationConfidential:
		return c, true
	}
	return "", false
}

// ObjectStatus enumerates STATUS values for events and to-dos
// (RFC 5545 section 3.8.1.11).
type ObjectStatus string

const (
	ObjectStatusTentative   ObjectStatus = "TENTATIVE"
	ObjectStatusConfirmed   ObjectStatus = "CONFIRMED"
	ObjectStatusCancelled   ObjectStatus = "CANCELLED"
	ObjectStatusNeedsAction ObjectStatus = "NEEDS-ACTION"
	ObjectStatusCompleted   ObjectStatus = "COMPLETED"
	ObjectStatusInProcess   ObjectStatus = "IN-PROCESS"
)

func ParseObjectStatus(s string) (ObjectStatus, bool) {
	switch st := ObjectStatus(strings.ToUpper(s)); st {
	case ObjectStatusTentative, ObjectStatusConfirmed, ObjectStatusCancelled,
		ObjectStatusNeedsAction, ObjectStatusCompleted, ObjectStatusInProcess:
		return st, true
	}
	return "", false
}

// Method enumerates METHOD property values (RFC 5545 section 3.7.2).
type Method string

const (
	MethodPublish Method = "PUBLISH"
	MethodRequest Method = "REQUEST"
	MethodReply   Method = "REPLY"
	MethodCancel  Method = "CANCEL"
)

// Calendar is a VCALENDAR object holding finished components. NewCalendar
// and NewCalendarFor populate the VERSION and PRODID properties RFC 5545
// section 3.6 requires.
type Calendar struct {
	Components         []*Component
	CalendarProperties []*BaseProperty
}

func NewCalendar() *Calendar {
	return NewCalendarFor("manuelvo")
}

// NewCalendarFor sets VERSION to 2.0 and derives PRODID from service.
func NewCalendarFor(service string) *Calendar {
	c := &Calendar{
		Components:         []*Component{},
		CalendarProperties: []*BaseProperty{},
	}
	c.SetVersion("2.0")
	c.SetProductId("-//" + service + "//Go iCalendar Builder//EN")
	return c
}

func (cal *Calendar) SetMethod(method Method, params ...PropertyParameter) {
	cal.setProperty(PropertyMethod, string(method), params...)
}

func (cal *Calendar) SetVersion(s string, params ...PropertyParameter) {
	cal.setProperty(PropertyVersion, s, params...)
}

func (cal *Calendar) SetProductId(s string, params ...PropertyParameter) {
	cal.setProperty(PropertyProductId, s, params...)
}

// SetName sets both NAME (RFC 7986) and the X-WR-CALNAME extension most
// clients still read.
func (cal *Calendar) SetName(s string, params ...PropertyParameter) {
	cal.setProperty(PropertyName, s, params...)
	cal.setProperty(PropertyXWRCalName, s, params...)
}

func (cal *Calendar) SetDescription(s string, params ...PropertyParameter) {
	cal.setProperty(PropertyDescription, s, params...)
	cal.setProperty(PropertyXWRCalDesc, s, params...)
}

func (cal *Calendar) SetColor(s string, params ...PropertyParameter) {
	cal.setProperty(PropertyColor, s, params...)
}

func (cal *Calendar) SetCalscale(s string, params ...PropertyParameter) {
	cal.setProperty(PropertyCalscale, s, params...)
}

func (cal *Calendar) SetXWRTimezone(s string, params ...PropertyParameter) {
	cal.setProperty(PropertyXWRTimezone, s, params...)
}

func (cal *Calendar) SetRefreshInterval(s string, params ...PropertyParameter) {
	cal.setProperty(PropertyRefreshInterval, s, params...)
}

func (cal *Calendar) setProperty(property Property, value string, params ...PropertyParameter) {
	r := NewProperty(property, value, params...)
	for i := range cal.CalendarProperties {
		if cal.CalendarProperties[i].IANAToken == string(property) {
			cal.CalendarProperties[i] = r
			return
		}
	}
	cal.CalendarProperties = append(cal.CalendarProperties, r)
}

// Push appends finished components to the calendar.
func (cal *Calendar) Push(components ...*Component) *Calendar {
	for _, c := range components {
		if c != nil {
			cal.Components = append(cal.Components, c)
		}
	}
	return cal
}

func (cal *Calendar) Events() []*Component {
	return cal.componentsOf(ComponentVEvent)
}

func (cal *Calendar) Todos() []*Component {
	return cal.componentsOf(ComponentVTodo)
}

func (cal *Calendar) Venues() []*Component {
	return cal.componentsOf(ComponentVVenue)
}

func (cal *Calendar) componentsOf(kind ComponentType) []*Component {
	r := []*Component{}
	for _, c := range cal.Components {
		if c.ComponentKind() == kind {
			r = append(r, c)
		}
	}
	return r
}

// Serialize renders the calendar. It panics if an option is invalid; use
// TrySerialize to get the error instead.
func (cal *Calendar) Serialize(ops ...any) string {
	s, err := cal.TrySerialize(ops...)
	if err != nil {
		panic(err)
	}
	return s
}

func (cal *Calendar) TrySerialize(ops ...any) (string, error) {
	b := &strings.Builder{}
	if err := cal.SerializeTo(b, ops...); err != nil {
		return "", err
	}
	return b.String(), nil
}

// SerializeTo writes the calendar to w. All components share a single clock
// reading, so synthesized DTSTAMP values are identical across the stream.
func (cal *Calendar) SerializeTo(w io.Writer, ops ...any) error {
	serialConfig, err := parseSerializeOps(ops)
	if err != nil {
		return err
	}
	now := serialConfig.Now()
	serialConfig.Now = func() time.Time { return now }

	if _, err := io.WriteString(w, "BEGIN:"+string(ComponentVCalendar)+serialConfig.NewLine); err != nil {
		return err
	}
	for _, p := range cal.CalendarProperties {
		if err := p.serialize(w, serialConfig); err != nil {
			return err
		}
	}
	for _, c := range cal.Components {
		if err := c.serializeTo(w, serialConfig); err != nil {
			return fmt.Errorf("serializing %s: %w", c.ComponentKind(), err)
		}
	}
	_, err = io.WriteString(w, "END:"+string(ComponentVCalendar)+serialConfig.NewLine)
	return err
}

// Print writes the calendar to standard output.
func (cal *Calendar) Print(ops ...any) error {
	return cal.SerializeTo(os.Stdout, ops...)
}

type WithLineLength int
type WithNewLine string

// WithClock supplies the instant used for synthesized DTSTAMP values.
type WithClock func() time.Time

// WithUIDGenerator supplies the identifiers used for synthesized UID values.
type WithUIDGenerator func() string

// SerializationConfiguration controls how calendars and components are
// written out. MaxLength enables line folding (RFC 5545 section 3.1) when
// positive. Now and NewUID feed the DTSTAMP and UID values that are
// synthesized for components lacking them.
type SerializationConfiguration struct {
	MaxLength int
	NewLine   string
	Now       func() time.Time
	NewUID    func() string
}

// parseSerializeOps interprets the optional arguments provided to Serialize
// or SerializeTo. It accepts WithLineLength, WithNewLine, WithClock,
// WithUIDGenerator or a *SerializationConfiguration. The returned value is
// always a fresh copy.
func parseSerializeOps(ops []any) (*SerializationConfiguration, error) {
	serializeConfig := defaultSerializationOptions()
	for opi, op := range ops {
		switch op := op.(type) {
		case WithLineLength:
			serializeConfig.MaxLength = int(op)
		case WithNewLine:
			serializeConfig.NewLine = string(op)
		case WithClock:
			serializeConfig.Now = op
		case WithUIDGenerator:
			serializeConfig.NewUID = op
		case *SerializationConfiguration:
			if op == nil {
				continue
			}
			c := *op
			if c.Now == nil {
				c.Now = serializeConfig.Now
			}
			if c.NewUID == nil {
				c.NewUID = serializeConfig.NewUID
			}
			if c.NewLine == "" {
				c.NewLine = serializeConfig.NewLine
			}
			serializeConfig = &c
		case error:
			return nil, op
		default:
			return nil, fmt.Errorf("%w: op %d of type %s", ErrUnknownSerializationOption, opi, reflect.TypeOf(op))
		}
	}
	return serializeConfig, nil
}

// defaultSerializationOptions uses CRLF line endings, no folding, the
// system clock and random (version 4) UUIDs.
func defaultSerializationOptions() *SerializationConfiguration {
	return &SerializationConfiguration{
		MaxLength: 0,
		NewLine:   string(NewLine),
		Now:       time.Now,
		NewUID:    uuid.NewString,
	}
}
