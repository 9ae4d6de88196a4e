package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	ics "github.com/manuelvo/icalendar"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// Document is the YAML description icsgen turns into a calendar.
type Document struct {
	Calendar   CalendarHeader `yaml:"calendar"`
	Components []Component    `yaml:"components"`
}

// CalendarHeader holds the VCALENDAR level properties.
type CalendarHeader struct {
	// Product is the service name PRODID is derived from.
	Product     string `yaml:"product"`
	Method      string `yaml:"method"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Timezone    string `yaml:"timezone"`
}

// Component describes one VEVENT, VTODO or VVENUE. Date fields take
// "2006-01-02", RFC 3339, a local "2006-01-02T15:04:05" or the iCalendar
// form itself. Local times are labelled with TZID when it is set.
type Component struct {
	Kind        string `yaml:"kind"`
	UID         string `yaml:"uid"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	Location    string `yaml:"location"`
	URL         string `yaml:"url"`
	Class       string `yaml:"class"`
	Status      string `yaml:"status"`
	Priority    *uint  `yaml:"priority"`

	TZID    string   `yaml:"tzid"`
	Start   string   `yaml:"start"`
	End     string   `yaml:"end"`
	AllDay  string   `yaml:"all_day"`
	Exdates []string `yaml:"exdates"`
	RRule   string   `yaml:"rrule"`

	Due             string `yaml:"due"`
	Completed       string `yaml:"completed"`
	PercentComplete *uint  `yaml:"percent_complete"`

	Categories []string    `yaml:"categories"`
	Comments   []string    `yaml:"comments"`
	Venues     []VenueLink `yaml:"venues"`

	Name            string `yaml:"name"`
	StreetAddress   string `yaml:"street_address"`
	ExtendedAddress string `yaml:"extended_address"`
	Locality        string `yaml:"locality"`
	Region          string `yaml:"region"`
	Country         string `yaml:"country"`
	PostalCode      string `yaml:"postal_code"`
	LocationType    string `yaml:"location_type"`

	// Properties are written verbatim as single-valued properties.
	Properties map[string]string `yaml:"properties"`
}

type VenueLink struct {
	Location string `yaml:"location"`
	UID      string `yaml:"uid"`
}

// DecodeDocument reads a YAML document, rejecting unknown fields.
func DecodeDocument(r io.Reader) (*Document, error) {
	doc := &Document{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// Build assembles the calendar the document describes.
func (d *Document) Build() (*ics.Calendar, error) {
	cal := ics.NewCalendar()
	if d.Calendar.Product != "" {
		cal = ics.NewCalendarFor(d.Calendar.Product)
	}
	if d.Calendar.Method != "" {
		cal.SetMethod(ics.Method(strings.ToUpper(d.Calendar.Method)))
	}
	if d.Calendar.Name != "" {
		cal.SetName(d.Calendar.Name)
	}
	if d.Calendar.Description != "" {
		cal.SetDescription(d.Calendar.Description)
	}
	if d.Calendar.Color != "" {
		cal.SetColor(d.Calendar.Color)
	}
	if d.Calendar.Timezone != "" {
		cal.SetXWRTimezone(d.Calendar.Timezone)
	}

	for i, c := range d.Components {
		component, err := c.Build()
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		slog.Debug("built component", "index", i, "kind", component.ComponentKind(), "summary", c.Summary)
		cal.Push(component)
	}
	return cal, nil
}

// Build turns the description into a finished component.
func (c *Component) Build() (*ics.Component, error) {
	kind, err := ics.ParseComponentType(c.Kind)
	if err != nil {
		return nil, err
	}
	b := ics.NewBuilder(kind)

	setText := func(v string, set func(string) *ics.Builder) {
		if v != "" {
			set(v)
		}
	}
	setText(c.UID, b.UID)
	setText(c.Summary, b.Summary)
	setText(c.Description, b.Description)
	setText(c.Location, b.Location)
	setText(c.URL, b.URL)
	setText(c.Name, b.Name)
	setText(c.StreetAddress, b.StreetAddress)
	setText(c.ExtendedAddress, b.ExtendedAddress)
	setText(c.Locality, b.Locality)
	setText(c.Region, b.Region)
	setText(c.Country, b.Country)
	setText(c.PostalCode, b.PostalCode)
	setText(c.LocationType, b.LocationType)

	if c.Class != "" {
		class, ok := ics.ParseClassification(c.Class)
		if !ok {
			return nil, fmt.Errorf("unknown class %q", c.Class)
		}
		b.Class(class)
	}
	if c.Status != "" {
		status, ok := ics.ParseObjectStatus(c.Status)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", c.Status)
		}
		b.Status(status)
	}
	if c.Priority != nil {
		b.Priority(*c.Priority)
	}
	if c.PercentComplete != nil {
		b.PercentComplete(*c.PercentComplete)
	}

	if c.AllDay != "" {
		day, err := parseWhen(c.AllDay, "")
		if err != nil {
			return nil, fmt.Errorf("all_day: %w", err)
		}
		date, ok := day.(ics.DateOnly)
		if !ok {
			return nil, fmt.Errorf("all_day: %q is not a date", c.AllDay)
		}
		b.AllDay(date)
	}
	for _, f := range []struct {
		name  string
		value string
		set   func(ics.DatePerhapsTime) *ics.Builder
	}{
		{"start", c.Start, b.Starts},
		{"end", c.End, b.Ends},
		{"due", c.Due, b.Due},
	} {
		if f.value == "" {
			continue
		}
		dt, err := parseWhen(f.value, c.TZID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		f.set(dt)
	}
	if c.Completed != "" {
		dt, err := parseWhen(c.Completed, "")
		if err != nil {
			return nil, fmt.Errorf("completed: %w", err)
		}
		u, ok := dt.(ics.UTCDateTime)
		if !ok {
			return nil, fmt.Errorf("completed: %q is not in UTC", c.Completed)
		}
		b.Completed(u.Time())
	}
	for _, s := range c.Exdates {
		dt, err := parseWhen(s, c.TZID)
		if err != nil {
			return nil, fmt.Errorf("exdates: %w", err)
		}
		b.Exdate(dt)
	}
	if c.RRule != "" {
		rule, err := rrule.StrToROption(strings.TrimPrefix(c.RRule, "RRULE:"))
		if err != nil {
			return nil, fmt.Errorf("rrule: %w", err)
		}
		b.Repeats(*rule)
	}

	for _, s := range c.Categories {
		b.Category(s)
	}
	for _, s := range c.Comments {
		b.Comment(s)
	}
	for _, v := range c.Venues {
		b.Venue(v.Location, v.UID)
	}

	keys := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.AddProperty(ics.Property(strings.ToUpper(k)), c.Properties[k])
	}
	return b.Done(), nil
}

// parseWhen reads the date forms a Component accepts.
func parseWhen(s, tzid string) (ics.DatePerhapsTime, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return ics.DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return ics.UTCOf(t), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		if tzid != "" {
			return ics.ZonedOf(t, tzid), nil
		}
		return ics.FloatingOf(t), nil
	}
	var params []ics.PropertyParameter
	if tzid != "" {
		params = append(params, ics.WithTZID(tzid))
	}
	return ics.ParseDatePerhapsTime(ics.NewProperty(ics.PropertyDtstart, s, params...))
}
