package ics

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// InnerComponent is the property storage shared by every component kind.
// Single-valued properties are keyed by name, so setting one again
// replaces it. Multi-valued properties keep every value in insertion order.
// Which store a key goes to is decided by the setter that is called, not by
// the key.
type InnerComponent struct {
	properties      map[Property]*BaseProperty
	multiProperties []*BaseProperty
}

func (ic *InnerComponent) setProperty(property *BaseProperty) {
	if property == nil {
		return
	}
	if ic.properties == nil {
		ic.properties = map[Property]*BaseProperty{}
	}
	ic.properties[Property(property.IANAToken)] = property
}

func (ic *InnerComponent) addMultiProperty(property *BaseProperty) {
	if property == nil {
		return
	}
	ic.multiProperties = append(ic.multiProperties, property)
}

// done moves the accumulated properties out and leaves ic empty.
func (ic *InnerComponent) done() InnerComponent {
	r := *ic
	*ic = InnerComponent{}
	return r
}

func (ic *InnerComponent) sortedProperties() []*BaseProperty {
	keys := make([]string, 0, len(ic.properties))
	for k := range ic.properties {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	r := make([]*BaseProperty, 0, len(keys))
	for _, k := range keys {
		r = append(r, ic.properties[Property(k)])
	}
	return r
}

// Properties returns copies of the single-valued properties ordered by key.
func (ic *InnerComponent) Properties() []*BaseProperty {
	r := ic.sortedProperties()
	for i := range r {
		r[i] = r[i].Clone()
	}
	return r
}

// MultiProperties returns copies of the multi-valued properties in
// insertion order.
func (ic *InnerComponent) MultiProperties() []*BaseProperty {
	r := make([]*BaseProperty, 0, len(ic.multiProperties))
	for _, p := range ic.multiProperties {
		r = append(r, p.Clone())
	}
	return r
}

// Property returns a copy of the single-valued property, or nil.
func (ic *InnerComponent) Property(key Property) *BaseProperty {
	return ic.properties[key].Clone()
}

func (ic *InnerComponent) HasProperty(key Property) bool {
	_, ok := ic.properties[key]
	return ok
}

// PropertyValue returns the raw value of a single-valued property.
func (ic *InnerComponent) PropertyValue(key Property) (string, bool) {
	p, ok := ic.properties[key]
	if !ok {
		return "", false
	}
	return p.Value, true
}

func (ic *InnerComponent) multiPropertiesOf(key Property) []*BaseProperty {
	var r []*BaseProperty
	for _, p := range ic.multiProperties {
		if p.IANAToken == string(key) {
			r = append(r, p)
		}
	}
	return r
}

func (ic *InnerComponent) dateTime(key Property) (DatePerhapsTime, bool) {
	dt, err := ParseDatePerhapsTime(ic.properties[key])
	if err != nil {
		return nil, false
	}
	return dt, true
}

func (ic *InnerComponent) utcDateTime(key Property) (time.Time, bool) {
	v, ok := ic.PropertyValue(key)
	if !ok {
		return time.Time{}, false
	}
	u, err := ParseUTCDateTime(v)
	if err != nil {
		return time.Time{}, false
	}
	return u.Time(), true
}

// GetTimestamp returns DTSTAMP.
func (ic *InnerComponent) GetTimestamp() (time.Time, bool) {
	return ic.utcDateTime(PropertyDtstamp)
}

func (ic *InnerComponent) GetStart() (DatePerhapsTime, bool) {
	return ic.dateTime(PropertyDtstart)
}

func (ic *InnerComponent) GetEnd() (DatePerhapsTime, bool) {
	return ic.dateTime(PropertyDtend)
}

func (ic *InnerComponent) GetRecurrenceID() (DatePerhapsTime, bool) {
	return ic.dateTime(PropertyRecurrenceId)
}

// GetDue returns the DUE of a to-do.
func (ic *InnerComponent) GetDue() (DatePerhapsTime, bool) {
	return ic.dateTime(PropertyDue)
}

// GetCompleted returns the COMPLETED instant of a to-do.
func (ic *InnerComponent) GetCompleted() (time.Time, bool) {
	return ic.utcDateTime(PropertyCompleted)
}

// GetExdates returns every EXDATE in insertion order. Values that cannot be
// decoded are skipped.
func (ic *InnerComponent) GetExdates() []DatePerhapsTime {
	var r []DatePerhapsTime
	for _, p := range ic.multiPropertiesOf(PropertyExdate) {
		dts, _ := ParseDatePerhapsTimeList(p)
		r = append(r, dts...)
	}
	return r
}

// GetPriority returns PRIORITY. A stored value outside 0..10 reads as unset.
func (ic *InnerComponent) GetPriority() (uint, bool) {
	v, ok := ic.PropertyValue(PropertyPriority)
	if !ok {
		return 0, false
	}
	p, err := ParsePriority(v)
	if err != nil {
		return 0, false
	}
	return p, true
}

// ParsePriority decodes a PRIORITY value, reporting values above 10 as
// ErrPriorityOutOfRange.
func ParsePriority(s string) (uint, error) {
	return parseBounded(s, 10, ErrPriorityOutOfRange)
}

func parseBounded(s string, limit uint64, errOutOfRange error) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errOutOfRange, err)
	}
	if n > limit {
		return 0, fmt.Errorf("%w: %d", errOutOfRange, n)
	}
	return uint(n), nil
}

// GetPercentComplete returns PERCENT-COMPLETE of a to-do.
func (ic *InnerComponent) GetPercentComplete() (uint, bool) {
	v, ok := ic.PropertyValue(PropertyPercentComplete)
	if !ok {
		return 0, false
	}
	p, err := parseBounded(v, 100, ErrPercentOutOfRange)
	if err != nil {
		return 0, false
	}
	return p, true
}

func (ic *InnerComponent) GetSummary() (string, bool) {
	return ic.PropertyValue(PropertySummary)
}

func (ic *InnerComponent) GetDescription() (string, bool) {
	return ic.PropertyValue(PropertyDescription)
}

func (ic *InnerComponent) GetLocation() (string, bool) {
	return ic.PropertyValue(PropertyLocation)
}

func (ic *InnerComponent) GetUID() (string, bool) {
	return ic.PropertyValue(PropertyUid)
}

func (ic *InnerComponent) GetURL() (string, bool) {
	return ic.PropertyValue(PropertyUrl)
}

// GetClass returns CLASS; unknown classifications read as unset.
func (ic *InnerComponent) GetClass() (Classification, bool) {
	v, ok := ic.PropertyValue(PropertyClass)
	if !ok {
		return "", false
	}
	return ParseClassification(v)
}

func (ic *InnerComponent) GetStatus() (ObjectStatus, bool) {
	v, ok := ic.PropertyValue(PropertyStatus)
	if !ok {
		return "", false
	}
	return ParseObjectStatus(v)
}

// GetRecurrenceRule decodes RRULE. The rule is returned as written; it is
// not expanded and carries no DTSTART.
func (ic *InnerComponent) GetRecurrenceRule() (*rrule.ROption, bool) {
	v, ok := ic.PropertyValue(PropertyRrule)
	if !ok {
		return nil, false
	}
	opt, err := rrule.StrToROption(v)
	if err != nil {
		return nil, false
	}
	return opt, true
}

func (ic *InnerComponent) GetCategories() []string {
	var r []string
	for _, p := range ic.multiPropertiesOf(PropertyCategories) {
		r = append(r, p.Value)
	}
	return r
}

func (ic *InnerComponent) GetComments() []string {
	var r []string
	for _, p := range ic.multiPropertiesOf(PropertyComment) {
		r = append(r, p.Value)
	}
	return r
}

// VenueReference is a LOCATION that points at a VVENUE component.
type VenueReference struct {
	Location string
	VenueUID string
}

// GetVenues returns the LOCATION entries added with Venue.
func (ic *InnerComponent) GetVenues() []VenueReference {
	var r []VenueReference
	for _, p := range ic.multiPropertiesOf(PropertyLocation) {
		uid, ok := p.ParameterValue(ParameterVVenue)
		if !ok {
			continue
		}
		r = append(r, VenueReference{Location: p.Value, VenueUID: uid})
	}
	return r
}

// Builder accumulates the properties of one component. Every setter
// returns the same builder so calls can be chained; Done hands the result
// over as a Component.
type Builder struct {
	kind ComponentType
	InnerComponent
}

func NewBuilder(kind ComponentType) *Builder {
	return &Builder{kind: kind}
}

func NewEvent() *Builder {
	return NewBuilder(ComponentVEvent)
}

func NewTodo() *Builder {
	return NewBuilder(ComponentVTodo)
}

func NewVenue() *Builder {
	return NewBuilder(ComponentVVenue)
}

func (b *Builder) ComponentKind() ComponentType {
	return b.kind
}

// Done moves everything set so far into a new Component. The builder keeps
// its kind but starts over empty, so nothing done to it afterwards reaches
// the returned Component.
func (b *Builder) Done() *Component {
	return &Component{
		kind:           b.kind,
		InnerComponent: b.done(),
	}
}

// AppendProperty stores a single-valued property, replacing any property
// with the same key.
func (b *Builder) AppendProperty(property *BaseProperty) *Builder {
	b.setProperty(property)
	return b
}

// AppendMultiProperty adds a property of which there may be many.
func (b *Builder) AppendMultiProperty(property *BaseProperty) *Builder {
	b.addMultiProperty(property)
	return b
}

func (b *Builder) AddProperty(key Property, value string, params ...PropertyParameter) *Builder {
	return b.AppendProperty(NewProperty(key, value, params...))
}

func (b *Builder) AddMultiProperty(key Property, value string, params ...PropertyParameter) *Builder {
	return b.AppendMultiProperty(NewProperty(key, value, params...))
}

// Timestamp sets DTSTAMP. The value is always written in UTC.
func (b *Builder) Timestamp(t time.Time) *Builder {
	return b.AppendProperty(UTCOf(t).ToProperty(PropertyDtstamp))
}

func (b *Builder) Starts(dt DatePerhapsTime) *Builder {
	return b.appendDateTime(PropertyDtstart, dt)
}

func (b *Builder) Ends(dt DatePerhapsTime) *Builder {
	return b.appendDateTime(PropertyDtend, dt)
}

func (b *Builder) RecurrenceID(dt DatePerhapsTime) *Builder {
	return b.appendDateTime(PropertyRecurrenceId, dt)
}

// Due sets DUE on a to-do.
func (b *Builder) Due(dt DatePerhapsTime) *Builder {
	return b.appendDateTime(PropertyDue, dt)
}

func (b *Builder) appendDateTime(key Property, dt DatePerhapsTime) *Builder {
	if dt == nil {
		return b
	}
	return b.AppendProperty(dt.ToProperty(key))
}

// Exdate adds an EXDATE. Each call adds one more.
func (b *Builder) Exdate(dt DatePerhapsTime) *Builder {
	if dt == nil {
		return b
	}
	return b.AppendMultiProperty(dt.ToProperty(PropertyExdate))
}

// AllDay sets both DTSTART and DTEND to date.
func (b *Builder) AllDay(date DateOnly) *Builder {
	return b.Starts(date).Ends(date)
}

// Completed sets COMPLETED on a to-do, always in UTC.
func (b *Builder) Completed(t time.Time) *Builder {
	return b.AppendProperty(UTCOf(t).ToProperty(PropertyCompleted))
}

// Priority ranges from 0 to 10; larger values are truncated to 10.
func (b *Builder) Priority(priority uint) *Builder {
	if priority > 10 {
		priority = 10
	}
	return b.AddProperty(PropertyPriority, strconv.FormatUint(uint64(priority), 10))
}

// PercentComplete ranges from 0 to 100; larger values are truncated to 100.
func (b *Builder) PercentComplete(percent uint) *Builder {
	if percent > 100 {
		percent = 100
	}
	return b.AddProperty(PropertyPercentComplete, strconv.FormatUint(uint64(percent), 10))
}

func (b *Builder) Summary(s string) *Builder {
	return b.AddProperty(PropertySummary, s)
}

func (b *Builder) Description(s string) *Builder {
	return b.AddProperty(PropertyDescription, s)
}

func (b *Builder) Location(s string) *Builder {
	return b.AddProperty(PropertyLocation, s)
}

// Venue adds a LOCATION that references a VVENUE component by its UID.
// An event may reference several venues, so these are multi-valued.
func (b *Builder) Venue(location, venueUID string) *Builder {
	return b.AddMultiProperty(PropertyLocation, location, WithVVenue(venueUID))
}

func (b *Builder) UID(uid string) *Builder {
	return b.AddProperty(PropertyUid, uid)
}

func (b *Builder) Class(class Classification) *Builder {
	return b.AddProperty(PropertyClass, string(class))
}

func (b *Builder) URL(url string) *Builder {
	return b.AddProperty(PropertyUrl, url)
}

func (b *Builder) Status(status ObjectStatus) *Builder {
	return b.AddProperty(PropertyStatus, string(status))
}

// Repeats sets RRULE from a typed rule. DTSTART is taken from Starts, not
// from the rule.
func (b *Builder) Repeats(rule rrule.ROption) *Builder {
	return b.AddProperty(PropertyRrule, rule.RRuleString())
}

func (b *Builder) Comment(s string) *Builder {
	return b.AddMultiProperty(PropertyComment, s)
}

func (b *Builder) Category(s string) *Builder {
	return b.AddMultiProperty(PropertyCategories, s)
}

// Name sets NAME on a venue.
func (b *Builder) Name(s string) *Builder {
	return b.AddProperty(PropertyName, s)
}

func (b *Builder) StreetAddress(s string) *Builder {
	return b.AddProperty(PropertyStreetAddress, s)
}

func (b *Builder) ExtendedAddress(s string) *Builder {
	return b.AddProperty(PropertyExtendedAddress, s)
}

// Locality is the city or town of a venue.
func (b *Builder) Locality(s string) *Builder {
	return b.AddProperty(PropertyLocality, s)
}

func (b *Builder) Region(s string) *Builder {
	return b.AddProperty(PropertyRegion, s)
}

func (b *Builder) Country(s string) *Builder {
	return b.AddProperty(PropertyCountry, s)
}

func (b *Builder) PostalCode(s string) *Builder {
	return b.AddProperty(PropertyPostalCode, s)
}

func (b *Builder) LocationType(s string) *Builder {
	return b.AddProperty(PropertyLocationType, s)
}

// Component is a finished VEVENT, VTODO or VVENUE. It only offers read
// access and serialization.
type Component struct {
	kind ComponentType
	InnerComponent
}

func (c *Component) ComponentKind() ComponentType {
	return c.kind
}

// SerializeTo writes the component to w. A DTSTAMP is synthesized from the
// configured clock before the stored properties when none is set, and a
// UID from the configured generator after them. Errors from w are
// returned as is.
func (c *Component) SerializeTo(w io.Writer, ops ...any) error {
	serialConfig, err := parseSerializeOps(ops)
	if err != nil {
		return err
	}
	return c.serializeTo(w, serialConfig)
}

func (c *Component) serializeTo(w io.Writer, serialConfig *SerializationConfiguration) error {
	if _, err := io.WriteString(w, "BEGIN:"+string(c.kind)+serialConfig.NewLine); err != nil {
		return err
	}
	if !c.HasProperty(PropertyDtstamp) {
		stamp := UTCOf(serialConfig.Now()).ToProperty(PropertyDtstamp)
		if err := stamp.serialize(w, serialConfig); err != nil {
			return err
		}
	}
	for _, p := range c.sortedProperties() {
		if err := p.serialize(w, serialConfig); err != nil {
			return err
		}
	}
	if !c.HasProperty(PropertyUid) {
		if err := NewProperty(PropertyUid, serialConfig.NewUID()).serialize(w, serialConfig); err != nil {
			return err
		}
	}
	for _, p := range c.multiProperties {
		if err := p.serialize(w, serialConfig); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "END:"+string(c.kind)+serialConfig.NewLine)
	return err
}

func (c *Component) TrySerialize(ops ...any) (string, error) {
	b := &strings.Builder{}
	if err := c.SerializeTo(b, ops...); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Serialize is TrySerialize for call sites that cannot fail. It panics on
// error.
func (c *Component) Serialize(ops ...any) string {
	s, err := c.TrySerialize(ops...)
	if err != nil {
		panic(err)
	}
	return s
}

// Print writes the component to standard output.
func (c *Component) Print(ops ...any) error {
	return c.SerializeTo(os.Stdout, ops...)
}
