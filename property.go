package ics

import (
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// BaseProperty is a single content line of a component: a key, an ordered
// list of parameters and a value. Key and value are stored verbatim; any
// escaping happens when the property is written.
type BaseProperty struct {
	IANAToken      string
	ICalParameters []Param
	Value          string
}

// PropertyParameter is anything that can be attached to a property as a
// NAME=VALUE parameter.
type PropertyParameter interface {
	KeyValue() (string, string)
}

// Param is a single property parameter.
type Param struct {
	Key   string
	Value string
}

func (p Param) KeyValue() (string, string) {
	return p.Key, p.Value
}

func NewParam(key Parameter, value string) Param {
	return Param{Key: string(key), Value: value}
}

func WithTZID(tzid string) PropertyParameter {
	return NewParam(ParameterTzid, tzid)
}

func WithValue(kind ValueDataType) PropertyParameter {
	return NewParam(ParameterValue, string(kind))
}

// WithVVenue references a VVENUE component by its UID.
func WithVVenue(venueUID string) PropertyParameter {
	return NewParam(ParameterVVenue, venueUID)
}

func WithCN(cn string) PropertyParameter {
	return NewParam(ParameterCn, cn)
}

func WithLanguage(tag string) PropertyParameter {
	return NewParam(ParameterLanguage, tag)
}

func WithAlternativeRepresentation(uri *url.URL) PropertyParameter {
	return NewParam(ParameterAltrep, uri.String())
}

func WithFmtType(contentType string) PropertyParameter {
	return NewParam(ParameterFmttype, contentType)
}

func WithEncoding(encType string) PropertyParameter {
	return NewParam(ParameterEncoding, encType)
}

func WithRSVP(b bool) PropertyParameter {
	return NewParam(ParameterRsvp, strings.ToUpper(strconv.FormatBool(b)))
}

// WithRange sets the RANGE parameter of a RECURRENCE-ID, e.g. THISANDFUTURE.
func WithRange(r string) PropertyParameter {
	return NewParam(ParameterRange, r)
}

// NewProperty builds a property. It never fails: malformed keys or values
// are passed through as given.
func NewProperty(key Property, value string, params ...PropertyParameter) *BaseProperty {
	p := &BaseProperty{
		IANAToken: string(key),
		Value:     value,
	}
	for _, param := range params {
		p.AppendParameter(param)
	}
	return p
}

// AppendParameter adds a parameter after the existing ones. Parameters with
// the same name are all kept.
func (property *BaseProperty) AppendParameter(param PropertyParameter) *BaseProperty {
	if param == nil {
		return property
	}
	k, v := param.KeyValue()
	property.ICalParameters = append(property.ICalParameters, Param{Key: k, Value: v})
	return property
}

func (property *BaseProperty) Key() string {
	return property.IANAToken
}

// ParameterValue returns the value of the first parameter with the given name.
func (property *BaseProperty) ParameterValue(name Parameter) (string, bool) {
	for _, p := range property.ICalParameters {
		if strings.EqualFold(p.Key, string(name)) {
			return p.Value, true
		}
	}
	return "", false
}

// Equal reports whether both properties have the same key, value and
// parameters in the same order.
func (property *BaseProperty) Equal(other *BaseProperty) bool {
	if property == nil || other == nil {
		return property == other
	}
	return property.IANAToken == other.IANAToken &&
		property.Value == other.Value &&
		slices.Equal(property.ICalParameters, other.ICalParameters)
}

func (property *BaseProperty) Clone() *BaseProperty {
	if property == nil {
		return nil
	}
	return &BaseProperty{
		IANAToken:      property.IANAToken,
		ICalParameters: slices.Clone(property.ICalParameters),
		Value:          property.Value,
	}
}

func (property *BaseProperty) isText() bool {
	if v, ok := property.ParameterValue(ParameterValue); ok {
		return strings.EqualFold(v, string(ValueDataTypeText))
	}
	return Property(property.IANAToken).IsText()
}

// String renders the content line without a line terminator or folding.
func (property *BaseProperty) String() string {
	b := &strings.Builder{}
	b.WriteString(property.IANAToken)
	for _, p := range property.ICalParameters {
		b.WriteString(";")
		b.WriteString(p.Key)
		b.WriteString("=")
		b.WriteString(encodeParameterValue(Parameter(p.Key), p.Value))
	}
	b.WriteString(":")
	if property.isText() {
		b.WriteString(ToText(property.Value))
	} else {
		b.WriteString(lineBreakEscaper.Replace(property.Value))
	}
	return b.String()
}

// lineBreakEscaper keeps a structured value on one content line.
var lineBreakEscaper = strings.NewReplacer(
	"\r\n", `\n`,
	"\r", `\n`,
	"\n", `\n`,
)

func (property *BaseProperty) serialize(w io.Writer, serialConfig *SerializationConfiguration) error {
	r := property.String()
	if serialConfig.MaxLength > 0 && len(r) > serialConfig.MaxLength {
		r = foldLine(r, serialConfig.MaxLength, serialConfig.NewLine)
	}
	_, err := io.WriteString(w, r+serialConfig.NewLine)
	return err
}

// foldLine splits a content line into chunks of at most maxLength octets,
// never inside a UTF-8 sequence. Continuation lines start with a space.
func foldLine(s string, maxLength int, newLine string) string {
	b := &strings.Builder{}
	l := trimUTF8StringUpTo(maxLength, s)
	b.WriteString(s[:l])
	s = s[l:]
	for len(s) > 0 {
		l = trimUTF8StringUpTo(maxLength-1, s)
		b.WriteString(newLine)
		b.WriteString(" ")
		b.WriteString(s[:l])
		s = s[l:]
	}
	return b.String()
}

// trimUTF8StringUpTo returns the length in bytes of the longest prefix of s
// that fits in maxLength octets. At least one rune is always taken.
func trimUTF8StringUpTo(maxLength int, s string) int {
	length := 0
	for _, r := range s {
		newLength := length + utf8.RuneLen(r)
		if newLength > maxLength && length > 0 {
			break
		}
		length = newLength
	}
	return length
}

// RFC 6868 caret encoding for characters that cannot appear in a parameter value.
var parameterValueEncoder = strings.NewReplacer(
	`^`, `^^`,
	"\r\n", `^n`,
	"\r", `^n`,
	"\n", `^n`,
	`"`, `^'`,
)

func encodeParameterValue(name Parameter, v string) string {
	v = parameterValueEncoder.Replace(v)
	if name.IsQuoted() || strings.ContainsAny(v, ";:,") {
		return `"` + v + `"`
	}
	return v
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r\n", `\n`,
	"\r", `\n`,
	"\n", `\n`,
	`;`, `\;`,
	`,`, `\,`,
)

// ToText escapes backslash, semicolon, comma and newline as required for
// TEXT values (RFC 5545 section 3.3.11).
func ToText(s string) string {
	return textEscaper.Replace(s)
}

var textUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\N`, "\n",
	`\;`, `;`,
	`\,`, `,`,
)

// FromText reverses ToText.
func FromText(s string) string {
	return textUnescaper.Replace(s)
}
