package ics

import (
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyString(t *testing.T) {
	altrep, err := url.Parse("http://example.com/notes.html")
	require.NoError(t, err)

	tests := []struct {
		name     string
		property *BaseProperty
		expected string
	}{
		{
			name:     "text value is escaped",
			property: NewProperty(PropertySummary, "Lunch, then; talk\nmore \\ end"),
			expected: `SUMMARY:Lunch\, then\; talk\nmore \\ end`,
		},
		{
			name:     "uri value is left alone",
			property: NewProperty(PropertyUrl, "https://example.com/a,b;c"),
			expected: "URL:https://example.com/a,b;c",
		},
		{
			name:     "structured value is left alone",
			property: NewProperty(PropertyRrule, "FREQ=WEEKLY;BYDAY=MO,TU"),
			expected: "RRULE:FREQ=WEEKLY;BYDAY=MO,TU",
		},
		{
			name:     "parameter with a colon is quoted",
			property: NewProperty(PropertyLocation, "Room").AppendParameter(WithVVenue("venue:1")),
			expected: `LOCATION;VVENUE="venue:1":Room`,
		},
		{
			name:     "double quote in parameter is caret encoded",
			property: NewProperty("X-TEST", "v", WithCN(`Bob "B" Smith`)),
			expected: `X-TEST;CN=Bob ^'B^' Smith:v`,
		},
		{
			name:     "newline and caret in parameter are caret encoded",
			property: NewProperty("X-TEST", "v", WithCN("a^b\nc")),
			expected: `X-TEST;CN=a^^b^nc:v`,
		},
		{
			name:     "altrep is always quoted",
			property: NewProperty(PropertyDescription, "notes", WithAlternativeRepresentation(altrep)),
			expected: `DESCRIPTION;ALTREP="http://example.com/notes.html":notes`,
		},
		{
			name:     "VALUE=TEXT forces escaping on structured keys",
			property: NewProperty(PropertyUrl, "a,b", WithValue(ValueDataTypeText)),
			expected: `URL;VALUE=TEXT:a\,b`,
		},
		{
			name:     "unknown keys default to text",
			property: NewProperty("X-NOTE", "a,b;c"),
			expected: `X-NOTE:a\,b\;c`,
		},
		{
			name:     "VALUE=URI opts an unknown key out of escaping",
			property: NewProperty("X-LINK", "https://example.com/?a=1,2", WithValue(ValueDataTypeUri)),
			expected: "X-LINK;VALUE=URI:https://example.com/?a=1,2",
		},
		{
			name:     "uid is text",
			property: NewProperty(PropertyUid, "a,b"),
			expected: `UID:a\,b`,
		},
		{
			name: "duplicate parameters are kept in order",
			property: NewProperty("X-TEST", "v").
				AppendParameter(Param{Key: "X-P", Value: "1"}).
				AppendParameter(Param{Key: "X-P", Value: "2"}),
			expected: "X-TEST;X-P=1;X-P=2:v",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.property.String())
		})
	}
}

func TestPropertyLineBreaksNeverEndTheLine(t *testing.T) {
	for _, p := range []*BaseProperty{
		NewProperty(PropertyUid, "a\r\nSUMMARY:injected"),
		NewProperty(PropertyProductId, "-//x\r//y"),
		NewProperty(PropertyXWRTimezone, "Europe/Berlin\n"),
		NewProperty("X-NOTE", "x\nEND:VEVENT"),
		NewProperty(PropertyRrule, "FREQ=DAILY\r\nEND:VEVENT"),
		NewProperty(PropertyUrl, "https://example.com/\r"),
		NewProperty("X-LINK", "a\nb", WithValue(ValueDataTypeUri)),
		NewProperty("X-TEST", "v", WithCN("a\rb")),
	} {
		line := p.String()
		assert.NotContains(t, line, "\r", p.IANAToken)
		assert.NotContains(t, line, "\n", p.IANAToken)
	}
	assert.Equal(t, `UID:a\nSUMMARY:injected`, NewProperty(PropertyUid, "a\r\nSUMMARY:injected").String())
	assert.Equal(t, `RRULE:FREQ=DAILY\nEND:VEVENT`, NewProperty(PropertyRrule, "FREQ=DAILY\r\nEND:VEVENT").String())
}

func TestPropertyAccessors(t *testing.T) {
	p := NewProperty(PropertyDtstart, "20240101T100000", WithTZID("Europe/Berlin"), WithTZID("Europe/Paris"))
	assert.Equal(t, "DTSTART", p.Key())
	assert.Equal(t, "20240101T100000", p.Value)

	tzid, ok := p.ParameterValue(ParameterTzid)
	assert.True(t, ok)
	assert.Equal(t, "Europe/Berlin", tzid)
	assert.Len(t, p.ICalParameters, 2)

	_, ok = p.ParameterValue(ParameterValue)
	assert.False(t, ok)
}

func TestPropertyEqual(t *testing.T) {
	a := NewProperty(PropertyLocation, "Hall", WithVVenue("v1"))
	assert.True(t, a.Equal(a.Clone()))
	assert.True(t, a.Equal(NewProperty(PropertyLocation, "Hall", WithVVenue("v1"))))
	assert.False(t, a.Equal(NewProperty(PropertyLocation, "Hall")))
	assert.False(t, a.Equal(NewProperty(PropertyLocation, "Hall", WithVVenue("v2"))))
	assert.False(t, a.Equal(NewProperty(PropertyLocation, "Other", WithVVenue("v1"))))
	assert.False(t, a.Equal(nil))

	clone := a.Clone()
	clone.AppendParameter(WithCN("x"))
	assert.Len(t, a.ICalParameters, 1, "clone must not share parameters")
}

func TestPropertyFolding(t *testing.T) {
	serialConfig := &SerializationConfiguration{MaxLength: 75, NewLine: "\r\n"}

	for _, value := range []string{
		strings.Repeat("a", 100),
		strings.Repeat("ü", 80),
		strings.Repeat("word ", 40),
	} {
		b := &strings.Builder{}
		require.NoError(t, NewProperty(PropertySummary, value).serialize(b, serialConfig))
		out := b.String()
		require.True(t, strings.HasSuffix(out, "\r\n"))

		lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
		assert.Greater(t, len(lines), 1)
		for i, l := range lines {
			assert.LessOrEqual(t, len(l), 75, "line %d too long", i)
			assert.True(t, utf8.ValidString(l), "line %d splits a rune", i)
			if i > 0 {
				assert.True(t, strings.HasPrefix(l, " "))
			}
		}

		unfolded := strings.ReplaceAll(strings.TrimSuffix(out, "\r\n"), "\r\n ", "")
		assert.Equal(t, "SUMMARY:"+ToText(value), unfolded)
	}
}

func TestPropertyNoFoldingByDefault(t *testing.T) {
	b := &strings.Builder{}
	value := strings.Repeat("a", 200)
	require.NoError(t, NewProperty(PropertySummary, value).serialize(b, defaultSerializationOptions()))
	assert.Equal(t, "SUMMARY:"+value+"\r\n", b.String())
}

func TestTextEscapingRoundTrip(t *testing.T) {
	for _, s := range []string{"", "plain", `a\b`, "a,b;c", "line1\nline2", `\n literal`} {
		assert.Equal(t, s, FromText(ToText(s)), s)
	}
	assert.Equal(t, "a\nb", FromText(`a\Nb`))
}
