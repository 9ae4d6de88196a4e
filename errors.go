package ics

import (
	"errors"
)

var (
	// ErrorPropertyNotFound is the error returned if the requested valid
	// property is not set.
	ErrorPropertyNotFound = errors.New("property not found")
	// ErrMalformedDateTime is returned when a property value is not one of
	// the RFC 5545 DATE or DATE-TIME forms.
	ErrMalformedDateTime          = errors.New("malformed date-time value")
	ErrPriorityOutOfRange         = errors.New("priority out of range")
	ErrPercentOutOfRange          = errors.New("percent complete out of range")
	ErrUnknownSerializationOption = errors.New("unknown serialization option")
	ErrUnknownComponentType       = errors.New("unknown component type")
)
