package threshold

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	dErrors "fleetworks/pkg/domain-errors"
)

// DateLayout is the canonical calendar-date encoding used everywhere a typed
// value is stored or exchanged.
const DateLayout = "2006-01-02"

// Value is the tagged union over the four persisted value kinds. Exactly one
// payload field is meaningful, selected by Type.
type Value struct {
	Type    ValueType
	Date    time.Time
	Mileage int64
	Bool    bool
	Text    string
}

// DateValue wraps a calendar date.
func DateValue(d time.Time) Value {
	return Value{Type: ValueDate, Date: truncateToDay(d)}
}

// MileageValue wraps an absolute odometer or hour-meter figure.
func MileageValue(v int64) Value { return Value{Type: ValueMileage, Mileage: v} }

// BoolValue wraps a boolean flag.
func BoolValue(b bool) Value { return Value{Type: ValueBoolean, Bool: b} }

// TextValue wraps free text.
func TextValue(s string) Value { return Value{Type: ValueText, Text: s} }

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return v.Type == "" }

// String returns the canonical storage encoding.
func (v Value) String() string {
	switch v.Type {
	case ValueDate:
		return v.Date.Format(DateLayout)
	case ValueMileage:
		return strconv.FormatInt(v.Mileage, 10)
	case ValueBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

type valueJSON struct {
	Type  ValueType `json:"type"`
	Value string    `json:"value"`
}

// MarshalJSON renders the canonical string form instead of the raw union.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(valueJSON{Type: v.Type, Value: v.String()})
}

// UnmarshalJSON reverses MarshalJSON through the typed parser.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseValue(raw.Type, raw.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// parsers is the dispatch table keyed by value type. Adding a fifth kind is
// one entry here plus its constant.
var parsers = map[ValueType]func(raw string) (Value, error){
	ValueDate:    parseDate,
	ValueMileage: parseMileage,
	ValueBoolean: parseBool,
	ValueText:    parseText,
}

// ParseValue converts a raw string into a typed value, rejecting rather than
// clamping anything malformed.
func ParseValue(t ValueType, raw string) (Value, error) {
	parse, ok := parsers[t]
	if !ok {
		return Value{}, dErrors.New(dErrors.CodeInvalidInput, "unknown value type: "+string(t))
	}
	return parse(strings.TrimSpace(raw))
}

func parseDate(raw string) (Value, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return Value{}, dErrors.New(dErrors.CodeInvalidInput, "not a valid calendar date: "+raw)
	}
	return DateValue(d), nil
}

// parseMileage accepts positive integers only. Zero and negative readings are
// rejected outright, never clamped.
func parseMileage(raw string) (Value, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Value{}, dErrors.New(dErrors.CodeInvalidInput, "not an integer mileage: "+raw)
	}
	if n <= 0 {
		return Value{}, dErrors.New(dErrors.CodeInvalidInput, "mileage must be positive")
	}
	return MileageValue(n), nil
}

// parseBool accepts the literals true and false only, typed or string.
func parseBool(raw string) (Value, error) {
	switch raw {
	case "true":
		return BoolValue(true), nil
	case "false":
		return BoolValue(false), nil
	default:
		return Value{}, dErrors.New(dErrors.CodeInvalidInput, "not a boolean literal: "+raw)
	}
}

func parseText(raw string) (Value, error) {
	return TextValue(raw), nil
}
