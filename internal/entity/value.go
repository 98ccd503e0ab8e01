package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueType is the discriminant stored next to every feature value payload.
type ValueType string

const (
	ValueTypeString  ValueType = "string"
	ValueTypeInteger ValueType = "integer"
	ValueTypeFloat   ValueType = "float"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeObject  ValueType = "object"
	ValueTypeArray   ValueType = "array"
)

func (t ValueType) Valid() bool {
	switch t {
	case ValueTypeString, ValueTypeInteger, ValueTypeFloat, ValueTypeBoolean, ValueTypeObject, ValueTypeArray:
		return true
	}
	return false
}

var (
	ErrValueMissing      = errors.New("value is required")
	ErrValueTypeUnknown  = errors.New("unknown value_type")
	ErrValueTypeMismatch = errors.New("value does not match value_type")
)

// Value is a JSON payload tagged with its type. Raw always holds compact JSON.
type Value struct {
	Type ValueType
	Raw  json.RawMessage
}

// ParseValue decodes raw JSON into a Value. When declared is empty the type is
// inferred from the payload; numbers without fraction or exponent are integers.
// An integer payload declared as float is accepted as float.
func ParseValue(raw json.RawMessage, declared ValueType) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Value{}, ErrValueMissing
	}
	if declared != "" && !declared.Valid() {
		return Value{}, fmt.Errorf("%w: %q", ErrValueTypeUnknown, declared)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var decoded interface{}
	if err := dec.Decode(&decoded); err != nil {
		return Value{}, fmt.Errorf("invalid value: %w", err)
	}

	inferred, err := inferType(decoded)
	if err != nil {
		return Value{}, err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return Value{}, fmt.Errorf("invalid value: %w", err)
	}

	v := Value{Type: inferred, Raw: json.RawMessage(compact.Bytes())}
	if declared == "" || declared == inferred {
		return v, nil
	}
	if declared == ValueTypeFloat && inferred == ValueTypeInteger {
		v.Type = ValueTypeFloat
		return v, nil
	}
	return Value{}, fmt.Errorf("%w: got %s, declared %s", ErrValueTypeMismatch, inferred, declared)
}

func inferType(decoded interface{}) (ValueType, error) {
	switch v := decoded.(type) {
	case string:
		return ValueTypeString, nil
	case bool:
		return ValueTypeBoolean, nil
	case json.Number:
		if strings.ContainsAny(v.String(), ".eE") {
			return ValueTypeFloat, nil
		}
		if _, err := v.Int64(); err != nil {
			return ValueTypeFloat, nil
		}
		return ValueTypeInteger, nil
	case map[string]interface{}:
		return ValueTypeObject, nil
	case []interface{}:
		return ValueTypeArray, nil
	case nil:
		return "", ErrValueMissing
	}
	return "", fmt.Errorf("unsupported value %T", decoded)
}

func (v Value) IsZero() bool {
	return len(v.Raw) == 0
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	return v.Raw, nil
}

// Float coerces the value to float64 the way a lenient numeric cast would:
// numbers, booleans and numeric strings succeed; objects and arrays do not.
func (v Value) Float() (float64, bool) {
	switch v.Type {
	case ValueTypeInteger, ValueTypeFloat:
		f, err := strconv.ParseFloat(string(v.Raw), 64)
		return f, err == nil
	case ValueTypeBoolean:
		if string(v.Raw) == "true" {
			return 1, true
		}
		return 0, true
	case ValueTypeString:
		var s string
		if err := json.Unmarshal(v.Raw, &s); err != nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// AsString returns the decoded payload for string values.
func (v Value) AsString() (string, bool) {
	if v.Type != ValueTypeString {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v.Raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// NormalizeTimestamp maps t to the representation used for storage and
// uniqueness: UTC with microsecond precision.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
