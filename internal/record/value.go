package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the scalar type of a Value.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
)

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindString, KindNumber, KindBool:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown kind %q: must be string, number or bool", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler, so stored schemas
// only ever hold known kinds.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value is a sealed interface over the scalar field types.
// Only String, Number and Bool implement it.
type Value interface {
	Kind() Kind
	fmt.Stringer
	value() // Sealed
}

// String is a text value.
type String string

func (String) value()           {}
func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Number is a numeric value. Integers and decimals share one kind so that
// 25 and 25.0 compare equal, as they do in the data files.
type Number float64

func (Number) value()           {}
func (Number) Kind() Kind       { return KindNumber }
func (n Number) String() string { return FormatNumber(float64(n)) }

// Bool is a boolean value.
type Bool bool

func (Bool) value()           {}
func (Bool) Kind() Kind       { return KindBool }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// MarshalJSON implements json.Marshaler for Number.
// NaN and infinities have no JSON form and are rejected.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("number %v has no JSON representation", f)
	}
	return []byte(FormatNumber(f)), nil
}

// FormatNumber renders f in its shortest round-tripping decimal form,
// without an exponent for magnitudes below 1e21.
func FormatNumber(f float64) string {
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ErrNonFinite is returned for NaN and infinite numbers, which neither
// canonical JSON nor SQLite can hold.
var ErrNonFinite = errors.New("number is not finite")

// finite returns Number(f), or ErrNonFinite for NaN and ±Inf.
func finite(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrNonFinite, f)
	}
	return Number(f), nil
}

// FromNative converts a decoded YAML or JSON scalar into a Value.
// NaN and infinities are rejected with ErrNonFinite.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a valid field value")
	case Number:
		return finite(float64(val))
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float64:
		return finite(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return finite(f)
	case []any:
		return nil, fmt.Errorf("arrays are not valid field values")
	case map[string]any:
		return nil, fmt.Errorf("nested objects are not valid field values")
	default:
		return nil, fmt.Errorf("unsupported field value type %T", v)
	}
}

// Native converts a Value into its plain Go form (string, float64, bool).
func Native(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Number:
		return float64(val)
	case Bool:
		return bool(val)
	default:
		return nil
	}
}

// Parse converts command-line text into a Value of the given kind.
func Parse(kind Kind, text string) (Value, error) {
	switch kind {
	case KindString:
		return String(text), nil
	case KindNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", text)
		}
		return finite(f)
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("%q is not a bool", text)
		}
		return Bool(b), nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

// Guess infers a Value from text when no column kind is known:
// true/false become Bool, finite numeric text becomes Number, anything else
// String.
func Guess(text string) Value {
	if text == "true" || text == "false" {
		return Bool(text == "true")
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		if v, err := finite(f); err == nil {
			return v
		}
	}
	return String(text)
}
