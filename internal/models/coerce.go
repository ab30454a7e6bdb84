package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a monetary value that historically arrives either as a JSON number
// or as a currency-formatted string such as "$1,000,000". Unparseable or absent
// values coerce to 0, which downstream checks treat as "no valid amount".
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*a = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = Amount(clampNonNegative(n))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amount(ParseAmountString(s))
		return nil
	}

	return fmt.Errorf("amount must be a number or string, got %s", trimmed)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(a))
}

func (a Amount) Value() float64 {
	return float64(a)
}

// ParseAmountString strips currency formatting ("$", ",", spaces) and parses
// the remainder as a float. Anything unparseable coerces to 0.
func ParseAmountString(s string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return clampNonNegative(n)
}

func clampNonNegative(n float64) float64 {
	if n < 0 || n != n { // negative or NaN
		return 0
	}
	return n
}

// FlexNumber accepts a JSON number or a numeric string. Non-numeric strings and
// null coerce to 0 rather than failing the decode; the stricter validation
// worker rejects those payloads before they reach the engine.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexNumber(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexNumber(n)
		return nil
	}

	return fmt.Errorf("expected a number or numeric string, got %s", trimmed)
}

func (f FlexNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

func (f FlexNumber) Value() float64 {
	return float64(f)
}

// Subcategory normalizes the two historical shapes of a property subcategory:
// a plain "category:subkey" string, or an object carrying value/name fields.
// Either way the comparable form is a single lowercase key.
type Subcategory struct {
	key string
}

// NewSubcategory builds a Subcategory from an already-flat key. Mostly for tests
// and callers constructing loans in code rather than from JSON.
func NewSubcategory(key string) Subcategory {
	return Subcategory{key: strings.ToLower(strings.TrimSpace(key))}
}

func (s *Subcategory) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		s.key = ""
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.key = strings.ToLower(strings.TrimSpace(str))
		return nil
	}

	var obj struct {
		Value string `json:"value"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		switch {
		case obj.Value != "":
			s.key = strings.ToLower(strings.TrimSpace(obj.Value))
		case obj.Name != "":
			s.key = strings.ToLower(strings.TrimSpace(obj.Name))
		default:
			s.key = ""
		}
		return nil
	}

	return fmt.Errorf("subcategory must be a string or object, got %s", trimmed)
}

func (s Subcategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.key)
}

// Key returns the normalized lowercase "category:subkey" form, or "" when the
// loan carried no subcategory.
func (s Subcategory) Key() string {
	return s.key
}
