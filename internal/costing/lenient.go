package costing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseAmount reads a numeric form value. Anything that is not a finite
// number reads as 0.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

// Number is a float that decodes from a JSON number, a numeric string or
// null. Anything else decodes as 0 instead of failing.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(number(data))
	return nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func object(raw []byte) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func list(raw []byte) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func number(raw []byte) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseAmount(s)
	}
	return 0
}

func text(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
