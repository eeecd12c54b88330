package generate

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexInt accepts 12, 12.0, "12" or null
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	n, ok, err := parseFlexNumber(data)
	if err != nil || !ok {
		return err
	}
	f.Value, f.Set = int(n), true
	return nil
}

// flexFloat accepts 0.5, "0.5" or null
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	n, ok, err := parseFlexNumber(data)
	if err != nil || !ok {
		return err
	}
	f.Value, f.Set = n, true
	return nil
}

// parseFlexNumber reports ok=false for null or an empty string; other
// non-numeric strings are left unset rather than failing the whole object.
func parseFlexNumber(data []byte) (float64, bool, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return 0, false, nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, nil
		}
		return n, true, nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, false, err
	}
	return n, true, nil
}
