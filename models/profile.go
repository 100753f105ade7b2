package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Measure is a body measurement. It decodes from a JSON number or a numeric
// string, since the web form posts its inputs as strings. An empty string
// clears the value.
type Measure float64

func (m *Measure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*m = 0
			return nil
		}
	} else {
		raw = string(data)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", raw)
	}
	*m = Measure(f)
	return nil
}

// IsProfileComplete reports whether every required personal-info field is
// filled in. A height or weight of exactly 0 counts as missing.
func IsProfileComplete(u *User) bool {
	if u == nil {
		return false
	}
	return u.FullName != "" &&
		u.Height != 0 &&
		u.Weight != 0 &&
		u.ContactNumber != "" &&
		u.Location != "" &&
		u.TrainingExperience != ""
}
