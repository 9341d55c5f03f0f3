package domain

import (
	"bytes"
	"fmt"
	"time"
)

// DateTimeLayout is the wire format for timestamps without a zone offset.
const DateTimeLayout = "2006-01-02T15:04:05"

// LocalDateTime is a time.Time that (un)marshals with DateTimeLayout and is
// interpreted in UTC.
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime wraps t, normalised to UTC.
func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t.UTC()}
}

// ParseLocalDateTime parses s using DateTimeLayout.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("invalid date-time %q, expected %s", s, DateTimeLayout)
	}
	return LocalDateTime{Time: t}, nil
}

// MarshalJSON implements json.Marshaler.
func (d LocalDateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.UTC().Format(DateTimeLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *LocalDateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = LocalDateTime{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date-time %s", data)
	}
	parsed, err := ParseLocalDateTime(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
