// internal/storage/values.go
package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dateTextLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// baseTypeName strips any length or precision suffix, e.g. DECIMAL(10,2).
func baseTypeName(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// convertValue maps a scanned driver value to a domain value using the
// column's database type: TIME becomes time.Duration, date types become
// time.Time (zero dates become nil), DECIMAL becomes json.Number and any
// other []byte becomes a string.
func convertValue(dbType string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch baseTypeName(dbType) {
	case "TIME":
		switch x := v.(type) {
		case []byte:
			return ParseMySQLTime(string(x))
		case string:
			return ParseMySQLTime(x)
		}
	case "DATE", "DATETIME", "TIMESTAMP":
		switch x := v.(type) {
		case time.Time:
			if x.IsZero() {
				return nil, nil
			}
			return x, nil
		case []byte:
			return parseDateText(string(x)), nil
		case string:
			return parseDateText(x), nil
		}
	case "DECIMAL", "NUMERIC", "NEWDECIMAL":
		switch x := v.(type) {
		case []byte:
			return decimalValue(string(x)), nil
		case string:
			return decimalValue(x), nil
		}
	}

	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

// ParseMySQLTime parses a TIME column value such as "838:59:59",
// "-01:30:00" or "12:00:00.250000".
func ParseMySQLTime(s string) (time.Duration, error) {
	raw := strings.TrimSpace(s)
	neg := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid TIME value %q", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid TIME hours in %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid TIME minutes in %q", s)
	}

	secPart, fracPart, _ := strings.Cut(parts[2], ".")
	seconds, err := strconv.Atoi(secPart)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid TIME seconds in %q", s)
	}

	var nanos int
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		nanos, err = strconv.Atoi(fracPart + strings.Repeat("0", 9-len(fracPart)))
		if err != nil {
			return 0, fmt.Errorf("invalid TIME fraction in %q", s)
		}
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(nanos)
	if neg {
		d = -d
	}
	return d, nil
}

// parseDateText handles date columns read without driver-side time parsing.
// Unparseable text is returned unchanged.
func parseDateText(s string) any {
	if strings.HasPrefix(s, "0000-00-00") {
		return nil
	}
	for _, layout := range dateTextLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return s
}

func decimalValue(s string) any {
	if s != "" && (s[0] == '-' || (s[0] >= '0' && s[0] <= '9')) && json.Valid([]byte(s)) {
		return json.Number(s)
	}
	return s
}
