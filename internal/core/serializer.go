// internal/core/serializer.go
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Annany2002/nebula-query-gateway/internal/domain"
)

// DateTimeLayout is the wire format for date and date-time values.
const DateTimeLayout = "2006-01-02 15:04:05"

// FormatDuration renders d as HH:MM:SS from its whole seconds. Hours are not
// wrapped at 24 and fractional seconds are dropped.
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, secs/3600, (secs%3600)/60, secs%60)
}

// FormatValue converts one driver value into its JSON-ready form.
func FormatValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x, nil
	case time.Time:
		return x.Format(DateTimeLayout), nil
	case time.Duration:
		return FormatDuration(x), nil
	case []byte:
		return string(x), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// SerializeResult encodes a query result as UTF-8 JSON without escaping
// non-ASCII or HTML characters. Row sets become an array of objects keeping
// column order; write results become {"rowsAffected": n}.
func SerializeResult(result domain.QueryResult) ([]byte, error) {
	var buf bytes.Buffer

	if !result.IsRowSet {
		buf.WriteString(`{"rowsAffected":`)
		buf.WriteString(strconv.FormatInt(result.RowsAffected, 10))
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}

	buf.WriteByte('[')
	for i, row := range result.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeRow(&buf, row); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, row domain.Row) error {
	buf.WriteByte('{')
	for i, col := range row.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeJSON(buf, col); err != nil {
			return err
		}
		buf.WriteByte(':')

		formatted, err := FormatValue(row.Values[i])
		if err != nil {
			return fmt.Errorf("column '%s': %w", col, err)
		}
		if err := encodeJSON(buf, formatted); err != nil {
			return fmt.Errorf("column '%s': %w: %v", col, ErrUnsupportedValue, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeJSON(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
