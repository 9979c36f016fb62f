// Package identitykey encodes a row's primary-key values into the string
// key bulk copy and drain replay use to look up id mappings. Nothing in
// automigrate.go/migration.go moves row data, so this is built fresh,
// factored out of internal/bulkcopy and internal/drain so both use the
// identical encoding.
package identitykey

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Encode concatenates the per-prefix encoding of each value with "|",
// doubling any "|" inside a string value to keep the encoding injective.
func Encode(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = encodeOne(v)
	}
	return strings.Join(parts, "|")
}

func encodeOne(v any) string {
	switch t := v.(type) {
	case nil:
		return "v:"
	case int64:
		return "i:" + strconv.FormatInt(t, 10)
	case int:
		return "i:" + strconv.Itoa(t)
	case float64:
		return "r:" + strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return "s:" + escape(t)
	case []byte:
		return "s:" + escape(string(t))
	case bool:
		if t {
			return "i:1"
		}
		return "i:0"
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil {
			return "v:"
		}
		return encodeOne(dv)
	default:
		return "v:" + escape(fmt.Sprint(t))
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "||")
}
