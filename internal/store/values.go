package store

import (
	"fmt"
	"strconv"
	"time"
)

// Accessors below read loosely typed document fields. Each backend returns
// slightly different concrete types (JSONB numbers decode as float64,
// Postgres times come back as strings), so reads are tolerant.

func stringField(doc Document, key string) string {
	switch v := doc[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func boolField(doc Document, key string) bool {
	v, _ := doc[key].(bool)
	return v
}

func intField(doc Document, key string) int {
	n, _ := toFloat(doc[key])
	return int(n)
}

func timeField(doc Document, key string) (time.Time, bool) {
	switch v := doc[key].(type) {
	case time.Time:
		return v, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

func timePtrField(doc Document, key string) *time.Time {
	t, ok := timeField(doc, key)
	if !ok {
		return nil
	}
	return &t
}
