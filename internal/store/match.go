package store

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Match reports whether doc satisfies every condition in f.
func (f Filter) Match(doc Document) bool {
	for _, cond := range f {
		if !cond.match(doc) {
			return false
		}
	}
	return true
}

func (c Condition) match(doc Document) bool {
	value, present := doc[c.Field]
	switch c.Op {
	case OpEq:
		return present && valuesEqual(value, c.Value)
	case OpNe:
		return !present || !valuesEqual(value, c.Value)
	case OpGte:
		left, ok := toFloat(value)
		if !ok {
			return false
		}
		right, ok := toFloat(c.Value)
		return ok && left >= right
	case OpEqFold:
		s, ok := value.(string)
		return ok && strings.EqualFold(s, fmt.Sprint(c.Value))
	case OpContainsFold:
		s, ok := value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(c.Value)))
	default:
		return false
	}
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// compareValues orders two field values for sorting. Missing values sort first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// cloneDocument deep-copies maps and slices so callers never share state
// with a backend.
func cloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = cloneValue(item)
		}
		return out
	case Document:
		return map[string]any(cloneDocument(typed))
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
