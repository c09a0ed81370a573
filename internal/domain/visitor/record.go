package visitor

import "reflect"

// Record is a flat-ish map of named session attributes as decoded from JSON.
// Values are the usual JSON shapes: string, float64, bool, []any, map[string]any.
type Record map[string]any

// IsEmpty reports whether the record carries no attributes
func (r Record) IsEmpty() bool {
	return len(r) == 0
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Equal reports whether two records hold the same attributes with the same values
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, iv := range tv {
			out[k] = cloneValue(iv)
		}
		return out
	case Record:
		return map[string]any(tv.Clone())
	case []any:
		out := make([]any, len(tv))
		for i, iv := range tv {
			out[i] = cloneValue(iv)
		}
		return out
	default:
		return v
	}
}

// valueEqual compares two attribute values by content. Records and plain maps
// compare equal when they hold the same entries.
func valueEqual(a, b any) bool {
	am, aok := asMap(a)
	bm, bok := asMap(b)
	if aok || bok {
		if !aok || !bok {
			return false
		}
		return Record(am).Equal(Record(bm))
	}
	return reflect.DeepEqual(a, b)
}

func asMap(v any) (map[string]any, bool) {
	switch tv := v.(type) {
	case map[string]any:
		return tv, true
	case Record:
		return tv, true
	default:
		return nil, false
	}
}

// isEmptyValue reports whether a value counts as absent for merge purposes.
// Zero numbers and false are real values, not absences.
func isEmptyValue(v any) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case string:
		return tv == ""
	case []any:
		return len(tv) == 0
	case map[string]any:
		return len(tv) == 0
	case Record:
		return len(tv) == 0
	default:
		return false
	}
}
