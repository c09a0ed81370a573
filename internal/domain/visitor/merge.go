package visitor

import (
	"time"
)

// DefaultMaxMergeDepth bounds recursion into nested attribute maps. Session
// records are shallow trees in practice; the bound guards against
// pathological input, not expected data.
const DefaultMaxMergeDepth = 32

// MergeOptions controls per-field merge behavior.
type MergeOptions struct {
	// FreshnessFields are attribute names merged as "most recent timestamp
	// wins" instead of the conservative "existing wins" default.
	FreshnessFields []string
	// MaxDepth bounds recursion into nested maps. Zero means DefaultMaxMergeDepth.
	MaxDepth int
}

// DefaultMergeOptions returns the merge options used by the session sync path.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		FreshnessFields: []string{"lastSeen", "lastActivityAt"},
		MaxDepth:        DefaultMaxMergeDepth,
	}
}

func (o MergeOptions) isFreshness(field string) bool {
	for _, f := range o.FreshnessFields {
		if f == field {
			return true
		}
	}
	return false
}

// Merge combines an incoming session fragment into the existing record and
// returns a new record. Neither input is mutated.
//
// Rules, per field present in incoming:
//   - empty incoming values are skipped; existing data is never regressed
//   - empty existing values adopt the incoming value
//   - freshness fields keep the chronologically later timestamp; if either
//     side fails to parse, the existing value is kept
//   - two lists merge as a set union preserving existing order
//   - two maps merge recursively with the same rules
//   - any other conflict keeps the existing value (conservative default)
//
// Merge is idempotent, and commutative for fragments touching disjoint fields.
func Merge(existing, incoming Record, opts MergeOptions) Record {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxMergeDepth
	}
	if incoming.IsEmpty() {
		return existing.Clone()
	}
	if existing.IsEmpty() {
		return incoming.Clone()
	}
	return mergeMaps(existing, incoming, opts, 0)
}

func mergeMaps(existing, incoming Record, opts MergeOptions, depth int) Record {
	out := existing.Clone()
	if depth >= opts.MaxDepth {
		return out
	}

	for field, incomingValue := range incoming {
		if isEmptyValue(incomingValue) {
			continue
		}
		existingValue, present := out[field]
		if !present || isEmptyValue(existingValue) {
			out[field] = cloneValue(incomingValue)
			continue
		}

		switch {
		case opts.isFreshness(field):
			out[field] = mergeFreshness(existingValue, incomingValue)
		case isList(existingValue) && isList(incomingValue):
			out[field] = unionLists(existingValue.([]any), incomingValue.([]any))
		default:
			em, eok := asMap(existingValue)
			im, iok := asMap(incomingValue)
			if eok && iok {
				out[field] = map[string]any(mergeMaps(em, im, opts, depth+1))
			}
			// Conflicting non-empty scalars keep the existing value.
		}
	}
	return out
}

// mergeFreshness keeps whichever timestamp is chronologically later. An
// unparseable value on either side keeps the existing one.
func mergeFreshness(existingValue, incomingValue any) any {
	existingTime, ok := parseTimestamp(existingValue)
	if !ok {
		return existingValue
	}
	incomingTime, ok := parseTimestamp(incomingValue)
	if !ok {
		return existingValue
	}
	if incomingTime.After(existingTime) {
		return incomingValue
	}
	return existingValue
}

// unionLists keeps the existing list order and appends incoming elements not
// already present, by value equality.
func unionLists(existing, incoming []any) []any {
	out := make([]any, 0, len(existing)+len(incoming))
	for _, v := range existing {
		out = append(out, cloneValue(v))
	}
	for _, v := range incoming {
		if !containsValue(out, v) {
			out = append(out, cloneValue(v))
		}
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, ev := range list {
		if valueEqual(ev, v) {
			return true
		}
	}
	return false
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}

// timestampLayouts are tried in order when a freshness value is a string.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp interprets a freshness value as a point in time. Strings are
// parsed against common layouts; numbers are epoch seconds, or epoch
// milliseconds when too large to be seconds.
func parseTimestamp(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, tv); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case float64:
		return epochToTime(int64(tv)), true
	case int64:
		return epochToTime(tv), true
	case int:
		return epochToTime(int64(tv)), true
	default:
		return time.Time{}, false
	}
}

func epochToTime(n int64) time.Time {
	// Values past the year 33658 in seconds are epoch milliseconds.
	if n > 1e12 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}
