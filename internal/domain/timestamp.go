package domain

// Timestamp is the opaque creation-time marker carried on a ledger row: a
// seconds value plus a sub-second component, mirroring how the document
// store serializes record creation times.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanoseconds"`
}

// RepairTimestamp reconstructs a row's CreatedAt after a merge with an
// oracle patch. The patch value wins when it is usable, with missing
// numeric sub-fields defaulted to zero; an irreparable patch falls back to
// the original; when the original is also absent the result is explicitly
// absent (nil).
//
// patch is the raw value taken from the untyped oracle response so that
// "field omitted", "explicit null" and "malformed object" can be told
// apart.
func RepairTimestamp(patch any, patchPresent bool, original *Timestamp) *Timestamp {
	if !patchPresent {
		// Patch omitted the field entirely: restore from the original.
		return cloneTimestamp(original)
	}
	if patch == nil {
		return cloneTimestamp(original)
	}

	obj, ok := patch.(map[string]any)
	if !ok {
		return cloneTimestamp(original)
	}

	secs, secsOK := timestampField(obj, "seconds")
	nanos, nanosOK := timestampField(obj, "nanoseconds")
	if !secsOK && !nanosOK {
		return cloneTimestamp(original)
	}
	// One sub-field present, the other absent: the missing one defaults
	// to zero rather than discarding the whole value.
	return &Timestamp{Seconds: secs, Nanos: nanos}
}

func timestampField(obj map[string]any, key string) (int64, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func cloneTimestamp(ts *Timestamp) *Timestamp {
	if ts == nil {
		return nil
	}
	out := *ts
	return &out
}
