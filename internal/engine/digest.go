package engine

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/numcal-lab/numcal/internal/core/period"
)

// Change detection works on per-record content digests rather than deep
// value comparison: each sorted day record is fingerprinted once per call,
// and the previous run's digest array is compared position by position to
// find the first changed index. Digest equality is treated as record
// equality (64-bit xxhash; collisions are not a practical concern for a
// personal log).

var digestSep = []byte{0}

func digestRecord(rec period.DayRecord) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(rec.DateKey)
	_, _ = h.Write(digestSep)
	for _, n := range rec.Numbers {
		_, _ = h.WriteString(n.String())
		_, _ = h.Write(digestSep)
	}
	return h.Sum64()
}

func digestRecords(records []period.DayRecord) []uint64 {
	out := make([]uint64, len(records))
	for i, rec := range records {
		out[i] = digestRecord(rec)
	}
	return out
}

// firstChangedIndex compares two digest arrays and returns the earliest
// index at which they diverge. When one array is a strict prefix of the
// other (pure append or truncation), the changed index is the shorter
// length. Equal arrays report no change.
func firstChangedIndex(prev, next []uint64) (int, bool) {
	n := len(prev)
	if len(next) < n {
		n = len(next)
	}
	for i := 0; i < n; i++ {
		if prev[i] != next[i] {
			return i, true
		}
	}
	if len(prev) != len(next) {
		return n, true
	}
	return n, false
}

// sortRecords returns a copy of records ordered by date key. Callers may
// hand records in any order; date keys sort lexicographically in
// chronological order by construction.
func sortRecords(records []period.DayRecord) []period.DayRecord {
	sorted := make([]period.DayRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DateKey < sorted[j].DateKey })
	return sorted
}

// earliestChangedDayKey determines the day key that bounds this cycle's
// recomputation. Both the previous and the new record at the changed index
// matter: an edit, insertion, or removal affects the containers of
// whichever key is chronologically earlier.
func earliestChangedDayKey(prev, next []period.DayRecord, changed int) (string, bool) {
	key := ""
	found := false
	if changed < len(prev) {
		key = prev[changed].DateKey
		found = true
	}
	if changed < len(next) {
		if k := next[changed].DateKey; !found || k < key {
			key = k
		}
		found = true
	}
	return key, found
}
