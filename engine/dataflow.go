package engine

import "github.com/arolang/aro/program"

// ReadWriteSet is the conservative per-statement footprint the executor's
// optional parallel-I/O mode (spec §4.3, open question in §9) needs to
// decide whether two adjacent statements may run concurrently: two
// statements may run in parallel iff neither's write set intersects the
// other's read or write set. The spec leaves the exact dependency-tracking
// rules unspecified and explicitly accepts a conservative analysis; this one
// treats the object's base name (plus any where-filter operand) as the read
// set and the result's base name as the write set, which is sound (may
// serialize more than strictly necessary) but never unsafely parallelizes.
type ReadWriteSet struct {
	Reads  map[string]bool
	Writes map[string]bool
}

// FootprintOf computes stmt's conservative read/write set.
func FootprintOf(stmt program.StatementDescriptor) ReadWriteSet {
	rw := ReadWriteSet{Reads: map[string]bool{}, Writes: map[string]bool{}}
	if stmt.Object.Base != "" {
		rw.Reads[stmt.Object.Base] = true
	}
	for _, s := range stmt.Object.Specifiers {
		rw.Reads[s] = true
	}
	if stmt.Result.Base != "" {
		rw.Writes[stmt.Result.Base] = true
	}
	return rw
}

// Independent reports whether a and b may run in parallel: neither's write
// set may intersect the other's read or write set.
func (a ReadWriteSet) Independent(b ReadWriteSet) bool {
	for w := range a.Writes {
		if b.Reads[w] || b.Writes[w] {
			return false
		}
	}
	for w := range b.Writes {
		if a.Reads[w] || a.Writes[w] {
			return false
		}
	}
	return true
}

// Window groups a maximal run of adjacent statements that are pairwise
// independent of every other statement already in the window. Observable
// side effects (Log, Broadcast, Return — identified by verb) are always
// serialized relative to everything else, preserving their as-written order
// per spec §4.3.
func Window(stmts []program.StatementDescriptor) [][]program.StatementDescriptor {
	var windows [][]program.StatementDescriptor
	var current []program.StatementDescriptor
	var currentFootprints []ReadWriteSet

	flush := func() {
		if len(current) > 0 {
			windows = append(windows, current)
			current = nil
			currentFootprints = nil
		}
	}

	for _, stmt := range stmts {
		if isObservable(stmt.Verb) {
			flush()
			windows = append(windows, []program.StatementDescriptor{stmt})
			continue
		}
		fp := FootprintOf(stmt)
		independentOfAll := true
		for _, existing := range currentFootprints {
			if !fp.Independent(existing) {
				independentOfAll = false
				break
			}
		}
		if !independentOfAll {
			flush()
		}
		current = append(current, stmt)
		currentFootprints = append(currentFootprints, fp)
	}
	flush()
	return windows
}

func isObservable(verb string) bool {
	switch verb {
	case "log", "print", "output", "debug", "throw", "broadcast", "return", "respond", "publish":
		return true
	default:
		return false
	}
}
