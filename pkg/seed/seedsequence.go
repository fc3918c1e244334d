package seed

import "fmt"

// Warner receives non-fatal diagnostics during iteration (a dangling or
// unresolved dependency). pkg/reporting.Logger satisfies this interface.
type Warner interface {
	Warn(msg string, fields ...interface{})
}

type nopWarner struct{}

func (nopWarner) Warn(string, ...interface{}) {}

// Sequence of Seeds plus an optional dependency graph (spec.md §3).
//
// Invariant S1: len(Seeds) == Deps.Len() when Deps is non-nil.
type SeedSequence struct {
	Seeds []*Seed
	Deps  *Sequence
}

// Validate checks invariant S1.
func (s *SeedSequence) Validate() error {
	if s.Deps != nil && len(s.Seeds) != s.Deps.Len() {
		return fmt.Errorf("seed: S1 violated: %d seeds but %d dependency-graph entries", len(s.Seeds), s.Deps.Len())
	}
	return nil
}

// Len returns the number of seeds in the sequence.
func (s *SeedSequence) Len() int { return len(s.Seeds) }

// Clone returns a deep copy of the sequence, used by the mutation engine
// before editing a population member in place.
func (s *SeedSequence) Clone() *SeedSequence {
	out := &SeedSequence{Seeds: make([]*Seed, len(s.Seeds))}
	for i, sd := range s.Seeds {
		out.Seeds[i] = sd.Clone()
	}
	if s.Deps != nil {
		out.Deps = &Sequence{Calls: make([]*IoctlCall, len(s.Deps.Calls))}
		for i, c := range s.Deps.Calls {
			clone := *c
			clone.Deps = append([]ValueDependency(nil), c.Deps...)
			out.Deps.Calls[i] = &clone
		}
	}
	return out
}

// Iterator walks a SeedSequence in order, resolving pending value
// dependencies for the seed about to be returned by copying bytes from
// the outputs of already-produced seeds (spec.md §4.3 iteration contract).
type Iterator struct {
	seq    *SeedSequence
	idx    int
	warner Warner
}

// NewIterator returns an iterator over seq. warner may be nil.
func NewIterator(seq *SeedSequence, warner Warner) *Iterator {
	if warner == nil {
		warner = nopWarner{}
	}
	return &Iterator{seq: seq, warner: warner}
}

// Next returns the next seed with its pending dependencies resolved, or
// (nil, false) once the sequence is exhausted.
func (it *Iterator) Next() (*Seed, bool) {
	if it.idx >= len(it.seq.Seeds) {
		return nil, false
	}
	s := it.seq.Seeds[it.idx]
	it.resolve(it.idx, s)
	it.idx++
	return s, true
}

func (it *Iterator) resolve(idx int, s *Seed) {
	if it.seq.Deps == nil || idx >= len(it.seq.Deps.Calls) {
		return
	}
	dstCall := it.seq.Deps.Calls[idx]
	for _, vd := range dstCall.Deps {
		srcIdx := it.indexOfDumpID(vd.SrcDumpID)
		if srcIdx < 0 || srcIdx >= idx {
			it.warner.Warn("value dependency dangles: source not yet produced", "src_dump_id", vd.SrcDumpID, "dst_dump_id", vd.DstDumpID)
			continue
		}
		srcSeed := it.seq.Seeds[srcIdx]
		if srcSeed.Output == nil || !srcSeed.Output.IsSuccess() {
			it.warner.Warn("value dependency skipped: source call was not a success", "src_dump_id", vd.SrcDumpID)
			continue
		}
		if err := srcSeed.Output.Resolve(s.Input, toCallDep(vd)); err != nil {
			it.warner.Warn("value dependency resolution failed", "error", err)
		}
	}
}

func (it *Iterator) indexOfDumpID(dumpID int) int {
	for i, c := range it.seq.Deps.Calls {
		if c.DumpID == dumpID {
			return i
		}
	}
	return -1
}
