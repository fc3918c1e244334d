// Package seed implements the recovered runtime model of a recording: a
// Seed (one request/response round), a SeedSequence (an ordered run of
// seeds plus inter-call value dependencies), and the on-disk codec for
// both (spec.md §3, §4.3).
package seed

import (
	"fmt"

	"github.com/hexhive/teezz-fuzz/pkg/call"
)

// ValueDependency is a directed edge asserting that SrcSz bytes of an
// earlier call's output parameter must be copied into a later call's input
// parameter for the later call to execute meaningfully (spec.md §3).
//
// Invariant V1: SrcSz == DstSz (enforced at construction by NewValueDependency).
// Invariant V2: SrcDumpID < DstDumpID.
type ValueDependency struct {
	SrcDumpID, DstDumpID int
	SrcParam, DstParam   int
	SrcOff, DstOff       int
	SrcSz, DstSz         int
}

// NewValueDependency validates V1/V2 before returning a dependency; callers
// that violate these are programmer errors (spec.md §7) and should log and
// skip rather than insert an invalid edge.
func NewValueDependency(srcDumpID, dstDumpID, srcParam, dstParam, srcOff, dstOff, size int) (ValueDependency, error) {
	if srcDumpID >= dstDumpID {
		return ValueDependency{}, fmt.Errorf("seed: value dependency violates V2: src dump_id %d >= dst dump_id %d", srcDumpID, dstDumpID)
	}
	if size <= 0 {
		return ValueDependency{}, fmt.Errorf("seed: value dependency has non-positive size %d", size)
	}
	return ValueDependency{
		SrcDumpID: srcDumpID, DstDumpID: dstDumpID,
		SrcParam: srcParam, DstParam: dstParam,
		SrcOff: srcOff, DstOff: dstOff,
		SrcSz: size, DstSz: size,
	}, nil
}

// overlapsDst reports whether a and b target the same destination
// parameter and their destination byte ranges overlap.
func (vd ValueDependency) overlapsDst(o ValueDependency) bool {
	if vd.DstParam != o.DstParam {
		return false
	}
	aEnd, bEnd := vd.DstOff+vd.DstSz, o.DstOff+o.DstSz
	return vd.DstOff < bEnd && o.DstOff < aEnd
}

// IoctlCall is the dependency-graph metadata for one call in a sequence.
type IoctlCall struct {
	DumpID       int
	IsDumpBacked bool
	Deps         []ValueDependency
}

// NewIoctlCall constructs a dump-backed IoctlCall.
func NewIoctlCall(dumpID int) *IoctlCall {
	return &IoctlCall{DumpID: dumpID, IsDumpBacked: true}
}

// AddValueDependency inserts vd, deduplicating by destination-range overlap:
// an overlapping existing dependency is replaced only if vd's destination
// size is strictly larger; on a tie the first-inserted dependency is kept
// (spec.md §3, Scenario D).
func (c *IoctlCall) AddValueDependency(vd ValueDependency) {
	for i, existing := range c.Deps {
		if vd.overlapsDst(existing) {
			if vd.DstSz > existing.DstSz {
				c.Deps[i] = vd
			}
			return
		}
	}
	c.Deps = append(c.Deps, vd)
}

// RemoveValueDependency removes the first dependency equal to vd, if any.
func (c *IoctlCall) RemoveValueDependency(vd ValueDependency) bool {
	for i, existing := range c.Deps {
		if existing == vd {
			c.Deps = append(c.Deps[:i], c.Deps[i+1:]...)
			return true
		}
	}
	return false
}

// Sequence is an ordered list of IoctlCall with unique dump_ids preserved
// in insertion order (IoctlCallSequence in spec.md §3).
type Sequence struct {
	Calls []*IoctlCall
}

// NewSequence returns an empty call-dependency sequence.
func NewSequence() *Sequence { return &Sequence{} }

// Append adds c to the end of the sequence.
func (s *Sequence) Append(c *IoctlCall) { s.Calls = append(s.Calls, c) }

// GetElemByDumpID returns the call with the given dump id, if present.
func (s *Sequence) GetElemByDumpID(dumpID int) (*IoctlCall, bool) {
	for _, c := range s.Calls {
		if c.DumpID == dumpID {
			return c, true
		}
	}
	return nil, false
}

// RemoveValueDependency removes the first matching dependency across every
// call in the sequence (first match wins).
func (s *Sequence) RemoveValueDependency(vd ValueDependency) bool {
	for _, c := range s.Calls {
		if c.RemoveValueDependency(vd) {
			return true
		}
	}
	return false
}

// AllDependencies collects every dependency across every call, in call
// order.
func (s *Sequence) AllDependencies() []ValueDependency {
	var out []ValueDependency
	for _, c := range s.Calls {
		out = append(out, c.Deps...)
	}
	return out
}

// Len returns the number of calls in the sequence.
func (s *Sequence) Len() int { return len(s.Calls) }

// toCallDep projects a graph-level ValueDependency onto the call package's
// in-call parameter-copy representation.
func toCallDep(vd ValueDependency) call.ValueDependency {
	return call.ValueDependency{
		SrcParam: vd.SrcParam, DstParam: vd.DstParam,
		SrcOff: vd.SrcOff, DstOff: vd.DstOff,
		Size: vd.SrcSz,
	}
}
