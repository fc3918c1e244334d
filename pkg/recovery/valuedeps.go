package recovery

import (
	"bytes"

	"github.com/hexhive/teezz-fuzz/pkg/seed"
	"github.com/hexhive/teezz-fuzz/pkg/seedtemplate"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// DefaultWindow is the default sliding-window width W (spec.md §4.2 Stage 5).
const DefaultWindow = 16

// DefaultExcludedTypes are platform-agnostic types never eligible as a
// value-dependency source: opaque size/offset fields. Platform-specific
// opaque enum/union names are not in this set; a caller that needs them
// passes a full replacement set as FindValueDeps' excluded argument (or
// Options.ExcludedTypes).
var DefaultExcludedTypes = map[string]bool{
	"off_t":  true,
	"size_t": true,
}

// candidateParam is one (ordinal, param index, template element) triple
// used while scanning for matches.
type candidateParam struct {
	ordinal  int
	paramIdx int
	buf      []byte
	elem     seedtemplate.Element
}

// FindValueDeps is Stage 5: for every ordered pair of interactions (i, j)
// with i < j and j - i <= window, match output parameter ranges of i
// against input parameter ranges of j and assemble the resulting
// IoctlCallSequence.
func FindValueDeps(interactions []*Interaction, window int, excluded map[string]bool) *seed.Sequence {
	if window <= 0 {
		window = DefaultWindow
	}
	if excluded == nil {
		excluded = DefaultExcludedTypes
	}

	seq := seed.NewSequence()
	callByOrdinal := make(map[int]*seed.IoctlCall)
	for _, it := range interactions {
		c := seed.NewIoctlCall(it.Ordinal)
		seq.Append(c)
		callByOrdinal[it.Ordinal] = c
	}

	for _, respIt := range interactions {
		for _, reqIt := range interactions {
			d := reqIt.Ordinal - respIt.Ordinal
			if d <= 0 || d > window {
				continue
			}
			matches := matchPair(respIt, reqIt, excluded)
			dst := callByOrdinal[reqIt.Ordinal]
			for _, m := range matches {
				vd, err := seed.NewValueDependency(respIt.Ordinal, reqIt.Ordinal, m.src.paramIdx, m.dst.paramIdx, m.src.elem.Start, m.dst.elem.Start, m.src.elem.Size())
				if err != nil {
					continue
				}
				dst.AddValueDependency(vd)
			}
		}
	}
	return seq
}

type match struct{ src, dst candidateParam }

// matchPair pairs every output parameter buffer of respIt against every
// input parameter buffer of reqIt, over the cross-product of their
// template elements.
func matchPair(respIt, reqIt *Interaction, excluded map[string]bool) []match {
	var srcCands, dstCands []candidateParam
	for pi, p := range respIt.Resp {
		if p.Template == nil {
			continue
		}
		for _, e := range p.Template.Elements() {
			srcCands = append(srcCands, candidateParam{ordinal: respIt.Ordinal, paramIdx: pi, buf: p.Data, elem: e})
		}
	}
	for pi, p := range reqIt.Req {
		if p.Template == nil {
			continue
		}
		for _, e := range p.Template.Elements() {
			dstCands = append(dstCands, candidateParam{ordinal: reqIt.Ordinal, paramIdx: pi, buf: p.Data, elem: e})
		}
	}

	var out []match
	for _, s := range srcCands {
		if excluded[s.elem.Type] {
			continue
		}
		srcRange := s.buf[s.elem.Start:s.elem.End]
		if wire.AllZero(srcRange) {
			continue
		}
		if len(srcRange) <= 2 && bytes.IndexByte(srcRange, 0) >= 0 {
			continue
		}
		for _, d := range dstCands {
			if d.elem.Size() != s.elem.Size() {
				continue
			}
			dstRange := d.buf[d.elem.Start:d.elem.End]
			if !bytes.Equal(srcRange, dstRange) {
				continue
			}
			out = append(out, match{src: s, dst: d})
		}
	}
	return out
}
