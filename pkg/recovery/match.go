package recovery

import (
	"bytes"
	"sort"

	"github.com/hexhive/teezz-fuzz/pkg/seedtemplate"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// Leaf is one typed value from a cross-recording ("high-level") reference
// trace of the same interaction.
type Leaf struct {
	Bytes []byte
	Type  string
}

// MatchHighLevel is Stage 2: for every leaf whose bytes appear exactly and
// entirely inside buf, tag the first occurrence with the leaf's type name.
// Candidates are applied biggest-first so the largest label claims each
// range; smaller overlapping matches are rejected by T2.
func MatchHighLevel(buf []byte, tmpl *seedtemplate.Template, leaves []Leaf) {
	candidates := make([]Leaf, 0, len(leaves))
	for _, l := range leaves {
		if len(l.Bytes) <= 1 || wire.AllZero(l.Bytes) {
			continue
		}
		candidates = append(candidates, l)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Bytes) > len(candidates[j].Bytes)
	})
	for _, l := range candidates {
		idx := bytes.Index(buf, l.Bytes)
		if idx < 0 {
			continue
		}
		_ = tmpl.AddElem(seedtemplate.Element{Start: idx, End: idx + len(l.Bytes), Type: l.Type})
	}
}
