package recovery

import (
	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
)

// FromSeedSequence builds the Interaction list Typify/Run expect directly
// from a loaded SeedSequence's memref parameter buffers, so the recovery
// pipeline can run against an on-disk campaign recording without a
// separate raw-dump format.
func FromSeedSequence(seq *seed.SeedSequence) []*Interaction {
	out := make([]*Interaction, len(seq.Seeds))
	for i, s := range seq.Seeds {
		out[i] = &Interaction{
			Ordinal: i,
			Req:     memrefBuffers(s.Input),
			Resp:    memrefBuffers(s.Output),
		}
	}
	return out
}

func memrefBuffers(c call.Call) []ParamBuffer {
	if c == nil {
		return nil
	}
	var out []ParamBuffer
	for _, p := range c.Params() {
		if p.Kind.IsMemref() {
			out = append(out, ParamBuffer{Data: p.Buf})
		}
	}
	return out
}
