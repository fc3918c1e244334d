// Package recovery implements the offline format-recovery pipeline:
// typify, cross-recording match, size/offset inference, common-subsequence
// mining, and value-dependency mining (spec.md §4.2).
package recovery

import "github.com/hexhive/teezz-fuzz/pkg/seedtemplate"

// ParamBuffer is one recorded parameter buffer together with its (possibly
// already partially populated) recovered template.
type ParamBuffer struct {
	Data     []byte
	Template *seedtemplate.Template
}

// Interaction is one recorded (request, response) round — an ordinal plus
// the parameter buffers recovered on each side.
type Interaction struct {
	Ordinal int
	Req     []ParamBuffer
	Resp    []ParamBuffer
}

// Typify is Stage 1: ensure every parameter buffer in every interaction has
// a (possibly empty) Template.
func Typify(interactions []*Interaction) {
	for _, it := range interactions {
		typifySide(it.Req)
		typifySide(it.Resp)
	}
}

func typifySide(bufs []ParamBuffer) {
	for i := range bufs {
		if bufs[i].Template == nil {
			bufs[i].Template = seedtemplate.New(len(bufs[i].Data))
		}
	}
}
