package recovery_test

import (
	"bytes"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/recovery"
	"github.com/hexhive/teezz-fuzz/pkg/seedtemplate"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// TestF1_WholeBlobLength exercises property F1: a 4-byte field literally
// storing len(buffer) is typed size_t.
func TestF1_WholeBlobLength(t *testing.T) {
	buf := make([]byte, 32)
	copy(buf, wire.PutU32(32))
	tmpl := seedtemplate.New(len(buf))
	recovery.SizeOffset(buf, tmpl)

	e, ok := tmpl.ElementAt(0)
	if !ok || e.Type != "size_t" {
		t.Fatalf("offset 0 not typed size_t: %+v, ok=%v", e, ok)
	}
}

// TestScenarioB_SizeHeuristic reproduces spec.md §8 Scenario B exactly.
func TestScenarioB_SizeHeuristic(t *testing.T) {
	buf := append(wire.PutU32(5), []byte("HELLO")...)
	buf = append(buf, make([]byte, 23)...)

	tmpl := seedtemplate.New(len(buf))
	recovery.SizeOffset(buf, tmpl)

	e, ok := tmpl.ElementAt(0)
	if !ok || e.Start != 0 || e.End != 4 || e.Type != "size_t" {
		t.Fatalf("[0,4) not typed size_t: %+v, ok=%v", e, ok)
	}
}

// TestF2_CommonSequenceTagsBothSides exercises property F2.
func TestF2_CommonSequenceTagsBothSides(t *testing.T) {
	resp := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x11, 0x22}
	req := append([]byte{0x00, 0x00}, resp...)
	req = append(req, 0x00, 0x00)

	respTmpl := seedtemplate.New(len(resp))
	reqTmpl := seedtemplate.New(len(req))
	recovery.CommonSequence(resp, respTmpl, req, reqTmpl)

	respElems := respTmpl.Listify()
	reqElems := reqTmpl.Listify()
	if len(respElems) == 0 || len(reqElems) == 0 {
		t.Fatalf("expected tagged ranges on both sides, got resp=%v req=%v", respElems, reqElems)
	}
	for _, re := range respElems {
		if re.Type != "uint8_t*" {
			continue
		}
		found := false
		respBytes := resp[re.Start:re.End]
		for _, qe := range reqElems {
			if qe.Size() != re.Size() {
				continue
			}
			if bytes.Equal(req[qe.Start:qe.End], respBytes) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("resp range %v has no equal-content equal-size req range", re)
		}
	}
}

// TestScenarioC_ValueDepMining reproduces spec.md §8 Scenario C.
func TestScenarioC_ValueDepMining(t *testing.T) {
	marker := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xCA, 0xFE, 0xBA, 0xBE}

	respBuf := make([]byte, 16)
	copy(respBuf[4:], marker)
	respTmpl := seedtemplate.New(len(respBuf))
	if err := respTmpl.AddElem(seedtemplate.Element{Start: 4, End: 12, Type: "uint8_t*"}); err != nil {
		t.Fatal(err)
	}

	reqBuf := make([]byte, 16)
	copy(reqBuf[0:], marker)
	reqTmpl := seedtemplate.New(len(reqBuf))
	if err := reqTmpl.AddElem(seedtemplate.Element{Start: 0, End: 8, Type: "uint8_t*"}); err != nil {
		t.Fatal(err)
	}

	call0 := &recovery.Interaction{
		Ordinal: 0,
		Resp:    []recovery.ParamBuffer{{Data: respBuf, Template: respTmpl}},
	}
	call1 := &recovery.Interaction{
		Ordinal: 1,
		Req:     []recovery.ParamBuffer{{Data: reqBuf, Template: reqTmpl}},
	}

	seq := recovery.FindValueDeps([]*recovery.Interaction{call0, call1}, recovery.DefaultWindow, nil)
	c1, ok := seq.GetElemByDumpID(1)
	if !ok {
		t.Fatal("expected call with dump_id 1")
	}
	if len(c1.Deps) != 1 {
		t.Fatalf("expected exactly one dependency, got %+v", c1.Deps)
	}
	vd := c1.Deps[0]
	if vd.SrcDumpID != 0 || vd.DstDumpID != 1 || vd.SrcOff != 4 || vd.DstOff != 0 || vd.SrcSz != 8 {
		t.Fatalf("unexpected dependency: %+v", vd)
	}
}

// TestF3_ValueDependencyInvariants exercises property F3 end-to-end via
// FindValueDeps.
func TestF3_ValueDependencyInvariants(t *testing.T) {
	marker := []byte{1, 2, 3, 4}
	buf0 := make([]byte, 8)
	copy(buf0[0:], marker)
	tmpl0 := seedtemplate.New(len(buf0))
	if err := tmpl0.AddElem(seedtemplate.Element{Start: 0, End: 4, Type: "uint8_t*"}); err != nil {
		t.Fatal(err)
	}
	buf1 := make([]byte, 8)
	copy(buf1[0:], marker)
	tmpl1 := seedtemplate.New(len(buf1))
	if err := tmpl1.AddElem(seedtemplate.Element{Start: 0, End: 4, Type: "uint8_t*"}); err != nil {
		t.Fatal(err)
	}

	it0 := &recovery.Interaction{Ordinal: 0, Resp: []recovery.ParamBuffer{{Data: buf0, Template: tmpl0}}}
	it1 := &recovery.Interaction{Ordinal: 1, Req: []recovery.ParamBuffer{{Data: buf1, Template: tmpl1}}}

	seq := recovery.FindValueDeps([]*recovery.Interaction{it0, it1}, recovery.DefaultWindow, nil)
	for _, c := range seq.Calls {
		for _, vd := range c.Deps {
			if vd.SrcSz != vd.DstSz {
				t.Errorf("F3 violated: src_sz %d != dst_sz %d", vd.SrcSz, vd.DstSz)
			}
			if vd.SrcDumpID >= vd.DstDumpID {
				t.Errorf("F3 violated: src dump_id %d >= dst dump_id %d", vd.SrcDumpID, vd.DstDumpID)
			}
		}
	}
}

// TestF4_CompactIsIdempotent exercises property F4.
func TestF4_CompactIsIdempotent(t *testing.T) {
	ordinals := []int{0, 1, 3, 4}
	m1 := recovery.CompactOrdinals(ordinals)
	want := map[int]int{0: 0, 1: 1, 3: 2, 4: 3}
	for k, v := range want {
		if m1[k] != v {
			t.Fatalf("compact(%v)[%d] = %d, want %d", ordinals, k, m1[k], v)
		}
	}

	// Re-compacting the already-dense output must be the identity mapping,
	// and relative order must be preserved.
	dense := []int{0, 1, 2, 3}
	m2 := recovery.CompactOrdinals(dense)
	for _, o := range dense {
		if m2[o] != o {
			t.Fatalf("compact not idempotent: compact(dense)[%d] = %d", o, m2[o])
		}
	}
}

func TestCompactInteractionsPreservesOrder(t *testing.T) {
	its := []*recovery.Interaction{{Ordinal: 4}, {Ordinal: 0}, {Ordinal: 3}, {Ordinal: 1}}
	out := recovery.CompactInteractions(its)
	var got []int
	for _, it := range out {
		got = append(got, it.Ordinal)
	}
	want := []int{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("compacted ordinals = %v, want relative order preserved as %v", got, want)
		}
	}
}
