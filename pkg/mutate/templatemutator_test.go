package mutate_test

import (
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/triangle"
	"github.com/hexhive/teezz-fuzz/pkg/mutate"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
	"github.com/hexhive/teezz-fuzz/pkg/seedtemplate"
)

func countDiffBits(a, b []byte) int {
	n := 0
	for i := range a {
		x := a[i] ^ b[i]
		for x != 0 {
			n += int(x & 1)
			x >>= 1
		}
	}
	return n
}

// TestM1_NoTemplateFlipsExactlyOneBit exercises property M1.
func TestM1_NoTemplateFlipsExactlyOneBit(t *testing.T) {
	m := mutate.NewTemplateMutator(1, nil)
	data := []byte{0x00, 0x00, 0x00, 0x00}
	out := m.Mutate(data, nil)
	if len(out) != len(data) {
		t.Fatalf("length changed: got %d want %d", len(out), len(data))
	}
	if diff := countDiffBits(data, out); diff != 1 {
		t.Fatalf("expected exactly 1 bit flipped, got %d", diff)
	}
}

// TestM2_TemplateMutationPreservesLengthAndBounds exercises property M2.
func TestM2_TemplateMutationPreservesLengthAndBounds(t *testing.T) {
	tmpl := seedtemplate.New(8)
	if err := tmpl.AddElem(seedtemplate.Element{Start: 0, End: 4, Type: "uint32_t"}); err != nil {
		t.Fatal(err)
	}
	data := make([]byte, 8)
	m := mutate.NewTemplateMutator(2, nil)
	for i := 0; i < 20; i++ {
		out := m.Mutate(data, tmpl)
		if len(out) != len(data) {
			t.Fatalf("length changed: got %d want %d", len(out), len(data))
		}
	}
}

// TestM3_SeedSequenceMutatorNeverChangesLength exercises property M3.
func TestM3_SeedSequenceMutatorNeverChangesLength(t *testing.T) {
	in0, _ := call.New(call.VariantTriangle)
	out0, _ := call.New(call.VariantTriangle)
	in1, _ := call.New(call.VariantTriangle)
	out1, _ := call.New(call.VariantTriangle)

	seq := &seed.SeedSequence{
		Seeds: []*seed.Seed{{ID: 0, Input: in0, Output: out0}, {ID: 1, Input: in1, Output: out1}},
		Deps:  seed.NewSequence(),
	}
	seq.Deps.Append(seed.NewIoctlCall(0))
	c1 := seed.NewIoctlCall(1)
	vd, err := seed.NewValueDependency(0, 1, 0, 0, 0, 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	c1.AddValueDependency(vd)
	seq.Deps.Append(c1)

	before := seq.Len()
	m := mutate.NewSeedSequenceMutator(3)
	for i := 0; i < 50; i++ {
		m.Mutate(seq)
		if seq.Len() != before {
			t.Fatalf("sequence length changed: got %d want %d", seq.Len(), before)
		}
		if len(c1.Deps) > 1 {
			t.Fatalf("unexpected dependency growth: %+v", c1.Deps)
		}
	}
}
