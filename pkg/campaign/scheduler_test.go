package campaign_test

import (
	"bytes"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/triangle"
	"github.com/hexhive/teezz-fuzz/pkg/campaign"
	"github.com/hexhive/teezz-fuzz/pkg/mutate"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
)

func memrefSeq(t *testing.T) *seed.SeedSequence {
	t.Helper()
	in, err := call.New(call.VariantTriangle)
	if err != nil {
		t.Fatal(err)
	}
	in.SetParams([]call.Param{{Kind: call.KindMemrefTempInOut, Buf: []byte("AAAAAAAA")}})
	return &seed.SeedSequence{Seeds: []*seed.Seed{{ID: 0, Input: in}}}
}

// TestMutateSequencePreservesLength checks property M3: sequence-level
// mutation never changes the sequence's length.
func TestMutateSequencePreservesLength(t *testing.T) {
	for seedVal := int64(0); seedVal < 10; seedVal++ {
		seq := memrefSeq(t)
		before := seq.Len()
		s := campaign.NewScheduler(seedVal, 0.1, mutate.EnumTable{})
		s.MutateSequence(seq)
		if seq.Len() != before {
			t.Fatalf("seed %d: length changed from %d to %d", seedVal, before, seq.Len())
		}
	}
}

func TestMutateSequenceEventuallyTouchesBuffer(t *testing.T) {
	changed := false
	for seedVal := int64(0); seedVal < 50; seedVal++ {
		seq := memrefSeq(t)
		original := append([]byte(nil), seq.Seeds[0].Input.Params()[0].Buf...)
		s := campaign.NewScheduler(seedVal, 0.1, mutate.EnumTable{})
		s.MutateSequence(seq)
		if !bytes.Equal(original, seq.Seeds[0].Input.Params()[0].Buf) {
			changed = true
			break
		}
	}
	if !changed {
		t.Fatal("expected at least one seed value to mutate the parameter buffer")
	}
}
