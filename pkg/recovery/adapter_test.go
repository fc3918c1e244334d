package recovery_test

import (
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/triangle"
	"github.com/hexhive/teezz-fuzz/pkg/recovery"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
)

func TestFromSeedSequenceExtractsMemrefBuffers(t *testing.T) {
	in, err := call.New(call.VariantTriangle)
	if err != nil {
		t.Fatal(err)
	}
	in.SetParams([]call.Param{
		{Kind: call.KindMemrefTempIn, Buf: []byte("hello")},
		{Kind: call.KindValueIn, ValA: 7},
	})
	out, err := call.New(call.VariantTriangle)
	if err != nil {
		t.Fatal(err)
	}

	seq := &seed.SeedSequence{Seeds: []*seed.Seed{{ID: 0, Input: in, Output: out}}}
	interactions := recovery.FromSeedSequence(seq)

	if len(interactions) != 1 {
		t.Fatalf("len(interactions) = %d, want 1", len(interactions))
	}
	if len(interactions[0].Req) != 1 || string(interactions[0].Req[0].Data) != "hello" {
		t.Fatalf("unexpected req buffers: %+v", interactions[0].Req)
	}
}
