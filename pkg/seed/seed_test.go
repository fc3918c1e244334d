package seed_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/triangle"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
)

// TestScenarioD_ValueDependencyDedup exercises the exact dedup-by-overlap
// walkthrough from spec.md §8 Scenario D.
func TestScenarioD_ValueDependencyDedup(t *testing.T) {
	c := seed.NewIoctlCall(1)

	a, err := seed.NewValueDependency(0, 1, 0, 0, 0, 0, 8) // dst=[0,8)
	if err != nil {
		t.Fatal(err)
	}
	b, err := seed.NewValueDependency(0, 1, 0, 0, 4, 4, 8) // dst=[4,12), same size, overlaps A
	if err != nil {
		t.Fatal(err)
	}
	cc, err := seed.NewValueDependency(0, 1, 0, 0, 0, 0, 16) // dst=[0,16), overlaps A, larger
	if err != nil {
		t.Fatal(err)
	}

	c.AddValueDependency(a)
	c.AddValueDependency(b)
	if len(c.Deps) != 1 || c.Deps[0] != a {
		t.Fatalf("expected tie to keep first dep, got %+v", c.Deps)
	}

	c.AddValueDependency(cc)
	if len(c.Deps) != 1 || c.Deps[0] != cc {
		t.Fatalf("expected larger dep to replace, got %+v", c.Deps)
	}
}

func TestNewValueDependency_InvariantViolations(t *testing.T) {
	if _, err := seed.NewValueDependency(5, 5, 0, 0, 0, 0, 4); err == nil {
		t.Fatal("expected V2 violation error for equal dump ids")
	}
	if _, err := seed.NewValueDependency(5, 6, 0, 0, 0, 0, 0); err == nil {
		t.Fatal("expected error for non-positive size")
	}
}

func TestSequenceStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	in0 := newTriangle(t, 10, []byte("abcdefgh"))
	out0 := newTriangle(t, 10, []byte("ABCDEFGH"))
	in1 := newTriangle(t, 20, []byte("ijklmnop"))
	out1 := newTriangle(t, 20, []byte("IJKLMNOP"))

	seq := &seed.SeedSequence{
		Seeds: []*seed.Seed{
			{ID: 0, Input: in0, Output: out0},
			{ID: 1, Input: in1, Output: out1},
		},
		Deps: seed.NewSequence(),
	}
	seq.Deps.Append(seed.NewIoctlCall(0))
	c1 := seed.NewIoctlCall(1)
	vd, err := seed.NewValueDependency(0, 1, 0, 0, 0, 0, 4)
	if err != nil {
		t.Fatal(err)
	}
	c1.AddValueDependency(vd)
	seq.Deps.Append(c1)

	if err := seed.StoreSequence(dir, seq, call.VariantTriangle); err != nil {
		t.Fatalf("StoreSequence: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "0")); err != nil {
		t.Fatalf("expected seed directory 0: %v", err)
	}

	loaded, err := seed.LoadSequence(dir, call.VariantTriangle)
	if err != nil {
		t.Fatalf("LoadSequence: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded %d seeds, want 2", loaded.Len())
	}
	if loaded.Deps == nil || loaded.Deps.Len() != 2 {
		t.Fatalf("loaded dependency graph: %+v", loaded.Deps)
	}
	got, ok := loaded.Deps.GetElemByDumpID(1)
	if !ok || len(got.Deps) != 1 {
		t.Fatalf("expected one dependency on call 1, got %+v", got)
	}
}

func TestIteratorResolvesDependencies(t *testing.T) {
	in0 := newTriangle(t, 0, nil)
	out0 := newTriangleWithMemref(t, 0, []byte("DEADBEEFCAFEBABE"))
	in1 := newTriangleWithMemref(t, 1, make([]byte, 8))
	out1 := newTriangle(t, 1, nil)

	seq := &seed.SeedSequence{
		Seeds: []*seed.Seed{
			{ID: 0, Input: in0, Output: out0},
			{ID: 1, Input: in1, Output: out1},
		},
		Deps: seed.NewSequence(),
	}
	seq.Deps.Append(seed.NewIoctlCall(0))
	c1 := seed.NewIoctlCall(1)
	vd, err := seed.NewValueDependency(0, 1, 0, 0, 4, 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	c1.AddValueDependency(vd)
	seq.Deps.Append(c1)

	it := seed.NewIterator(seq, nil)
	if _, ok := it.Next(); !ok {
		t.Fatal("expected first seed")
	}
	s1, ok := it.Next()
	if !ok {
		t.Fatal("expected second seed")
	}
	got := s1.Input.Params()[0].Buf
	if string(got) != "BEEFCAFE" {
		t.Fatalf("resolved bytes = %q, want %q", got, "BEEFCAFE")
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected iterator exhausted")
	}
}

func newTriangle(t *testing.T, cmdID uint32, memref []byte) call.Call {
	t.Helper()
	c, err := call.New(call.VariantTriangle)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newTriangleWithMemref(t *testing.T, cmdID uint32, memref []byte) call.Call {
	t.Helper()
	c, err := call.New(call.VariantTriangle)
	if err != nil {
		t.Fatal(err)
	}
	c.SetParams([]call.Param{{Kind: call.KindMemrefTempInOut, Buf: memref}})
	return c
}
