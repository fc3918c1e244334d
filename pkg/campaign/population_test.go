package campaign_test

import (
	"path/filepath"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	_ "github.com/hexhive/teezz-fuzz/pkg/call/triangle"
	"github.com/hexhive/teezz-fuzz/pkg/campaign"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
)

func newTriangleCall(t *testing.T) call.Call {
	t.Helper()
	c, err := call.New(call.VariantTriangle)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func oneSeedSequence(t *testing.T) *seed.SeedSequence {
	t.Helper()
	return &seed.SeedSequence{Seeds: []*seed.Seed{
		{ID: 0, Input: newTriangleCall(t), Output: newTriangleCall(t)},
	}}
}

func TestPopulationNextDrainsCorpusFirst(t *testing.T) {
	corpusDir := t.TempDir()
	seq := oneSeedSequence(t)
	if err := seed.StoreSequence(filepath.Join(corpusDir, "000"), seq, call.VariantTriangle); err != nil {
		t.Fatalf("StoreSequence: %v", err)
	}

	pop := campaign.NewPopulation(call.VariantTriangle, 1)
	if err := pop.LoadCorpus(corpusDir); err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if !pop.HasUnseenCorpus() {
		t.Fatal("expected unseen corpus entry")
	}

	candidate, mutated, err := pop.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if mutated {
		t.Fatal("corpus entry should not be reported as mutated")
	}
	if candidate.Len() != 1 {
		t.Fatalf("candidate.Len() = %d, want 1", candidate.Len())
	}
	if pop.HasUnseenCorpus() {
		t.Fatal("corpus should be drained after one Next")
	}
}

func TestPopulationNextFallsBackToMutatingMembers(t *testing.T) {
	pop := campaign.NewPopulation(call.VariantTriangle, 1)
	pop.Add(oneSeedSequence(t))

	candidate, mutated, err := pop.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !mutated {
		t.Fatal("expected a population fallback to report mutated=true")
	}
	if candidate == nil {
		t.Fatal("expected a cloned candidate")
	}
}

func TestPopulationNextErrorsWhenEmpty(t *testing.T) {
	pop := campaign.NewPopulation(call.VariantTriangle, 1)
	if _, _, err := pop.Next(); err == nil {
		t.Fatal("expected an error selecting from an empty population with no corpus")
	}
}
