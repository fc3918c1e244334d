package seedtemplate_test

import (
	"errors"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/seedtemplate"
)

// Scenario A from the spec: collision is rejected and listify reflects
// only the accepted element.
func TestScenarioA_Collision(t *testing.T) {
	tmpl := seedtemplate.New(32)

	if err := tmpl.AddElem(seedtemplate.Element{Start: 0, End: 4, Type: "size_t"}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := tmpl.AddElem(seedtemplate.Element{Start: 2, End: 6, Type: "uint32_t"})
	if !errors.Is(err, seedtemplate.ErrCollision) {
		t.Fatalf("expected collision error, got %v", err)
	}

	got := tmpl.Listify()
	if len(got) != 1 || got[0] != (seedtemplate.Element{Start: 0, End: 4, Type: "size_t"}) {
		t.Fatalf("listify = %v, want [(0,4,size_t)]", got)
	}
}

func TestAddElem_OutOfBounds(t *testing.T) {
	tmpl := seedtemplate.New(8)
	if err := tmpl.AddElem(seedtemplate.Element{Start: 4, End: 9, Type: "u8"}); err == nil {
		t.Fatal("expected out-of-bounds error")
	}
	if len(tmpl.Elements()) != 0 {
		t.Fatal("template mutated on rejected add")
	}
}

func TestGaps(t *testing.T) {
	tmpl := seedtemplate.New(10)
	mustAdd(t, tmpl, 2, 4, "u16")
	mustAdd(t, tmpl, 6, 7, "u8")

	gaps := tmpl.Gaps()
	want := []seedtemplate.Element{
		{Start: 0, End: 2},
		{Start: 4, End: 6},
		{Start: 7, End: 10},
	}
	if len(gaps) != len(want) {
		t.Fatalf("gaps = %v, want %v", gaps, want)
	}
	for i := range want {
		if gaps[i].Start != want[i].Start || gaps[i].End != want[i].End {
			t.Errorf("gap %d = %v, want %v", i, gaps[i], want[i])
		}
	}
}

func TestElementAt(t *testing.T) {
	tmpl := seedtemplate.New(10)
	mustAdd(t, tmpl, 2, 4, "u16")

	if _, ok := tmpl.ElementAt(0); ok {
		t.Fatal("expected no element at 0")
	}
	e, ok := tmpl.ElementAt(2)
	if !ok || e.Type != "u16" {
		t.Fatalf("ElementAt(2) = %v, %v", e, ok)
	}
}

func mustAdd(t *testing.T, tmpl *seedtemplate.Template, start, end int, typ string) {
	t.Helper()
	if err := tmpl.AddElem(seedtemplate.Element{Start: start, End: end, Type: typ}); err != nil {
		t.Fatalf("AddElem(%d,%d,%s): %v", start, end, typ, err)
	}
}
