package seed

import "github.com/hexhive/teezz-fuzz/pkg/call"

// Seed is one full recorded round-trip: a request Call and the response
// Call it produced (spec.md §3).
type Seed struct {
	ID     int
	Input  call.Call
	Output call.Call
}

// Clone returns a deep copy of the seed, used when cloning a population
// member's SeedSequence for mutation.
func (s *Seed) Clone() *Seed {
	clone := &Seed{ID: s.ID}
	if s.Input != nil {
		clone.Input = s.Input.Clone()
	}
	if s.Output != nil {
		clone.Output = s.Output.Clone()
	}
	return clone
}
