package campaign

import (
	"math/rand"

	"github.com/hexhive/teezz-fuzz/pkg/mutate"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// Scheduler applies spec.md §4.6 step 1's mutation policy to a cloned
// population member. It wraps a private *rand.Rand field, matching the
// teacher's pkg/fuzz.Sampler idiom (also followed by mutate.TemplateMutator
// itself).
type Scheduler struct {
	rng         *rand.Rand
	seqMutator  *mutate.SeedSequenceMutator
	tmplMutator *mutate.TemplateMutator
}

// NewScheduler returns a scheduler seeded deterministically from seedVal.
func NewScheduler(seedVal int64, deleteProb float64, enums mutate.EnumTable) *Scheduler {
	seqMutator := mutate.NewSeedSequenceMutator(seedVal)
	if deleteProb > 0 {
		seqMutator.DeleteProbability = deleteProb
	}
	return &Scheduler{
		rng:         rand.New(rand.NewSource(seedVal)),
		seqMutator:  seqMutator,
		tmplMutator: mutate.NewTemplateMutator(seedVal, enums),
	}
}

// MutateSequence edits seq in place per spec.md §4.4.2's dependency-graph
// rule, then §4.4.1's byte-level rule applied to a random subset of seeds:
// with P=0.1 run SeedSequenceMutator 1..len(seq) times; then for N =
// U(1..len(seq)) randomly chosen seeds, with P=0.1 also mutate the call's
// header fields, then mutate exactly one parameter.
func (s *Scheduler) MutateSequence(seq *seed.SeedSequence) {
	n := seq.Len()
	if n == 0 {
		return
	}

	if s.rng.Float64() < 0.1 {
		reps := 1 + s.rng.Intn(n)
		for i := 0; i < reps; i++ {
			s.seqMutator.Mutate(seq)
		}
	}

	picks := 1 + s.rng.Intn(n)
	for _, idx := range s.rng.Perm(n)[:picks] {
		s.mutateSeed(seq.Seeds[idx])
	}
}

func (s *Scheduler) mutateSeed(sd *seed.Seed) {
	if sd.Input == nil {
		return
	}
	if s.rng.Float64() < 0.1 {
		sd.Input.Mutate(func(field []byte) []byte { return s.tmplMutator.Mutate(field, nil) })
	}

	params := sd.Input.Params()
	if len(params) == 0 {
		return
	}
	i := s.rng.Intn(len(params))
	p := params[i]
	switch {
	case p.Buf != nil:
		p.Buf = s.tmplMutator.Mutate(p.Buf, p.Template)
	case p.Kind.IsInput():
		word := s.tmplMutator.Mutate(wire.PutU64(p.ValA), nil)
		p.ValA = wire.U64(word)
	default:
		return
	}
	params[i] = p
	sd.Input.SetParams(params)
}
