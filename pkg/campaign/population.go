package campaign

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
)

// Population holds the seed corpus not yet consumed plus the members the
// fuzz loop has added: executed corpus entries and candidates that produced
// fresh coverage. A crashing candidate becomes a member only if it also
// produced fresh coverage.
type Population struct {
	variant call.Variant
	corpus  []*seed.SeedSequence
	members []*seed.SeedSequence
	rng     *rand.Rand
}

// NewPopulation returns an empty population for variant.
func NewPopulation(variant call.Variant, seedVal int64) *Population {
	return &Population{variant: variant, rng: rand.New(rand.NewSource(seedVal))}
}

// LoadCorpus reads every sequence directory under dir, in lexical order,
// as the initial seed corpus (spec.md §4.6 step 1 "initial corpus
// directory").
func (p *Population) LoadCorpus(dir string) error {
	names, err := sortedSubdirs(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("campaign: list corpus dir %s: %w", dir, err)
	}
	for _, name := range names {
		seq, err := seed.LoadSequence(filepath.Join(dir, name), p.variant)
		if err != nil {
			return fmt.Errorf("campaign: load corpus entry %s: %w", name, err)
		}
		p.corpus = append(p.corpus, seq)
	}
	return nil
}

// Rehydrate reloads population members from an existing campaign's queue/
// directory (spec.md §5 "re-hydrate the population from queue/").
func (p *Population) Rehydrate(queueDir string) error {
	names, err := sortedSubdirs(queueDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("campaign: list queue dir %s: %w", queueDir, err)
	}
	for _, name := range names {
		seq, err := seed.LoadSequence(filepath.Join(queueDir, name), p.variant)
		if err != nil {
			return fmt.Errorf("campaign: load queue entry %s: %w", name, err)
		}
		p.members = append(p.members, seq)
	}
	return nil
}

// HasUnseenCorpus reports whether the initial corpus still has entries not
// yet handed out by Next.
func (p *Population) HasUnseenCorpus() bool { return len(p.corpus) > 0 }

// Len returns the number of population members.
func (p *Population) Len() int { return len(p.members) }

// Next returns the next candidate to execute: the oldest unconsumed corpus
// entry if any remain, otherwise a clone of a random population member.
// mutated reports which case occurred.
func (p *Population) Next() (candidate *seed.SeedSequence, mutated bool, err error) {
	if len(p.corpus) > 0 {
		next := p.corpus[0]
		p.corpus = p.corpus[1:]
		return next, false, nil
	}
	if len(p.members) == 0 {
		return nil, false, fmt.Errorf("campaign: empty population and no seed corpus remaining")
	}
	member := p.members[p.rng.Intn(len(p.members))]
	return member.Clone(), true, nil
}

// Add appends seq to the population (spec.md §4.6 step 3 "any sequence
// that yields new coverage, or is being seeded, is appended").
func (p *Population) Add(seq *seed.SeedSequence) {
	p.members = append(p.members, seq)
}

func sortedSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
