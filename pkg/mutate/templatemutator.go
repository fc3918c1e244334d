// Package mutate implements the type-aware byte mutation engine
// (TemplateMutator) and the sequence-level dependency-graph editor
// (SeedSequenceMutator) described in spec.md §4.4.
package mutate

import (
	"math"
	"math/rand"
	"strings"

	"github.com/hexhive/teezz-fuzz/pkg/seed"
	"github.com/hexhive/teezz-fuzz/pkg/seedtemplate"
)

// EnumTable maps a TEE-specific enum type name to its declared member
// values, shipped per variant alongside the mutator (spec.md §4.4.1).
type EnumTable map[string][]uint64

// TemplateMutator performs type-aware mutation of a data buffer, optionally
// guided by a recovered SeedTemplate. It wraps a private *rand.Rand field
// rather than the global source, matching the teacher's pkg/fuzz.Sampler
// idiom.
type TemplateMutator struct {
	rng   *rand.Rand
	enums EnumTable
}

// NewTemplateMutator returns a mutator seeded deterministically from seed.
func NewTemplateMutator(seedVal int64, enums EnumTable) *TemplateMutator {
	return &TemplateMutator{rng: rand.New(rand.NewSource(seedVal)), enums: enums}
}

// Mutate returns a mutated copy of data. With no template it flips exactly
// one random bit (property M1). With a template it mutates a random subset
// of typed elements and gap bytes in place, never resizing or touching
// bytes outside [0, len(data)) (property M2).
func (m *TemplateMutator) Mutate(data []byte, tmpl *seedtemplate.Template) []byte {
	out := append([]byte(nil), data...)
	if tmpl == nil {
		if len(out) == 0 {
			return out
		}
		bit := m.rng.Intn(len(out) * 8)
		out[bit/8] ^= 1 << uint(bit%8)
		return out
	}

	elems := tmpl.Elements()
	if len(elems) > 0 {
		kTyped := 1 + m.rng.Intn(minInt(len(elems), 1<<uint(m.rng.Intn(6))))
		for i := 0; i < kTyped; i++ {
			e := elems[m.rng.Intn(len(elems))]
			m.mutateElement(out, e)
		}
	}
	gaps := tmpl.Gaps()
	if len(gaps) > 0 {
		kGap := 1 + m.rng.Intn(minInt(len(gaps), 1<<uint(m.rng.Intn(6))))
		for i := 0; i < kGap; i++ {
			g := gaps[m.rng.Intn(len(gaps))]
			m.bitFlipRange(out, g.Start, g.End)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// normalizeType trims const/struct prefixes, collapses whitespace and
// leaves a trailing "*" to mark pointer types (spec.md §4.4.1).
func normalizeType(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "const ")
	t = strings.TrimPrefix(t, "struct ")
	fields := strings.Fields(t)
	return strings.Join(fields, " ")
}

func (m *TemplateMutator) mutateElement(data []byte, e seedtemplate.Element) {
	if e.End > len(data) {
		return
	}
	typ := normalizeType(e.Type)
	rng := data[e.Start:e.End]

	switch {
	case typ == "bool" && e.Size() == 1:
		rng[0] ^= 1
	case e.Size() == 1 && isNumericWidth(typ):
		m.mutateNumeric(rng, 1)
	case e.Size() == 2 && isNumericWidth(typ):
		m.mutateNumeric(rng, 2)
	case e.Size() == 4 && isNumericWidth(typ):
		m.mutateNumeric(rng, 4)
	case e.Size() == 8 && isNumericWidth(typ):
		m.mutateNumeric(rng, 8)
	case strings.HasSuffix(typ, "*") || typ == "uint8_t*" || typ == "char*":
		m.bitFlipRange(data, e.Start, e.End)
	default:
		if values, ok := m.enums[typ]; ok && len(values) > 0 {
			m.sampleEnum(rng, values)
			return
		}
		m.bitFlipRange(data, e.Start, e.End)
	}
}

// isNumericWidth reports whether typ names one of the recognized fixed
// integer widths (the concrete name is not otherwise significant; width is
// inferred from the element's Size()).
func isNumericWidth(typ string) bool {
	switch typ {
	case "int8_t", "uint8_t", "int16_t", "uint16_t", "int32_t", "uint32_t",
		"int64_t", "uint64_t", "int", "unsigned", "unsigned int", "long",
		"unsigned long", "size_t", "off_t":
		return true
	}
	return false
}

// mutateNumeric picks uniformly from {0, INT_MAX, INT_MIN, UINT_MAX,
// U(1, UINT_MAX-1)} at the given byte width, little-endian (spec.md
// §4.4.1).
func (m *TemplateMutator) mutateNumeric(dst []byte, width int) {
	maxU := uint64(1)<<(uint(width)*8) - 1
	if width == 8 {
		maxU = math.MaxUint64
	}
	intMax := maxU >> 1
	intMin := intMax + 1

	choice := m.rng.Intn(5)
	var v uint64
	switch choice {
	case 0:
		v = 0
	case 1:
		v = intMax
	case 2:
		v = intMin
	case 3:
		v = maxU
	default:
		if maxU > 2 {
			v = 1 + uint64(m.rng.Int63n(int64(maxU-1)))
		}
	}
	for i := 0; i < width; i++ {
		dst[i] = byte(v >> uint(8*i))
	}
}

func (m *TemplateMutator) sampleEnum(dst []byte, values []uint64) {
	v := values[m.rng.Intn(len(values))]
	for i := range dst {
		dst[i] = byte(v >> uint(8*i))
	}
}

func (m *TemplateMutator) bitFlipRange(data []byte, start, end int) {
	if end <= start {
		return
	}
	idx := start + m.rng.Intn(end-start)
	bit := m.rng.Intn(8)
	data[idx] ^= 1 << uint(bit)
}

// SeedSequenceMutator performs a dependency-graph edit on a SeedSequence:
// with low probability it deletes one value dependency, modelling the
// hypothesis that the dependency is spurious (spec.md §4.4.2).
type SeedSequenceMutator struct {
	rng *rand.Rand
	// DeleteProbability defaults to 0.1 when zero.
	DeleteProbability float64
}

func NewSeedSequenceMutator(seedVal int64) *SeedSequenceMutator {
	return &SeedSequenceMutator{rng: rand.New(rand.NewSource(seedVal)), DeleteProbability: 0.1}
}

// Mutate deletes one random value dependency from seq.Deps with
// probability DeleteProbability. It never changes seq's length (property
// M3).
func (m *SeedSequenceMutator) Mutate(seq *seed.SeedSequence) {
	p := m.DeleteProbability
	if p <= 0 {
		p = 0.1
	}
	if seq.Deps == nil || len(seq.Deps.Calls) == 0 {
		return
	}
	if m.rng.Float64() >= p {
		return
	}
	c := seq.Deps.Calls[m.rng.Intn(len(seq.Deps.Calls))]
	if len(c.Deps) == 0 {
		return
	}
	victim := c.Deps[m.rng.Intn(len(c.Deps))]
	c.RemoveValueDependency(victim)
}
