package seed

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// dependenciesFile is the on-disk name of the serialised dependency graph
// (spec.md §4.3 "dependencies.pickle" — here a language-neutral tagged
// binary format instead of pickle, per spec.md §9's explicit invitation to
// drop bit-exact legacy compatibility).
const dependenciesFile = "dependencies.bin"

// EncodeSequence serialises a Sequence (IoctlCallSequence) into the tagged
// binary format documented alongside this function:
//
//	u32 call_count
//	for each call:
//	  u32 dump_id; u8 is_dump_backed; u32 dep_count
//	  for each dep:
//	    u32 src_dump_id; u32 dst_dump_id
//	    u32 src_param; u32 dst_param
//	    u32 src_off; u32 dst_off; u32 size
func EncodeSequence(s *Sequence) []byte {
	var buf bytes.Buffer
	buf.Write(wire.PutU32(uint32(len(s.Calls))))
	for _, c := range s.Calls {
		buf.Write(wire.PutU32(uint32(c.DumpID)))
		if c.IsDumpBacked {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		buf.Write(wire.PutU32(uint32(len(c.Deps))))
		for _, vd := range c.Deps {
			buf.Write(wire.PutU32(uint32(vd.SrcDumpID)))
			buf.Write(wire.PutU32(uint32(vd.DstDumpID)))
			buf.Write(wire.PutU32(uint32(vd.SrcParam)))
			buf.Write(wire.PutU32(uint32(vd.DstParam)))
			buf.Write(wire.PutU32(uint32(vd.SrcOff)))
			buf.Write(wire.PutU32(uint32(vd.DstOff)))
			buf.Write(wire.PutU32(uint32(vd.SrcSz)))
		}
	}
	return buf.Bytes()
}

// DecodeSequence is the inverse of EncodeSequence.
func DecodeSequence(b []byte) (*Sequence, error) {
	r := bytes.NewReader(b)
	count, err := wire.ReadU32(r)
	if err != nil {
		return nil, fmt.Errorf("seed: decode call count: %w", err)
	}
	s := &Sequence{Calls: make([]*IoctlCall, 0, count)}
	for i := uint32(0); i < count; i++ {
		dumpID, err := wire.ReadU32(r)
		if err != nil {
			return nil, fmt.Errorf("seed: decode call %d dump id: %w", i, err)
		}
		backed, err := wire.ReadU8(r)
		if err != nil {
			return nil, fmt.Errorf("seed: decode call %d is_dump_backed: %w", i, err)
		}
		depCount, err := wire.ReadU32(r)
		if err != nil {
			return nil, fmt.Errorf("seed: decode call %d dep count: %w", i, err)
		}
		c := &IoctlCall{DumpID: int(dumpID), IsDumpBacked: backed != 0}
		for j := uint32(0); j < depCount; j++ {
			vals := make([]uint32, 7)
			for k := range vals {
				v, err := wire.ReadU32(r)
				if err != nil {
					return nil, fmt.Errorf("seed: decode call %d dep %d: %w", i, j, err)
				}
				vals[k] = v
			}
			c.Deps = append(c.Deps, ValueDependency{
				SrcDumpID: int(vals[0]), DstDumpID: int(vals[1]),
				SrcParam: int(vals[2]), DstParam: int(vals[3]),
				SrcOff: int(vals[4]), DstOff: int(vals[5]),
				SrcSz: int(vals[6]), DstSz: int(vals[6]),
			})
		}
		s.Calls = append(s.Calls, c)
	}
	return s, nil
}

// StoreSequence writes seq's on-disk layout under dir (spec.md §4.3/§6.3):
// one numbered sub-directory per interaction holding onenter/onleave call
// recordings, plus a dependencies file.
func StoreSequence(dir string, seq *SeedSequence, variant call.Variant) error {
	if err := seq.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("seed: mkdir %s: %w", dir, err)
	}
	for i, s := range seq.Seeds {
		sub := filepath.Join(dir, strconv.Itoa(i))
		if s.Input != nil {
			if err := s.Input.SerializeToPath(filepath.Join(sub, "onenter")); err != nil {
				return fmt.Errorf("seed: store seed %d input: %w", i, err)
			}
		}
		if s.Output != nil {
			if err := s.Output.SerializeToPath(filepath.Join(sub, "onleave")); err != nil {
				return fmt.Errorf("seed: store seed %d output: %w", i, err)
			}
		}
	}
	if seq.Deps != nil {
		enc := EncodeSequence(seq.Deps)
		if err := os.WriteFile(filepath.Join(dir, dependenciesFile), enc, 0o644); err != nil {
			return fmt.Errorf("seed: write dependency graph: %w", err)
		}
	}
	return nil
}

// LoadSequence reads dir back into a SeedSequence (the inverse of
// StoreSequence), constructing fresh Call values for variant.
func LoadSequence(dir string, variant call.Variant) (*SeedSequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("seed: read sequence dir %s: %w", dir, err)
	}
	var ordinals []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		ordinals = append(ordinals, n)
	}
	sort.Ints(ordinals)

	seq := &SeedSequence{}
	for _, n := range ordinals {
		sub := filepath.Join(dir, strconv.Itoa(n))
		in, err := call.New(variant)
		if err != nil {
			return nil, err
		}
		if err := in.DeserializeRawFromPath(filepath.Join(sub, "onenter")); err != nil {
			return nil, fmt.Errorf("seed: load seed %d input: %w", n, err)
		}
		out, err := call.New(variant)
		if err != nil {
			return nil, err
		}
		if err := out.DeserializeRawFromPath(filepath.Join(sub, "onleave")); err != nil {
			return nil, fmt.Errorf("seed: load seed %d output: %w", n, err)
		}
		seq.Seeds = append(seq.Seeds, &Seed{ID: n, Input: in, Output: out})
	}

	depPath := filepath.Join(dir, dependenciesFile)
	if data, err := os.ReadFile(depPath); err == nil {
		deps, err := DecodeSequence(data)
		if err != nil {
			return nil, fmt.Errorf("seed: decode dependency graph: %w", err)
		}
		seq.Deps = deps
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("seed: read dependency graph: %w", err)
	}

	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return seq, nil
}
