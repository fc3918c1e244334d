// Package optee implements the Call capability for the OP-TEE client ABI:
// an InvokeArg header followed by up to four VALUE/MEMREF parameters
// (spec.md §6.2).
package optee

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// HeaderSize is the fixed InvokeArg size: 6 u32 fixed fields (24 bytes)
// plus 4 params of (attr u64 + a/b/c u64) = 32 bytes each, 152 bytes total
// (spec.md §6.2).
const HeaderSize = 0x98

// TargetDead is the crash sentinel shared across all three variants.
const TargetDead = 0xFFFF3024

// Known return-origin constants (spec.md §4.7 validity predicates).
const (
	OriginComms      = 0
	OriginTEECore    = 3
	OriginTrustedApp = 4
)

// Call implements call.Call for the OP-TEE variant.
type Call struct {
	Func       uint32
	Session    uint32
	CancelID   uint32
	Ret        uint32
	RetOrigin  uint32
	NumParams  uint32

	params [4]call.Param
}

var _ call.Call = (*Call)(nil)

func New() *Call { return &Call{} }

func init() {
	call.Register(call.VariantOptee, func() call.Call { return New() })
}

func (c *Call) Params() []call.Param { return c.params[:] }

func (c *Call) SetParams(p []call.Param) {
	for i := 0; i < 4 && i < len(p); i++ {
		c.params[i] = p[i]
	}
}

func (c *Call) attr(i int) uint64 { return uint64(c.params[i].Kind) }

func (c *Call) IsSuccess() bool { return c.Ret == 0 }

func (c *Call) IsCrash() bool { return c.Ret == TargetDead }

func (c *Call) Coverage() call.Coverage {
	var mask uint32
	for i := 0; i < 4; i++ {
		mask |= uint32(c.params[i].Kind&0xF) << uint(4*i)
	}
	return call.Coverage{c.Func, mask, c.Ret, c.RetOrigin}
}

func (c *Call) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(wire.PutU32(c.Func))
	buf.Write(wire.PutU32(c.Session))
	buf.Write(wire.PutU32(c.CancelID))
	buf.Write(wire.PutU32(c.Ret))
	buf.Write(wire.PutU32(c.RetOrigin))
	buf.Write(wire.PutU32(uint32(len(c.params))))
	for i := 0; i < 4; i++ {
		p := c.params[i]
		buf.Write(wire.PutU64(c.attr(i)))
		if p.Kind.IsMemref() {
			buf.Write(wire.PutU64(uint64(len(p.Buf))))
			buf.Write(wire.PutU64(0))
			buf.Write(wire.PutU64(0))
		} else {
			buf.Write(wire.PutU64(p.ValA))
			buf.Write(wire.PutU64(p.ValB))
			buf.Write(wire.PutU64(0))
		}
	}
	for buf.Len() < HeaderSize {
		buf.WriteByte(0)
	}

	for i := 0; i < 4; i++ {
		p := c.params[i]
		switch {
		case p.Kind.IsMemref():
			if err := wire.WriteChunk(&buf, p.Buf); err != nil {
				return nil, fmt.Errorf("optee: param %d memref chunk: %w", i, err)
			}
		case p.Kind == call.KindValueIn || p.Kind == call.KindValueOut || p.Kind == call.KindValueInOut:
			val := append(wire.PutU64(p.ValA), wire.PutU64(p.ValB)...)
			if err := wire.WriteChunk(&buf, val); err != nil {
				return nil, fmt.Errorf("optee: param %d value chunk: %w", i, err)
			}
		default:
			if err := wire.WriteChunk(&buf, nil); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

func (c *Call) Deserialize(b []byte) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("optee: short header: got %d want >= %d", len(b), HeaderSize)
	}
	r := bytes.NewReader(b)
	var err error
	if c.Func, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.Session, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.CancelID, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.Ret, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.RetOrigin, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.NumParams, err = wire.ReadU32(r); err != nil {
		return err
	}
	kinds := make([]call.Kind, 4)
	for i := 0; i < 4; i++ {
		attr, err := wire.ReadU64(r)
		if err != nil {
			return fmt.Errorf("optee: read param %d attr: %w", i, err)
		}
		kinds[i] = call.Kind(attr & 0xF)
		var pad [24]byte
		if _, err := r.Read(pad[:]); err != nil {
			return fmt.Errorf("optee: read param %d slot: %w", i, err)
		}
	}

	rest := b[HeaderSize:]
	rr := bytes.NewReader(rest)
	for i := 0; i < 4; i++ {
		chunk, err := wire.ReadChunk(rr)
		if err != nil {
			return fmt.Errorf("optee: read param %d chunk: %w", i, err)
		}
		p := call.Param{Kind: kinds[i]}
		if kinds[i].IsMemref() {
			p.Buf = chunk
		} else if kinds[i] == call.KindValueIn || kinds[i] == call.KindValueOut || kinds[i] == call.KindValueInOut {
			if len(chunk) >= 16 {
				p.ValA = wire.U64(chunk[0:8])
				p.ValB = wire.U64(chunk[8:16])
			}
		}
		c.params[i] = p
	}
	return nil
}

func (c *Call) SerializeToPath(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("optee: mkdir %s: %w", dir, err)
	}
	b, err := c.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "invokearg"), b[:HeaderSize], 0o644); err != nil {
		return fmt.Errorf("optee: write header: %w", err)
	}
	for i, p := range c.params {
		if !p.Kind.IsMemref() {
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("param%d", i))
		if err := os.WriteFile(name, p.Buf, 0o644); err != nil {
			return fmt.Errorf("optee: write param %d: %w", i, err)
		}
	}
	return nil
}

func (c *Call) DeserializeRawFromPath(dir string) error {
	header, err := os.ReadFile(filepath.Join(dir, "invokearg"))
	if err != nil {
		return fmt.Errorf("optee: read header: %w", err)
	}
	full := append([]byte{}, header...)
	for i := range c.params {
		name := filepath.Join(dir, fmt.Sprintf("param%d", i))
		buf, err := os.ReadFile(name)
		if err == nil {
			full = append(full, wire.PutU32(uint32(len(buf)))...)
			full = append(full, buf...)
		} else {
			full = append(full, wire.PutU32(0)...)
		}
	}
	return c.Deserialize(full)
}

func (c *Call) Mutate(fn call.MutateFn) {
	c.Func = wire.U32(fn(wire.PutU32(c.Func)))
	c.CancelID = wire.U32(fn(wire.PutU32(c.CancelID)))
}

func (c *Call) Resolve(dst call.Call, vd call.ValueDependency) error {
	if vd.SrcParam < 0 || vd.SrcParam >= len(c.params) {
		return fmt.Errorf("optee: src param %d out of range", vd.SrcParam)
	}
	dstParams := dst.Params()
	if vd.DstParam < 0 || vd.DstParam >= len(dstParams) {
		return fmt.Errorf("optee: dst param %d out of range", vd.DstParam)
	}
	src := c.params[vd.SrcParam].Buf
	if vd.SrcOff+vd.Size > len(src) {
		return fmt.Errorf("optee: src range [%d,%d) exceeds buffer len %d", vd.SrcOff, vd.SrcOff+vd.Size, len(src))
	}
	dstBuf := dstParams[vd.DstParam].Buf
	if vd.DstOff+vd.Size > len(dstBuf) {
		return fmt.Errorf("optee: dst range [%d,%d) exceeds buffer len %d", vd.DstOff, vd.DstOff+vd.Size, len(dstBuf))
	}
	copy(dstBuf[vd.DstOff:vd.DstOff+vd.Size], src[vd.SrcOff:vd.SrcOff+vd.Size])
	return nil
}

func (c *Call) Clone() call.Call {
	clone := *c
	for i, p := range c.params {
		if p.Buf != nil {
			clone.params[i].Buf = append([]byte(nil), p.Buf...)
		}
	}
	return &clone
}
