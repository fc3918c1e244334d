// Package triangle implements the Call capability for the TrustedCore
// ("Triangle") TEE client ABI: a ClientContext header followed by up to
// four VALUE/MEMREF parameters (spec.md §6.2).
package triangle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// HeaderSize is the advertised ClientContext size used by this
// implementation (spec.md §6.2 notes "0x98 or 0x90+0x08" depending on
// whether the teec_token extension is present; this module always uses
// the extended layout and pads to a round value).
const HeaderSize = 0x98

// Known return-origin / status constants (spec.md §6.2).
const (
	OriginTrustedApp = 4
	OriginKernel     = 3
	OriginTEEComms   = 0

	// TargetDead is the crash sentinel shared across all three variants.
	TargetDead = 0xFFFF3024
)

// Call implements call.Call for the Triangle variant.
type Call struct {
	UUID         [16]byte
	SessionID    uint32
	CmdID        uint32
	ReturnCode   uint32
	ReturnOrigin uint32
	LoginMethod  uint32
	LoginMdata   uint32
	ParamTypes   uint32
	Started      uint8
	TEECToken    uint64

	params [4]call.Param
}

var _ call.Call = (*Call)(nil)

func New() *Call { return &Call{} }

func init() {
	call.Register(call.VariantTriangle, func() call.Call { return New() })
}

func (c *Call) Params() []call.Param { return c.params[:] }

func (c *Call) SetParams(p []call.Param) {
	for i := 0; i < 4 && i < len(p); i++ {
		c.params[i] = p[i]
	}
}

func (c *Call) slotKind(i int) call.Kind {
	return call.Kind((c.ParamTypes >> uint(4*i)) & 0xF)
}

func (c *Call) setSlotKind(i int, k call.Kind) {
	c.ParamTypes &^= 0xF << uint(4*i)
	c.ParamTypes |= uint32(k&0xF) << uint(4*i)
}

func (c *Call) IsSuccess() bool { return c.ReturnCode == 0 }

func (c *Call) IsCrash() bool { return c.ReturnCode == TargetDead }

func (c *Call) Coverage() call.Coverage {
	return call.Coverage{c.CmdID, c.ParamTypes, c.ReturnCode, c.ReturnOrigin}
}

// Serialize writes the ClientContext header (padded to HeaderSize) followed
// by one length-prefixed chunk per parameter, matching spec.md §6.2.
func (c *Call) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(c.UUID[:])
	buf.Write(wire.PutU32(c.SessionID))
	buf.Write(wire.PutU32(c.CmdID))
	buf.Write(wire.PutU32(c.ReturnCode))
	buf.Write(wire.PutU32(c.ReturnOrigin))
	buf.Write(wire.PutU32(c.LoginMethod))
	buf.Write(wire.PutU32(c.LoginMdata))
	for i := 0; i < 4; i++ {
		p := c.params[i]
		c.setSlotKind(i, p.Kind)
		if p.Kind.IsMemref() {
			buf.Write(wire.PutU64(uint64(len(p.Buf))))
			buf.Write(wire.PutU64(0))
			buf.Write(wire.PutU64(0))
		} else {
			buf.Write(wire.PutU64(p.ValA))
			buf.Write(wire.PutU64(p.ValB))
			buf.Write(make([]byte, 8))
		}
	}
	buf.Write(wire.PutU32(c.ParamTypes))
	buf.WriteByte(c.Started)
	buf.Write(wire.PutU64(c.TEECToken))
	for buf.Len() < HeaderSize {
		buf.WriteByte(0)
	}

	for i := 0; i < 4; i++ {
		p := c.params[i]
		switch {
		case p.Kind.IsMemref():
			if err := wire.WriteChunk(&buf, p.Buf); err != nil {
				return nil, fmt.Errorf("triangle: param %d memref chunk: %w", i, err)
			}
		case p.Kind == call.KindValueIn || p.Kind == call.KindValueOut || p.Kind == call.KindValueInOut:
			val := append(wire.PutU64(p.ValA), wire.PutU64(p.ValB)...)
			if err := wire.WriteChunk(&buf, val); err != nil {
				return nil, fmt.Errorf("triangle: param %d value chunk: %w", i, err)
			}
		default:
			if err := wire.WriteChunk(&buf, nil); err != nil {
				return nil, fmt.Errorf("triangle: param %d empty chunk: %w", i, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// Deserialize is the inverse of Serialize (property R1).
func (c *Call) Deserialize(b []byte) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("triangle: short header: got %d want >= %d", len(b), HeaderSize)
	}
	r := bytes.NewReader(b)
	if _, err := r.Read(c.UUID[:]); err != nil {
		return fmt.Errorf("triangle: read uuid: %w", err)
	}
	var err error
	if c.SessionID, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.CmdID, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.ReturnCode, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.ReturnOrigin, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.LoginMethod, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.LoginMdata, err = wire.ReadU32(r); err != nil {
		return err
	}
	rawParams := make([][24]byte, 4)
	for i := 0; i < 4; i++ {
		if _, err := r.Read(rawParams[i][:]); err != nil {
			return fmt.Errorf("triangle: read param %d slot: %w", i, err)
		}
	}
	if c.ParamTypes, err = wire.ReadU32(r); err != nil {
		return err
	}
	if c.Started, err = wire.ReadU8(r); err != nil {
		return err
	}
	if c.TEECToken, err = wire.ReadU64(r); err != nil {
		return err
	}

	rest := b[HeaderSize:]
	rr := bytes.NewReader(rest)
	for i := 0; i < 4; i++ {
		kind := c.slotKind(i)
		chunk, err := wire.ReadChunk(rr)
		if err != nil {
			return fmt.Errorf("triangle: read param %d chunk: %w", i, err)
		}
		p := call.Param{Kind: kind}
		if kind.IsMemref() {
			p.Buf = chunk
		} else if kind == call.KindValueIn || kind == call.KindValueOut || kind == call.KindValueInOut {
			if len(chunk) >= 16 {
				p.ValA = wire.U64(chunk[0:8])
				p.ValB = wire.U64(chunk[8:16])
			} else {
				// On-disk recordings carry no value chunk; the two words
				// live in the header's parameter slot.
				p.ValA = wire.U64(rawParams[i][0:8])
				p.ValB = wire.U64(rawParams[i][8:16])
			}
		}
		c.params[i] = p
	}
	return nil
}

// SerializeToPath writes the on-disk recording layout for this call (one
// file per meaningful component, spec.md §4.3/§6.3).
func (c *Call) SerializeToPath(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("triangle: mkdir %s: %w", dir, err)
	}
	b, err := c.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "clientcontext"), b[:HeaderSize], 0o644); err != nil {
		return fmt.Errorf("triangle: write header: %w", err)
	}
	for i, p := range c.params {
		if !p.Kind.IsMemref() {
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("param%d", i))
		if err := os.WriteFile(name, p.Buf, 0o644); err != nil {
			return fmt.Errorf("triangle: write param %d: %w", i, err)
		}
	}
	return nil
}

// DeserializeRawFromPath is the inverse of SerializeToPath.
func (c *Call) DeserializeRawFromPath(dir string) error {
	header, err := os.ReadFile(filepath.Join(dir, "clientcontext"))
	if err != nil {
		return fmt.Errorf("triangle: read header: %w", err)
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

// Mutate mutates the non-parameter header fields cmd id and login method in
// place via fn; return code and origin are left unchanged.
func (c *Call) Mutate(fn call.MutateFn) {
	c.CmdID = wire.U32(fn(wire.PutU32(c.CmdID)))
	c.LoginMethod = wire.U32(fn(wire.PutU32(c.LoginMethod)))
}

// Resolve copies a byte range from this call's output parameter into dst's
// input parameter.
func (c *Call) Resolve(dst call.Call, vd call.ValueDependency) error {
	if vd.SrcParam < 0 || vd.SrcParam >= len(c.params) {
		return fmt.Errorf("triangle: src param %d out of range", vd.SrcParam)
	}
	dstParams := dst.Params()
	if vd.DstParam < 0 || vd.DstParam >= len(dstParams) {
		return fmt.Errorf("triangle: dst param %d out of range", vd.DstParam)
	}
	src := c.params[vd.SrcParam].Buf
	if vd.SrcOff+vd.Size > len(src) {
		return fmt.Errorf("triangle: src range [%d,%d) exceeds buffer len %d", vd.SrcOff, vd.SrcOff+vd.Size, len(src))
	}
	dstBuf := dstParams[vd.DstParam].Buf
	if vd.DstOff+vd.Size > len(dstBuf) {
		return fmt.Errorf("triangle: dst range [%d,%d) exceeds buffer len %d", vd.DstOff, vd.DstOff+vd.Size, len(dstBuf))
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
