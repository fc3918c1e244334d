// Package qsee implements the Call capability for the Qualcomm QSEE client
// ABI: a SendCmdReq header carrying request/response length-prefixed
// buffers (spec.md §6.2). A ModfdCmdReq variant additionally carries a
// shared-buffer region; this implementation always reserves that trailing
// region and leaves it empty when unused.
package qsee

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// ReqParam/RespParam index the two MEMREF parameters SendCmdReq always
// carries: the outgoing command buffer and the incoming response buffer.
const (
	ReqParam  = 0
	RespParam = 1
)

// TargetDead is the crash sentinel shared across all three variants.
const TargetDead = 0xFFFF3024

// Call implements call.Call for the QSEE variant.
type Call struct {
	CmdID  uint32
	Status uint32
	Origin uint32

	// SBSize is the ModfdCmdReq shared-buffer size; zero when unused.
	SBSize uint32

	params [4]call.Param
}

var _ call.Call = (*Call)(nil)

func New() *Call {
	c := &Call{}
	c.params[ReqParam] = call.Param{Kind: call.KindMemrefTempIn}
	c.params[RespParam] = call.Param{Kind: call.KindMemrefTempOut}
	return c
}

func init() {
	call.Register(call.VariantQsee, func() call.Call { return New() })
}

func (c *Call) Params() []call.Param { return c.params[:] }

func (c *Call) SetParams(p []call.Param) {
	for i := 0; i < 4 && i < len(p); i++ {
		c.params[i] = p[i]
	}
}

// IsSuccess matches spec.md §4.7's Qsee validity predicate: origin==0 &&
// status==0.
func (c *Call) IsSuccess() bool { return c.Origin == 0 && c.Status == 0 }

func (c *Call) IsCrash() bool { return c.Status == TargetDead }

// Coverage fills the parameter-type-mask slot with SBSize: a SendCmdReq
// carries no parameter-type mask.
func (c *Call) Coverage() call.Coverage {
	return call.Coverage{c.CmdID, c.SBSize, c.Status, c.Origin}
}

func (c *Call) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(wire.PutU32(c.CmdID))
	buf.Write(wire.PutU32(c.Status))
	buf.Write(wire.PutU32(c.Origin))
	buf.Write(wire.PutU32(c.SBSize))

	req := c.params[ReqParam].Buf
	if err := wire.WriteChunk(&buf, req); err != nil {
		return nil, fmt.Errorf("qsee: req chunk: %w", err)
	}
	resp := c.params[RespParam].Buf
	if err := wire.WriteChunk(&buf, resp); err != nil {
		return nil, fmt.Errorf("qsee: resp chunk: %w", err)
	}
	for i := 2; i < 4; i++ {
		p := c.params[i]
		if err := wire.WriteChunk(&buf, p.Buf); err != nil {
			return nil, fmt.Errorf("qsee: param %d chunk: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

func (c *Call) Deserialize(b []byte) error {
	r := bytes.NewReader(b)
	var err error
	if c.CmdID, err = wire.ReadU32(r); err != nil {
		return fmt.Errorf("qsee: read cmd id: %w", err)
	}
	if c.Status, err = wire.ReadU32(r); err != nil {
		return fmt.Errorf("qsee: read status: %w", err)
	}
	if c.Origin, err = wire.ReadU32(r); err != nil {
		return fmt.Errorf("qsee: read origin: %w", err)
	}
	if c.SBSize, err = wire.ReadU32(r); err != nil {
		return fmt.Errorf("qsee: read sb size: %w", err)
	}
	req, err := wire.ReadChunk(r)
	if err != nil {
		return fmt.Errorf("qsee: read req chunk: %w", err)
	}
	resp, err := wire.ReadChunk(r)
	if err != nil {
		return fmt.Errorf("qsee: read resp chunk: %w", err)
	}
	c.params[ReqParam] = call.Param{Kind: call.KindMemrefTempIn, Buf: req}
	c.params[RespParam] = call.Param{Kind: call.KindMemrefTempOut, Buf: resp}
	for i := 2; i < 4; i++ {
		chunk, err := wire.ReadChunk(r)
		if err != nil {
			return fmt.Errorf("qsee: read param %d chunk: %w", i, err)
		}
		c.params[i] = call.Param{Kind: call.KindNone, Buf: chunk}
	}
	return nil
}

func (c *Call) SerializeToPath(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("qsee: mkdir %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sendcmdreq"), wire.PutU32(c.CmdID), 0o644); err != nil {
		return fmt.Errorf("qsee: write header: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "req"), c.params[ReqParam].Buf, 0o644); err != nil {
		return fmt.Errorf("qsee: write req: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "resp"), c.params[RespParam].Buf, 0o644); err != nil {
		return fmt.Errorf("qsee: write resp: %w", err)
	}
	return nil
}

func (c *Call) DeserializeRawFromPath(dir string) error {
	req, err := os.ReadFile(filepath.Join(dir, "req"))
	if err != nil {
		return fmt.Errorf("qsee: read req: %w", err)
	}
	resp, err := os.ReadFile(filepath.Join(dir, "resp"))
	if err != nil {
		return fmt.Errorf("qsee: read resp: %w", err)
	}
	var full bytes.Buffer
	full.Write(wire.PutU32(c.CmdID))
	full.Write(wire.PutU32(c.Status))
	full.Write(wire.PutU32(c.Origin))
	full.Write(wire.PutU32(c.SBSize))
	_ = wire.WriteChunk(&full, req)
	_ = wire.WriteChunk(&full, resp)
	_ = wire.WriteChunk(&full, nil)
	_ = wire.WriteChunk(&full, nil)
	return c.Deserialize(full.Bytes())
}

func (c *Call) Mutate(fn call.MutateFn) {
	c.CmdID = wire.U32(fn(wire.PutU32(c.CmdID)))
}

func (c *Call) Resolve(dst call.Call, vd call.ValueDependency) error {
	if vd.SrcParam < 0 || vd.SrcParam >= len(c.params) {
		return fmt.Errorf("qsee: src param %d out of range", vd.SrcParam)
	}
	dstParams := dst.Params()
	if vd.DstParam < 0 || vd.DstParam >= len(dstParams) {
		return fmt.Errorf("qsee: dst param %d out of range", vd.DstParam)
	}
	src := c.params[vd.SrcParam].Buf
	if vd.SrcOff+vd.Size > len(src) {
		return fmt.Errorf("qsee: src range [%d,%d) exceeds buffer len %d", vd.SrcOff, vd.SrcOff+vd.Size, len(src))
	}
	dstBuf := dstParams[vd.DstParam].Buf
	if vd.DstOff+vd.Size > len(dstBuf) {
		return fmt.Errorf("qsee: dst range [%d,%d) exceeds buffer len %d", vd.DstOff, vd.DstOff+vd.Size, len(dstBuf))
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
