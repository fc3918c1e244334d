package triangle_test

import (
	"bytes"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/call/triangle"
)

// TestSerializeDeserializeRoundTrip exercises property R1: deserialize then
// re-serialize must reproduce the original bytes.
func TestSerializeDeserializeRoundTrip(t *testing.T) {
	c := triangle.New()
	c.SessionID = 7
	c.CmdID = 42
	c.ReturnCode = 0
	c.ReturnOrigin = triangle.OriginTrustedApp
	c.SetParams([]call.Param{
		{Kind: call.KindMemrefTempIn, Buf: []byte("hello")},
		{Kind: call.KindValueIn, ValA: 1, ValB: 2},
		{Kind: call.KindNone},
		{Kind: call.KindNone},
	})

	b, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	c2 := triangle.New()
	if err := c2.Deserialize(b); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	b2, err := c2.Serialize()
	if err != nil {
		t.Fatalf("re-Serialize: %v", err)
	}
	if !bytes.Equal(b, b2) {
		t.Fatalf("round trip mismatch:\n got %v\nwant %v", b2, b)
	}
	if c2.CmdID != 42 || c2.SessionID != 7 {
		t.Fatalf("header fields lost: %+v", c2)
	}
	if !bytes.Equal(c2.Params()[0].Buf, []byte("hello")) {
		t.Fatalf("memref param lost: %v", c2.Params()[0].Buf)
	}
}

func TestIsCrash(t *testing.T) {
	c := triangle.New()
	c.ReturnCode = triangle.TargetDead
	if !c.IsCrash() {
		t.Fatal("expected IsCrash() true for TARGET_DEAD")
	}
	if c.IsSuccess() {
		t.Fatal("crash must not also report success")
	}
}

func TestResolve(t *testing.T) {
	src := triangle.New()
	src.SetParams([]call.Param{{Kind: call.KindMemrefTempOut, Buf: []byte("DEADBEEFCAFEBABE")}})
	dst := triangle.New()
	dst.SetParams([]call.Param{{Kind: call.KindMemrefTempIn, Buf: make([]byte, 8)}})

	err := src.Resolve(dst, call.ValueDependency{SrcParam: 0, DstParam: 0, SrcOff: 4, DstOff: 0, Size: 8})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := string(dst.Params()[0].Buf); got != "BEEFCAFE" {
		t.Fatalf("Resolve copied %q", got)
	}
}
