package qsee_test

import (
	"bytes"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/call/qsee"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	c := qsee.New()
	c.CmdID = 99
	c.Status = 0
	c.Origin = 0
	c.SetParams([]call.Param{
		{Kind: call.KindMemrefTempIn, Buf: []byte("req-bytes")},
		{Kind: call.KindMemrefTempOut, Buf: []byte("resp-bytes")},
	})

	b, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	c2 := qsee.New()
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
	if !c2.IsSuccess() {
		t.Fatal("expected success for origin=0,status=0")
	}
	if !bytes.Equal(c2.Params()[qsee.ReqParam].Buf, []byte("req-bytes")) {
		t.Fatalf("req buf lost: %v", c2.Params()[qsee.ReqParam].Buf)
	}
}

func TestIsSuccessRequiresOriginAndStatusZero(t *testing.T) {
	c := qsee.New()
	c.Status = 1
	if c.IsSuccess() {
		t.Fatal("non-zero status must not be success")
	}
}
