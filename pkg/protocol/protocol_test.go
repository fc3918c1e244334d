package protocol_test

import (
	"bytes"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/protocol"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

func TestMetadataRoundTrip(t *testing.T) {
	entries := []protocol.MetadataEntry{
		{Key: protocol.KeyUUID, Value: bytes.Repeat([]byte{0xAA}, 16)},
		{Key: protocol.KeyProcessName, Value: []byte("com.example.app")},
		{Key: protocol.KeyUID, Value: wire.PutU32(1000)},
	}
	enc, err := protocol.EncodeMetadata(entries)
	if err != nil {
		t.Fatalf("EncodeMetadata: %v", err)
	}
	dec, err := protocol.DecodeMetadata(enc)
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if len(dec) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(dec), len(entries))
	}
	for i := range entries {
		if dec[i].Key != entries[i].Key || !bytes.Equal(dec[i].Value, entries[i].Value) {
			t.Errorf("entry %d = %+v, want %+v", i, dec[i], entries[i])
		}
	}
}

func TestWriteCommand(t *testing.T) {
	var buf bytes.Buffer
	if err := protocol.WriteCommand(&buf, protocol.CmdSend, []byte("payload")); err != nil {
		t.Fatalf("WriteCommand: %v", err)
	}
	if buf.Bytes()[0] != byte(protocol.CmdSend) {
		t.Fatalf("command byte = %#x, want %#x", buf.Bytes()[0], protocol.CmdSend)
	}
}
