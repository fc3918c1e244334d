// Package protocol implements the executor's host-to-device wire protocol:
// command framing and the session-metadata blob (spec.md §6.1).
package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// Command bytes (spec.md §6.1).
type Command byte

const (
	CmdStart     Command = 0x01
	CmdSend      Command = 0x02
	CmdEnd       Command = 0x03
	CmdTerminate Command = 0x04
)

// Status words returned after a SEND command (spec.md §4.5).
type Status uint32

const (
	StatusSuccess Status = 42
	StatusError   Status = 1
	StatusTimeout Status = 2 // synthesised by the host, never sent by the executor
)

// WriteCommand writes one command frame: a command byte, a u32 length,
// and payload.
func WriteCommand(w io.Writer, cmd Command, payload []byte) error {
	if _, err := w.Write([]byte{byte(cmd)}); err != nil {
		return fmt.Errorf("protocol: write command byte: %w", err)
	}
	if err := wire.WriteChunk(w, payload); err != nil {
		return fmt.Errorf("protocol: write command %#x payload: %w", cmd, err)
	}
	return nil
}

// MetadataEntry is one (key, value) record of the session-metadata blob.
type MetadataEntry struct {
	Key   string
	Value []byte
}

// EncodeMetadata concatenates entries into the session-metadata blob: each
// entry is (u8 key_len, key_bytes, u32 val_len, val_bytes).
func EncodeMetadata(entries []MetadataEntry) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		if len(e.Key) > 0xFF {
			return nil, fmt.Errorf("protocol: metadata key %q too long", e.Key)
		}
		buf.WriteByte(byte(len(e.Key)))
		buf.WriteString(e.Key)
		if err := wire.WriteChunk(&buf, e.Value); err != nil {
			return nil, fmt.Errorf("protocol: write metadata value for %q: %w", e.Key, err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeMetadata is the inverse of EncodeMetadata.
func DecodeMetadata(b []byte) ([]MetadataEntry, error) {
	r := bytes.NewReader(b)
	var entries []MetadataEntry
	for r.Len() > 0 {
		keyLen, err := wire.ReadU8(r)
		if err != nil {
			return nil, fmt.Errorf("protocol: read metadata key length: %w", err)
		}
		keyBuf := make([]byte, keyLen)
		if _, err := io.ReadFull(r, keyBuf); err != nil {
			return nil, fmt.Errorf("protocol: read metadata key: %w", err)
		}
		val, err := wire.ReadChunk(r)
		if err != nil {
			return nil, fmt.Errorf("protocol: read metadata value for %q: %w", keyBuf, err)
		}
		entries = append(entries, MetadataEntry{Key: string(keyBuf), Value: val})
	}
	return entries, nil
}

// Known session-metadata keys per variant (spec.md §6.1).
const (
	KeyUUID        = "uuid"
	KeyLoginBlob   = "login_blob"
	KeyProcessName = "process_name"
	KeyUID         = "uid"
	KeyPath        = "path"
	KeyFname       = "fname"
	KeySBSize      = "sb_size"
)
