// Package wire provides the little-endian pack/unpack and length-prefixed
// chunk helpers shared by every on-wire and on-disk codec in this module.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadChunk reads a u32 length prefix followed by that many bytes.
func ReadChunk(r io.Reader) ([]byte, error) {
	n, err := ReadU32(r)
	if err != nil {
		return nil, fmt.Errorf("read chunk length: %w", err)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read chunk body (%d bytes): %w", n, err)
	}
	return buf, nil
}

// WriteChunk writes a u32 length prefix followed by b.
func WriteChunk(w io.Writer, b []byte) error {
	if err := WriteU32(w, uint32(len(b))); err != nil {
		return fmt.Errorf("write chunk length: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write chunk body: %w", err)
	}
	return nil
}

func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func WriteU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func WriteU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func WriteU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// PutU32 encodes v into a freshly allocated 4-byte little-endian slice.
func PutU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// PutU64 encodes v into a freshly allocated 8-byte little-endian slice.
func PutU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// U32 decodes a little-endian u32 at the start of b.
func U32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// U64 decodes a little-endian u64 at the start of b.
func U64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

// IsPrintableASCII reports whether every byte in b is printable ASCII
// (0x20..0x7e) and b is non-empty.
func IsPrintableASCII(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// AllZero reports whether every byte in b is zero. An empty slice is
// considered all-zero.
func AllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
