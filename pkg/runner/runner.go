// Package runner implements the TCP client of the on-device executor:
// Runner drives the raw wire protocol (spec.md §4.5/§6.1); SequenceRunner
// drives a whole SeedSequence through it, extracting coverage and
// detecting crashes/timeouts.
package runner

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/hexhive/teezz-fuzz/pkg/protocol"
	"github.com/hexhive/teezz-fuzz/pkg/wire"
)

// DefaultReadTimeout is the per-read deadline past which a stalled receive
// is converted into a synthetic TIMEOUT status (spec.md §4.5/§5).
const DefaultReadTimeout = 10 * time.Second

// Runner owns one TCP connection to the executor's control port.
type Runner struct {
	conn        net.Conn
	readTimeout time.Duration
}

// Dial opens a connection to the executor at addr.
func Dial(addr string, readTimeout time.Duration) (*Runner, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("runner: dial %s: %w", addr, err)
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Runner{conn: conn, readTimeout: readTimeout}, nil
}

// Close closes the underlying connection.
func (r *Runner) Close() error { return r.conn.Close() }

// Start sends the START command with the encoded session-metadata blob.
func (r *Runner) Start(entries []protocol.MetadataEntry) error {
	blob, err := protocol.EncodeMetadata(entries)
	if err != nil {
		return fmt.Errorf("runner: encode session metadata: %w", err)
	}
	return protocol.WriteCommand(r.conn, protocol.CmdStart, blob)
}

// End sends the END command.
func (r *Runner) End() error {
	return protocol.WriteCommand(r.conn, protocol.CmdEnd, nil)
}

// Terminate sends the TERMINATE command, shutting the executor down
// cleanly.
func (r *Runner) Terminate() error {
	return protocol.WriteCommand(r.conn, protocol.CmdTerminate, nil)
}

// Send transmits a serialized Call and returns the status word and, on
// StatusSuccess, the response payload. A stalled read past the configured
// deadline (socket timeout or peer reset) is reported as StatusTimeout
// rather than an error, matching spec.md's "TIMEOUT is synthesised by the
// host" rule.
func (r *Runner) Send(payload []byte) (protocol.Status, []byte, error) {
	if err := protocol.WriteCommand(r.conn, protocol.CmdSend, payload); err != nil {
		return 0, nil, fmt.Errorf("runner: write SEND: %w", err)
	}
	if err := r.conn.SetReadDeadline(time.Now().Add(r.readTimeout)); err != nil {
		return 0, nil, fmt.Errorf("runner: set read deadline: %w", err)
	}
	status32, err := wire.ReadU32(r.conn)
	if err != nil {
		if isTimeout(err) {
			return protocol.StatusTimeout, nil, nil
		}
		return 0, nil, fmt.Errorf("runner: read status word: %w", err)
	}
	status := protocol.Status(status32)
	if status != protocol.StatusSuccess {
		return status, nil, nil
	}
	resp, err := wire.ReadChunk(r.conn)
	if err != nil {
		if isTimeout(err) {
			return protocol.StatusTimeout, nil, nil
		}
		return 0, nil, fmt.Errorf("runner: read response payload: %w", err)
	}
	return status, resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
