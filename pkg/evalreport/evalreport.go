// Package evalreport aggregates device-side evaluation log lines into
// per-TEE per-command summary counts (spec.md §4.7). It is grounded on the
// spec's own description of the log line format; no teacher or pack file
// addresses this directly, so the ambient stack (structured errors,
// stdlib-only parsing) follows the rest of this module's conventions
// rather than a specific retrieved file.
package evalreport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Variant names the TEE client ABI a log was captured against, mirroring
// call.Variant without importing it (this package has no need for the
// Call interface itself).
type Variant string

const (
	VariantTriangle Variant = "triangle"
	VariantOptee    Variant = "optee"
	VariantQsee     Variant = "qsee"
)

// Line is one parsed structured log record:
// "hh:mm:ss:ns;<cmd>;<ioctl_ret>;<status>;<origin>;<smc_flag>".
type Line struct {
	Timestamp string
	Cmd       string
	IoctlRet  int64
	Status    int64
	Origin    int64
	SMCFlag   bool
}

// ParseLine parses one log line. Malformed lines (wrong field count,
// unparsable integers) return an error so the caller can filter them, per
// spec.md §4.7 "filters malformed and sentinel lines".
func ParseLine(raw string) (Line, error) {
	fields := strings.Split(raw, ";")
	if len(fields) != 6 {
		return Line{}, fmt.Errorf("evalreport: expected 6 fields, got %d", len(fields))
	}
	ioctlRet, err := strconv.ParseInt(fields[2], 0, 64)
	if err != nil {
		return Line{}, fmt.Errorf("evalreport: parse ioctl_ret: %w", err)
	}
	status, err := strconv.ParseInt(fields[3], 0, 64)
	if err != nil {
		return Line{}, fmt.Errorf("evalreport: parse status: %w", err)
	}
	origin, err := strconv.ParseInt(fields[4], 0, 64)
	if err != nil {
		return Line{}, fmt.Errorf("evalreport: parse origin: %w", err)
	}
	smcFlag, err := strconv.ParseInt(fields[5], 0, 64)
	if err != nil {
		return Line{}, fmt.Errorf("evalreport: parse smc_flag: %w", err)
	}
	if fields[1] == "" {
		return Line{}, fmt.Errorf("evalreport: empty cmd field")
	}
	return Line{
		Timestamp: fields[0],
		Cmd:       fields[1],
		IoctlRet:  ioctlRet,
		Status:    status,
		Origin:    origin,
		SMCFlag:   smcFlag != 0,
	}, nil
}

// isSentinel reports whether l is a sentinel record with nothing to
// aggregate (both ioctl and SMC fields at their zero/unset values).
func isSentinel(l Line) bool {
	return l.IoctlRet == 0 && l.Status == 0 && l.Origin == 0 && !l.SMCFlag
}

// CommandCounts is one command's aggregated §4.7 counters.
type CommandCounts struct {
	IoctlTotal   int
	IoctlSuccess int
	SMCTotal     int
	SMCValid     int
}

// smcValid applies the variant-specific validity predicate (spec.md §4.7).
func smcValid(v Variant, l Line) bool {
	switch v {
	case VariantTriangle:
		return isOneOf(l.Origin, 0, 3, 4) && !isOneOf(l.Status, 1, 2, 3)
	case VariantOptee:
		return isOneOf(l.Origin, 0, 3, 4)
	case VariantQsee:
		return l.Origin == 0 && l.Status == 0
	default:
		return false
	}
}

func isOneOf(v int64, candidates ...int64) bool {
	for _, c := range candidates {
		if v == c {
			return true
		}
	}
	return false
}

// Aggregate reads structured log lines from r and returns per-command
// counts, filtering malformed and sentinel lines before folding the rest
// in (spec.md §4.7).
func Aggregate(r io.Reader, variant Variant) (map[string]CommandCounts, error) {
	counts := make(map[string]CommandCounts)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		l, err := ParseLine(raw)
		if err != nil {
			continue
		}
		if isSentinel(l) {
			continue
		}
		c := counts[l.Cmd]
		c.IoctlTotal++
		if l.IoctlRet == 0 {
			c.IoctlSuccess++
		}
		if l.SMCFlag {
			c.SMCTotal++
			if smcValid(variant, l) {
				c.SMCValid++
			}
		}
		counts[l.Cmd] = c
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("evalreport: scan log: %w", err)
	}
	return counts, nil
}
