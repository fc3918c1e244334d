package runner

import (
	"fmt"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/protocol"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
)

// Outcome classifies one campaign iteration's execution result (spec.md §4.6).
type Outcome int

const (
	OutcomeSuccessNewCov Outcome = iota
	OutcomeSuccessOldCov
	OutcomeCrash
	OutcomeTimeout
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccessNewCov:
		return "success-new-cov"
	case OutcomeSuccessOldCov:
		return "success-old-cov"
	case OutcomeCrash:
		return "crash"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// RunResult is what one SequenceRunner.Run produces.
type RunResult struct {
	Outcome       Outcome
	Coverage      []call.Coverage
	Replayable    bool
	ConsecutiveTO int
}

// SequenceRunner drives a whole SeedSequence through one Runner connection
// (spec.md §4.5).
type SequenceRunner struct {
	r       *Runner
	variant call.Variant
	warner  seed.Warner
}

// NewSequenceRunner returns a SequenceRunner bound to an already-dialed
// Runner connection.
func NewSequenceRunner(r *Runner, variant call.Variant, warner seed.Warner) *SequenceRunner {
	return &SequenceRunner{r: r, variant: variant, warner: warner}
}

// Run sends the session START, drives every seed through SEND in order,
// resolving value dependencies as it goes, then sends END.
func (sr *SequenceRunner) Run(meta []protocol.MetadataEntry, seq *seed.SeedSequence) (RunResult, error) {
	if err := sr.r.Start(meta); err != nil {
		return RunResult{}, fmt.Errorf("sequencerunner: start: %w", err)
	}
	defer sr.r.End()

	res := RunResult{Outcome: OutcomeSuccessOldCov, Replayable: true}
	it := seed.NewIterator(seq, sr.warner)

	for {
		s, ok := it.Next()
		if !ok {
			break
		}
		payload, err := s.Input.Serialize()
		if err != nil {
			return RunResult{}, fmt.Errorf("sequencerunner: serialize seed %d input: %w", s.ID, err)
		}
		status, resp, err := sr.r.Send(payload)
		if err != nil {
			return RunResult{}, fmt.Errorf("sequencerunner: send seed %d: %w", s.ID, err)
		}

		switch status {
		case protocol.StatusTimeout:
			res.Outcome = OutcomeTimeout
			return res, nil
		case protocol.StatusError:
			res.Outcome = OutcomeError
			return res, nil
		case protocol.StatusSuccess:
			out, err := call.New(sr.variant)
			if err != nil {
				return RunResult{}, err
			}
			if err := out.Deserialize(resp); err != nil {
				// Malformed response: reported, connection closed by the
				// caller, run aborted, candidate discarded (not a crash).
				return RunResult{}, fmt.Errorf("sequencerunner: malformed response for seed %d: %w", s.ID, err)
			}
			if prevOut := s.Output; prevOut != nil && prevOut.IsSuccess() != out.IsSuccess() {
				res.Replayable = false
			}
			s.Output = out
			res.Coverage = append(res.Coverage, out.Coverage())
			if out.IsCrash() {
				res.Outcome = OutcomeCrash
				return res, nil
			}
		}
	}
	return res, nil
}
