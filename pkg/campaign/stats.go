// Package campaign drives the fuzz loop (spec.md §4.6): seed-or-mutate
// scheduling, SequenceRunner execution, outcome classification, on-disk
// persistence, the device-reset state machine, and a resumable stats
// checkpoint. It is grounded on the teacher's pkg/fuzz.Runner loop shape
// (config struct, ctx-driven Run, JSONL-style logging) generalized from
// chaos-round sampling to seed-sequence fuzzing.
package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/reporting"
	"github.com/hexhive/teezz-fuzz/pkg/runner"
)

// statsFile is the on-disk checkpoint name under a campaign directory
// (spec.md §6.3).
const statsFile = "stats.json"

// Stats accumulates campaign counters and the set of coverage tuples seen
// so far (spec.md §4.6 step 4), and checkpoints both to disk.
type Stats struct {
	Counters reporting.CounterSnapshot `json:"counters"`
	// Coverage is the seen set serialised as a flat list of 4-tuples; in
	// memory the set is kept as a map for O(1) new-coverage checks.
	Coverage []call.Coverage `json:"seen_coverage"`

	// ElapsedAtCheckpoint is the campaign's accumulated runtime as of the
	// last Save, used to subtract already-spent wall-clock time from a
	// resumed campaign's budget (spec.md §5 resumability).
	ElapsedAtCheckpoint time.Duration `json:"elapsed_at_checkpoint"`

	seen map[call.Coverage]struct{}
}

// NewStats returns an empty checkpoint.
func NewStats() *Stats {
	return &Stats{seen: make(map[call.Coverage]struct{})}
}

// LoadStats reads dir/stats.json, or returns a fresh Stats if absent
// (spec.md §5 "on start-up, if a stats file exists, the fuzzer loads it").
func LoadStats(dir string) (*Stats, error) {
	data, err := os.ReadFile(filepath.Join(dir, statsFile))
	if os.IsNotExist(err) {
		return NewStats(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("campaign: read stats checkpoint: %w", err)
	}
	var s Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("campaign: decode stats checkpoint: %w", err)
	}
	s.seen = make(map[call.Coverage]struct{}, len(s.Coverage))
	for _, c := range s.Coverage {
		s.seen[c] = struct{}{}
	}
	return &s, nil
}

// Save checkpoints s to dir/stats.json, rolling the set of coverage tuples
// back into the flat slice form first.
func (s *Stats) Save(dir string) error {
	s.Coverage = s.Coverage[:0]
	for c := range s.seen {
		s.Coverage = append(s.Coverage, c)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("campaign: encode stats checkpoint: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, statsFile), data, 0o644); err != nil {
		return fmt.Errorf("campaign: write stats checkpoint: %w", err)
	}
	return nil
}

// NoteCoverage folds cov into the seen set and reports whether any tuple in
// it was previously unseen.
func (s *Stats) NoteCoverage(cov []call.Coverage) bool {
	if s.seen == nil {
		s.seen = make(map[call.Coverage]struct{})
	}
	isNew := false
	for _, c := range cov {
		if _, ok := s.seen[c]; !ok {
			s.seen[c] = struct{}{}
			isNew = true
		}
	}
	return isNew
}

// RecordIteration folds one executed candidate's result into the campaign
// counters (spec.md §4.6 step 4).
func (s *Stats) RecordIteration(res runner.RunResult, newCov bool) {
	s.Counters.Sequences++
	s.Counters.Interactions += len(res.Coverage)

	switch res.Outcome {
	case runner.OutcomeSuccessNewCov, runner.OutcomeSuccessOldCov:
		s.Counters.Successes++
		if newCov {
			s.Counters.NewCoverage++
		}
	case runner.OutcomeCrash:
		s.Counters.Crashes++
	case runner.OutcomeTimeout:
		s.Counters.Timeouts++
	case runner.OutcomeError:
		s.Counters.Errors++
	}
}

// RecordCrashTimeout records a timeout whose device is absent afterward
// (spec.md §4.6 "an absent device after timeout counts as crash-timeout").
func (s *Stats) RecordCrashTimeout() { s.Counters.CrashTimeouts++ }

// RecordReset records a device-reset transition of the given severity.
func (s *Stats) RecordReset(hard, factory bool) {
	s.Counters.Resets++
	if hard {
		s.Counters.HardResets++
	}
	if factory {
		s.Counters.FactoryResets++
	}
}

// RecordTA records one trusted-application-level success/failure, derived
// from the response's IsSuccess() independent of transport outcome.
func (s *Stats) RecordTA(success bool) {
	if success {
		s.Counters.TASuccesses++
	} else {
		s.Counters.TAFails++
	}
}

// Elapsed returns the campaign's total runtime: the checkpointed elapsed
// time plus time spent since start, per spec.md §5's resumability rule.
func (s *Stats) Elapsed(since time.Time) time.Duration {
	return s.ElapsedAtCheckpoint + time.Since(since)
}
