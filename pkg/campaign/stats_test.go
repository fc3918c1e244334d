package campaign_test

import (
	"path/filepath"
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/campaign"
	"github.com/hexhive/teezz-fuzz/pkg/runner"
)

func TestNoteCoverageReportsNewOnlyOnce(t *testing.T) {
	s := campaign.NewStats()
	cov := []call.Coverage{{1, 2, 3, 4}}

	if !s.NoteCoverage(cov) {
		t.Fatal("expected first observation to be new")
	}
	if s.NoteCoverage(cov) {
		t.Fatal("expected repeated observation to not be new")
	}
}

func TestRecordIterationCounters(t *testing.T) {
	s := campaign.NewStats()
	s.RecordIteration(runner.RunResult{Outcome: runner.OutcomeSuccessNewCov, Coverage: []call.Coverage{{1, 0, 0, 0}}}, true)
	s.RecordIteration(runner.RunResult{Outcome: runner.OutcomeCrash}, false)
	s.RecordIteration(runner.RunResult{Outcome: runner.OutcomeTimeout}, false)
	s.RecordIteration(runner.RunResult{Outcome: runner.OutcomeError}, false)

	if s.Counters.Sequences != 4 {
		t.Fatalf("Sequences = %d, want 4", s.Counters.Sequences)
	}
	if s.Counters.Successes != 1 || s.Counters.NewCoverage != 1 {
		t.Fatalf("successes/new_cov = %d/%d, want 1/1", s.Counters.Successes, s.Counters.NewCoverage)
	}
	if s.Counters.Crashes != 1 || s.Counters.Timeouts != 1 || s.Counters.Errors != 1 {
		t.Fatalf("unexpected counters: %+v", s.Counters)
	}
}

func TestStatsSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := campaign.NewStats()
	cov := []call.Coverage{{9, 9, 9, 9}}
	s.NoteCoverage(cov)
	s.RecordIteration(runner.RunResult{Outcome: runner.OutcomeSuccessNewCov, Coverage: cov}, true)

	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := campaign.LoadStats(dir)
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if loaded.Counters.Sequences != 1 {
		t.Fatalf("loaded Sequences = %d, want 1", loaded.Counters.Sequences)
	}
	if loaded.NoteCoverage(cov) {
		t.Fatal("coverage tuple should have been rehydrated as already-seen")
	}
}

func TestLoadStatsMissingFileReturnsFresh(t *testing.T) {
	s, err := campaign.LoadStats(filepath.Join(t.TempDir(), "nonexistent"))
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if s.Counters.Sequences != 0 {
		t.Fatalf("expected zero-valued stats, got %+v", s.Counters)
	}
}
