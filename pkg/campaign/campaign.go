package campaign

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hexhive/teezz-fuzz/pkg/call"
	"github.com/hexhive/teezz-fuzz/pkg/device"
	"github.com/hexhive/teezz-fuzz/pkg/mutate"
	"github.com/hexhive/teezz-fuzz/pkg/protocol"
	"github.com/hexhive/teezz-fuzz/pkg/reporting"
	"github.com/hexhive/teezz-fuzz/pkg/runner"
	"github.com/hexhive/teezz-fuzz/pkg/seed"
)

// Config is everything a Campaign needs to run (spec.md §4.6/§6.3).
type Config struct {
	Variant   call.Variant
	TeeName   string
	Device    string
	OutDir    string
	CorpusDir string

	ExecutorAddr string
	ReadTimeout  time.Duration
	SessionMeta  []protocol.MetadataEntry

	MaxDuration        time.Duration
	MutationDeleteProb float64
	Seed               int64
	Enums              mutate.EnumTable
	Thresholds         device.Thresholds
}

// dir returns the campaign's on-disk layout root,
// <out>/<tee>/<device>/ (spec.md §6.3).
func (c Config) dir() string {
	return filepath.Join(c.OutDir, c.TeeName, c.Device)
}

// Campaign drives one fuzz loop from seed-or-mutate scheduling through
// execution, classification and persistence (spec.md §4.6).
type Campaign struct {
	cfg        Config
	dir        string
	population *Population
	stats      *Stats
	scheduler  *Scheduler
	machine    *device.Machine
	controller *device.Controller
	metrics    *Metrics
	logger     *reporting.Logger
	progress   *reporting.ProgressReporter

	nextID int
	start  time.Time
}

// New constructs a Campaign, loading an existing checkpoint and
// re-hydrating the population from queue/ if the campaign directory
// already has one (spec.md §5 resumability), or loading the initial seed
// corpus otherwise.
func New(cfg Config, logger *reporting.Logger, controller *device.Controller) (*Campaign, error) {
	dir := cfg.dir()
	for _, sub := range []string{"queue", "crashes", "timeouts", "cov"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("campaign: mkdir %s: %w", sub, err)
		}
	}

	stats, err := LoadStats(dir)
	if err != nil {
		return nil, err
	}

	pop := NewPopulation(cfg.Variant, cfg.Seed)
	resuming, err := dirHasEntries(filepath.Join(dir, "queue"))
	if err != nil {
		return nil, fmt.Errorf("campaign: inspect queue dir: %w", err)
	}
	if resuming {
		if err := pop.Rehydrate(filepath.Join(dir, "queue")); err != nil {
			return nil, err
		}
	} else if cfg.CorpusDir != "" {
		if err := pop.LoadCorpus(cfg.CorpusDir); err != nil {
			return nil, err
		}
	}

	thresholds := cfg.Thresholds
	if thresholds == (device.Thresholds{}) {
		thresholds = device.DefaultThresholds()
	}

	return &Campaign{
		cfg:        cfg,
		dir:        dir,
		population: pop,
		stats:      stats,
		scheduler:  NewScheduler(cfg.Seed, cfg.MutationDeleteProb, cfg.Enums),
		machine:    device.NewMachine(thresholds),
		controller: controller,
		metrics:    NewMetrics(string(cfg.Variant), cfg.Device),
		logger:     logger,
		progress:   reporting.NewProgressReporter(reporting.FormatText, logger),
		start:      time.Now(),
	}, nil
}

// Metrics exposes the campaign's Prometheus counters so callers can serve
// them (or not) independently of the fuzz loop itself.
func (c *Campaign) Metrics() *Metrics {
	return c.metrics
}

// Run drives the fuzz loop until ctx is cancelled or the configured
// duration budget (minus any time already spent, per resumability) is
// exhausted. On either condition it checkpoints stats before returning
// (spec.md §5 cancellation).
func (c *Campaign) Run(ctx context.Context) error {
	defer c.checkpoint()

	var deadline time.Time
	if c.cfg.MaxDuration > 0 {
		remaining := c.cfg.MaxDuration - c.stats.ElapsedAtCheckpoint
		if remaining < 0 {
			remaining = 0
		}
		deadline = c.start.Add(remaining)
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("campaign cancelled, checkpointing", "error", ctx.Err())
			return nil
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			c.logger.Info("campaign duration budget exhausted")
			return nil
		}

		if err := c.iterate(ctx); err != nil {
			c.logger.Error("iteration failed", "error", err)
			c.stats.Counters.Errors++
		}

		if c.nextID%20 == 0 {
			c.checkpoint()
		}
	}
}

func (c *Campaign) iterate(ctx context.Context) error {
	c.machine.Run()

	candidate, mutated, err := c.population.Next()
	if err != nil {
		return fmt.Errorf("campaign: select candidate: %w", err)
	}
	if mutated {
		c.scheduler.MutateSequence(candidate)
	}

	res, runErr := c.execute(ctx, candidate)
	if runErr != nil {
		c.stats.Counters.Errors++
		return runErr
	}

	newCov := c.stats.NoteCoverage(res.Coverage)
	c.stats.RecordIteration(res, newCov)
	c.metrics.Observe(res.Outcome.String(), newCov)
	c.progress.ReportSeedOutcome(res.Outcome.String(), res.Replayable)

	if res.Outcome == runner.OutcomeTimeout {
		c.machine.Timeout()
		if c.deviceUnreachable(ctx) {
			c.stats.RecordCrashTimeout()
		}
	}

	if err := c.persist(candidate, res, newCov, mutated); err != nil {
		return err
	}
	if newCov || !mutated {
		c.population.Add(candidate)
	}

	if c.machine.State() == device.StateNeedsReset || c.machine.State() == device.StateHardReset {
		c.reset(ctx)
	}
	return nil
}

func (c *Campaign) execute(ctx context.Context, seq *seed.SeedSequence) (runner.RunResult, error) {
	r, err := runner.Dial(c.cfg.ExecutorAddr, c.cfg.ReadTimeout)
	if err != nil {
		return runner.RunResult{}, fmt.Errorf("campaign: dial executor: %w", err)
	}
	defer r.Close()

	sr := runner.NewSequenceRunner(r, c.cfg.Variant, c.logger)
	return sr.Run(c.cfg.SessionMeta, seq)
}

func (c *Campaign) deviceUnreachable(ctx context.Context) bool {
	if c.controller == nil {
		return false
	}
	conn, err := net.DialTimeout("tcp", c.cfg.ExecutorAddr, time.Second)
	if err != nil {
		return true
	}
	conn.Close()
	return false
}

func (c *Campaign) reset(ctx context.Context) {
	if c.controller == nil {
		// No device under the fuzzer's control (e.g. a pre-provisioned
		// physical target); the operator handles recovery out of band.
		return
	}
	hard := c.machine.State() == device.StateHardReset
	if err := c.controller.Reboot(ctx); err != nil {
		c.logger.Warn("device reboot failed", "error", err)
		c.machine.Reboot(device.RebootFailed)
		return
	}
	c.machine.Reboot(device.RebootOK)
	c.stats.RecordReset(hard, false)
	if hard {
		c.metrics.ObserveReset("hard")
	} else {
		c.metrics.ObserveReset("soft")
	}
}

// persist writes candidate into queue/, crashes/, or timeouts/ depending
// on res.Outcome, under the spec.md §4.6 step-3 naming convention, and
// mirrors new-coverage candidates into cov/.
func (c *Campaign) persist(seq *seed.SeedSequence, res runner.RunResult, newCov, mutated bool) error {
	elapsed := int(c.stats.Elapsed(c.start).Seconds())
	name := candidateName(c.nextID, elapsed, c.stats.Counters.Sequences, c.nextID, mutated)
	c.nextID++

	var subdir string
	switch res.Outcome {
	case runner.OutcomeCrash:
		subdir = "crashes"
	case runner.OutcomeTimeout:
		subdir = "timeouts"
	default:
		subdir = "queue"
	}

	dst := filepath.Join(c.dir, subdir, name)
	if err := seed.StoreSequence(dst, seq, c.cfg.Variant); err != nil {
		return fmt.Errorf("campaign: persist candidate to %s: %w", subdir, err)
	}
	if newCov {
		covDst := filepath.Join(c.dir, "cov", name)
		if err := seed.StoreSequence(covDst, seq, c.cfg.Variant); err != nil {
			return fmt.Errorf("campaign: persist candidate to cov: %w", err)
		}
	}
	return nil
}

func (c *Campaign) checkpoint() {
	now := time.Now()
	c.stats.ElapsedAtCheckpoint += now.Sub(c.start)
	c.start = now
	if err := c.stats.Save(c.dir); err != nil {
		c.logger.Error("failed to checkpoint stats", "error", err)
	}
}

func dirHasEntries(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
