// Package emergency provides a stop-file based kill switch for a running
// fuzz campaign, alongside the usual signal-based cancellation: an operator
// without shell access to the fuzzer process (e.g. driving it through a
// job scheduler) can still halt it by touching a known path.
package emergency

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// Controller watches for an emergency-stop condition and fans it out to
// registered callbacks exactly once.
type Controller struct {
	stopFile     string
	stopCh       chan struct{}
	stopped      bool
	mutex        sync.RWMutex
	callbacks    []func()
	pollInterval time.Duration
}

// Config configures a Controller.
type Config struct {
	// StopFile is the path whose existence triggers a stop.
	StopFile string
	// PollInterval controls how often StopFile is checked.
	PollInterval time.Duration
}

// New creates a Controller, applying defaults for zero-value fields.
func New(config Config) *Controller {
	if config.StopFile == "" {
		config.StopFile = "/tmp/teezz-fuzz-stop"
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}

	return &Controller{
		stopFile:     config.StopFile,
		stopCh:       make(chan struct{}),
		pollInterval: config.PollInterval,
	}
}

// Start begins polling for the stop file until ctx is done or a stop is
// triggered.
func (c *Controller) Start(ctx context.Context) {
	go c.watchStopFile(ctx)
}

func (c *Controller) watchStopFile(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.checkStopFile() {
				c.triggerStop("stop file detected: " + c.stopFile)
				return
			}
		}
	}
}

func (c *Controller) checkStopFile() bool {
	_, err := os.Stat(c.stopFile)
	return err == nil
}

func (c *Controller) triggerStop(reason string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)

	for _, callback := range c.callbacks {
		callback()
	}
}

// Stop manually triggers the stop condition, e.g. from a triage command
// that wants to abort an in-progress campaign.
func (c *Controller) Stop(reason string) {
	c.triggerStop(reason)
}

// IsStopped reports whether a stop has already been triggered.
func (c *Controller) IsStopped() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.stopped
}

// StopChannel returns a channel that closes exactly once, when a stop is
// triggered.
func (c *Controller) StopChannel() <-chan struct{} {
	return c.stopCh
}

// OnStop registers a callback run when the stop condition fires. Callbacks
// registered after the stop has already fired never run.
func (c *Controller) OnStop(callback func()) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.stopped {
		return
	}
	c.callbacks = append(c.callbacks, callback)
}

// CreateStopFile writes the stop file, the operator-facing trigger for a
// stop-file watch.
func (c *Controller) CreateStopFile() error {
	f, err := os.Create(c.stopFile)
	if err != nil {
		return fmt.Errorf("emergency: create stop file: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(fmt.Sprintf("stop requested at %s\n", time.Now().Format(time.RFC3339)))
	if err != nil {
		return fmt.Errorf("emergency: write stop file: %w", err)
	}
	return nil
}

// RemoveStopFile clears the stop file so a fresh campaign run isn't halted
// by a stale trigger.
func (c *Controller) RemoveStopFile() error {
	if err := os.Remove(c.stopFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("emergency: remove stop file: %w", err)
	}
	return nil
}

// StopFilePath returns the path being watched.
func (c *Controller) StopFilePath() string {
	return c.stopFile
}
