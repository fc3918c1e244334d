// Package device drives the fuzz loop's device-reset state machine
// (spec.md §4.6): idle/running/timing_out/needs_reset/hard_reset/
// factory_reset transitions, reboot verification, and host/device clock
// sync.
package device

import "fmt"

// State is one node of the device-reset state machine.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateTimingOut
	StateNeedsReset
	StateHardReset
	StateFactoryReset
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTimingOut:
		return "timing_out"
	case StateNeedsReset:
		return "needs_reset"
	case StateHardReset:
		return "hard_reset"
	case StateFactoryReset:
		return "factory_reset"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Thresholds configures the fuzz-loop transitions that spec.md §4.6 fixes
// at 5 consecutive timeouts, run_count>500, and reboot retried 3 times.
type Thresholds struct {
	ConsecutiveTimeouts int
	MaxRunCount         int
	RebootRetries       int
}

// DefaultThresholds matches the spec's worked example exactly.
func DefaultThresholds() Thresholds {
	return Thresholds{ConsecutiveTimeouts: 5, MaxRunCount: 500, RebootRetries: 3}
}

// Machine tracks one executor session's device-reset state.
type Machine struct {
	thresholds Thresholds

	state           State
	consecutiveTO   int
	runCount        int
	rebootAttempts  int
	inRecovery      bool
	userdataIsTmpfs bool
}

// NewMachine starts a Machine in StateIdle.
func NewMachine(t Thresholds) *Machine {
	return &Machine{thresholds: t, state: StateIdle}
}

// State returns the current node.
func (m *Machine) State() State { return m.state }

// Run transitions idle/timing_out -> running. The consecutive-timeout
// counter carries over when the previous run timed out and is cleared
// otherwise, so only an unbroken series of timed-out runs accumulates.
func (m *Machine) Run() {
	if m.state != StateTimingOut {
		m.consecutiveTO = 0
	}
	m.state = StateRunning
	m.runCount++
	m.checkForcedReset()
}

// Timeout records one timed-out run and transitions running -> timing_out;
// after ConsecutiveTimeouts in a row it escalates to needs_reset.
func (m *Machine) Timeout() {
	m.state = StateTimingOut
	m.consecutiveTO++
	if m.consecutiveTO >= m.thresholds.ConsecutiveTimeouts {
		m.state = StateNeedsReset
	}
}

// NoteDeviceHealth lets the caller report recovery-mode/tmpfs userdata
// observed out of band; it forces factory_reset from any state (spec.md
// §4.6 "any -> device in recovery / userdata=tmpfs -> factory_reset").
func (m *Machine) NoteDeviceHealth(inRecovery, userdataIsTmpfs bool) {
	m.inRecovery = inRecovery
	m.userdataIsTmpfs = userdataIsTmpfs
	if inRecovery || userdataIsTmpfs {
		m.state = StateFactoryReset
	}
}

func (m *Machine) checkForcedReset() {
	if m.runCount > m.thresholds.MaxRunCount {
		m.state = StateNeedsReset
	}
}

// RebootResult reports one reboot attempt's outcome (RebootOK/RebootFailed).
type RebootResult int

const (
	RebootOK RebootResult = iota
	RebootFailed
)

// Reboot advances needs_reset per a single reboot attempt's outcome. On
// success it returns to idle and resets counters; on failure it
// accumulates attempts and escalates to hard_reset after RebootRetries.
func (m *Machine) Reboot(result RebootResult) {
	if m.state != StateNeedsReset {
		return
	}
	switch result {
	case RebootOK:
		m.state = StateIdle
		m.runCount = 0
		m.consecutiveTO = 0
		m.rebootAttempts = 0
	case RebootFailed:
		m.rebootAttempts++
		if m.rebootAttempts >= m.thresholds.RebootRetries {
			m.state = StateHardReset
		}
	}
}

// HardResetRecovered is the external power-cycle transition hard_reset ->
// idle; the caller observes this out of band (spec.md §4.6).
func (m *Machine) HardResetRecovered() {
	if m.state != StateHardReset {
		return
	}
	m.state = StateIdle
	m.runCount = 0
	m.consecutiveTO = 0
	m.rebootAttempts = 0
}

// FactoryResetComplete is the factory_reset -> re-root -> redeploy-executor
// -> idle transition, collapsed to one call since re-root and executor
// redeployment are caller-side subprocess steps outside this state machine.
func (m *Machine) FactoryResetComplete() {
	if m.state != StateFactoryReset {
		return
	}
	m.state = StateIdle
	m.runCount = 0
	m.consecutiveTO = 0
	m.rebootAttempts = 0
	m.inRecovery = false
	m.userdataIsTmpfs = false
}
