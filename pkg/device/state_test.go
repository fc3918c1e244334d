package device_test

import (
	"testing"

	"github.com/hexhive/teezz-fuzz/pkg/device"
)

func TestConsecutiveTimeoutsEscalateToNeedsReset(t *testing.T) {
	m := device.NewMachine(device.DefaultThresholds())
	m.Run()
	for i := 0; i < 4; i++ {
		m.Timeout()
		if m.State() != device.StateTimingOut {
			t.Fatalf("timeout %d: state = %v, want timing_out", i, m.State())
		}
	}
	m.Timeout()
	if m.State() != device.StateNeedsReset {
		t.Fatalf("after 5 consecutive timeouts, state = %v, want needs_reset", m.State())
	}
}

func TestRunCountAboveThresholdForcesReset(t *testing.T) {
	m := device.NewMachine(device.Thresholds{ConsecutiveTimeouts: 5, MaxRunCount: 2, RebootRetries: 3})
	m.Run()
	m.Run()
	if m.State() != device.StateRunning {
		t.Fatalf("state = %v, want running", m.State())
	}
	m.Run()
	if m.State() != device.StateNeedsReset {
		t.Fatalf("after run_count>2, state = %v, want needs_reset", m.State())
	}
}

func TestRebootOKReturnsToIdle(t *testing.T) {
	m := device.NewMachine(device.DefaultThresholds())
	m.Run()
	for i := 0; i < 5; i++ {
		m.Timeout()
	}
	if m.State() != device.StateNeedsReset {
		t.Fatalf("precondition: state = %v, want needs_reset", m.State())
	}
	m.Reboot(device.RebootOK)
	if m.State() != device.StateIdle {
		t.Fatalf("state = %v, want idle", m.State())
	}
}

func TestRebootFailsThriceEscalatesToHardReset(t *testing.T) {
	m := device.NewMachine(device.DefaultThresholds())
	m.Run()
	for i := 0; i < 5; i++ {
		m.Timeout()
	}
	m.Reboot(device.RebootFailed)
	m.Reboot(device.RebootFailed)
	if m.State() != device.StateNeedsReset {
		t.Fatalf("after 2 failed reboots, state = %v, want still needs_reset", m.State())
	}
	m.Reboot(device.RebootFailed)
	if m.State() != device.StateHardReset {
		t.Fatalf("after 3 failed reboots, state = %v, want hard_reset", m.State())
	}
}

func TestHardResetRecoversToIdle(t *testing.T) {
	m := device.NewMachine(device.DefaultThresholds())
	m.Run()
	for i := 0; i < 5; i++ {
		m.Timeout()
	}
	m.Reboot(device.RebootFailed)
	m.Reboot(device.RebootFailed)
	m.Reboot(device.RebootFailed)
	m.HardResetRecovered()
	if m.State() != device.StateIdle {
		t.Fatalf("state = %v, want idle", m.State())
	}
}

func TestRecoveryOrTmpfsForcesFactoryResetFromAnyState(t *testing.T) {
	m := device.NewMachine(device.DefaultThresholds())
	m.Run()
	m.NoteDeviceHealth(true, false)
	if m.State() != device.StateFactoryReset {
		t.Fatalf("state = %v, want factory_reset", m.State())
	}

	m2 := device.NewMachine(device.DefaultThresholds())
	m2.NoteDeviceHealth(false, true)
	if m2.State() != device.StateFactoryReset {
		t.Fatalf("state = %v, want factory_reset", m2.State())
	}
}

func TestFactoryResetCompleteReturnsToIdle(t *testing.T) {
	m := device.NewMachine(device.DefaultThresholds())
	m.NoteDeviceHealth(true, false)
	m.FactoryResetComplete()
	if m.State() != device.StateIdle {
		t.Fatalf("state = %v, want idle", m.State())
	}
}
