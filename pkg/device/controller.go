package device

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"
	"github.com/rs/zerolog/log"
)

// SuperuserPrincipal is the privileged whoami output a reboot must show
// before the device is considered ready (spec.md §4.6).
const SuperuserPrincipal = "root"

// Controller drives device-reset transitions against a container standing
// in for the physical TEE-capable device: stop/wait/start/inspect mirrors
// the restart sequence used elsewhere in this codebase for container
// faults, repurposed here to the fuzzer's own reboot/readiness checks
// rather than fault injection.
type Controller struct {
	docker      *dockerclient.Client
	containerID string

	settleTimeout time.Duration
	stopTimeout   time.Duration
}

// NewController wraps an existing Docker client for the named container.
func NewController(docker *dockerclient.Client, containerID string) *Controller {
	return &Controller{
		docker:        docker,
		containerID:   containerID,
		settleTimeout: 30 * time.Second,
		stopTimeout:   10 * time.Second,
	}
}

// Reboot stops and restarts the device container, then verifies readiness
// via WaitReady+VerifyWhoami and syncs the device clock to the host
// (spec.md §4.6: "A successful reboot is verified by waiting for device
// readiness... Time on the device is synced to the host after every
// reboot").
func (c *Controller) Reboot(ctx context.Context) error {
	log.Info().Str("container", c.containerID).Msg("rebooting device")

	timeout := int(c.stopTimeout.Seconds())
	if err := c.docker.ContainerStop(ctx, c.containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("device: stop: %w", err)
	}
	if err := c.waitForState(ctx, false, c.settleTimeout); err != nil {
		return fmt.Errorf("device: container did not stop: %w", err)
	}
	if err := c.docker.ContainerStart(ctx, c.containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("device: start: %w", err)
	}
	if err := c.waitForState(ctx, true, 120*time.Second); err != nil {
		return fmt.Errorf("device: container did not start: %w", err)
	}
	if err := c.WaitReady(ctx, c.settleTimeout); err != nil {
		return fmt.Errorf("device: not ready after reboot: %w", err)
	}
	if err := c.SyncClock(ctx); err != nil {
		return fmt.Errorf("device: clock sync: %w", err)
	}
	return nil
}

func (c *Controller) waitForState(ctx context.Context, running bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		inspect, err := c.docker.ContainerInspect(ctx, c.containerID)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		if inspect.State.Running == running {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return fmt.Errorf("timed out waiting for running=%v", running)
}

// WaitReady polls the container until VerifyWhoami succeeds or timeout
// elapses.
func (c *Controller) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if lastErr = c.VerifyWhoami(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return fmt.Errorf("device not ready: %w", lastErr)
}

// VerifyWhoami runs a privileged whoami in the device container and
// checks the result against SuperuserPrincipal.
func (c *Controller) VerifyWhoami(ctx context.Context) error {
	out, err := c.exec(ctx, []string{"whoami"})
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != SuperuserPrincipal {
		return fmt.Errorf("unexpected principal %q", strings.TrimSpace(out))
	}
	return nil
}

// SyncClock sets the device's clock from the host's current time so
// on-device log timestamps stay linear across reboots.
func (c *Controller) SyncClock(ctx context.Context) error {
	stamp := time.Now().UTC().Format("2006-01-02 15:04:05")
	_, err := c.exec(ctx, []string{"date", "-u", "-s", stamp})
	return err
}

// InRecovery reports whether the device has not finished booting
// (sys.boot_completed is not "1"); a console that cannot be reached counts
// as in recovery.
func (c *Controller) InRecovery(ctx context.Context) (bool, error) {
	out, err := c.exec(ctx, []string{"getprop", "sys.boot_completed"})
	if err != nil {
		return true, nil // unreachable console reads as "in recovery"
	}
	return strings.TrimSpace(out) != "1", nil
}

// UserdataIsTmpfs reports whether /data is mounted tmpfs, the signal the
// fuzz loop treats as "factory reset required" (spec.md §4.6).
func (c *Controller) UserdataIsTmpfs(ctx context.Context) (bool, error) {
	out, err := c.exec(ctx, []string{"sh", "-c", "mount | grep ' /data '"})
	if err != nil {
		return false, nil
	}
	return strings.Contains(out, "tmpfs"), nil
}

func (c *Controller) exec(ctx context.Context, cmd []string) (string, error) {
	execResp, err := c.docker.ContainerExecCreate(ctx, c.containerID, types.ExecConfig{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("exec create: %w", err)
	}
	attach, err := c.docker.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{})
	if err != nil {
		return "", fmt.Errorf("exec attach: %w", err)
	}
	defer attach.Close()

	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, rerr := attach.Reader.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if rerr != nil {
			break
		}
	}

	inspect, err := c.docker.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return sb.String(), fmt.Errorf("exec inspect: %w", err)
	}
	if inspect.ExitCode != 0 {
		return sb.String(), fmt.Errorf("exit code %d: %s", inspect.ExitCode, sb.String())
	}
	return sb.String(), nil
}
