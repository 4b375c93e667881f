package posesource

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"vinyasa/internal/logging"
)

const (
	videoDeviceGlob          = "/dev/video*"
	defaultCameraWait        = 30 * time.Second
	cameraPollInterval       = 500 * time.Millisecond
	cameraWaitEvent          = "camera_wait"
	cameraDetectedEvent      = "camera_detected"
	cameraNetlinkFailedEvent = "camera_netlink_failed"
)

// WaitForCamera blocks until a video4linux device is present, the timeout
// lapses, or ctx ends. It listens for udev add events; when the netlink
// socket is unavailable it degrades to polling the device glob.
func WaitForCamera(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultCameraWait
	}
	if cameraPresent() {
		logger.Debug("camera device already present")
		return nil
	}

	logger.Info("waiting for a camera device",
		logging.String(logging.FieldEventType, cameraWaitEvent),
		logging.Duration("timeout", timeout))

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logger.Warn("failed to connect to netlink socket; polling for the camera instead",
			logging.Error(err),
			logging.String(logging.FieldEventType, cameraNetlinkFailedEvent),
			logging.String(logging.FieldErrorHint, "ensure the process may open netlink sockets"),
			logging.String(logging.FieldImpact, "camera detection falls back to periodic checks"))
		return pollForCamera(ctx, timeout)
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, cameraMatcher())
	defer close(monitorQuit)

	// The device may have appeared while the monitor socket was connecting.
	if cameraPresent() {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("no video4linux device appeared within %s", timeout)
		case uevent := <-queue:
			logger.Info("camera device detected",
				logging.String(logging.FieldEventType, cameraDetectedEvent),
				logging.String("device", deviceName(uevent)))
			return nil
		case err := <-errs:
			logger.Warn("netlink monitor error while waiting for the camera",
				logging.Error(err),
				logging.String(logging.FieldEventType, cameraNetlinkFailedEvent),
				logging.String(logging.FieldErrorHint, "check the kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "camera detection may be delayed"))
		}
	}
}

func pollForCamera(ctx context.Context, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(cameraPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("no video4linux device appeared within %s", timeout)
		case <-ticker.C:
			if cameraPresent() {
				return nil
			}
		}
	}
}

func cameraPresent() bool {
	matches, err := filepath.Glob(videoDeviceGlob)
	return err == nil && len(matches) > 0
}

// cameraMatcher matches udev add events for video4linux devices.
func cameraMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
