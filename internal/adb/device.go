package adb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"jordanella.com/card-battle-go/internal/cv"
	"jordanella.com/card-battle-go/internal/logging"
)

// Default screenshot locations
const (
	DefaultRemotePath = "/sdcard/screen.png"
	DefaultLocalPath  = "screen.png"
)

// Device adapts a Controller to the capture and tap operations the bot needs
type Device struct {
	ctrl       *Controller
	remotePath string
	localPath  string
	logger     *logging.Logger
}

// NewDevice creates a device adapter writing screenshots to localPath
func NewDevice(ctrl *Controller, remotePath, localPath string, logger *logging.Logger) *Device {
	if remotePath == "" {
		remotePath = DefaultRemotePath
	}
	if localPath == "" {
		localPath = DefaultLocalPath
	}
	return &Device{
		ctrl:       ctrl,
		remotePath: remotePath,
		localPath:  localPath,
		logger:     logger.Component("Device"),
	}
}

// Controller returns the underlying ADB controller
func (d *Device) Controller() *Controller {
	return d.ctrl
}

// CaptureFrame takes a screenshot and decodes it. The previous screenshot is
// removed first, so a failed transfer surfaces as cv.ErrAssetMissing rather
// than a stale frame. Channel errors are only logged; the presence of the
// pulled file decides the outcome.
func (d *Device) CaptureFrame() (*cv.Frame, error) {
	if err := os.Remove(d.localPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.logger.Warnf("failed to remove stale screenshot %s: %v", d.localPath, err)
	}

	if err := d.ctrl.Screenshot(d.remotePath, d.localPath); err != nil {
		d.logger.Error("screenshot command failed", err)
	}

	frame, err := cv.LoadFrame(d.localPath)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return frame, nil
}

// Tap sends a tap. A failing channel is logged and returned.
func (d *Device) Tap(x, y int) error {
	if err := d.ctrl.Click(x, y); err != nil {
		d.logger.ErrorWithContext("tap failed", err, map[string]interface{}{"x": x, "y": y})
		return err
	}
	return nil
}

// ScreenSize returns the device resolution reported by "wm size"
func (d *Device) ScreenSize() (int, int, error) {
	return d.ctrl.GetWindowSize()
}
