package adb

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ErrDeviceChannel means an adb invocation exited with an error. The wrapped
// message carries the command output.
var ErrDeviceChannel = errors.New("device channel error")

// runner executes one adb invocation and returns its combined output
type runner func(path string, args ...string) ([]byte, error)

func execRunner(path string, args ...string) ([]byte, error) {
	return exec.Command(path, args...).CombinedOutput()
}

// Controller talks to one device through the adb executable
type Controller struct {
	path      string
	serial    string // "emulator-5554" or "127.0.0.1:16416"
	run       runner
	mu        sync.Mutex
	connected bool
}

// NewController creates a new ADB controller for the device serial
func NewController(adbPath, serial string) *Controller {
	return &Controller{
		path:   adbPath,
		serial: serial,
		run:    execRunner,
	}
}

// Serial returns the device serial
func (c *Controller) Serial() string {
	return c.serial
}

// IsNetworkSerial reports whether the serial is a host:port pair that needs
// "adb connect" before use
func IsNetworkSerial(serial string) bool {
	return strings.Contains(serial, ":")
}

// Connect attaches to network devices. Local emulator serials need no
// connect step and succeed immediately.
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !IsNetworkSerial(c.serial) {
		c.connected = true
		return nil
	}

	output, err := c.run(c.path, "connect", c.serial)
	if err != nil {
		return fmt.Errorf("%w: connect %s: %v, output: %s", ErrDeviceChannel, c.serial, err, output)
	}

	// adb connect exits 0 even on failure
	out := string(output)
	if !strings.Contains(out, "connected") || strings.Contains(out, "cannot") || strings.Contains(out, "failed") {
		return fmt.Errorf("%w: unexpected connect output: %s", ErrDeviceChannel, strings.TrimSpace(out))
	}

	c.connected = true
	return nil
}

// Disconnect detaches from the device. Network devices are released with
// "adb disconnect"; local serials are only marked detached.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false

	if !IsNetworkSerial(c.serial) {
		return nil
	}
	if output, err := c.run(c.path, "disconnect", c.serial); err != nil {
		return fmt.Errorf("%w: disconnect %s: %v, output: %s", ErrDeviceChannel, c.serial, err, output)
	}
	return nil
}

// IsConnected returns whether the controller is connected
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// exec runs adb against the controller's device
func (c *Controller) exec(args ...string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full := append([]string{"-s", c.serial}, args...)
	output, err := c.run(c.path, full...)
	if err != nil {
		return "", fmt.Errorf("%w: adb %s: %v, output: %s", ErrDeviceChannel, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}
