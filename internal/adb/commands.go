package adb

import (
	"fmt"
	"strings"
)

// Shell executes a shell command on the device and returns its output
func (c *Controller) Shell(command string) (string, error) {
	return c.exec("shell", command)
}

// Click performs a tap at the specified device pixel coordinates
func (c *Controller) Click(x, y int) error {
	_, err := c.Shell(fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// Pull copies a file from device to local
func (c *Controller) Pull(remotePath, localPath string) error {
	_, err := c.exec("pull", remotePath, localPath)
	return err
}

// Screenshot captures the screen into remotePath on the device and pulls it
// to localPath
func (c *Controller) Screenshot(remotePath, localPath string) error {
	if _, err := c.Shell(fmt.Sprintf("screencap -p %s", remotePath)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := c.Pull(remotePath, localPath); err != nil {
		return fmt.Errorf("failed to pull screenshot: %w", err)
	}
	return nil
}

// GetWindowSize returns the current screen size. An override size, when
// set, wins over the physical size.
func (c *Controller) GetWindowSize() (width, height int, err error) {
	output, err := c.Shell("wm size")
	if err != nil {
		return 0, 0, err
	}
	return ParseWindowSize(output)
}

// ParseWindowSize parses "wm size" output such as "Physical size: 1080x1920"
func ParseWindowSize(output string) (width, height int, err error) {
	found := false
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		var w, h int
		if _, scanErr := fmt.Sscanf(line, "Override size: %dx%d", &w, &h); scanErr == nil {
			return w, h, nil
		}
		if _, scanErr := fmt.Sscanf(line, "Physical size: %dx%d", &w, &h); scanErr == nil {
			width, height, found = w, h, true
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("failed to parse window size: %q", output)
	}
	return width, height, nil
}
