package adb

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// FindADB locates the adb executable. preferredPath may be the executable
// itself or a directory containing it.
func FindADB(preferredPath string) (string, error) {
	exe := "adb"
	if runtime.GOOS == "windows" {
		exe = "adb.exe"
	}

	if preferredPath != "" {
		candidates := []string{
			preferredPath,
			filepath.Join(preferredPath, exe),
			filepath.Join(preferredPath, "platform-tools", exe),
		}
		for _, candidate := range candidates {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}

	if path, err := exec.LookPath(exe); err == nil {
		return path, nil
	}

	commonPaths := []string{
		"/usr/bin/adb",
		"/usr/local/bin/adb",
		"$HOME/Android/Sdk/platform-tools/adb",
		"$ANDROID_HOME/platform-tools/adb",
	}
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\Android\sdk\platform-tools\adb.exe`,
			`$LOCALAPPDATA\Android\Sdk\platform-tools\adb.exe`,
			`$ANDROID_HOME\platform-tools\adb.exe`,
		}
	}

	for _, path := range commonPaths {
		expanded := os.ExpandEnv(path)
		if _, err := os.Stat(expanded); err == nil {
			return expanded, nil
		}
	}

	return "", fmt.Errorf("adb not found, please specify adbPath in config")
}

// AutoSerial selects the only attached device
const AutoSerial = "auto"

// ErrNoDevice means serial auto-selection found no usable device
var ErrNoDevice = errors.New("no attached device")

// ListDevices returns the serials of attached devices in "device" state
func ListDevices(adbPath string) ([]string, error) {
	return listDevices(execRunner, adbPath)
}

func listDevices(run runner, adbPath string) ([]string, error) {
	output, err := run(adbPath, "devices")
	if err != nil {
		return nil, fmt.Errorf("%w: adb devices: %v, output: %s", ErrDeviceChannel, err, output)
	}
	return parseDevices(string(output)), nil
}

// resolveSerial returns serial unless it is empty or AutoSerial, in which
// case the single attached device is used. Several devices are ambiguous.
func resolveSerial(run runner, adbPath, serial string) (string, error) {
	if serial != "" && !strings.EqualFold(serial, AutoSerial) {
		return serial, nil
	}

	serials, err := listDevices(run, adbPath)
	if err != nil {
		return "", err
	}
	switch len(serials) {
	case 0:
		return "", ErrNoDevice
	case 1:
		return serials[0], nil
	default:
		return "", fmt.Errorf("%w: %d devices attached (%s), set serial", ErrNoDevice, len(serials), strings.Join(serials, ", "))
	}
}

func parseDevices(output string) []string {
	var serials []string
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Fields(line)
		if len(parts) >= 2 && parts[1] == "device" {
			serials = append(serials, parts[0])
		}
	}
	return serials
}

// ConnectADB finds adb and connects to serial. An empty serial or "auto"
// picks the only attached device.
func ConnectADB(adbPath, serial string) (*Controller, error) {
	path, err := FindADB(adbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find ADB: %w", err)
	}

	serial, err = resolveSerial(execRunner, path, serial)
	if err != nil {
		return nil, fmt.Errorf("failed to select device: %w", err)
	}

	ctrl := NewController(path, serial)
	if err := ctrl.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to device: %w", err)
	}
	return ctrl, nil
}
