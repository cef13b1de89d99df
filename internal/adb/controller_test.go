package adb

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"jordanella.com/card-battle-go/internal/cv"
	"jordanella.com/card-battle-go/internal/logging"
)

// fakeADB records invocations and answers from a script
type fakeADB struct {
	calls  [][]string
	output map[string]string
	fail   map[string]bool
	onPull func(local string)
}

func (f *fakeADB) run(path string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	key := strings.Join(args, " ")
	for prefix, failed := range f.fail {
		if failed && strings.Contains(key, prefix) {
			return []byte("error: device offline"), errors.New("exit status 1")
		}
	}
	if len(args) >= 5 && args[2] == "pull" && f.onPull != nil {
		f.onPull(args[4])
	}
	for prefix, out := range f.output {
		if strings.Contains(key, prefix) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func newFakeController(f *fakeADB, serial string) *Controller {
	c := NewController("adb", serial)
	c.run = f.run
	return c
}

func TestClickSendsUntranslatedCoordinates(t *testing.T) {
	f := &fakeADB{}
	c := newFakeController(f, "emulator-5554")

	if err := c.Click(170, 890); err != nil {
		t.Fatalf("Click failed: %v", err)
	}

	want := []string{"-s", "emulator-5554", "shell", "input tap 170 890"}
	if len(f.calls) != 1 || !reflect.DeepEqual(f.calls[0], want) {
		t.Errorf("calls = %v, want %v", f.calls, want)
	}
}

func TestShellFailureWrapsDeviceChannel(t *testing.T) {
	f := &fakeADB{fail: map[string]bool{"input tap": true}}
	c := newFakeController(f, "emulator-5554")

	err := c.Click(1, 2)
	if !errors.Is(err, ErrDeviceChannel) {
		t.Fatalf("error = %v, want ErrDeviceChannel", err)
	}
	if !strings.Contains(err.Error(), "device offline") {
		t.Errorf("error should carry command output: %v", err)
	}
}

func TestConnect(t *testing.T) {
	local := &fakeADB{}
	c := newFakeController(local, "emulator-5554")
	if err := c.Connect(); err != nil || !c.IsConnected() {
		t.Fatalf("local serial should connect without adb: %v", err)
	}
	if len(local.calls) != 0 {
		t.Errorf("unexpected adb calls: %v", local.calls)
	}

	network := &fakeADB{output: map[string]string{"connect": "connected to 127.0.0.1:16416"}}
	c = newFakeController(network, "127.0.0.1:16416")
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	refused := &fakeADB{output: map[string]string{"connect": "failed to connect to 127.0.0.1:16416"}}
	c = newFakeController(refused, "127.0.0.1:16416")
	if err := c.Connect(); !errors.Is(err, ErrDeviceChannel) {
		t.Errorf("refused connect error = %v, want ErrDeviceChannel", err)
	}
}

func TestDisconnect(t *testing.T) {
	network := &fakeADB{output: map[string]string{"connect": "connected to 127.0.0.1:16416"}}
	c := newFakeController(network, "127.0.0.1:16416")
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if c.IsConnected() {
		t.Error("controller still connected")
	}

	want := []string{"disconnect", "127.0.0.1:16416"}
	if last := network.calls[len(network.calls)-1]; !reflect.DeepEqual(last, want) {
		t.Errorf("last call = %v, want %v", last, want)
	}

	// A second disconnect is a no-op
	calls := len(network.calls)
	if err := c.Disconnect(); err != nil || len(network.calls) != calls {
		t.Errorf("repeated disconnect ran adb: %v %v", err, network.calls)
	}

	local := &fakeADB{}
	c = newFakeController(local, "emulator-5554")
	c.Connect()
	if err := c.Disconnect(); err != nil || len(local.calls) != 0 {
		t.Errorf("local disconnect = %v, calls %v", err, local.calls)
	}
}

func TestResolveSerial(t *testing.T) {
	tests := []struct {
		name    string
		serial  string
		devices string
		fail    bool
		want    string
		wantErr error
	}{
		{"explicit serial skips adb", "emulator-5556", "", false, "emulator-5556", nil},
		{"empty serial selects", "", "emulator-5554\tdevice\n", false, "emulator-5554", nil},
		{"single device", "auto", "List of devices attached\nemulator-5554\tdevice\n", false, "emulator-5554", nil},
		{"offline devices ignored", "AUTO", "List of devices attached\n127.0.0.1:16416\toffline\nemulator-5556\tdevice\n", false, "emulator-5556", nil},
		{"no device", "auto", "List of devices attached\n\n", false, "", ErrNoDevice},
		{"ambiguous", "auto", "emulator-5554\tdevice\nemulator-5556\tdevice\n", false, "", ErrNoDevice},
		{"adb failure", "auto", "", true, "", ErrDeviceChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeADB{output: map[string]string{"devices": tt.devices}, fail: map[string]bool{"devices": tt.fail}}

			got, err := resolveSerial(f.run, "adb", tt.serial)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("resolveSerial = %q, %v; want %q", got, err, tt.want)
			}
			if tt.serial == "emulator-5556" && len(f.calls) != 0 {
				t.Errorf("explicit serial ran adb: %v", f.calls)
			}
		})
	}
}

func TestParseWindowSize(t *testing.T) {
	tests := []struct {
		output string
		w, h   int
		ok     bool
	}{
		{"Physical size: 1080x2400", 1080, 2400, true},
		{"Physical size: 1080x1920\nOverride size: 540x960", 540, 960, true},
		{"garbage", 0, 0, false},
	}

	for _, tt := range tests {
		w, h, err := ParseWindowSize(tt.output)
		if (err == nil) != tt.ok || w != tt.w || h != tt.h {
			t.Errorf("ParseWindowSize(%q) = %d, %d, %v", tt.output, w, h, err)
		}
	}
}

func TestParseDevices(t *testing.T) {
	output := "List of devices attached\nemulator-5554\tdevice\n127.0.0.1:16416\toffline\n\n"
	if got := parseDevices(output); !reflect.DeepEqual(got, []string{"emulator-5554"}) {
		t.Errorf("parseDevices = %v", got)
	}
}

func TestDeviceCaptureFrame(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "screen.png")

	f := &fakeADB{onPull: func(path string) {
		if err := imaging.Save(imaging.New(8, 6, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), path); err != nil {
			t.Fatal(err)
		}
	}}
	device := NewDevice(newFakeController(f, "emulator-5554"), "", local, logging.NewDiscardLogger())

	frame, err := device.CaptureFrame()
	if err != nil {
		t.Fatalf("CaptureFrame failed: %v", err)
	}
	if frame.Width() != 8 || frame.Height() != 6 {
		t.Errorf("frame size = %dx%d", frame.Width(), frame.Height())
	}
}

func TestDeviceCaptureNeverReturnsStaleFrame(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "screen.png")
	if err := imaging.Save(imaging.New(4, 4, color.NRGBA{A: 255}), local); err != nil {
		t.Fatal(err)
	}

	f := &fakeADB{fail: map[string]bool{"screencap": true}}
	device := NewDevice(newFakeController(f, "emulator-5554"), "", local, logging.NewDiscardLogger())

	if _, err := device.CaptureFrame(); !errors.Is(err, cv.ErrAssetMissing) {
		t.Errorf("error = %v, want ErrAssetMissing", err)
	}
	if _, err := os.Stat(local); !os.IsNotExist(err) {
		t.Error("stale screenshot should have been removed")
	}
}
