package cv

// Capturer produces frames from a device. Implementations must not return a
// stale frame: when the device fails to produce a new image the call fails.
type Capturer interface {
	CaptureFrame() (*Frame, error)
}

// CapturerFunc adapts a function to the Capturer interface
type CapturerFunc func() (*Frame, error)

// CaptureFrame calls f
func (f CapturerFunc) CaptureFrame() (*Frame, error) {
	return f()
}
