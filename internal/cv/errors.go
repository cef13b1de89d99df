package cv

import "errors"

// Error types
var (
	// ErrAssetMissing means a template or frame file does not exist
	ErrAssetMissing = errors.New("asset missing")
	// ErrReadError means an image exists but is corrupt, unreadable or empty
	ErrReadError = errors.New("image read error")
	// ErrInvalidScaleRange means a match config cannot produce any scale
	ErrInvalidScaleRange = errors.New("invalid scale range")
)
