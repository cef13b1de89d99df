package cv

// Option adjusts a single FindInFrame call
type Option func(*findOptions)

type findOptions struct {
	threshold  float64
	minScale   float64
	maxScale   float64
	saveResult *bool
}

// WithThreshold sets the matching threshold option
func WithThreshold(t float64) Option {
	return func(opts *findOptions) {
		opts.threshold = t
	}
}

// WithScaleRange sets the scale search range option
func WithScaleRange(minScale, maxScale float64) Option {
	return func(opts *findOptions) {
		opts.minScale = minScale
		opts.maxScale = maxScale
	}
}

// WithSaveResult forces the annotated result image on or off
func WithSaveResult(save bool) Option {
	return func(opts *findOptions) {
		opts.saveResult = &save
	}
}
