package cv

import (
	"fmt"

	"jordanella.com/card-battle-go/internal/logging"
)

// TemplateSource resolves a template name to its loaded image
type TemplateSource interface {
	Template(name string) (*Template, error)
}

// Service combines frame capture, template lookup and matching
type Service struct {
	capturer    Capturer
	templates   TemplateSource
	defaults    MatchConfig
	resultsDir  string
	saveResults bool
	logger      *logging.Logger
}

// NewService creates a new CV service
func NewService(capturer Capturer, templates TemplateSource, logger *logging.Logger) *Service {
	return &Service{
		capturer:  capturer,
		templates: templates,
		defaults:  DefaultMatchConfig(),
		logger:    logger.Component("CV"),
	}
}

// WithDefaults sets the match settings used when neither the template nor
// the call overrides them
func (s *Service) WithDefaults(config MatchConfig) *Service {
	s.defaults = config
	return s
}

// WithResults enables writing annotated match images into dir
func (s *Service) WithResults(dir string, save bool) *Service {
	s.resultsDir = dir
	s.saveResults = save
	return s
}

// Defaults returns the service-wide match settings
func (s *Service) Defaults() MatchConfig {
	return s.defaults
}

// ResetResults clears the results directory. Called once at startup.
func (s *Service) ResetResults() error {
	if s.resultsDir == "" {
		return nil
	}
	return ClearDirectory(s.resultsDir)
}

// CaptureFrame captures a new frame from the device
func (s *Service) CaptureFrame() (*Frame, error) {
	frame, err := s.capturer.CaptureFrame()
	if err != nil {
		return nil, fmt.Errorf("failed to capture frame: %w", err)
	}
	if frame == nil || frame.Image == nil {
		return nil, fmt.Errorf("failed to capture frame: %w", ErrAssetMissing)
	}
	return frame, nil
}

// FindInFrame finds the named template in frame. A nil result with a nil
// error means the template was not found.
func (s *Service) FindInFrame(frame *Frame, templateName string, opts ...Option) (*MatchResult, error) {
	if frame == nil || frame.Image == nil {
		return nil, fmt.Errorf("no frame for %s: %w", templateName, ErrAssetMissing)
	}

	template, err := s.templates.Template(templateName)
	if err != nil {
		return nil, err
	}

	config, save := s.resolve(template, opts)

	result, err := frame.Match(template.Image, config)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", templateName, err)
	}

	if result == nil {
		s.logger.DebugWithContext("template not found", map[string]interface{}{
			"template":  templateName,
			"threshold": config.Threshold,
		})
		return nil, nil
	}

	s.logger.DebugWithContext("template matched", map[string]interface{}{
		"template":   templateName,
		"x":          result.X,
		"y":          result.Y,
		"scale":      fmt.Sprintf("%.2f", result.Scale),
		"confidence": fmt.Sprintf("%.3f", result.Confidence),
	})

	if save && s.resultsDir != "" {
		path, err := SaveDebugMatch(s.resultsDir, templateName, frame.Image, result)
		if err != nil {
			s.logger.Error("failed to save match result", err)
		} else {
			s.logger.Debugf("match result saved to %s", path)
		}
	}

	return result, nil
}

// resolve layers service defaults, template overrides and call options
func (s *Service) resolve(template *Template, opts []Option) (MatchConfig, bool) {
	config := s.defaults
	if template.Threshold > 0 {
		config.Threshold = template.Threshold
	}
	if template.MinScale > 0 {
		config.MinScale = template.MinScale
	}
	if template.MaxScale > 0 {
		config.MaxScale = template.MaxScale
	}

	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.threshold > 0 {
		config.Threshold = o.threshold
	}
	if o.minScale > 0 {
		config.MinScale = o.minScale
	}
	if o.maxScale > 0 {
		config.MaxScale = o.maxScale
	}

	save := s.saveResults
	if o.saveResult != nil {
		save = *o.saveResult
	}
	return config, save
}
