package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
	"jordanella.com/card-battle-go/internal/cv"
)

// Names of the UI markers the battle loop looks for
const (
	Combat            = "Combat"
	QuickMatching     = "Quick_matching"
	Confirm           = "confirm"
	Confirm2          = "confirm2"
	Exit              = "exit"
	BattleInterface   = "Battle_Interface"
	BattleInterface2  = "Battle_Interface2"
	BattleInterface3  = "Battle_Interface3"
	Reward            = "Reward"
	ReturnToGame      = "Return_to_game"
	Close             = "close"
	DefaultImageExt   = ".png"
	DefaultDefinition = "templates.yaml"
)

// TemplateRegistry maps template names to image files. Names without an
// explicit definition resolve to <basePath>/<name>.png.
type TemplateRegistry struct {
	mu         sync.RWMutex
	templates  map[string]cv.Template
	basePath   string
	imageCache *ImageCache
}

// TemplateDefinition represents a template in the YAML file
type TemplateDefinition struct {
	Name      string  `yaml:"name"`
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold,omitempty"`
	MinScale  float64 `yaml:"min_scale,omitempty"`
	MaxScale  float64 `yaml:"max_scale,omitempty"`
	Preload   bool    `yaml:"preload,omitempty"`
}

// TemplateFile represents the structure of a template YAML file
type TemplateFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// NewTemplateRegistry creates a new template registry
// basePath is the root directory where template image files are stored
func NewTemplateRegistry(basePath string) *TemplateRegistry {
	return &TemplateRegistry{
		templates:  make(map[string]cv.Template),
		basePath:   basePath,
		imageCache: NewImageCache(),
	}
}

// BasePath returns the template image directory
func (tr *TemplateRegistry) BasePath() string {
	return tr.basePath
}

// LoadFromFile loads templates from a YAML file
func (tr *TemplateRegistry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}

	var templateFile TemplateFile
	if err := yaml.Unmarshal(data, &templateFile); err != nil {
		return fmt.Errorf("failed to unmarshal template YAML: %w", err)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	var preloadErrs []error
	for i, def := range templateFile.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}

		path := def.Path
		if path == "" {
			path = def.Name + DefaultImageExt
		}
		if def.MinScale > 0 && def.MaxScale > 0 && def.MaxScale < def.MinScale {
			return fmt.Errorf("template %d (%s): max_scale %v below min_scale %v", i+1, def.Name, def.MaxScale, def.MinScale)
		}

		template := cv.Template{
			Name:      def.Name,
			Path:      filepath.Join(tr.basePath, path),
			Threshold: def.Threshold,
			MinScale:  def.MinScale,
			MaxScale:  def.MaxScale,
		}
		tr.templates[def.Name] = template
		tr.imageCache.Forget(def.Name)

		if def.Preload {
			if _, err := tr.imageCache.Load(template); err != nil {
				preloadErrs = append(preloadErrs, err)
			}
		}
	}

	if len(preloadErrs) > 0 {
		return fmt.Errorf("failed to preload %d templates (first error): %w", len(preloadErrs), preloadErrs[0])
	}
	return nil
}

// Get retrieves a template definition by name
func (tr *TemplateRegistry) Get(name string) (cv.Template, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	template, ok := tr.templates[name]
	return template, ok
}

// GetOrDefault retrieves a template by name, or the name.png convention
// when it was never defined
func (tr *TemplateRegistry) GetOrDefault(name string) cv.Template {
	if template, ok := tr.Get(name); ok {
		return template
	}
	return cv.Template{
		Name: name,
		Path: filepath.Join(tr.basePath, name+DefaultImageExt),
	}
}

// Register adds a template to the registry programmatically
func (tr *TemplateRegistry) Register(template cv.Template) error {
	if template.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.templates[template.Name] = template
	tr.imageCache.Forget(template.Name)
	if template.Image != nil {
		tr.imageCache.Put(template)
	}
	return nil
}

// Template resolves name to a loaded template. Missing files surface as
// cv.ErrAssetMissing, undecodable files as cv.ErrReadError.
func (tr *TemplateRegistry) Template(name string) (*cv.Template, error) {
	return tr.imageCache.Load(tr.GetOrDefault(name))
}

// List returns all defined template names, sorted
func (tr *TemplateRegistry) List() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CacheStats returns image cache statistics
func (tr *TemplateRegistry) CacheStats() CacheStats {
	return tr.imageCache.Stats()
}
