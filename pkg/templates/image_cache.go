package templates

import (
	"sync"

	"jordanella.com/card-battle-go/internal/cv"
)

// ImageCache keeps decoded template images. Templates are immutable, so a
// loaded image is reused until the definition changes.
type ImageCache struct {
	images map[string]*cv.Template
	mu     sync.Mutex
	stats  CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits     int64 // Served from memory
	Loads    int64 // Decoded from disk
	Failures int64 // Missing or unreadable files
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*cv.Template),
	}
}

// Load returns the cached template for def.Name or decodes def.Path.
// Failed loads are not cached so a template dropped in later is picked up.
func (ic *ImageCache) Load(def cv.Template) (*cv.Template, error) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	if cached, ok := ic.images[def.Name]; ok {
		ic.stats.Hits++
		return cached, nil
	}

	loaded, err := cv.LoadTemplate(def.Name, def.Path)
	if err != nil {
		ic.stats.Failures++
		return nil, err
	}

	loaded.Threshold = def.Threshold
	loaded.MinScale = def.MinScale
	loaded.MaxScale = def.MaxScale

	ic.images[def.Name] = loaded
	ic.stats.Loads++
	return loaded, nil
}

// Put stores an already decoded template
func (ic *ImageCache) Put(template cv.Template) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.images[template.Name] = &template
}

// Forget drops a cached image
func (ic *ImageCache) Forget(name string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	delete(ic.images, name)
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.stats
}
