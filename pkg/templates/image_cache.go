package templates

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"

	"jordanella.com/tower-bot-go/internal/cv"
)

// CachedTemplate holds a template definition and its decoded grayscale image
type CachedTemplate struct {
	Template
	image *image.Gray
	mu    sync.RWMutex
}

// ImageCache loads template images on demand and keeps them in memory
type ImageCache struct {
	templates map[string]*CachedTemplate
	mu        sync.RWMutex
	stats     CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits        int64
	Misses      int64
	Loads       int64
	Unloads     int64
	PreloadFail int64
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		templates: make(map[string]*CachedTemplate),
	}
}

// Register adds a template to the cache, decoding it now when preload is set
func (ic *ImageCache) Register(template Template, preload bool) error {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	cached := &CachedTemplate{Template: template}
	ic.templates[template.Name] = cached

	if preload {
		if err := cached.load(); err != nil {
			ic.stats.PreloadFail++
			return fmt.Errorf("failed to preload template %s: %w", template.Name, err)
		}
		ic.stats.Loads++
	}
	return nil
}

// Get returns the decoded image for name, loading it if necessary
func (ic *ImageCache) Get(name string) (*image.Gray, error) {
	ic.mu.RLock()
	cached, ok := ic.templates[name]
	ic.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("template '%s' not found in cache", name)
	}

	hit := cached.IsLoaded()
	img, err := cached.getOrLoad()
	if err != nil {
		return nil, err
	}

	ic.mu.Lock()
	if hit {
		ic.stats.Hits++
	} else {
		ic.stats.Misses++
		ic.stats.Loads++
	}
	ic.mu.Unlock()

	return img, nil
}

// Unload drops the decoded image for name; it is reloaded on next Get
func (ic *ImageCache) Unload(name string) {
	ic.mu.RLock()
	cached, ok := ic.templates[name]
	ic.mu.RUnlock()
	if !ok {
		return
	}

	if cached.unload() {
		ic.mu.Lock()
		ic.stats.Unloads++
		ic.mu.Unlock()
	}
}

// Remove forgets name entirely
func (ic *ImageCache) Remove(name string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	delete(ic.templates, name)
}

// UnloadAll drops every decoded image
func (ic *ImageCache) UnloadAll() {
	ic.mu.RLock()
	all := make([]*CachedTemplate, 0, len(ic.templates))
	for _, t := range ic.templates {
		all = append(all, t)
	}
	ic.mu.RUnlock()

	for _, cached := range all {
		if cached.unload() {
			ic.mu.Lock()
			ic.stats.Unloads++
			ic.mu.Unlock()
		}
	}
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.stats
}

// getOrLoad returns the cached image or loads it if not cached
func (ct *CachedTemplate) getOrLoad() (*image.Gray, error) {
	ct.mu.RLock()
	if ct.image != nil {
		defer ct.mu.RUnlock()
		return ct.image, nil
	}
	ct.mu.RUnlock()

	ct.mu.Lock()
	defer ct.mu.Unlock()

	// Double-check after acquiring write lock
	if ct.image != nil {
		return ct.image, nil
	}
	return ct.loadUnsafe()
}

func (ct *CachedTemplate) load() error {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.image != nil {
		return nil
	}
	_, err := ct.loadUnsafe()
	return err
}

// loadUnsafe decodes the PNG at Path (caller must hold lock)
func (ct *CachedTemplate) loadUnsafe() (*image.Gray, error) {
	file, err := os.Open(ct.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template image not found: %s", ct.Path)
		}
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", ct.Path, err)
	}

	gray := cv.ToGray(img)
	if gray.Bounds().Empty() {
		return nil, fmt.Errorf("template %s is empty", ct.Path)
	}

	ct.image = gray
	return ct.image, nil
}

func (ct *CachedTemplate) unload() bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.image == nil {
		return false
	}
	ct.image = nil
	return true
}

// IsLoaded returns true if the image is currently in memory
func (ct *CachedTemplate) IsLoaded() bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.image != nil
}
