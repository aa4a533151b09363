package templates

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
	"jordanella.com/tower-bot-go/internal/logging"
)

// ManifestName is the optional YAML index inside the templates directory
const ManifestName = "templates.yaml"

var log = logging.NewLogger("Templates")

// Template describes one reference image
type Template struct {
	Name string
	Path string
}

// TemplateRegistry maps template names to images on disk. A template named
// after a region (e.g. "claim_region") is used by the detector for that
// region.
type TemplateRegistry struct {
	mu         sync.RWMutex
	templates  map[string]Template
	basePath   string
	imageCache *ImageCache
}

// TemplateDefinition represents a template in the YAML file
type TemplateDefinition struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Preload bool   `yaml:"preload,omitempty"`
}

// TemplateFile represents the structure of a template YAML file
type TemplateFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// NewTemplateRegistry creates a new template registry rooted at basePath
func NewTemplateRegistry(basePath string) *TemplateRegistry {
	return &TemplateRegistry{
		templates:  make(map[string]Template),
		basePath:   basePath,
		imageCache: NewImageCache(),
	}
}

// BasePath returns the directory template images live in
func (tr *TemplateRegistry) BasePath() string {
	return tr.basePath
}

// PathFor returns the conventional PNG path for name
func (tr *TemplateRegistry) PathFor(name string) string {
	return filepath.Join(tr.basePath, name+".png")
}

// LoadFromFile loads templates from a YAML manifest
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

	for i, def := range templateFile.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}
		if def.Path == "" {
			def.Path = def.Name + ".png"
		}

		template := Template{
			Name: def.Name,
			Path: filepath.Join(tr.basePath, def.Path),
		}
		tr.templates[def.Name] = template

		if err := tr.imageCache.Register(template, def.Preload); err != nil {
			// The image can still be loaded on demand
			log.Warn(err.Error())
		}
	}

	return nil
}

// LoadDirectory reads the manifest if present, then picks up <name>.png
// for every wanted name the manifest did not declare.
func (tr *TemplateRegistry) LoadDirectory(names ...string) error {
	manifest := filepath.Join(tr.basePath, ManifestName)
	if _, err := os.Stat(manifest); err == nil {
		if err := tr.LoadFromFile(manifest); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", manifest, err)
	}

	for _, name := range names {
		if tr.Has(name) {
			continue
		}
		path := tr.PathFor(name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := tr.Register(Template{Name: name, Path: path}); err != nil {
			return err
		}
	}

	log.InfoWithContext("Templates loaded", map[string]interface{}{
		"dir":   tr.basePath,
		"count": tr.Count(),
	})
	return nil
}

// Register adds a template programmatically
func (tr *TemplateRegistry) Register(template Template) error {
	if template.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.templates[template.Name] = template
	return tr.imageCache.Register(template, false)
}

// Get retrieves a template definition by name
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	template, ok := tr.templates[name]
	return template, ok
}

// Gray returns the decoded grayscale image for name. Missing or
// unreadable templates report false so callers fall back to OCR.
func (tr *TemplateRegistry) Gray(name string) (*image.Gray, bool) {
	if !tr.Has(name) {
		return nil, false
	}
	img, err := tr.imageCache.Get(name)
	if err != nil {
		log.WarnWithContext("Template unavailable", map[string]interface{}{
			"template": name,
			"error":    err.Error(),
		})
		return nil, false
	}
	return img, true
}

// Reload forces name to be decoded again from disk on next use,
// registering it if the PNG has just been written.
func (tr *TemplateRegistry) Reload(name string) error {
	if !tr.Has(name) {
		return tr.Register(Template{Name: name, Path: tr.PathFor(name)})
	}
	tr.imageCache.Unload(name)
	return nil
}

// Refresh drops templates whose files are gone, forgets every decoded
// image and scans the directory again for names. Images are decoded from
// disk on next use.
func (tr *TemplateRegistry) Refresh(names ...string) error {
	for _, name := range tr.List() {
		template, ok := tr.Get(name)
		if !ok {
			continue
		}
		if _, err := os.Stat(template.Path); errors.Is(err, os.ErrNotExist) {
			tr.Remove(name)
			log.InfoWithContext("Template file removed", map[string]interface{}{"template": name})
		}
	}
	tr.imageCache.UnloadAll()
	return tr.LoadDirectory(names...)
}

// Has checks if a template exists in the registry
func (tr *TemplateRegistry) Has(name string) bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	_, ok := tr.templates[name]
	return ok
}

// List returns all template names in sorted order
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

// Count returns the number of templates in the registry
func (tr *TemplateRegistry) Count() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	return len(tr.templates)
}

// Remove removes a template from the registry
func (tr *TemplateRegistry) Remove(name string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, ok := tr.templates[name]; !ok {
		return false
	}
	delete(tr.templates, name)
	tr.imageCache.Remove(name)
	return true
}

// CacheStats returns image cache statistics
func (tr *TemplateRegistry) CacheStats() CacheStats {
	return tr.imageCache.Stats()
}
