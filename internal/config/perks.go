package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"jordanella.com/tower-bot-go/internal/bot"
)

// PerkFile is the perks.yaml layout, highest priority first
type PerkFile struct {
	Perks []string `yaml:"perks"`
}

// LoadPerks reads the perk priority list, lowercased and trimmed. A
// missing file is created from the built-in ranking.
func LoadPerks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		perks := bot.DefaultPerkPriority()
		log.InfoWithContext("Perks file not found, writing defaults", map[string]interface{}{"path": path})
		if err := SavePerks(path, perks); err != nil {
			return nil, err
		}
		return perks, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read perks file %s: %w", path, err)
	}

	var file PerkFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal perks YAML: %w", err)
	}

	perks := make([]string, 0, len(file.Perks))
	for _, phrase := range file.Perks {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			perks = append(perks, phrase)
		}
	}
	return perks, nil
}

// SavePerks writes the perk priority list
func SavePerks(path string, perks []string) error {
	data, err := yaml.Marshal(PerkFile{Perks: perks})
	if err != nil {
		return fmt.Errorf("failed to marshal perks YAML: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create perks directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write perks file %s: %w", path, err)
	}
	return nil
}
