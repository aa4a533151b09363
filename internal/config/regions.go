package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bytedance/sonic"
	"jordanella.com/tower-bot-go/internal/bot"
	"jordanella.com/tower-bot-go/internal/cv"
)

var (
	// ErrBadArity means a persisted entry has the wrong number of values
	ErrBadArity = errors.New("wrong number of values")
	// ErrInvalidRegion means a persisted region has non-positive size
	ErrInvalidRegion = errors.New("invalid region")
)

// regionFile is the on-disk shape: key -> [x,y,w,h] or [x,y]
type regionFile map[string][]int

type regionField struct {
	arity int
	apply func(vals []int, regions map[bot.RegionKey]cv.Region, points map[bot.PointKey]cv.Point)
}

// regionFields dispatches every known key to the field it fills
var regionFields = buildRegionFields()

func buildRegionFields() map[string]regionField {
	fields := make(map[string]regionField, len(bot.AllRegions)+len(bot.AllPoints))
	for _, key := range bot.AllRegions {
		key := key
		fields[string(key)] = regionField{
			arity: 4,
			apply: func(v []int, regions map[bot.RegionKey]cv.Region, _ map[bot.PointKey]cv.Point) {
				regions[key] = cv.NewRegion(v[0], v[1], v[2], v[3])
			},
		}
	}
	for _, key := range bot.AllPoints {
		key := key
		fields[string(key)] = regionField{
			arity: 2,
			apply: func(v []int, _ map[bot.RegionKey]cv.Region, points map[bot.PointKey]cv.Point) {
				points[key] = cv.Point{X: v[0], Y: v[1]}
			},
		}
	}
	return fields
}

// LoadRegions reads regions.json. A missing file is created from the
// defaults. Keys absent from the file keep their defaults; unknown keys
// are logged and ignored.
func LoadRegions(path string) (map[bot.RegionKey]cv.Region, map[bot.PointKey]cv.Point, error) {
	regions := bot.DefaultRegions()
	points := bot.DefaultPoints()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.InfoWithContext("Regions file not found, writing defaults", map[string]interface{}{"path": path})
		if err := SaveRegions(path, regions, points); err != nil {
			return nil, nil, err
		}
		return regions, points, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read regions file %s: %w", path, err)
	}

	var raw regionFile
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse regions file %s: %w", path, err)
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		vals := raw[key]
		field, ok := regionFields[key]
		if !ok {
			log.WarnWithContext("Unknown region key ignored", map[string]interface{}{"key": key})
			continue
		}
		if len(vals) != field.arity {
			return nil, nil, fmt.Errorf("region %s: %w: got %d, want %d", key, ErrBadArity, len(vals), field.arity)
		}
		if field.arity == 4 && (vals[2] <= 0 || vals[3] <= 0) {
			return nil, nil, fmt.Errorf("region %s: %w: width and height must be positive, got %v", key, ErrInvalidRegion, vals)
		}
		field.apply(vals, regions, points)
	}

	return regions, points, nil
}

// SaveRegions writes regions and points as indented JSON
func SaveRegions(path string, regions map[bot.RegionKey]cv.Region, points map[bot.PointKey]cv.Point) error {
	raw := make(regionFile, len(regions)+len(points))
	for key, r := range regions {
		raw[string(key)] = r.Slice()
	}
	for key, p := range points {
		raw[string(key)] = p.Slice()
	}

	data, err := sonic.ConfigStd.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode regions: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create regions directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write regions file %s: %w", path, err)
	}
	return nil
}
