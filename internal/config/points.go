package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"route-analyzer/internal/domain"
)

type pointEntry struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

type pointsFile struct {
	Points []pointEntry `yaml:"points"`
}

// LoadPoints reads the point registry. The file order fixes the matrix
// axis order, so the registry is a list, not a map.
func LoadPoints(path string) ([]domain.Point, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load points: read %q: %w", path, err)
	}

	var file pointsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("load points: parse %q: %w", path, err)
	}

	if len(file.Points) == 0 {
		return nil, fmt.Errorf("load points: %q contains no points", path)
	}

	seen := make(map[string]struct{}, len(file.Points))
	out := make([]domain.Point, 0, len(file.Points))
	for i, p := range file.Points {
		if p.Name == "" {
			return nil, fmt.Errorf("load points: entry #%d has no name", i+1)
		}
		if _, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("load points: duplicate point name %q", p.Name)
		}
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return nil, fmt.Errorf("load points: point %q has invalid coordinates (%f, %f)", p.Name, p.Lat, p.Lon)
		}

		seen[p.Name] = struct{}{}
		out = append(out, domain.Point{
			Name:  p.Name,
			Coord: domain.Coordinates{Lon: p.Lon, Lat: p.Lat},
		})
	}

	return out, nil
}
