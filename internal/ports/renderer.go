package ports

import "route-analyzer/internal/domain"

// MapRenderer is the write-only map collaborator: it accepts markers and
// polylines and produces a renderable artifact on Save.
type MapRenderer interface {
	AddMarker(name string, coord domain.Coordinates)
	AddPolyline(coords []domain.Coordinates)
	Save(path string) error
}
