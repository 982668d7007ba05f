package domain

// Represents a named geographic location from the point registry.
// Points are read-only inputs: the registry is loaded once at startup
// and never mutated during a run.
type Point struct {
	Name  string
	Coord Coordinates
}
