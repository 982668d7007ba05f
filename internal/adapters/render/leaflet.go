// Package render draws point markers and route polylines onto an
// interactive Leaflet map saved as a standalone HTML file.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sync"

	"route-analyzer/internal/domain"
	"route-analyzer/internal/ports"
)

type marker struct {
	Name string    `json:"name"`
	At   []float64 `json:"at"` // [lat, lon], Leaflet order
}

// LeafletMap collects markers and polylines and renders them on Save.
// Safe for concurrent use: map-building workers add polylines as routes
// resolve.
type LeafletMap struct {
	mu        sync.Mutex
	center    domain.Coordinates
	zoom      int
	markers   []marker
	polylines [][][]float64
}

func NewLeafletMap(center domain.Coordinates, zoom int) *LeafletMap {
	return &LeafletMap{center: center, zoom: zoom}
}

func (m *LeafletMap) AddMarker(name string, coord domain.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = append(m.markers, marker{Name: name, At: []float64{coord.Lat, coord.Lon}})
}

func (m *LeafletMap) AddPolyline(coords []domain.Coordinates) {
	line := make([][]float64, 0, len(coords))
	for _, c := range coords {
		line = append(line, []float64{c.Lat, c.Lon})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.polylines = append(m.polylines, line)
}

// Save renders the collected map to a standalone HTML file.
func (m *LeafletMap) Save(path string) error {
	m.mu.Lock()
	markers := m.markers
	polylines := m.polylines
	m.mu.Unlock()

	// nil slices marshal to JSON null, which breaks the page script.
	if markers == nil {
		markers = []marker{}
	}
	if polylines == nil {
		polylines = [][][]float64{}
	}

	markersJSON, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("render map: encode markers: %w", err)
	}
	linesJSON, err := json.Marshal(polylines)
	if err != nil {
		return fmt.Errorf("render map: encode polylines: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render map: create %q: %w", path, err)
	}
	defer f.Close()

	data := struct {
		CenterLat float64
		CenterLon float64
		Zoom      int
		Markers   template.JS
		Polylines template.JS
	}{
		CenterLat: m.center.Lat,
		CenterLon: m.center.Lon,
		Zoom:      m.zoom,
		Markers:   template.JS(markersJSON),
		Polylines: template.JS(linesJSON),
	}

	if err := pageTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render map: execute template: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("render map: close %q: %w", path, err)
	}
	return nil
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Route map</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var markers = {{.Markers}};
markers.forEach(function (m) {
  L.marker(m.at).addTo(map).bindPopup(m.name);
});
var polylines = {{.Polylines}};
polylines.forEach(function (line) {
  L.polyline(line, {color: 'blue', weight: 1, opacity: 0.5}).addTo(map);
});
</script>
</body>
</html>
`))

var _ ports.MapRenderer = (*LeafletMap)(nil)
