package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"route-analyzer/internal/domain"
	"route-analyzer/internal/ports"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Segments []struct {
				Distance float64 `json:"distance"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

// orsErrorBody is the error envelope of the directions endpoint.
type orsErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Directions codes for "could not find routable point near coordinate".
const (
	codePointNotFound    = 2009
	codeRoutableNotFound = 2010
)

// Directions requests one route between two coordinates using the
// GeoJSON directions endpoint.
func (o *ORSProvider) Directions(
	ctx context.Context,
	from, to domain.Coordinates,
) (ports.RouteResult, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	// ORS expects (lon, lat) order.
	bodyObj := directionsRequest{
		Coordinates: [][]float64{from.CoordsToList(), to.CoordsToList()},
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return ports.RouteResult{}, o.transient(0, fmt.Sprintf("marshal directions request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ports.RouteResult{}, o.transient(0, fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.do(req)
	if err != nil {
		return ports.RouteResult{}, o.classify(err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return ports.RouteResult{}, o.transient(resp.StatusCode, fmt.Sprintf("decode directions response: %v", err))
	}

	if len(dr.Features) == 0 || len(dr.Features[0].Properties.Segments) == 0 {
		return ports.RouteResult{}, &ports.RouteError{
			Kind:    ports.RouteErrNoRoute,
			Status:  resp.StatusCode,
			Message: "directions response contains no route",
		}
	}

	feature := dr.Features[0]
	geometry := make([]domain.Coordinates, 0, len(feature.Geometry.Coordinates))
	for _, pair := range feature.Geometry.Coordinates {
		if len(pair) < 2 {
			return ports.RouteResult{}, o.transient(resp.StatusCode, "directions geometry contains truncated coordinate")
		}
		geometry = append(geometry, domain.Coordinates{Lon: pair[0], Lat: pair[1]})
	}

	return ports.RouteResult{
		DistanceMeters: feature.Properties.Segments[0].Distance,
		Geometry:       geometry,
	}, nil
}

// classify maps transport failures onto the typed error taxonomy so no
// caller ever matches on message text.
func (o *ORSProvider) classify(err error) *ports.RouteError {
	var he *httpStatusError
	if !errors.As(err, &he) {
		// Network-level failure (DNS, timeout, reset).
		return &ports.RouteError{
			Kind:    ports.RouteErrTransient,
			Message: err.Error(),
		}
	}

	switch he.Code {
	case http.StatusTooManyRequests:
		return &ports.RouteError{
			Kind:    ports.RouteErrRateLimited,
			Status:  he.Code,
			Message: he.Body,
		}
	case http.StatusNotFound:
		return &ports.RouteError{
			Kind:    ports.RouteErrNoRoute,
			Status:  he.Code,
			Message: he.Body,
		}
	}

	var body orsErrorBody
	if jsonErr := json.Unmarshal([]byte(he.Body), &body); jsonErr == nil {
		switch body.Error.Code {
		case codePointNotFound, codeRoutableNotFound:
			return &ports.RouteError{
				Kind:    ports.RouteErrNoRoute,
				Status:  he.Code,
				Message: body.Error.Message,
			}
		}
	}

	return &ports.RouteError{
		Kind:    ports.RouteErrTransient,
		Status:  he.Code,
		Message: he.Body,
	}
}

func (o *ORSProvider) transient(status int, msg string) *ports.RouteError {
	return &ports.RouteError{
		Kind:    ports.RouteErrTransient,
		Status:  status,
		Message: msg,
	}
}

var _ ports.RouteProvider = (*ORSProvider)(nil)
