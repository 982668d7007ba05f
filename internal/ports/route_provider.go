package ports

import (
	"context"
	"fmt"

	"route-analyzer/internal/domain"
)

// RouteErrorKind classifies a routing-service failure. The adapter maps
// transport-level detail (HTTP status, service error codes) onto these
// kinds so callers never inspect message text.
type RouteErrorKind int

const (
	// RouteErrRateLimited means the service rejected the call for quota
	// reasons. Retryable with growing backoff.
	RouteErrRateLimited RouteErrorKind = iota
	// RouteErrNoRoute means no routable path exists between the points.
	// Permanent; never retried.
	RouteErrNoRoute
	// RouteErrTransient covers network failures and unexpected service
	// responses. Retryable with a fixed short backoff.
	RouteErrTransient
)

func (k RouteErrorKind) String() string {
	switch k {
	case RouteErrRateLimited:
		return "rate_limited"
	case RouteErrNoRoute:
		return "no_route"
	default:
		return "transient"
	}
}

// RouteError is the only error type the routing collaborator returns.
type RouteError struct {
	Kind    RouteErrorKind
	Status  int
	Message string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route error (%s, status %d): %s", e.Kind, e.Status, e.Message)
}

// RouteResult is one computed route between two coordinates.
type RouteResult struct {
	DistanceMeters float64
	Geometry       []domain.Coordinates
}

// RouteProvider is the external routing-service boundary. A call is a
// single attempt: retry policy belongs to the caller.
type RouteProvider interface {
	// Directions computes a route between two coordinates for the
	// provider's configured profile.
	Directions(ctx context.Context, from, to domain.Coordinates) (RouteResult, error)
}
