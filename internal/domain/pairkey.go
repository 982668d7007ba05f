package domain

import (
	"fmt"
	"hash/fnv"
)

// coordPrecision fixes the textual form of a coordinate before hashing so
// the same physical point always produces the same key bytes.
const coordPrecision = "%.6f,%.6f"

// PairKey derives the canonical cache key for an unordered pair of
// coordinates. The two coordinates are sorted before hashing, so
// PairKey(a, b) == PairKey(b, a): distances for a single routing profile
// are symmetric and the cache must not hold duplicate entries for the
// same physical pair queried in reversed order.
func PairKey(a, b Coordinates) string {
	first, second := a, b
	if less(b, a) {
		first, second = b, a
	}

	h := fnv.New64a()
	fmt.Fprintf(h, coordPrecision, first.Lat, first.Lon)
	h.Write([]byte{'|'})
	fmt.Fprintf(h, coordPrecision, second.Lat, second.Lon)

	return fmt.Sprintf("%016x", h.Sum64())
}

// less orders coordinates by latitude, then longitude.
func less(a, b Coordinates) bool {
	if a.Lat != b.Lat {
		return a.Lat < b.Lat
	}
	return a.Lon < b.Lon
}
