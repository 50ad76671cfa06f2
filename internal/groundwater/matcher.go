package groundwater

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/gramsetu/claimeval/internal/model"
)

const earthRadiusKM = 6371.0

// prefilterDeg is the half-width of the coarse bounding box applied before
// exact distance computation. One degree of latitude is ~111 km, comfortably
// wider than any sensible search radius.
const prefilterDeg = 1.0

// Matcher finds the k nearest wells to a claim point. It holds only the
// immutable dataset, so one Matcher is safe for concurrent claims.
type Matcher struct {
	ds *Dataset
}

// NewMatcher creates a Matcher over a loaded dataset.
func NewMatcher(ds *Dataset) *Matcher {
	return &Matcher{ds: ds}
}

// Nearest returns depth statistics over the k nearest wells within maxKM of
// the point, sorted ascending by distance. A nil result means no well was
// found within the radius; that is "no data", not an error.
func (m *Matcher) Nearest(pt model.GeoPoint, k int, maxKM float64) *model.GroundwaterStats {
	if k <= 0 {
		k = 1
	}

	candidates := m.prefilter(pt)

	matches := make([]model.WellSample, 0, k)
	for _, w := range candidates {
		d := Haversine(pt.Lat, pt.Lon, w.Lat, w.Lon)
		if d > maxKM {
			continue
		}
		matches = append(matches, model.WellSample{
			StationCode: w.StationCode,
			Lat:         w.Lat,
			Lon:         w.Lon,
			DepthMBGL:   w.DepthMBGL,
			DistanceKM:  round2(d),
			MeasuredAt:  w.MeasuredAt,
		})
	}
	if len(matches) == 0 {
		return nil
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DistanceKM < matches[j].DistanceKM
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	var depthSum float64
	for _, s := range matches {
		depthSum += s.DepthMBGL
	}

	return &model.GroundwaterStats{
		AverageDepthM: round2(depthSum / float64(len(matches))),
		MinDistanceKM: matches[0].DistanceKM,
		KUsed:         len(matches),
		Wells:         matches,
	}
}

// NearestWithFallback retries with an extended radius when the primary
// search finds nothing, marking the result as a fallback so the verdict can
// note that the reading may not be representative.
func (m *Matcher) NearestWithFallback(pt model.GeoPoint, k int, maxKM, fallbackKM float64) *model.GroundwaterStats {
	stats := m.Nearest(pt, k, maxKM)
	if stats != nil || fallbackKM <= maxKM {
		return stats
	}

	stats = m.Nearest(pt, k, fallbackKM)
	if stats != nil {
		stats.Fallback = true
		zap.L().Debug("groundwater: extended-radius fallback used",
			zap.Float64("lat", pt.Lat),
			zap.Float64("lon", pt.Lon),
			zap.Float64("min_distance_km", stats.MinDistanceKM),
		)
	}
	return stats
}

// prefilter applies a coarse +-1 degree bounding box before exact distance
// computation, falling back to the full set when the box is empty.
func (m *Matcher) prefilter(pt model.GeoPoint) []Well {
	wells := m.ds.Wells()
	boxed := make([]Well, 0, 64)
	for _, w := range wells {
		if math.Abs(w.Lat-pt.Lat) <= prefilterDeg && math.Abs(w.Lon-pt.Lon) <= prefilterDeg {
			boxed = append(boxed, w)
		}
	}
	if len(boxed) == 0 {
		return wells
	}
	return boxed
}

// Haversine returns the great-circle distance between two WGS84 points in
// kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
