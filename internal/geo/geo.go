// Package geo answers "who and what is near this point". It powers the
// incident-alert recipient selection and map-icon proximity reads.
package geo

import "math"

const earthRadiusKM = 6371.0

// impactRadiusMargin widens an incident's nominal impact radius when
// selecting alert recipients so people near the boundary are included.
// The 1.4 factor is a long-standing heuristic without a documented domain
// justification; keep it stable for compatibility. TODO: have the incident
// team confirm or tune the margin.
const impactRadiusMargin = 1.4

// Haversine returns the great-circle distance between two points in
// kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Incident is the slice of an incident this subsystem consumes. Incident
// CRUD lives elsewhere.
type Incident struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	ImpactRadius float64 `json:"impactRadius"`
	Severity     string  `json:"severity"`
}

// AlertRadius is the recipient-selection radius: the nominal impact radius
// widened by the safety margin.
func (i Incident) AlertRadius() float64 {
	return i.ImpactRadius * impactRadiusMargin
}

// MapIcon is a point of interest (shelter, water station) shown on the map.
type MapIcon struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ClosestMapIcon returns the nearest icon within radius kilometers of the
// point. Ties keep the first minimum found, so results are stable only when
// the input ordering is stable.
func ClosestMapIcon(lat, lon, radius float64, icons []MapIcon) (MapIcon, bool) {
	var (
		closest  MapIcon
		found    bool
		shortest float64
	)
	for _, icon := range icons {
		d := Haversine(lat, lon, icon.Latitude, icon.Longitude)
		if d > radius {
			continue
		}
		if !found || d < shortest {
			closest = icon
			shortest = d
			found = true
		}
	}
	return closest, found
}

// MapIconsWithin filters icons to those within radius kilometers of the
// point, preserving input order.
func MapIconsWithin(lat, lon, radius float64, icons []MapIcon) []MapIcon {
	var within []MapIcon
	for _, icon := range icons {
		if Haversine(lat, lon, icon.Latitude, icon.Longitude) <= radius {
			within = append(within, icon)
		}
	}
	return within
}
