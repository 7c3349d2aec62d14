package geospatial

import "math"

// DistanceToPolyline returns the minimum distance in meters from a point to a
// polyline, using a local equirectangular projection per segment. Accurate
// enough at city scale; we do not need geodesic cross-track distance here.
func DistanceToPolyline(lat, lon float64, line [][2]float64) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return Haversine(lat, lon, line[0][0], line[0][1])
	}

	min := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		d := distanceToSegment(lat, lon, line[i], line[i+1])
		if d < min {
			min = d
		}
	}
	return min
}

// distanceToSegment computes the distance in meters from point P to the
// segment [A, B] after projecting all three into local Cartesian coordinates
// at the segment's mean latitude.
func distanceToSegment(latP, lonP float64, a, b [2]float64) float64 {
	const r = earthRadiusKm * 1000

	latRef := toRad((a[0] + b[0]) / 2)
	cosRef := math.Cos(latRef)

	xA, yA := toRad(a[1])*r*cosRef, toRad(a[0])*r
	xB, yB := toRad(b[1])*r*cosRef, toRad(b[0])*r
	xP, yP := toRad(lonP)*r*cosRef, toRad(latP)*r

	dx, dy := xB-xA, yB-yA
	if dx == 0 && dy == 0 {
		return math.Hypot(xP-xA, yP-yA)
	}

	t := ((xP-xA)*dx + (yP-yA)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(xP-(xA+t*dx), yP-(yA+t*dy))
}
