package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position is an immutable device location fix. A new Position replaces the
// previous one, never mutated in place. Seq is a monotonic sequence number
// assigned by the tracker so that late deliveries of older fixes can be dropped.
type Position struct {
	GeoPoint
	Altitude *float64 `json:"altitude,omitempty"`
	Seq      uint64   `json:"seq"`
}

// GeoLineString represents an ordered sequence of geographic coordinates.
type GeoLineString struct {
	Coordinates []GeoPoint `json:"coordinates"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
