package geofence

import "time"

// Radius bounds in meters, enforced at create/update.
const (
	MinRadiusMeters = 10
	MaxRadiusMeters = 5000
)

// Zone represents a named circular check-in area.
type Zone struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CenterLat float64   `json:"center_lat" db:"center_lat"`
	CenterLng float64   `json:"center_lng" db:"center_lng"`
	RadiusM   float64   `json:"radius_m" db:"radius_m"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ZoneDistance pairs a zone with the distance from a query point to its center.
type ZoneDistance struct {
	Zone     Zone    `json:"zone"`
	Distance float64 `json:"distance_m"`
}

// CreateZoneRequest represents a request to create a zone.
type CreateZoneRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=100"`
	CenterLat float64 `json:"center_lat" validate:"gte=-90,lte=90"`
	CenterLng float64 `json:"center_lng" validate:"gte=-180,lte=180"`
	RadiusM   float64 `json:"radius_m" validate:"required,gte=10,lte=5000"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// UpdateZoneRequest represents a partial update of a zone.
type UpdateZoneRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	CenterLat *float64 `json:"center_lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	CenterLng *float64 `json:"center_lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	RadiusM   *float64 `json:"radius_m,omitempty" validate:"omitempty,gte=10,lte=5000"`
	IsActive  *bool    `json:"is_active,omitempty"`
}
