// Package scan translates physical barcode reads and their manual
// equivalents into package status transitions. It never writes status
// itself; every accepted scan delegates to the package registry.
package scan

import "time"

// Type declares the courier's intent for a scan.
type Type string

const (
	TypePickup   Type = "pickup"
	TypeDelivery Type = "delivery"
)

// IsValid checks if the scan type is known.
func (t Type) IsValid() bool {
	return t == TypePickup || t == TypeDelivery
}

// Location is an optional geotag captured with a scan. Capture is
// best-effort: couriers without geolocation permission still scan.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Log is one append-only record of a physical scan event.
type Log struct {
	ID         int64     `json:"id" db:"id"`
	PackageRef int64     `json:"package_ref" db:"package_ref"`
	ScannedBy  int64     `json:"scanned_by" db:"scanned_by"`
	ScanType   Type      `json:"scan_type" db:"scan_type"`
	Lat        *float64  `json:"lat,omitempty" db:"lat"`
	Lng        *float64  `json:"lng,omitempty" db:"lng"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Request is a barcode read plus declared intent.
type Request struct {
	Barcode  string    `json:"barcode" validate:"required"`
	ScanType Type      `json:"scan_type" validate:"required,oneof=pickup delivery"`
	Location *Location `json:"location,omitempty"`
}

// DeliverRequest carries the mandatory note for a manual delivery.
type DeliverRequest struct {
	Notes string `json:"notes"`
}
