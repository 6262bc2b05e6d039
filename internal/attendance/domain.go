// Package attendance implements the daily check-in/check-out workflow:
// geofence-gated submission by the courier, independent review by a PIC.
package attendance

import "time"

// Status of an attendance record. pending and present are both
// reviewable; approved, rejected and absent are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPresent  Status = "present"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusAbsent   Status = "absent"
)

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPresent, StatusApproved, StatusRejected, StatusAbsent:
		return true
	}
	return false
}

// IsReviewable reports whether a reviewer may still decide the record.
func (s Status) IsReviewable() bool {
	return s == StatusPending || s == StatusPresent
}

// Record is one courier-day. The (kurir_id, work_date) pair is unique.
type Record struct {
	ID          int64      `json:"id" db:"id"`
	KurirID     int64      `json:"kurir_id" db:"kurir_id"`
	WorkDate    time.Time  `json:"work_date" db:"work_date"`
	CheckInAt   *time.Time `json:"check_in_at,omitempty" db:"check_in_at"`
	CheckInLat  *float64   `json:"check_in_lat,omitempty" db:"check_in_lat"`
	CheckInLng  *float64   `json:"check_in_lng,omitempty" db:"check_in_lng"`
	CheckOutAt  *time.Time `json:"check_out_at,omitempty" db:"check_out_at"`
	CheckOutLat *float64   `json:"check_out_lat,omitempty" db:"check_out_lat"`
	CheckOutLng *float64   `json:"check_out_lng,omitempty" db:"check_out_lng"`
	Status      Status     `json:"status" db:"status"`
	ApprovedBy  *int64     `json:"approved_by,omitempty" db:"approved_by"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CheckRequest is the body of both check-in and check-out.
type CheckRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// ReviewRequest is the PIC's decision on a pending record.
type ReviewRequest struct {
	Status Status  `json:"status" validate:"required,oneof=approved rejected"`
	Notes  *string `json:"notes,omitempty"`
}

// Summary aggregates one courier's records over a period.
type Summary struct {
	KurirID  int64 `json:"kurir_id"`
	Year     int   `json:"year"`
	Month    int   `json:"month"`
	Pending  int   `json:"pending"`
	Approved int   `json:"approved"`
	Rejected int   `json:"rejected"`
	Absent   int   `json:"absent"`
	WorkDays int   `json:"work_days"`
}
