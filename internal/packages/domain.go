// Package packages is the single source of truth for package existence,
// status and assignment. Every status write in the system flows through
// Service.Transition or the assignment operations here; the scan processor
// and the HTTP layer are consumers, never direct writers.
package packages

import (
	"time"
)

// Status represents the delivery lifecycle of a package.
type Status string

const (
	StatusCreated   Status = "created"
	StatusAssigned  Status = "assigned"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// IsValid checks if the status is one of the known states.
func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusAssigned, StatusPickedUp, StatusInTransit, StatusDelivered, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusFailed
}

// transitions is the explicit forward-only transition table. Status never
// regresses; failed is reachable from every post-assignment state and is
// terminal alongside delivered.
var transitions = map[Status][]Status{
	StatusCreated:   {StatusAssigned},
	StatusAssigned:  {StatusPickedUp, StatusFailed},
	StatusPickedUp:  {StatusInTransit, StatusFailed},
	StatusInTransit: {StatusDelivered, StatusFailed},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Priority classifies delivery urgency. Descriptive only, not part of the
// state machine.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority is valid.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Package represents a parcel from creation through delivery.
type Package struct {
	ID              int64      `json:"id" db:"id"`
	PackageID       string     `json:"package_id" db:"package_id"`
	Barcode         string     `json:"barcode" db:"barcode"`
	Status          Status     `json:"status" db:"status"`
	AssignedKurirID *int64     `json:"assigned_kurir_id,omitempty" db:"assigned_kurir_id"`
	RecipientName   string     `json:"recipient_name" db:"recipient_name"`
	RecipientPhone  string     `json:"recipient_phone" db:"recipient_phone"`
	RecipientAddr   string     `json:"recipient_address" db:"recipient_address"`
	SenderName      string     `json:"sender_name" db:"sender_name"`
	SenderPhone     string     `json:"sender_phone" db:"sender_phone"`
	WeightKg        float64    `json:"weight_kg" db:"weight_kg"`
	LengthCm        float64    `json:"length_cm" db:"length_cm"`
	WidthCm         float64    `json:"width_cm" db:"width_cm"`
	HeightCm        float64    `json:"height_cm" db:"height_cm"`
	DeclaredValue   float64    `json:"declared_value" db:"declared_value"`
	Priority        Priority   `json:"priority" db:"priority"`
	Notes           *string    `json:"notes,omitempty" db:"notes"`
	CreatedBy       int64      `json:"created_by" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
}

// HistoryEntry is one append-only audit row per accepted transition.
type HistoryEntry struct {
	ID         int64     `json:"id" db:"id"`
	PackageRef int64     `json:"package_ref" db:"package_ref"`
	FromStatus Status    `json:"from_status" db:"from_status"`
	ToStatus   Status    `json:"to_status" db:"to_status"`
	ChangedBy  int64     `json:"changed_by" db:"changed_by"`
	Note       string    `json:"note,omitempty" db:"note"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CreateRequest carries the descriptive fields for a new package.
type CreateRequest struct {
	RecipientName  string   `json:"recipient_name" validate:"required,max=200"`
	RecipientPhone string   `json:"recipient_phone" validate:"required,max=30"`
	RecipientAddr  string   `json:"recipient_address" validate:"required,max=500"`
	SenderName     string   `json:"sender_name" validate:"required,max=200"`
	SenderPhone    string   `json:"sender_phone" validate:"omitempty,max=30"`
	WeightKg       float64  `json:"weight_kg" validate:"gte=0"`
	LengthCm       float64  `json:"length_cm" validate:"gte=0"`
	WidthCm        float64  `json:"width_cm" validate:"gte=0"`
	HeightCm       float64  `json:"height_cm" validate:"gte=0"`
	DeclaredValue  float64  `json:"declared_value" validate:"gte=0"`
	Priority       Priority `json:"priority" validate:"omitempty,oneof=normal high urgent"`
	Notes          *string  `json:"notes,omitempty"`
}

// AssignRequest names the courier for staff-driven assignment.
type AssignRequest struct {
	KurirID int64 `json:"kurir_id" validate:"required,gt=0"`
}

// FailRequest diverts a package to failed with an accountable reason.
type FailRequest struct {
	Notes string `json:"notes" validate:"required,min=3,max=500"`
}

// ListFilter narrows package listings.
type ListFilter struct {
	Status  *Status
	KurirID *int64
	Search  *string
	Limit   int
	Offset  int
}
