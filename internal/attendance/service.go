package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lintaskurir/lintaskurir/internal/geofence"
	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// RepositoryPort abstracts record persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	GetForDate(ctx context.Context, kurirID int64, date time.Time) (Record, error)
	SetCheckOut(ctx context.Context, id int64, at time.Time, lat, lng float64) (Record, error)
	Review(ctx context.Context, id int64, decision Status, reviewerID int64, notes *string) (Record, error)
	ListForDate(ctx context.Context, date time.Time) ([]Record, error)
	ListForKurirRange(ctx context.Context, kurirID int64, from, to time.Time) ([]Record, error)
	MarkAbsent(ctx context.Context, date time.Time, kurirIDs []int64) (int64, error)
}

// GeofencePort is the slice of the geofence service the workflow needs.
type GeofencePort interface {
	IsWithinAnyActiveZone(ctx context.Context, lat, lng float64) (bool, error)
	NearestZone(ctx context.Context, lat, lng float64) (*geofence.ZoneDistance, error)
}

// KurirDirectory lists the couriers the absent sweep must cover.
type KurirDirectory interface {
	ListActiveKurirIDs(ctx context.Context) ([]int64, error)
}

// Service enforces the courier-day workflow: geofenced check-in and
// check-out, then an independent review decision.
type Service struct {
	repo RepositoryPort
	geo  GeofencePort
	loc  *time.Location
	now  func() time.Time
}

// NewService builds Service. loc is the business timezone that defines
// the work date; nil falls back to UTC.
func NewService(repo RepositoryPort, geo GeofencePort, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, geo: geo, loc: loc, now: time.Now}
}

// workDate is the calendar date in the business timezone, stored as UTC
// midnight so the DATE column is timezone-free.
func (s *Service) workDate() time.Time {
	t := s.now().In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) requireInsideZone(ctx context.Context, lat, lng float64) error {
	inside, err := s.geo.IsWithinAnyActiveZone(ctx, lat, lng)
	if err != nil {
		return err
	}
	if inside {
		return nil
	}
	nearest, err := s.geo.NearestZone(ctx, lat, lng)
	if err != nil {
		return err
	}
	if nearest == nil {
		return fmt.Errorf("attendance: no active zones configured: %w", shared.ErrOutsideGeofence)
	}
	return fmt.Errorf("attendance: %.0fm from nearest zone %q (radius %.0fm): %w",
		nearest.Distance, nearest.Zone.Name, nearest.Zone.RadiusM, shared.ErrOutsideGeofence)
}

// CheckIn opens the courier-day. The location must fall inside an active
// zone and the courier must not have a record for today yet.
func (s *Service) CheckIn(ctx context.Context, kurirID int64, lat, lng float64) (Record, error) {
	if err := s.requireInsideZone(ctx, lat, lng); err != nil {
		return Record{}, err
	}
	at := s.now().UTC()
	rec := Record{
		KurirID:    kurirID,
		WorkDate:   s.workDate(),
		CheckInAt:  &at,
		CheckInLat: &lat,
		CheckInLng: &lng,
		Status:     StatusPending,
	}
	return s.repo.Insert(ctx, rec)
}

// CheckOut closes the courier-day. Requires a prior check-in, no prior
// check-out, and an in-zone location. Status stays pending for the reviewer.
func (s *Service) CheckOut(ctx context.Context, kurirID int64, lat, lng float64) (Record, error) {
	rec, err := s.repo.GetForDate(ctx, kurirID, s.workDate())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Record{}, fmt.Errorf("attendance: kurir %d: %w", kurirID, shared.ErrNoCheckIn)
		}
		return Record{}, err
	}
	if rec.CheckInAt == nil {
		return Record{}, fmt.Errorf("attendance: kurir %d: %w", kurirID, shared.ErrNoCheckIn)
	}
	if rec.CheckOutAt != nil {
		return Record{}, fmt.Errorf("attendance: kurir %d: %w", kurirID, shared.ErrDuplicateCheckOut)
	}
	if err := s.requireInsideZone(ctx, lat, lng); err != nil {
		return Record{}, err
	}
	return s.repo.SetCheckOut(ctx, rec.ID, s.now().UTC(), lat, lng)
}

// Review decides a reviewable record. Self-approval is forbidden; a second
// review on the same record fails instead of overwriting the decision.
func (s *Service) Review(ctx context.Context, recordID, reviewerID int64, decision Status, notes *string) (Record, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return Record{}, fmt.Errorf("attendance: decision must be approved or rejected: %w", shared.ErrValidation)
	}
	rec, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if rec.KurirID == reviewerID {
		return Record{}, fmt.Errorf("attendance: reviewer owns record %d: %w", recordID, shared.ErrForbidden)
	}
	if !rec.Status.IsReviewable() {
		return Record{}, fmt.Errorf("attendance: record %d already %s: %w", recordID, rec.Status, shared.ErrNotPending)
	}
	return s.repo.Review(ctx, recordID, decision, reviewerID, notes)
}

// Today returns the courier's record for the current work date, if any.
func (s *Service) Today(ctx context.Context, kurirID int64) (Record, error) {
	return s.repo.GetForDate(ctx, kurirID, s.workDate())
}

// ListForDate returns all records of one date for the review queue.
func (s *Service) ListForDate(ctx context.Context, date time.Time) ([]Record, error) {
	return s.repo.ListForDate(ctx, date)
}

// MonthlySummary aggregates one courier's month for payroll reporting.
func (s *Service) MonthlySummary(ctx context.Context, kurirID int64, year int, month time.Month) (Summary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	records, err := s.repo.ListForKurirRange(ctx, kurirID, from, to)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{KurirID: kurirID, Year: year, Month: int(month)}
	for _, rec := range records {
		switch rec.Status {
		case StatusApproved:
			sum.Approved++
			sum.WorkDays++
		case StatusRejected:
			sum.Rejected++
		case StatusAbsent:
			sum.Absent++
		default:
			sum.Pending++
		}
	}
	return sum, nil
}

// SweepAbsent writes absent rows for every active courier without a record
// on the date. Runs from the nightly job; re-running is harmless.
func (s *Service) SweepAbsent(ctx context.Context, directory KurirDirectory, date time.Time) (int64, error) {
	ids, err := directory.ListActiveKurirIDs(ctx)
	if err != nil {
		return 0, err
	}
	return s.repo.MarkAbsent(ctx, date, ids)
}
