package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lintaskurir/lintaskurir/internal/geofence"
	"github.com/lintaskurir/lintaskurir/internal/shared"
)

type fakeGeofence struct {
	zones []geofence.Zone
}

func (f *fakeGeofence) IsWithinAnyActiveZone(_ context.Context, lat, lng float64) (bool, error) {
	for _, z := range f.zones {
		if !z.IsActive {
			continue
		}
		if geofence.Haversine(lat, lng, z.CenterLat, z.CenterLng) <= z.RadiusM {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGeofence) NearestZone(_ context.Context, lat, lng float64) (*geofence.ZoneDistance, error) {
	var nearest *geofence.ZoneDistance
	for _, z := range f.zones {
		if !z.IsActive {
			continue
		}
		d := geofence.Haversine(lat, lng, z.CenterLat, z.CenterLng)
		if nearest == nil || d < nearest.Distance {
			nearest = &geofence.ZoneDistance{Zone: z, Distance: d}
		}
	}
	return nearest, nil
}

type memoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]Record
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[int64]Record)}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func (m *memoryRepo) Insert(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.KurirID == rec.KurirID && dayKey(existing.WorkDate) == dayKey(rec.WorkDate) {
			return Record{}, fmt.Errorf("attendance: kurir %d on %s: %w",
				rec.KurirID, dayKey(rec.WorkDate), shared.ErrDuplicateCheckIn)
		}
	}
	m.nextID++
	rec.ID = m.nextID
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("attendance: record %d: %w", id, shared.ErrNotFound)
	}
	return rec, nil
}

func (m *memoryRepo) GetForDate(_ context.Context, kurirID int64, date time.Time) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.KurirID == kurirID && dayKey(rec.WorkDate) == dayKey(date) {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("attendance: kurir %d on %s: %w", kurirID, dayKey(date), shared.ErrNotFound)
}

func (m *memoryRepo) SetCheckOut(_ context.Context, id int64, at time.Time, lat, lng float64) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.CheckOutAt != nil {
		return Record{}, fmt.Errorf("attendance: record %d: %w", id, shared.ErrDuplicateCheckOut)
	}
	rec.CheckOutAt = &at
	rec.CheckOutLat, rec.CheckOutLng = &lat, &lng
	m.records[id] = rec
	return rec, nil
}

func (m *memoryRepo) Review(_ context.Context, id int64, decision Status, reviewerID int64, notes *string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("attendance: record %d: %w", id, shared.ErrNotFound)
	}
	if !rec.Status.IsReviewable() {
		return Record{}, fmt.Errorf("attendance: record %d already decided: %w", id, shared.ErrNotPending)
	}
	rec.Status = decision
	rec.ApprovedBy = &reviewerID
	if notes != nil {
		rec.Notes = notes
	}
	m.records[id] = rec
	return rec, nil
}

func (m *memoryRepo) ListForDate(_ context.Context, date time.Time) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if dayKey(rec.WorkDate) == dayKey(date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListForKurirRange(_ context.Context, kurirID int64, from, to time.Time) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if rec.KurirID == kurirID && !rec.WorkDate.Before(from) && rec.WorkDate.Before(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryRepo) MarkAbsent(_ context.Context, date time.Time, kurirIDs []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var inserted int64
	for _, id := range kurirIDs {
		exists := false
		for _, rec := range m.records {
			if rec.KurirID == id && dayKey(rec.WorkDate) == dayKey(date) {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		m.nextID++
		m.records[m.nextID] = Record{ID: m.nextID, KurirID: id, WorkDate: date, Status: StatusAbsent}
		inserted++
	}
	return inserted, nil
}

type staticDirectory []int64

func (d staticDirectory) ListActiveKurirIDs(context.Context) ([]int64, error) { return d, nil }

// metersToLatDegrees converts a ground distance to a latitude offset.
func metersToLatDegrees(m float64) float64 {
	return m / (6371000.0 * 3.14159265358979 / 180.0)
}

func newTestService(zones ...geofence.Zone) (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeGeofence{zones: zones}, time.UTC)
	base := time.Date(2025, 8, 25, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	return svc, repo
}

func depotZone() geofence.Zone {
	return geofence.Zone{ID: 1, Name: "Depot Cakung", CenterLat: -6.18, CenterLng: 106.94, RadiusM: 50, IsActive: true}
}

func TestWorkDateFollowsBusinessTimezone(t *testing.T) {
	wib := time.FixedZone("WIB", 7*60*60)
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeGeofence{zones: []geofence.Zone{depotZone()}}, wib)
	// 18:30 UTC on the 25th is already 01:30 on the 26th in Jakarta.
	svc.now = func() time.Time { return time.Date(2025, 8, 25, 18, 30, 0, 0, time.UTC) }

	rec, err := svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC), rec.WorkDate)

	// a UTC-truncated service would file the same instant a day earlier
	utcSvc := NewService(newMemoryRepo(), &fakeGeofence{zones: []geofence.Zone{depotZone()}}, time.UTC)
	utcSvc.now = svc.now
	require.Equal(t, time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC), utcSvc.workDate())
}

func TestCheckInInsideZone(t *testing.T) {
	svc, _ := newTestService(depotZone())

	rec, err := svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.NoError(t, err)
	require.Equal(t, StatusPending, rec.Status)
	require.NotNil(t, rec.CheckInAt)
	require.NotNil(t, rec.CheckInLat)
	require.InDelta(t, -6.18, *rec.CheckInLat, 1e-9)
	require.Nil(t, rec.CheckOutAt)
}

func TestCheckInAtBoundaryIsInside(t *testing.T) {
	svc, _ := newTestService(depotZone())
	z := depotZone()

	// 40m from center of a 50m zone.
	_, err := svc.CheckIn(context.Background(), 7, z.CenterLat+metersToLatDegrees(40), z.CenterLng)
	require.NoError(t, err)
}

func TestCheckInOutsideZone(t *testing.T) {
	svc, _ := newTestService(depotZone())
	z := depotZone()

	_, err := svc.CheckIn(context.Background(), 7, z.CenterLat+metersToLatDegrees(60), z.CenterLng)
	require.ErrorIs(t, err, shared.ErrOutsideGeofence)
	require.Contains(t, err.Error(), "Depot Cakung")
}

func TestCheckInNoActiveZones(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.ErrorIs(t, err, shared.ErrOutsideGeofence)
	require.Contains(t, err.Error(), "no active zones")
}

func TestDuplicateCheckIn(t *testing.T) {
	svc, _ := newTestService(depotZone())

	_, err := svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.ErrorIs(t, err, shared.ErrDuplicateCheckIn)
}

func TestCheckOutRequiresCheckIn(t *testing.T) {
	svc, _ := newTestService(depotZone())

	_, err := svc.CheckOut(context.Background(), 7, -6.18, 106.94)
	require.ErrorIs(t, err, shared.ErrNoCheckIn)
}

func TestCheckOutOnceAndGeofenced(t *testing.T) {
	svc, _ := newTestService(depotZone())
	z := depotZone()

	_, err := svc.CheckIn(context.Background(), 7, z.CenterLat, z.CenterLng)
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), 7, z.CenterLat+metersToLatDegrees(60), z.CenterLng)
	require.ErrorIs(t, err, shared.ErrOutsideGeofence)

	rec, err := svc.CheckOut(context.Background(), 7, z.CenterLat, z.CenterLng)
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOutAt)
	require.Equal(t, StatusPending, rec.Status)

	_, err = svc.CheckOut(context.Background(), 7, z.CenterLat, z.CenterLng)
	require.ErrorIs(t, err, shared.ErrDuplicateCheckOut)
}

func TestReviewApproveThenRepeatFails(t *testing.T) {
	svc, _ := newTestService(depotZone())

	rec, err := svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.NoError(t, err)

	approved, err := svc.Review(context.Background(), rec.ID, 42, StatusApproved, nil)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.Equal(t, int64(42), *approved.ApprovedBy)

	_, err = svc.Review(context.Background(), rec.ID, 42, StatusRejected, nil)
	require.ErrorIs(t, err, shared.ErrNotPending)
}

func TestReviewSelfApprovalForbidden(t *testing.T) {
	svc, _ := newTestService(depotZone())

	rec, err := svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), rec.ID, 7, StatusApproved, nil)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestReviewRejectsBadDecision(t *testing.T) {
	svc, _ := newTestService(depotZone())

	rec, err := svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), rec.ID, 42, StatusAbsent, nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestMonthlySummaryCounts(t *testing.T) {
	svc, repo := newTestService(depotZone())

	days := map[int]Status{1: StatusApproved, 2: StatusApproved, 3: StatusRejected, 4: StatusAbsent, 5: StatusPending}
	for day, status := range days {
		repo.nextID++
		repo.records[repo.nextID] = Record{
			ID:       repo.nextID,
			KurirID:  7,
			WorkDate: time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC),
			Status:   status,
		}
	}

	sum, err := svc.MonthlySummary(context.Background(), 7, 2025, time.August)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Approved)
	require.Equal(t, 2, sum.WorkDays)
	require.Equal(t, 1, sum.Rejected)
	require.Equal(t, 1, sum.Absent)
	require.Equal(t, 1, sum.Pending)
}

func TestSweepAbsentSkipsCheckedIn(t *testing.T) {
	svc, repo := newTestService(depotZone())

	_, err := svc.CheckIn(context.Background(), 7, -6.18, 106.94)
	require.NoError(t, err)

	inserted, err := svc.SweepAbsent(context.Background(), staticDirectory{7, 8, 9}, svc.workDate())
	require.NoError(t, err)
	require.Equal(t, int64(2), inserted)

	rec, err := repo.GetForDate(context.Background(), 7, svc.workDate())
	require.NoError(t, err)
	require.Equal(t, StatusPending, rec.Status)

	absent, err := repo.GetForDate(context.Background(), 8, svc.workDate())
	require.NoError(t, err)
	require.Equal(t, StatusAbsent, absent.Status)
}
