package geofence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

type memoryZoneRepo struct {
	mu     sync.Mutex
	nextID int64
	zones  map[int64]Zone
	loads  int
}

func newMemoryZoneRepo() *memoryZoneRepo {
	return &memoryZoneRepo{zones: make(map[int64]Zone)}
}

func (m *memoryZoneRepo) Insert(_ context.Context, z Zone) (Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	z.ID = m.nextID
	m.zones[z.ID] = z
	return z, nil
}

func (m *memoryZoneRepo) Get(_ context.Context, id int64) (Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zones[id]
	if !ok {
		return Zone{}, fmt.Errorf("geofence: zone %d: %w", id, shared.ErrNotFound)
	}
	return z, nil
}

func (m *memoryZoneRepo) Update(_ context.Context, z Zone) (Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[z.ID]; !ok {
		return Zone{}, fmt.Errorf("geofence: zone %d: %w", z.ID, shared.ErrNotFound)
	}
	m.zones[z.ID] = z
	return z, nil
}

func (m *memoryZoneRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[id]; !ok {
		return fmt.Errorf("geofence: zone %d: %w", id, shared.ErrNotFound)
	}
	delete(m.zones, id)
	return nil
}

func (m *memoryZoneRepo) List(_ context.Context) ([]Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Zone
	for _, z := range m.zones {
		out = append(out, z)
	}
	return out, nil
}

func (m *memoryZoneRepo) ListActive(_ context.Context) ([]Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	var out []Zone
	for _, z := range m.zones {
		if z.IsActive {
			out = append(out, z)
		}
	}
	return out, nil
}

func newCachedService(t *testing.T) (*Service, *memoryZoneRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newMemoryZoneRepo()
	return NewService(repo, NewCache(client, time.Minute)), repo
}

func TestCreateZoneValidatesGeometry(t *testing.T) {
	svc, _ := newCachedService(t)
	ctx := context.Background()

	cases := []CreateZoneRequest{
		{Name: "too small", CenterLat: -6.18, CenterLng: 106.94, RadiusM: 5},
		{Name: "too large", CenterLat: -6.18, CenterLng: 106.94, RadiusM: 6000},
		{Name: "bad lat", CenterLat: 95, CenterLng: 106.94, RadiusM: 100},
		{Name: "", CenterLat: -6.18, CenterLng: 106.94, RadiusM: 100},
	}
	for _, req := range cases {
		_, err := svc.CreateZone(ctx, req)
		require.ErrorIs(t, err, shared.ErrValidation, req.Name)
	}

	zone, err := svc.CreateZone(ctx, CreateZoneRequest{Name: "Depot", CenterLat: -6.18, CenterLng: 106.94, RadiusM: 100})
	require.NoError(t, err)
	require.True(t, zone.IsActive)
	require.NotZero(t, zone.ID)
}

func TestContainmentBoundaryInclusive(t *testing.T) {
	svc, _ := newCachedService(t)
	ctx := context.Background()

	center := Zone{CenterLat: -6.18, CenterLng: 106.94}
	boundaryLat := center.CenterLat + latOffset(50)
	exact := Haversine(boundaryLat, center.CenterLng, center.CenterLat, center.CenterLng)

	_, err := svc.CreateZone(ctx, CreateZoneRequest{
		Name: "Depot", CenterLat: center.CenterLat, CenterLng: center.CenterLng, RadiusM: exact,
	})
	require.NoError(t, err)

	inside, err := svc.IsWithinAnyActiveZone(ctx, center.CenterLat+latOffset(49), center.CenterLng)
	require.NoError(t, err)
	require.True(t, inside, "one meter inside the boundary")

	onBoundary, err := svc.IsWithinAnyActiveZone(ctx, boundaryLat, center.CenterLng)
	require.NoError(t, err)
	require.True(t, onBoundary, "exactly on the boundary")

	outside, err := svc.IsWithinAnyActiveZone(ctx, center.CenterLat+latOffset(52), center.CenterLng)
	require.NoError(t, err)
	require.False(t, outside, "one meter beyond the boundary")
}

func TestInactiveZonesIgnored(t *testing.T) {
	svc, _ := newCachedService(t)
	ctx := context.Background()

	inactive := false
	_, err := svc.CreateZone(ctx, CreateZoneRequest{
		Name: "Closed Depot", CenterLat: -6.18, CenterLng: 106.94, RadiusM: 100, IsActive: &inactive,
	})
	require.NoError(t, err)

	inside, err := svc.IsWithinAnyActiveZone(ctx, -6.18, 106.94)
	require.NoError(t, err)
	require.False(t, inside)

	nearest, err := svc.NearestZone(ctx, -6.18, 106.94)
	require.NoError(t, err)
	require.Nil(t, nearest)
}

func TestNearestZonePicksClosest(t *testing.T) {
	svc, _ := newCachedService(t)
	ctx := context.Background()

	_, err := svc.CreateZone(ctx, CreateZoneRequest{Name: "Far", CenterLat: -6.30, CenterLng: 106.94, RadiusM: 100})
	require.NoError(t, err)
	_, err = svc.CreateZone(ctx, CreateZoneRequest{Name: "Near", CenterLat: -6.18, CenterLng: 106.94, RadiusM: 100})
	require.NoError(t, err)

	nearest, err := svc.NearestZone(ctx, -6.181, 106.94)
	require.NoError(t, err)
	require.NotNil(t, nearest)
	require.Equal(t, "Near", nearest.Zone.Name)
}

func TestCacheServesRepeatQueriesAndInvalidates(t *testing.T) {
	svc, repo := newCachedService(t)
	ctx := context.Background()

	zone, err := svc.CreateZone(ctx, CreateZoneRequest{Name: "Depot", CenterLat: -6.18, CenterLng: 106.94, RadiusM: 100})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.IsWithinAnyActiveZone(ctx, -6.18, 106.94)
		require.NoError(t, err)
	}
	require.Equal(t, 1, repo.loads, "repeat queries served from cache")

	_, err = svc.UpdateZone(ctx, zone.ID, UpdateZoneRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)

	inside, err := svc.IsWithinAnyActiveZone(ctx, -6.18, 106.94)
	require.NoError(t, err)
	require.False(t, inside, "update invalidates the cached zone list")
	require.Equal(t, 2, repo.loads)
}

func boolPtr(b bool) *bool { return &b }
