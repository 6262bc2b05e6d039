package geofence

import (
	"context"
	"fmt"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// RepositoryPort abstracts zone persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, z Zone) (Zone, error)
	Get(ctx context.Context, id int64) (Zone, error)
	Update(ctx context.Context, z Zone) (Zone, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]Zone, error)
	ListActive(ctx context.Context) ([]Zone, error)
}

// Service owns zone CRUD and the containment/nearest queries used by the
// attendance workflow.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService constructs a geofence service. Cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// CreateZone validates and persists a new zone.
func (s *Service) CreateZone(ctx context.Context, req CreateZoneRequest) (Zone, error) {
	if err := validateGeometry(req.CenterLat, req.CenterLng, req.RadiusM); err != nil {
		return Zone{}, err
	}
	if req.Name == "" {
		return Zone{}, fmt.Errorf("geofence: name required: %w", shared.ErrValidation)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	zone, err := s.repo.Insert(ctx, Zone{
		Name:      req.Name,
		CenterLat: req.CenterLat,
		CenterLng: req.CenterLng,
		RadiusM:   req.RadiusM,
		IsActive:  active,
	})
	if err != nil {
		return Zone{}, err
	}
	s.cache.Invalidate(ctx)
	return zone, nil
}

// UpdateZone applies a partial update to an existing zone.
func (s *Service) UpdateZone(ctx context.Context, id int64, req UpdateZoneRequest) (Zone, error) {
	zone, err := s.repo.Get(ctx, id)
	if err != nil {
		return Zone{}, err
	}
	if req.Name != nil {
		zone.Name = *req.Name
	}
	if req.CenterLat != nil {
		zone.CenterLat = *req.CenterLat
	}
	if req.CenterLng != nil {
		zone.CenterLng = *req.CenterLng
	}
	if req.RadiusM != nil {
		zone.RadiusM = *req.RadiusM
	}
	if req.IsActive != nil {
		zone.IsActive = *req.IsActive
	}
	if err := validateGeometry(zone.CenterLat, zone.CenterLng, zone.RadiusM); err != nil {
		return Zone{}, err
	}
	if zone.Name == "" {
		return Zone{}, fmt.Errorf("geofence: name required: %w", shared.ErrValidation)
	}
	updated, err := s.repo.Update(ctx, zone)
	if err != nil {
		return Zone{}, err
	}
	s.cache.Invalidate(ctx)
	return updated, nil
}

// DeleteZone removes a zone permanently.
func (s *Service) DeleteZone(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// GetZone retrieves a single zone.
func (s *Service) GetZone(ctx context.Context, id int64) (Zone, error) {
	return s.repo.Get(ctx, id)
}

// ListZones returns every zone for the staff CRUD views.
func (s *Service) ListZones(ctx context.Context) ([]Zone, error) {
	return s.repo.List(ctx)
}

// IsWithinAnyActiveZone reports whether the point lies inside at least one
// active zone. The boundary is inclusive: distance == radius counts as inside.
func (s *Service) IsWithinAnyActiveZone(ctx context.Context, lat, lng float64) (bool, error) {
	zones, err := s.activeZones(ctx)
	if err != nil {
		return false, err
	}
	for _, z := range zones {
		if Haversine(lat, lng, z.CenterLat, z.CenterLng) <= z.RadiusM {
			return true, nil
		}
	}
	return false, nil
}

// NearestZone returns the closest active zone and the distance to its
// center, or nil when no active zones exist.
func (s *Service) NearestZone(ctx context.Context, lat, lng float64) (*ZoneDistance, error) {
	zones, err := s.activeZones(ctx)
	if err != nil {
		return nil, err
	}
	var nearest *ZoneDistance
	for _, z := range zones {
		d := Haversine(lat, lng, z.CenterLat, z.CenterLng)
		if nearest == nil || d < nearest.Distance {
			nearest = &ZoneDistance{Zone: z, Distance: d}
		}
	}
	return nearest, nil
}

func (s *Service) activeZones(ctx context.Context) ([]Zone, error) {
	if s.cache != nil {
		return s.cache.ActiveZones(ctx, s.repo.ListActive)
	}
	return s.repo.ListActive(ctx)
}

func validateGeometry(lat, lng, radius float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("geofence: coordinates out of range: %w", shared.ErrValidation)
	}
	if radius < MinRadiusMeters || radius > MaxRadiusMeters {
		return fmt.Errorf("geofence: radius must be between %d and %d meters: %w",
			MinRadiusMeters, MaxRadiusMeters, shared.ErrValidation)
	}
	return nil
}
