package geofence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// Repository provides PostgreSQL backed persistence for geofence zones.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const zoneColumns = `id, name, center_lat, center_lng, radius_m, is_active, created_at, updated_at`

func scanZone(row pgx.Row) (Zone, error) {
	var z Zone
	err := row.Scan(&z.ID, &z.Name, &z.CenterLat, &z.CenterLng, &z.RadiusM, &z.IsActive, &z.CreatedAt, &z.UpdatedAt)
	return z, err
}

// Insert persists a new zone.
func (r *Repository) Insert(ctx context.Context, z Zone) (Zone, error) {
	query := `
		INSERT INTO geofence_zones (name, center_lat, center_lng, radius_m, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + zoneColumns
	created, err := scanZone(r.pool.QueryRow(ctx, query, z.Name, z.CenterLat, z.CenterLng, z.RadiusM, z.IsActive))
	if err != nil {
		return Zone{}, fmt.Errorf("geofence: insert zone: %w", err)
	}
	return created, nil
}

// Get retrieves a zone by id.
func (r *Repository) Get(ctx context.Context, id int64) (Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM geofence_zones WHERE id = $1`
	z, err := scanZone(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, fmt.Errorf("geofence: zone %d: %w", id, shared.ErrNotFound)
		}
		return Zone{}, err
	}
	return z, nil
}

// Update replaces the mutable fields of a zone.
func (r *Repository) Update(ctx context.Context, z Zone) (Zone, error) {
	query := `
		UPDATE geofence_zones
		SET name = $2, center_lat = $3, center_lng = $4, radius_m = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + zoneColumns
	updated, err := scanZone(r.pool.QueryRow(ctx, query, z.ID, z.Name, z.CenterLat, z.CenterLng, z.RadiusM, z.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, fmt.Errorf("geofence: zone %d: %w", z.ID, shared.ErrNotFound)
		}
		return Zone{}, err
	}
	return updated, nil
}

// Delete hard-deletes a zone. Zones carry no history requirement.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM geofence_zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("geofence: delete zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("geofence: zone %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// List returns every zone, active or not, ordered by name.
func (r *Repository) List(ctx context.Context) ([]Zone, error) {
	return r.queryZones(ctx, `SELECT `+zoneColumns+` FROM geofence_zones ORDER BY name, id`)
}

// ListActive returns only the zones considered for validation.
func (r *Repository) ListActive(ctx context.Context) ([]Zone, error) {
	return r.queryZones(ctx, `SELECT `+zoneColumns+` FROM geofence_zones WHERE is_active ORDER BY name, id`)
}

func (r *Repository) queryZones(ctx context.Context, query string) ([]Zone, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}
