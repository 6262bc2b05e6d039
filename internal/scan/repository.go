package scan

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for scan logs. The
// table is insert-only; nothing here mutates or deletes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one scan log row on the caller's transaction, so the log
// commits or rolls back together with the package transition.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, log Log) (Log, error) {
	query := `
		INSERT INTO barcode_scan_logs (package_ref, scanned_by, scan_type, lat, lng, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, package_ref, scanned_by, scan_type, lat, lng, created_at`
	var stored Log
	err := tx.QueryRow(ctx, query, log.PackageRef, log.ScannedBy, log.ScanType, log.Lat, log.Lng).Scan(
		&stored.ID, &stored.PackageRef, &stored.ScannedBy, &stored.ScanType, &stored.Lat, &stored.Lng, &stored.CreatedAt,
	)
	if err != nil {
		return Log{}, fmt.Errorf("scan: insert log: %w", err)
	}
	return stored, nil
}

// ListByPackage returns the scan events of one package, oldest first.
func (r *Repository) ListByPackage(ctx context.Context, packageRef int64) ([]Log, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, package_ref, scanned_by, scan_type, lat, lng, created_at
		FROM barcode_scan_logs
		WHERE package_ref = $1
		ORDER BY created_at, id`, packageRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.PackageRef, &l.ScannedBy, &l.ScanType, &l.Lat, &l.Lng, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
