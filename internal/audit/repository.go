package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository membaca timeline langsung dari PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository membuat repository audit baru.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const timelineSelect = `
	SELECT h.created_at, p.package_id, p.barcode, h.from_status, h.to_status, h.changed_by, COALESCE(h.note, '')
	FROM package_status_history h
	JOIN packages p ON p.id = h.package_ref`

func buildWhere(filters TimelineFilters) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !filters.From.IsZero() {
		add("h.created_at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("h.created_at < $%d", filters.To)
	}
	if filters.ChangedBy != nil {
		add("h.changed_by = $%d", *filters.ChangedBy)
	}
	if filters.ToStatus != "" {
		add("h.to_status = $%d", filters.ToStatus)
	}
	if filters.PackageID != "" {
		add("p.package_id = $%d", filters.PackageID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// TimelineWindow mengambil satu jendela timeline, terbaru lebih dulu.
func (r *PgRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	where, args := buildWhere(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY h.created_at DESC, h.id DESC LIMIT $%d OFFSET $%d",
		timelineSelect, where, len(args)-1, len(args))
	return r.query(ctx, query, args)
}

// TimelineAll mengambil seluruh timeline sesuai filter.
func (r *PgRepository) TimelineAll(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	where, args := buildWhere(filters)
	return r.query(ctx, timelineSelect+where+" ORDER BY h.created_at DESC, h.id DESC", args)
}

func (r *PgRepository) query(ctx context.Context, query string, args []any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: timeline query: %w", err)
	}
	defer rows.Close()

	var result []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.At, &row.PackageID, &row.Barcode, &row.FromStatus, &row.ToStatus, &row.ChangedBy, &row.Note); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
