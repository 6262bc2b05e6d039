package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

const recordColumns = `id, kurir_id, work_date, check_in_at, check_in_lat, check_in_lng,
	check_out_at, check_out_lat, check_out_lng, status, approved_by, notes, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for attendance records.
// Write paths are guarded: the unique (kurir_id, work_date) index backs the
// duplicate check-in rule, and check-out and review are conditional updates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.KurirID, &rec.WorkDate, &rec.CheckInAt, &rec.CheckInLat, &rec.CheckInLng,
		&rec.CheckOutAt, &rec.CheckOutLat, &rec.CheckOutLng, &rec.Status, &rec.ApprovedBy, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// Insert creates the courier-day row. A second insert for the same pair
// loses to the unique index and maps to the duplicate check-in error.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	query := `
		INSERT INTO attendance_records (kurir_id, work_date, check_in_at, check_in_lat, check_in_lng, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + recordColumns
	stored, err := scanRecord(r.pool.QueryRow(ctx, query,
		rec.KurirID, rec.WorkDate, rec.CheckInAt, rec.CheckInLat, rec.CheckInLng, rec.Status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, fmt.Errorf("attendance: kurir %d on %s: %w",
				rec.KurirID, rec.WorkDate.Format("2006-01-02"), shared.ErrDuplicateCheckIn)
		}
		return Record{}, fmt.Errorf("attendance: insert record: %w", err)
	}
	return stored, nil
}

// Get retrieves one record by id.
func (r *Repository) Get(ctx context.Context, id int64) (Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("attendance: record %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// GetForDate retrieves the courier's record for one work date.
func (r *Repository) GetForDate(ctx context.Context, kurirID int64, date time.Time) (Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE kurir_id = $1 AND work_date = $2`,
		kurirID, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("attendance: kurir %d on %s: %w",
			kurirID, date.Format("2006-01-02"), shared.ErrNotFound)
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// SetCheckOut stamps the check-out once. The IS NULL guard makes a repeated
// check-out lose the race instead of overwriting the first timestamp.
func (r *Repository) SetCheckOut(ctx context.Context, id int64, at time.Time, lat, lng float64) (Record, error) {
	query := `
		UPDATE attendance_records
		SET check_out_at = $2, check_out_lat = $3, check_out_lng = $4, updated_at = NOW()
		WHERE id = $1 AND check_out_at IS NULL
		RETURNING ` + recordColumns
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, at, lat, lng))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("attendance: record %d: %w", id, shared.ErrDuplicateCheckOut)
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Review decides a reviewable record. The status guard rejects a second
// review rather than overwriting the first decision.
func (r *Repository) Review(ctx context.Context, id int64, decision Status, reviewerID int64, notes *string) (Record, error) {
	query := `
		UPDATE attendance_records
		SET status = $2, approved_by = $3, notes = COALESCE($4, notes), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'present')
		RETURNING ` + recordColumns
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, decision, reviewerID, notes))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return Record{}, getErr
		}
		return Record{}, fmt.Errorf("attendance: record %d already decided: %w", id, shared.ErrNotPending)
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ListForDate returns every record of one work date, for review queues.
func (r *Repository) ListForDate(ctx context.Context, date time.Time) ([]Record, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records
		WHERE work_date = $1 ORDER BY kurir_id`, date)
}

// ListForKurirRange returns the courier's records with work_date in [from, to).
func (r *Repository) ListForKurirRange(ctx context.Context, kurirID int64, from, to time.Time) ([]Record, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records
		WHERE kurir_id = $1 AND work_date >= $2 AND work_date < $3 ORDER BY work_date`, kurirID, from, to)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkAbsent inserts absent rows for every listed courier that has no
// record on the date. ON CONFLICT keeps real check-ins untouched.
func (r *Repository) MarkAbsent(ctx context.Context, date time.Time, kurirIDs []int64) (int64, error) {
	if len(kurirIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO attendance_records (kurir_id, work_date, status)
		SELECT unnest($1::bigint[]), $2, 'absent'
		ON CONFLICT (kurir_id, work_date) DO NOTHING`, kurirIDs, date)
	if err != nil {
		return 0, fmt.Errorf("attendance: mark absent: %w", err)
	}
	return tag.RowsAffected(), nil
}
