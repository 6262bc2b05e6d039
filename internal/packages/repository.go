package packages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lintaskurir/lintaskurir/internal/platform/db"
	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// TxHook runs inside the transition transaction, after the status update
// and history append. A non-nil error rolls the whole transition back.
type TxHook func(ctx context.Context, tx pgx.Tx) error

// Repository provides PostgreSQL backed persistence for packages. The
// mutating operations use conditional updates guarded on the status
// pre-image, so races resolve inside a single statement instead of a
// read-then-write across round trips.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const packageColumns = `id, package_id, barcode, status, assigned_kurir_id,
	recipient_name, recipient_phone, recipient_address, sender_name, sender_phone,
	weight_kg, length_cm, width_cm, height_cm, declared_value, priority, notes,
	created_by, created_at, updated_at, delivered_at`

func scanPackage(row pgx.Row) (Package, error) {
	var p Package
	err := row.Scan(
		&p.ID, &p.PackageID, &p.Barcode, &p.Status, &p.AssignedKurirID,
		&p.RecipientName, &p.RecipientPhone, &p.RecipientAddr, &p.SenderName, &p.SenderPhone,
		&p.WeightKg, &p.LengthCm, &p.WidthCm, &p.HeightCm, &p.DeclaredValue, &p.Priority, &p.Notes,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.DeliveredAt,
	)
	return p, err
}

// Insert persists a freshly created package.
func (r *Repository) Insert(ctx context.Context, p Package) (Package, error) {
	query := `
		INSERT INTO packages (
			package_id, barcode, status, assigned_kurir_id,
			recipient_name, recipient_phone, recipient_address, sender_name, sender_phone,
			weight_kg, length_cm, width_cm, height_cm, declared_value, priority, notes,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, NULL, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING ` + packageColumns
	created, err := scanPackage(r.pool.QueryRow(ctx, query,
		p.PackageID, p.Barcode, p.Status,
		p.RecipientName, p.RecipientPhone, p.RecipientAddr, p.SenderName, p.SenderPhone,
		p.WeightKg, p.LengthCm, p.WidthCm, p.HeightCm, p.DeclaredValue, p.Priority, p.Notes,
		p.CreatedBy,
	))
	if err != nil {
		return Package{}, fmt.Errorf("packages: insert: %w", err)
	}
	return created, nil
}

// Get retrieves a package by row id.
func (r *Repository) Get(ctx context.Context, id int64) (Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE id = $1`
	p, err := scanPackage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Package{}, fmt.Errorf("packages: package %d: %w", id, shared.ErrNotFound)
		}
		return Package{}, err
	}
	return p, nil
}

// GetByBarcode looks a package up by its barcode, used by the scan processor.
func (r *Repository) GetByBarcode(ctx context.Context, barcode string) (Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE barcode = $1`
	p, err := scanPackage(r.pool.QueryRow(ctx, query, barcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Package{}, fmt.Errorf("packages: barcode %s: %w", barcode, shared.ErrNotFound)
		}
		return Package{}, err
	}
	return p, nil
}

// TransitionTx applies the status change, the history append and the
// optional hook as one transaction. The UPDATE is guarded on the status
// pre-image: zero rows means either the package vanished or a concurrent
// writer won, and the transaction rolls back without partial effects.
func (r *Repository) TransitionTx(ctx context.Context, id int64, from, to Status, deliveredAt *time.Time, entry HistoryEntry, hook TxHook) (Package, error) {
	var updated Package
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE packages
			SET status = $3, updated_at = NOW(),
			    delivered_at = COALESCE($4, delivered_at)
			WHERE id = $1 AND status = $2
			RETURNING ` + packageColumns
		p, err := scanPackage(tx.QueryRow(ctx, query, id, from, to, deliveredAt))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.casFailure(ctx, tx, id)
			}
			return err
		}
		updated = p
		if err := insertHistory(ctx, tx, id, entry); err != nil {
			return err
		}
		if hook != nil {
			return hook(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return Package{}, err
	}
	return updated, nil
}

// AssignTx is the arbitration primitive behind claim, explicit assignment
// and reassignment: one conditional UPDATE that sets assignee and status
// together. requireUnassigned distinguishes first assignment (claim,
// assign) from staff reassignment of a not-yet-picked-up package.
func (r *Repository) AssignTx(ctx context.Context, id, kurirID int64, from Status, requireUnassigned bool, entry HistoryEntry) (Package, error) {
	var updated Package
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE packages
			SET assigned_kurir_id = $3, status = $4, updated_at = NOW()
			WHERE id = $1 AND status = $2`
		if requireUnassigned {
			query += ` AND assigned_kurir_id IS NULL`
		}
		query += `
			RETURNING ` + packageColumns
		p, err := scanPackage(tx.QueryRow(ctx, query, id, from, kurirID, StatusAssigned))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.casFailure(ctx, tx, id)
			}
			return err
		}
		updated = p
		return insertHistory(ctx, tx, id, entry)
	})
	if err != nil {
		return Package{}, err
	}
	return updated, nil
}

// casFailure turns a zero-row conditional update into the right domain
// error: not found when the package does not exist, conflict when it does
// but its pre-image no longer matches.
func (r *Repository) casFailure(ctx context.Context, tx pgx.Tx, id int64) error {
	var status Status
	err := tx.QueryRow(ctx, `SELECT status FROM packages WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("packages: package %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("packages: package %d already %s: %w", id, status, shared.ErrConflict)
}

func insertHistory(ctx context.Context, tx pgx.Tx, id int64, entry HistoryEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO package_status_history (package_ref, from_status, to_status, changed_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		id, entry.FromStatus, entry.ToStatus, entry.ChangedBy, entry.Note,
	)
	if err != nil {
		return fmt.Errorf("packages: append history: %w", err)
	}
	return nil
}

// The conditional updates resolve races in a single statement, so
// ReadCommitted is enough here.
func (r *Repository) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// ListAvailable returns claimable packages: created and unassigned.
func (r *Repository) ListAvailable(ctx context.Context) ([]Package, error) {
	query := `SELECT ` + packageColumns + `
		FROM packages
		WHERE status = $1 AND assigned_kurir_id IS NULL
		ORDER BY priority = 'urgent' DESC, priority = 'high' DESC, created_at`
	return r.queryPackages(ctx, query, StatusCreated)
}

// ListByKurir returns packages currently assigned to a courier.
func (r *Repository) ListByKurir(ctx context.Context, kurirID int64) ([]Package, error) {
	query := `SELECT ` + packageColumns + `
		FROM packages
		WHERE assigned_kurir_id = $1
		ORDER BY created_at DESC`
	return r.queryPackages(ctx, query, kurirID)
}

// List returns a filtered page of packages plus the total match count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Package, int, error) {
	var conds []string
	var args []any
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.KurirID != nil {
		args = append(args, *filter.KurirID)
		conds = append(conds, fmt.Sprintf("assigned_kurir_id = $%d", len(args)))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+*filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(package_id ILIKE $%d OR recipient_name ILIKE $%d)", n, n))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM packages`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT `+packageColumns+` FROM packages%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	items, err := r.queryPackages(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// History returns the append-only transition log for a package.
func (r *Repository) History(ctx context.Context, id int64) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, package_ref, from_status, to_status, changed_by, note, created_at
		FROM package_status_history
		WHERE package_ref = $1
		ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.PackageRef, &e.FromStatus, &e.ToStatus, &e.ChangedBy, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) queryPackages(ctx context.Context, query string, args ...any) ([]Package, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
