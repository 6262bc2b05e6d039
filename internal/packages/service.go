package packages

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// RepositoryPort abstracts package persistence for the service. The Tx
// methods must be atomic: status update and history append commit together
// or not at all.
type RepositoryPort interface {
	Insert(ctx context.Context, p Package) (Package, error)
	Get(ctx context.Context, id int64) (Package, error)
	GetByBarcode(ctx context.Context, barcode string) (Package, error)
	TransitionTx(ctx context.Context, id int64, from, to Status, deliveredAt *time.Time, entry HistoryEntry, hook TxHook) (Package, error)
	AssignTx(ctx context.Context, id, kurirID int64, from Status, requireUnassigned bool, entry HistoryEntry) (Package, error)
	ListAvailable(ctx context.Context) ([]Package, error)
	ListByKurir(ctx context.Context, kurirID int64) ([]Package, error)
	List(ctx context.Context, filter ListFilter) ([]Package, int, error)
	History(ctx context.Context, id int64) ([]HistoryEntry, error)
}

// Service coordinates package registry and assignment operations.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create registers a new package: status created, no assignee, generated
// package id and derived barcode.
func (s *Service) Create(ctx context.Context, req CreateRequest, actorID int64) (Package, error) {
	if strings.TrimSpace(req.RecipientName) == "" ||
		strings.TrimSpace(req.RecipientPhone) == "" ||
		strings.TrimSpace(req.RecipientAddr) == "" {
		return Package{}, fmt.Errorf("packages: recipient name, phone and address required: %w", shared.ErrValidation)
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.IsValid() {
		return Package{}, fmt.Errorf("packages: unknown priority %q: %w", priority, shared.ErrValidation)
	}

	createdAt := s.now().UTC()
	packageID := newPackageID(createdAt)
	p := Package{
		PackageID:      packageID,
		Barcode:        deriveBarcode(packageID, createdAt),
		Status:         StatusCreated,
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		RecipientAddr:  req.RecipientAddr,
		SenderName:     req.SenderName,
		SenderPhone:    req.SenderPhone,
		WeightKg:       req.WeightKg,
		LengthCm:       req.LengthCm,
		WidthCm:        req.WidthCm,
		HeightCm:       req.HeightCm,
		DeclaredValue:  req.DeclaredValue,
		Priority:       priority,
		Notes:          req.Notes,
		CreatedBy:      actorID,
	}
	return s.repo.Insert(ctx, p)
}

// Transition is the only mutator of package status. It verifies legality
// against the transition table, stamps delivered_at on entry into
// delivered, and relies on the repository to commit the update plus one
// history row atomically.
func (s *Service) Transition(ctx context.Context, id int64, to Status, actorID int64, note string) (Package, error) {
	return s.TransitionWithHook(ctx, id, to, actorID, note, nil)
}

// TransitionWithHook is Transition with a caller-supplied hook running in
// the same transaction as the status update and history append. The scan
// processor commits its log row through this, so a failed log write rolls
// the whole transition back.
func (s *Service) TransitionWithHook(ctx context.Context, id int64, to Status, actorID int64, note string, hook TxHook) (Package, error) {
	if !to.IsValid() {
		return Package{}, fmt.Errorf("packages: unknown status %q: %w", to, shared.ErrValidation)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Package{}, err
	}
	if !CanTransition(current.Status, to) {
		return Package{}, fmt.Errorf("packages: %s -> %s: %w", current.Status, to, shared.ErrIllegalTransition)
	}
	var deliveredAt *time.Time
	if to == StatusDelivered {
		t := s.now().UTC()
		deliveredAt = &t
	}
	entry := HistoryEntry{FromStatus: current.Status, ToStatus: to, ChangedBy: actorID, Note: note}
	return s.repo.TransitionTx(ctx, id, current.Status, to, deliveredAt, entry, hook)
}

// MarkFailed diverts a non-terminal, post-assignment package to failed.
func (s *Service) MarkFailed(ctx context.Context, id, actorID int64, note string) (Package, error) {
	if strings.TrimSpace(note) == "" {
		return Package{}, fmt.Errorf("packages: failure notes required: %w", shared.ErrValidation)
	}
	return s.Transition(ctx, id, StatusFailed, actorID, note)
}

// Claim lets a courier take an unassigned package. The precondition check
// and the write are a single conditional update in the repository, so N
// concurrent claims on one package yield exactly one winner; the rest get
// ErrConflict.
func (s *Service) Claim(ctx context.Context, id, kurirID int64) (Package, error) {
	entry := HistoryEntry{
		FromStatus: StatusCreated,
		ToStatus:   StatusAssigned,
		ChangedBy:  kurirID,
		Note:       "claimed by kurir",
	}
	return s.repo.AssignTx(ctx, id, kurirID, StatusCreated, true, entry)
}

// AssignExplicit is the staff-driven first assignment. Succeeds only while
// the package is still created and unassigned; anything else is a conflict,
// never a silent overwrite.
func (s *Service) AssignExplicit(ctx context.Context, id, kurirID, actorID int64) (Package, error) {
	entry := HistoryEntry{
		FromStatus: StatusCreated,
		ToStatus:   StatusAssigned,
		ChangedBy:  actorID,
		Note:       "assigned by staff",
	}
	return s.repo.AssignTx(ctx, id, kurirID, StatusCreated, true, entry)
}

// Reassign moves an assigned-but-not-picked-up package to another courier.
// Staff only; modeled separately from first assignment.
func (s *Service) Reassign(ctx context.Context, id, kurirID, actorID int64) (Package, error) {
	entry := HistoryEntry{
		FromStatus: StatusAssigned,
		ToStatus:   StatusAssigned,
		ChangedBy:  actorID,
		Note:       "reassigned by staff",
	}
	return s.repo.AssignTx(ctx, id, kurirID, StatusAssigned, false, entry)
}

// Get retrieves a package by id.
func (s *Service) Get(ctx context.Context, id int64) (Package, error) {
	return s.repo.Get(ctx, id)
}

// GetByBarcode retrieves a package by barcode.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (Package, error) {
	return s.repo.GetByBarcode(ctx, barcode)
}

// ListAvailable returns packages a courier may claim.
func (s *Service) ListAvailable(ctx context.Context) ([]Package, error) {
	return s.repo.ListAvailable(ctx)
}

// ListByKurir returns the courier's current packages.
func (s *Service) ListByKurir(ctx context.Context, kurirID int64) ([]Package, error) {
	return s.repo.ListByKurir(ctx, kurirID)
}

// List returns a filtered page of packages.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Package, int, error) {
	return s.repo.List(ctx, filter)
}

// History returns the audit trail of a package.
func (s *Service) History(ctx context.Context, id int64) ([]HistoryEntry, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// newPackageID builds the human-readable identifier, e.g. PKT-20250825-3FA2B1.
func newPackageID(createdAt time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PKT-%s-%s", createdAt.Format("20060102"), suffix)
}

// deriveBarcode derives the scannable code from the package id and its
// creation timestamp.
func deriveBarcode(packageID string, createdAt time.Time) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%d", packageID, createdAt.UnixNano())))
	return "LK" + strings.ToUpper(hex.EncodeToString(sum[:8]))
}
