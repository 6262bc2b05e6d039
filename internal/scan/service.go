package scan

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lintaskurir/lintaskurir/internal/packages"
	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// Registry is the slice of the package service the scan processor needs.
type Registry interface {
	Get(ctx context.Context, id int64) (packages.Package, error)
	GetByBarcode(ctx context.Context, barcode string) (packages.Package, error)
	Transition(ctx context.Context, id int64, to packages.Status, actorID int64, note string) (packages.Package, error)
	TransitionWithHook(ctx context.Context, id int64, to packages.Status, actorID int64, note string, hook packages.TxHook) (packages.Package, error)
}

// LogRepository persists scan events. Insert runs inside the transition
// transaction the registry opens.
type LogRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, log Log) (Log, error)
	ListByPackage(ctx context.Context, packageRef int64) ([]Log, error)
}

// Service validates scans against the package lifecycle and applies the
// resulting transitions through the registry.
type Service struct {
	registry Registry
	logs     LogRepository
}

// NewService builds Service.
func NewService(registry Registry, logs LogRepository) *Service {
	return &Service{registry: registry, logs: logs}
}

// Scan processes one barcode read. A pickup scan requires the package to be
// assigned and the scanner to be its assignee; a delivery scan requires
// in_transit. The scan log row commits in the same transaction as the
// status change and history row; a rejected scan or a failed log write
// leaves no trace of either.
func (s *Service) Scan(ctx context.Context, req Request, scannedBy int64) (packages.Package, error) {
	if !req.ScanType.IsValid() {
		return packages.Package{}, fmt.Errorf("scan: unknown scan type %q: %w", req.ScanType, shared.ErrValidation)
	}
	pkg, err := s.registry.GetByBarcode(ctx, req.Barcode)
	if err != nil {
		return packages.Package{}, err
	}

	var to packages.Status
	var note string
	switch req.ScanType {
	case TypePickup:
		if pkg.Status != packages.StatusAssigned {
			return packages.Package{}, fmt.Errorf(
				"scan: pickup scan requires status %s, package %s is %s: %w",
				packages.StatusAssigned, pkg.PackageID, pkg.Status, shared.ErrInvalidScan)
		}
		if pkg.AssignedKurirID == nil || *pkg.AssignedKurirID != scannedBy {
			return packages.Package{}, fmt.Errorf("scan: package %s is not assigned to this kurir: %w", pkg.PackageID, shared.ErrForbidden)
		}
		to, note = packages.StatusPickedUp, "pickup scan"
	case TypeDelivery:
		if pkg.Status != packages.StatusInTransit {
			return packages.Package{}, fmt.Errorf(
				"scan: delivery scan requires status %s, package %s is %s: %w",
				packages.StatusInTransit, pkg.PackageID, pkg.Status, shared.ErrInvalidScan)
		}
		if pkg.AssignedKurirID == nil || *pkg.AssignedKurirID != scannedBy {
			return packages.Package{}, fmt.Errorf("scan: package %s is not assigned to this kurir: %w", pkg.PackageID, shared.ErrForbidden)
		}
		to, note = packages.StatusDelivered, "delivery scan"
	}

	log := Log{PackageRef: pkg.ID, ScannedBy: scannedBy, ScanType: req.ScanType}
	if req.Location != nil {
		lat, lng := req.Location.Lat, req.Location.Lng
		log.Lat, log.Lng = &lat, &lng
	}
	updated, err := s.registry.TransitionWithHook(ctx, pkg.ID, to, scannedBy, note, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := s.logs.Insert(ctx, tx, log); err != nil {
			return fmt.Errorf("scan: record %s scan for %s: %w", req.ScanType, pkg.PackageID, err)
		}
		return nil
	})
	if err != nil {
		return packages.Package{}, err
	}
	return updated, nil
}

// Pickup is the manual fallback for a failed pickup scan. Same preconditions
// as the scan path, no log row.
func (s *Service) Pickup(ctx context.Context, packageID, kurirID int64) (packages.Package, error) {
	pkg, err := s.registry.Get(ctx, packageID)
	if err != nil {
		return packages.Package{}, err
	}
	if pkg.AssignedKurirID == nil || *pkg.AssignedKurirID != kurirID {
		return packages.Package{}, fmt.Errorf("scan: package %s is not assigned to this kurir: %w", pkg.PackageID, shared.ErrForbidden)
	}
	return s.registry.Transition(ctx, packageID, packages.StatusPickedUp, kurirID, "manual pickup")
}

// Depart moves a picked up package into transit.
func (s *Service) Depart(ctx context.Context, packageID, kurirID int64) (packages.Package, error) {
	pkg, err := s.registry.Get(ctx, packageID)
	if err != nil {
		return packages.Package{}, err
	}
	if pkg.AssignedKurirID == nil || *pkg.AssignedKurirID != kurirID {
		return packages.Package{}, fmt.Errorf("scan: package %s is not assigned to this kurir: %w", pkg.PackageID, shared.ErrForbidden)
	}
	return s.registry.Transition(ctx, packageID, packages.StatusInTransit, kurirID, "departed for delivery")
}

// Deliver is the manual completion path. Delivery notes are mandatory here,
// unlike the scan path where the device confirms proximity.
func (s *Service) Deliver(ctx context.Context, packageID, kurirID int64, notes string) (packages.Package, error) {
	if strings.TrimSpace(notes) == "" {
		return packages.Package{}, fmt.Errorf("scan: delivery notes are required: %w", shared.ErrValidation)
	}
	pkg, err := s.registry.Get(ctx, packageID)
	if err != nil {
		return packages.Package{}, err
	}
	if pkg.AssignedKurirID == nil || *pkg.AssignedKurirID != kurirID {
		return packages.Package{}, fmt.Errorf("scan: package %s is not assigned to this kurir: %w", pkg.PackageID, shared.ErrForbidden)
	}
	return s.registry.Transition(ctx, packageID, packages.StatusDelivered, kurirID, notes)
}

// Logs returns the scan events of one package.
func (s *Service) Logs(ctx context.Context, packageID int64) ([]Log, error) {
	if _, err := s.registry.Get(ctx, packageID); err != nil {
		return nil, err
	}
	return s.logs.ListByPackage(ctx, packageID)
}
