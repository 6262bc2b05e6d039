package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/lintaskurir/lintaskurir/internal/packages"
	"github.com/lintaskurir/lintaskurir/internal/shared"
)

type memoryRegistry struct {
	mu   sync.Mutex
	pkgs map[int64]packages.Package
}

func newMemoryRegistry(pkgs ...packages.Package) *memoryRegistry {
	r := &memoryRegistry{pkgs: make(map[int64]packages.Package)}
	for _, p := range pkgs {
		r.pkgs[p.ID] = p
	}
	return r
}

func (r *memoryRegistry) Get(_ context.Context, id int64) (packages.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pkgs[id]
	if !ok {
		return packages.Package{}, fmt.Errorf("packages: %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (r *memoryRegistry) GetByBarcode(_ context.Context, barcode string) (packages.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pkgs {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return packages.Package{}, fmt.Errorf("packages: barcode %s: %w", barcode, shared.ErrNotFound)
}

func (r *memoryRegistry) Transition(ctx context.Context, id int64, to packages.Status, actorID int64, note string) (packages.Package, error) {
	return r.TransitionWithHook(ctx, id, to, actorID, note, nil)
}

// TransitionWithHook mirrors the repository contract: the hook failing
// leaves the package untouched.
func (r *memoryRegistry) TransitionWithHook(ctx context.Context, id int64, to packages.Status, _ int64, _ string, hook packages.TxHook) (packages.Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pkgs[id]
	if !ok {
		return packages.Package{}, fmt.Errorf("packages: %d: %w", id, shared.ErrNotFound)
	}
	if !packages.CanTransition(p.Status, to) {
		return packages.Package{}, fmt.Errorf("packages: %s -> %s: %w", p.Status, to, shared.ErrIllegalTransition)
	}
	if hook != nil {
		if err := hook(ctx, nil); err != nil {
			return packages.Package{}, err
		}
	}
	p.Status = to
	r.pkgs[id] = p
	return p, nil
}

type memoryLogRepo struct {
	mu   sync.Mutex
	logs []Log
	fail bool
}

func (r *memoryLogRepo) Insert(_ context.Context, _ pgx.Tx, log Log) (Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return Log{}, errors.New("log store unavailable")
	}
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, log)
	return log, nil
}

func (r *memoryLogRepo) ListByPackage(_ context.Context, packageRef int64) ([]Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Log
	for _, l := range r.logs {
		if l.PackageRef == packageRef {
			out = append(out, l)
		}
	}
	return out, nil
}

func assignedPackage(id, kurirID int64, status packages.Status) packages.Package {
	return packages.Package{
		ID:              id,
		PackageID:       fmt.Sprintf("PKT-20250825-%06d", id),
		Barcode:         fmt.Sprintf("LK%08d", id),
		Status:          status,
		AssignedKurirID: &kurirID,
	}
}

func TestPickupScanAdvancesAssignedPackage(t *testing.T) {
	reg := newMemoryRegistry(assignedPackage(1, 7, packages.StatusAssigned))
	logs := &memoryLogRepo{}
	svc := NewService(reg, logs)

	pkg, err := svc.Scan(context.Background(), Request{
		Barcode:  "LK00000001",
		ScanType: TypePickup,
		Location: &Location{Lat: -6.2, Lng: 106.8},
	}, 7)
	require.NoError(t, err)
	require.Equal(t, packages.StatusPickedUp, pkg.Status)

	require.Len(t, logs.logs, 1)
	require.Equal(t, TypePickup, logs.logs[0].ScanType)
	require.Equal(t, int64(7), logs.logs[0].ScannedBy)
	require.NotNil(t, logs.logs[0].Lat)
	require.InDelta(t, -6.2, *logs.logs[0].Lat, 1e-9)
}

func TestPickupScanRejectedOutsideAssignedStatus(t *testing.T) {
	for _, status := range []packages.Status{
		packages.StatusCreated,
		packages.StatusPickedUp,
		packages.StatusInTransit,
		packages.StatusDelivered,
		packages.StatusFailed,
	} {
		t.Run(string(status), func(t *testing.T) {
			reg := newMemoryRegistry(assignedPackage(1, 7, status))
			logs := &memoryLogRepo{}
			svc := NewService(reg, logs)

			_, err := svc.Scan(context.Background(), Request{Barcode: "LK00000001", ScanType: TypePickup}, 7)
			require.ErrorIs(t, err, shared.ErrInvalidScan)
			require.Contains(t, err.Error(), string(packages.StatusAssigned))
			require.Empty(t, logs.logs)
		})
	}
}

func TestPickupScanRejectedForWrongKurir(t *testing.T) {
	reg := newMemoryRegistry(assignedPackage(1, 7, packages.StatusAssigned))
	logs := &memoryLogRepo{}
	svc := NewService(reg, logs)

	_, err := svc.Scan(context.Background(), Request{Barcode: "LK00000001", ScanType: TypePickup}, 99)
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Empty(t, logs.logs)
}

func TestDeliveryScanRequiresInTransit(t *testing.T) {
	reg := newMemoryRegistry(assignedPackage(1, 7, packages.StatusPickedUp))
	logs := &memoryLogRepo{}
	svc := NewService(reg, logs)

	_, err := svc.Scan(context.Background(), Request{Barcode: "LK00000001", ScanType: TypeDelivery}, 7)
	require.ErrorIs(t, err, shared.ErrInvalidScan)
	require.Contains(t, err.Error(), string(packages.StatusInTransit))
}

func TestDeliveryScanCompletesPackage(t *testing.T) {
	reg := newMemoryRegistry(assignedPackage(1, 7, packages.StatusInTransit))
	logs := &memoryLogRepo{}
	svc := NewService(reg, logs)

	pkg, err := svc.Scan(context.Background(), Request{Barcode: "LK00000001", ScanType: TypeDelivery}, 7)
	require.NoError(t, err)
	require.Equal(t, packages.StatusDelivered, pkg.Status)
	require.Len(t, logs.logs, 1)
	require.Nil(t, logs.logs[0].Lat)
}

func TestScanUnknownBarcode(t *testing.T) {
	svc := NewService(newMemoryRegistry(), &memoryLogRepo{})

	_, err := svc.Scan(context.Background(), Request{Barcode: "LKDEADBEEF", ScanType: TypePickup}, 7)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestScanLogFailureRollsBackTransition(t *testing.T) {
	reg := newMemoryRegistry(assignedPackage(1, 7, packages.StatusAssigned))
	logs := &memoryLogRepo{fail: true}
	svc := NewService(reg, logs)

	_, err := svc.Scan(context.Background(), Request{Barcode: "LK00000001", ScanType: TypePickup}, 7)
	require.Error(t, err)
	require.Contains(t, err.Error(), "record pickup scan")

	// no partial state: status unchanged, no log row
	pkg, err := reg.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, packages.StatusAssigned, pkg.Status)
	require.Empty(t, logs.logs)
}

func TestDepartMovesPickedUpIntoTransit(t *testing.T) {
	reg := newMemoryRegistry(assignedPackage(1, 7, packages.StatusPickedUp))
	svc := NewService(reg, &memoryLogRepo{})

	pkg, err := svc.Depart(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, packages.StatusInTransit, pkg.Status)

	_, err = svc.Depart(context.Background(), 1, 7)
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
}

func TestManualDeliverRequiresNotes(t *testing.T) {
	reg := newMemoryRegistry(assignedPackage(1, 7, packages.StatusInTransit))
	svc := NewService(reg, &memoryLogRepo{})

	_, err := svc.Deliver(context.Background(), 1, 7, "   ")
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "delivery notes are required")

	pkg, err := svc.Deliver(context.Background(), 1, 7, "left with security desk")
	require.NoError(t, err)
	require.Equal(t, packages.StatusDelivered, pkg.Status)
}

func TestManualPickupChecksOwnership(t *testing.T) {
	reg := newMemoryRegistry(assignedPackage(1, 7, packages.StatusAssigned))
	svc := NewService(reg, &memoryLogRepo{})

	_, err := svc.Pickup(context.Background(), 1, 99)
	require.ErrorIs(t, err, shared.ErrForbidden)

	pkg, err := svc.Pickup(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, packages.StatusPickedUp, pkg.Status)
}
