package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-stock-ledger/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// memItemRepo is an in-memory ItemRepository that mirrors the store's
// optimistic-concurrency contract: saves fail when the stored version moved,
// succeed by incrementing the version and collecting the pending movements.
type memItemRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*model.InventoryItem
	movements []model.Movement

	findCalls     int
	saveCalls     int
	failConflicts int // number of upcoming saves to reject with a version conflict
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[uuid.UUID]*model.InventoryItem)}
}

// seed stores an item directly, bypassing the version check.
func (r *memItemRepo) seed(item *model.InventoryItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *item
	clone.ClearUncommitted()
	r.items[item.ID] = &clone
}

func (r *memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	stored, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", model.ErrItemNotFound, id)
	}
	clone := *stored
	return &clone, nil
}

func (r *memItemRepo) FindByKey(_ context.Context, key model.ItemKey) (*model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.Key() == key {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: no item for key", model.ErrItemNotFound)
}

func (r *memItemRepo) List(_ context.Context, projectID *uuid.UUID) ([]model.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryItem
	for _, stored := range r.items {
		if projectID == nil || stored.ProjectID == *projectID {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (r *memItemRepo) Save(_ context.Context, item *model.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(item)
}

func (r *memItemRepo) SaveAll(_ context.Context, items ...*model.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		if stored, ok := r.items[item.ID]; ok && stored.Version != item.Version {
			return fmt.Errorf("%w: item %s", model.ErrConcurrencyConflict, item.ID)
		}
	}
	for _, item := range items {
		if err := r.saveLocked(item); err != nil {
			return err
		}
	}
	return nil
}

func (r *memItemRepo) saveLocked(item *model.InventoryItem) error {
	r.saveCalls++
	if r.failConflicts > 0 {
		r.failConflicts--
		return fmt.Errorf("%w: item %s", model.ErrConcurrencyConflict, item.ID)
	}
	if stored, ok := r.items[item.ID]; ok {
		if stored.Version != item.Version {
			return fmt.Errorf("%w: item %s", model.ErrConcurrencyConflict, item.ID)
		}
		item.Version++
	}
	r.movements = append(r.movements, item.UncommittedMovements()...)
	clone := *item
	clone.ClearUncommitted()
	r.items[item.ID] = &clone
	item.ClearUncommitted()
	return nil
}

func (r *memItemRepo) MovementsByItem(_ context.Context, itemID uuid.UUID) ([]model.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Movement
	for _, m := range r.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubWarehouseDirectory struct {
	warehouse *model.Warehouse
	err       error
}

func (d *stubWarehouseDirectory) DefaultFor(_ context.Context, _ uuid.UUID) (*model.Warehouse, error) {
	return d.warehouse, d.err
}

type stubCatalogGateway struct {
	snapshot *model.CatalogSnapshot
	err      error
	calls    int
}

func (g *stubCatalogGateway) FetchSnapshot(_ context.Context, resourceID, _ string) (*model.CatalogSnapshot, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	snapshot := *g.snapshot
	snapshot.ResourceID = resourceID
	return &snapshot, nil
}

type stubApprovalGateway struct {
	approved bool
	err      error
	calls    int
}

func (g *stubApprovalGateway) IsApproved(_ context.Context, _ uuid.UUID) (bool, error) {
	g.calls++
	return g.approved, g.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.CrossProjectTransferEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.CrossProjectTransferEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}
