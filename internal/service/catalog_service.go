package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"

	"go.uber.org/zap"
)

// CatalogReconciliationService resolves the inventory item a purchase line
// lands in, consulting the external catalog and applying the "Authority by
// PO" policy: when the purchase's unit of measure disagrees with the
// catalog's, the purchase wins and a separate ledger keyed by the purchase's
// unit is used. Unit variants of the same resource coexist, each with its own
// independent weighted-average cost.
type CatalogReconciliationService struct {
	items      repository.ItemRepository
	warehouses WarehouseDirectory
	catalog    CatalogGateway
	source     string
	log        *zap.Logger

	// Items constructed but not yet persisted, keyed by identity. Makes
	// resolution idempotent before persistence: resolving the same purchase
	// line twice yields one in-memory item, not two.
	mu      sync.Mutex
	pending map[model.ItemKey]*model.InventoryItem
}

func NewCatalogReconciliationService(items repository.ItemRepository, warehouses WarehouseDirectory, catalog CatalogGateway, source string, log *zap.Logger) *CatalogReconciliationService {
	if source == "" {
		source = "DEFAULT"
	}
	return &CatalogReconciliationService{
		items:      items,
		warehouses: warehouses,
		catalog:    catalog,
		source:     source,
		log:        log,
		pending:    make(map[model.ItemKey]*model.InventoryItem),
	}
}

// ResolveFromPurchaseLine finds or creates the item for a purchase line in
// the project's default warehouse. Created items are not persisted here; the
// caller saves them and then calls Forget.
func (s *CatalogReconciliationService) ResolveFromPurchaseLine(ctx context.Context, purchase model.Purchase, line model.PurchaseLine) (*model.InventoryItem, error) {
	warehouse, err := s.warehouses.DefaultFor(ctx, purchase.ProjectID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: no default warehouse configured for project %s", model.ErrInvalidArgument, purchase.ProjectID)
	}

	snapshot, err := s.catalog.FetchSnapshot(ctx, line.ResourceID, s.source)
	if err != nil {
		return nil, err
	}

	catalogUnit := strings.TrimSpace(snapshot.Unit)
	purchaseUnit := strings.TrimSpace(line.Unit)
	if purchaseUnit == "" {
		purchaseUnit = catalogUnit
	}

	// Authority by PO: on a unit mismatch the purchase document overrides
	// the catalog. The purchase is never rejected for it.
	unit := catalogUnit
	if !strings.EqualFold(purchaseUnit, catalogUnit) {
		unit = purchaseUnit
		s.log.Info("unit mismatch, purchase order takes authority",
			zap.String("resource_id", line.ResourceID),
			zap.String("catalog_unit", catalogUnit),
			zap.String("purchase_unit", purchaseUnit),
		)
	}

	key := model.ItemKey{
		ProjectID:   purchase.ProjectID,
		ResourceID:  strings.TrimSpace(line.ResourceID),
		Unit:        unit,
		WarehouseID: warehouse.ID,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.pending[key]; ok {
		return item, nil
	}

	item, err := s.items.FindByKey(ctx, key)
	if err == nil {
		s.pending[key] = item
		return item, nil
	}
	if !errors.Is(err, model.ErrItemNotFound) {
		return nil, err
	}

	item, err = model.NewInventoryItem(key.ProjectID, key.ResourceID, key.Unit, key.WarehouseID, snapshot.Name, snapshot.Classification)
	if err != nil {
		return nil, err
	}
	s.pending[key] = item
	return item, nil
}

// Forget drops the pending entry for a key once the item has been persisted.
func (s *CatalogReconciliationService) Forget(key model.ItemKey) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}
