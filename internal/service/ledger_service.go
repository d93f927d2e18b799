package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// conflictRetries bounds the reload-and-retry loop on optimistic-lock
// failures for single-item operations.
const conflictRetries = 3

// LedgerService hosts the single-item entry points of the ledger: receiving
// purchased stock through catalog reconciliation, recording consumptions and
// adjustments, and reading an item's kardex.
type LedgerService struct {
	items    repository.ItemRepository
	resolver *CatalogReconciliationService
	hub      *ws.Hub
	log      *zap.Logger
}

func NewLedgerService(items repository.ItemRepository, resolver *CatalogReconciliationService, hub *ws.Hub, log *zap.Logger) *LedgerService {
	return &LedgerService{
		items:    items,
		resolver: resolver,
		hub:      hub,
		log:      log,
	}
}

// ReceivePurchaseLine resolves the item for an approved purchase line and
// records the entry. The movement reference identifies the purchase and
// supplier for the audit trail.
func (s *LedgerService) ReceivePurchaseLine(ctx context.Context, purchase model.Purchase, line model.PurchaseLine) (*model.InventoryItem, *model.Movement, error) {
	reference := fmt.Sprintf("Purchase %s - %s", purchase.ID, purchase.Supplier)

	var (
		item     *model.InventoryItem
		movement *model.Movement
	)
	for attempt := 0; ; attempt++ {
		var err error
		item, err = s.resolver.ResolveFromPurchaseLine(ctx, purchase, line)
		if err != nil {
			return nil, nil, err
		}

		lineID := line.ID
		movement, err = item.Receive(line.Quantity, line.UnitPrice, &lineID, reference)
		if err != nil {
			return nil, nil, err
		}

		err = s.items.Save(ctx, item)
		if err == nil {
			break
		}
		s.resolver.Forget(item.Key())
		if !errors.Is(err, model.ErrConcurrencyConflict) || attempt+1 >= conflictRetries {
			return nil, nil, err
		}
		s.log.Warn("retrying purchase receipt after version conflict",
			zap.String("item_id", item.ID.String()),
			zap.Int("attempt", attempt+1),
		)
	}

	s.resolver.Forget(item.Key())
	s.broadcast("entry_recorded", item, movement)
	return item, movement, nil
}

// RecordConsumption issues stock valued at the current average cost,
// optionally correlated to a requisition and budget line.
func (s *LedgerService) RecordConsumption(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal, requisitionID uuid.UUID, budgetLineID *uuid.UUID, reference string) (*model.InventoryItem, *model.Movement, error) {
	return s.mutateItem(ctx, itemID, "consumption_recorded", func(item *model.InventoryItem) (*model.Movement, error) {
		if requisitionID != uuid.Nil {
			return item.IssueForRequisition(quantity, requisitionID, budgetLineID, reference)
		}
		return item.Issue(quantity, reference)
	})
}

// RecordAdjustment applies a positive stock correction costed like an entry.
func (s *LedgerService) RecordAdjustment(ctx context.Context, itemID uuid.UUID, quantity, unitCost decimal.Decimal, justification string) (*model.InventoryItem, *model.Movement, error) {
	return s.mutateItem(ctx, itemID, "adjustment_recorded", func(item *model.InventoryItem) (*model.Movement, error) {
		return item.Adjust(quantity, unitCost, justification)
	})
}

// GetItem loads one item by id.
func (s *LedgerService) GetItem(ctx context.Context, itemID uuid.UUID) (*model.InventoryItem, error) {
	return s.items.FindByID(ctx, itemID)
}

// ListItems lists items, optionally scoped to one project.
func (s *LedgerService) ListItems(ctx context.Context, projectID *uuid.UUID) ([]model.InventoryItem, error) {
	return s.items.List(ctx, projectID)
}

// Kardex returns the full persisted movement history of one item, oldest
// first.
func (s *LedgerService) Kardex(ctx context.Context, itemID uuid.UUID) ([]model.Movement, error) {
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.items.MovementsByItem(ctx, itemID)
}

// mutateItem runs one aggregate operation with reload-and-retry on version
// conflicts. Validation failures from the aggregate abort immediately; only
// ErrConcurrencyConflict triggers a reload.
func (s *LedgerService) mutateItem(ctx context.Context, itemID uuid.UUID, action string, op func(*model.InventoryItem) (*model.Movement, error)) (*model.InventoryItem, *model.Movement, error) {
	for attempt := 0; ; attempt++ {
		item, err := s.items.FindByID(ctx, itemID)
		if err != nil {
			return nil, nil, err
		}

		movement, err := op(item)
		if err != nil {
			return nil, nil, err
		}

		err = s.items.Save(ctx, item)
		if err == nil {
			s.broadcast(action, item, movement)
			return item, movement, nil
		}
		if !errors.Is(err, model.ErrConcurrencyConflict) || attempt+1 >= conflictRetries {
			return nil, nil, err
		}
		s.log.Warn("retrying ledger operation after version conflict",
			zap.String("item_id", itemID.String()),
			zap.String("action", action),
			zap.Int("attempt", attempt+1),
		)
	}
}

// broadcast pushes a stock update to connected websocket clients.
func (s *LedgerService) broadcast(action string, item *model.InventoryItem, movement *model.Movement) {
	if s.hub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":   "stock_update",
			"action": action,
			"item": map[string]interface{}{
				"id":               item.ID,
				"resource_id":      item.ResourceID,
				"warehouse_id":     item.WarehouseID,
				"quantity_on_hand": item.QuantityOnHand,
				"average_cost":     item.AverageCost,
			},
			"movement": movement,
		}
		msg, err := json.Marshal(payload)
		if err != nil {
			return
		}
		s.hub.Broadcast <- msg
	}()
}
