package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-stock-ledger/internal/model"
)

func newLedgerFixture(t *testing.T) (*LedgerService, *memItemRepo, *model.Warehouse) {
	t.Helper()
	repo := newMemItemRepo()
	warehouse := &model.Warehouse{ID: uuid.New(), IsDefault: true}
	resolver := newResolver(repo, &stubCatalogGateway{snapshot: cementSnapshot()}, warehouse)
	return NewLedgerService(repo, resolver, nil, zap.NewNop()), repo, warehouse
}

func TestReceivePurchaseLine(t *testing.T) {
	svc, repo, warehouse := newLedgerFixture(t)
	purchase, line := testPurchase()

	item, movement, err := svc.ReceivePurchaseLine(context.Background(), purchase, line)
	if err != nil {
		t.Fatalf("ReceivePurchaseLine: %v", err)
	}

	if !item.QuantityOnHand.Equal(dec("100")) || !item.AverageCost.Equal(dec("10.00")) {
		t.Errorf("unexpected item state: %s @ %s", item.QuantityOnHand, item.AverageCost)
	}
	if item.WarehouseID != warehouse.ID {
		t.Errorf("stock must land in the default warehouse")
	}
	if movement.Type != model.MovementEntryPurchase {
		t.Errorf("expected purchase entry, got %s", movement.Type)
	}
	if movement.PurchaseLineID == nil || *movement.PurchaseLineID != line.ID {
		t.Errorf("movement must reference the purchase line")
	}
	wantRef := fmt.Sprintf("Purchase %s - ACME", purchase.ID)
	if movement.Reference != wantRef {
		t.Errorf("reference: expected %q, got %q", wantRef, movement.Reference)
	}

	persisted, err := repo.MovementsByItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("MovementsByItem: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("expected 1 persisted movement, got %d", len(persisted))
	}
	if len(item.UncommittedMovements()) != 0 {
		t.Errorf("saved item still carries pending movements")
	}
}

func TestReceivePurchaseLineAccumulates(t *testing.T) {
	svc, repo, _ := newLedgerFixture(t)
	purchase, line := testPurchase()

	first, _, err := svc.ReceivePurchaseLine(context.Background(), purchase, line)
	if err != nil {
		t.Fatalf("first receipt: %v", err)
	}

	line.ID = uuid.New()
	line.Quantity = dec("50")
	line.UnitPrice = dec("13.00")
	second, _, err := svc.ReceivePurchaseLine(context.Background(), purchase, line)
	if err != nil {
		t.Fatalf("second receipt: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("both receipts must land on one item")
	}
	if !second.QuantityOnHand.Equal(dec("150")) || !second.AverageCost.Equal(dec("11.00")) {
		t.Errorf("unexpected state after two receipts: %s @ %s", second.QuantityOnHand, second.AverageCost)
	}

	persisted, _ := repo.MovementsByItem(context.Background(), first.ID)
	if len(persisted) != 2 {
		t.Errorf("expected 2 persisted movements, got %d", len(persisted))
	}
}

func TestReceivePurchaseLineRetriesOnConflict(t *testing.T) {
	svc, repo, warehouse := newLedgerFixture(t)
	purchase, line := testPurchase()

	existing, err := model.NewInventoryItem(purchase.ProjectID, line.ResourceID, "KG", warehouse.ID, "Portland Cement", "Materials")
	if err != nil {
		t.Fatalf("NewInventoryItem: %v", err)
	}
	repo.seed(existing)
	repo.failConflicts = 1

	item, _, err := svc.ReceivePurchaseLine(context.Background(), purchase, line)
	if err != nil {
		t.Fatalf("ReceivePurchaseLine: %v", err)
	}
	if repo.saveCalls != 2 {
		t.Errorf("expected one retry after the conflict, got %d saves", repo.saveCalls)
	}
	if !item.QuantityOnHand.Equal(dec("100")) {
		t.Errorf("quantity after retried receipt: expected 100, got %s", item.QuantityOnHand)
	}
}

func TestReceivePurchaseLineGivesUpAfterRetries(t *testing.T) {
	svc, repo, warehouse := newLedgerFixture(t)
	purchase, line := testPurchase()

	existing, err := model.NewInventoryItem(purchase.ProjectID, line.ResourceID, "KG", warehouse.ID, "Portland Cement", "Materials")
	if err != nil {
		t.Fatalf("NewInventoryItem: %v", err)
	}
	repo.seed(existing)
	repo.failConflicts = conflictRetries

	_, _, err = svc.ReceivePurchaseLine(context.Background(), purchase, line)
	if !errors.Is(err, model.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict after exhausted retries, got %v", err)
	}
}

func TestRecordConsumption(t *testing.T) {
	svc, repo, _ := newLedgerFixture(t)
	seeded := seedStockedItem(t, repo, "100", "10.00")

	reqID := uuid.New()
	item, movement, err := svc.RecordConsumption(context.Background(), seeded.ID, dec("30"), reqID, nil, "Requisition REQ-9")
	if err != nil {
		t.Fatalf("RecordConsumption: %v", err)
	}
	if !item.QuantityOnHand.Equal(dec("70")) {
		t.Errorf("quantity: expected 70, got %s", item.QuantityOnHand)
	}
	if !item.AverageCost.Equal(dec("10.00")) {
		t.Errorf("consumption must not change the average cost")
	}
	if movement.RequisitionID == nil || *movement.RequisitionID != reqID {
		t.Errorf("movement missing requisition correlation")
	}
}

func TestRecordConsumptionInsufficientStock(t *testing.T) {
	svc, repo, _ := newLedgerFixture(t)
	seeded := seedStockedItem(t, repo, "10", "5.00")
	savesBefore := repo.saveCalls

	_, _, err := svc.RecordConsumption(context.Background(), seeded.ID, dec("11"), uuid.Nil, nil, "ref")
	if !errors.Is(err, model.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if repo.saveCalls != savesBefore {
		t.Errorf("rejected consumption must not be saved")
	}
}

func TestRecordConsumptionUnknownItem(t *testing.T) {
	svc, _, _ := newLedgerFixture(t)

	_, _, err := svc.RecordConsumption(context.Background(), uuid.New(), dec("1"), uuid.Nil, nil, "ref")
	if !errors.Is(err, model.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRecordAdjustment(t *testing.T) {
	svc, repo, _ := newLedgerFixture(t)
	seeded := seedStockedItem(t, repo, "100", "10.00")

	item, movement, err := svc.RecordAdjustment(context.Background(), seeded.ID, dec("50"), dec("13.00"), "Annual physical count surplus in aisle 4")
	if err != nil {
		t.Fatalf("RecordAdjustment: %v", err)
	}
	if movement.Type != model.MovementAdjustment {
		t.Errorf("expected adjustment movement, got %s", movement.Type)
	}
	if !item.AverageCost.Equal(dec("11.00")) {
		t.Errorf("adjustment must be costed like an entry, got %s", item.AverageCost)
	}
}

func TestRecordAdjustmentRejectsShortJustification(t *testing.T) {
	svc, repo, _ := newLedgerFixture(t)
	seeded := seedStockedItem(t, repo, "100", "10.00")

	_, _, err := svc.RecordAdjustment(context.Background(), seeded.ID, dec("5"), dec("1.00"), "too short")
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestKardex(t *testing.T) {
	svc, _, _ := newLedgerFixture(t)
	purchase, line := testPurchase()

	item, _, err := svc.ReceivePurchaseLine(context.Background(), purchase, line)
	if err != nil {
		t.Fatalf("ReceivePurchaseLine: %v", err)
	}
	if _, _, err := svc.RecordConsumption(context.Background(), item.ID, dec("30"), uuid.Nil, nil, "Requisition REQ-9"); err != nil {
		t.Fatalf("RecordConsumption: %v", err)
	}

	movements, err := svc.Kardex(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Kardex: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if movements[0].Type != model.MovementEntryPurchase || movements[1].Type != model.MovementExitConsumption {
		t.Errorf("kardex out of order: %s, %s", movements[0].Type, movements[1].Type)
	}

	if _, err := svc.Kardex(context.Background(), uuid.New()); !errors.Is(err, model.ErrItemNotFound) {
		t.Errorf("unknown item: expected ErrItemNotFound, got %v", err)
	}
}

func TestListItemsByProject(t *testing.T) {
	svc, repo, _ := newLedgerFixture(t)
	first := seedStockedItem(t, repo, "10", "1.00")
	seedStockedItem(t, repo, "20", "2.00")

	all, err := svc.ListItems(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 items, got %d", len(all))
	}

	scoped, err := svc.ListItems(context.Background(), &first.ProjectID)
	if err != nil {
		t.Fatalf("ListItems scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != first.ID {
		t.Errorf("project filter returned the wrong items")
	}
}
