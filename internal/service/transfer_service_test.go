package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-stock-ledger/internal/model"
)

func seedStockedItem(t *testing.T, repo *memItemRepo, qty, cost string) *model.InventoryItem {
	t.Helper()
	item, err := model.NewInventoryItem(uuid.New(), "RES-001", "KG", uuid.New(), "Portland Cement", "Materials")
	if err != nil {
		t.Fatalf("NewInventoryItem: %v", err)
	}
	if _, err := item.Receive(dec(qty), dec(cost), nil, "Purchase PO-001 - ACME"); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	repo.seed(item)
	return item
}

func TestTransferWithinProject(t *testing.T) {
	repo := newMemItemRepo()
	origin := seedStockedItem(t, repo, "150", "11.00")
	destWarehouse := uuid.New()

	svc := NewTransferService(repo, &stubApprovalGateway{}, &recordingPublisher{}, zap.NewNop())

	result, err := svc.TransferWithinProject(context.Background(), origin.ID, destWarehouse, dec("40"), "Restock site B")
	if err != nil {
		t.Fatalf("TransferWithinProject: %v", err)
	}

	if !result.Origin.QuantityOnHand.Equal(dec("110")) {
		t.Errorf("origin quantity: expected 110, got %s", result.Origin.QuantityOnHand)
	}
	if !result.Destination.QuantityOnHand.Equal(dec("40")) {
		t.Errorf("destination quantity: expected 40, got %s", result.Destination.QuantityOnHand)
	}
	if !result.Destination.AverageCost.Equal(dec("11.00")) {
		t.Errorf("destination cost: expected 11.00, got %s", result.Destination.AverageCost)
	}
	if result.Destination.ProjectID != origin.ProjectID {
		t.Errorf("destination must stay in the origin project")
	}
	if result.Destination.Name != origin.Name || result.Destination.Classification != origin.Classification {
		t.Errorf("destination must carry the origin's descriptive snapshot")
	}

	if result.OutMovement.Type != model.MovementTransferOut || result.InMovement.Type != model.MovementTransferIn {
		t.Errorf("unexpected movement types: %s, %s", result.OutMovement.Type, result.InMovement.Type)
	}
	if !result.OutMovement.TotalCost.Equal(dec("440.00")) || !result.InMovement.TotalCost.Equal(dec("440.00")) {
		t.Errorf("both legs must value 440.00: out %s, in %s", result.OutMovement.TotalCost, result.InMovement.TotalCost)
	}
	if *result.OutMovement.TransferID != *result.InMovement.TransferID {
		t.Errorf("legs must share one transfer id")
	}

	if len(repo.movements) != 2 {
		t.Errorf("expected both legs persisted, got %d movements", len(repo.movements))
	}
}

func TestTransferWithinProjectRejectsSameWarehouse(t *testing.T) {
	repo := newMemItemRepo()
	origin := seedStockedItem(t, repo, "10", "1.00")

	svc := NewTransferService(repo, &stubApprovalGateway{}, &recordingPublisher{}, zap.NewNop())

	_, err := svc.TransferWithinProject(context.Background(), origin.ID, origin.WarehouseID, dec("5"), "ref")
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTransferWithinProjectInsufficientStock(t *testing.T) {
	repo := newMemItemRepo()
	origin := seedStockedItem(t, repo, "10", "1.00")

	svc := NewTransferService(repo, &stubApprovalGateway{}, &recordingPublisher{}, zap.NewNop())

	_, err := svc.TransferWithinProject(context.Background(), origin.ID, uuid.New(), dec("11"), "ref")
	if !errors.Is(err, model.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if stored, _ := repo.FindByID(context.Background(), origin.ID); !stored.QuantityOnHand.Equal(dec("10")) {
		t.Errorf("failed transfer changed the stored origin: %s", stored.QuantityOnHand)
	}
}

func TestTransferAcrossProjects(t *testing.T) {
	repo := newMemItemRepo()
	origin := seedStockedItem(t, repo, "150", "11.00")
	destProject := uuid.New()
	publisher := &recordingPublisher{}

	svc := NewTransferService(repo, &stubApprovalGateway{approved: true}, publisher, zap.NewNop())

	result, err := svc.TransferAcrossProjects(context.Background(), origin.ID, uuid.New(), destProject, dec("40"), uuid.New(), "Loan to project Delta")
	if err != nil {
		t.Fatalf("TransferAcrossProjects: %v", err)
	}

	if result.OutMovement.Type != model.MovementLoanOut || result.InMovement.Type != model.MovementLoanIn {
		t.Errorf("cross-project legs must be loan movements: %s, %s", result.OutMovement.Type, result.InMovement.Type)
	}
	if result.Destination.ProjectID != destProject {
		t.Errorf("destination must belong to the borrowing project")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.TransferID != result.TransferID {
		t.Errorf("event transfer id mismatch")
	}
	if event.SourceProjectID != origin.ProjectID || event.DestinationProjectID != destProject {
		t.Errorf("event projects mismatch")
	}
	if !event.TotalValue.Equal(dec("440.00")) {
		t.Errorf("event total value: expected 440.00, got %s", event.TotalValue)
	}
}

func TestTransferAcrossProjectsRequiresApproval(t *testing.T) {
	repo := newMemItemRepo()
	origin := seedStockedItem(t, repo, "150", "11.00")

	svc := NewTransferService(repo, &stubApprovalGateway{approved: false}, &recordingPublisher{}, zap.NewNop())

	_, err := svc.TransferAcrossProjects(context.Background(), origin.ID, uuid.New(), uuid.New(), dec("40"), uuid.New(), "ref")
	if !errors.Is(err, model.ErrExceptionNotApproved) {
		t.Fatalf("expected ErrExceptionNotApproved, got %v", err)
	}
	// Denied approval must leave every aggregate untouched.
	if repo.findCalls != 0 {
		t.Errorf("aggregates were loaded before approval was verified")
	}
	if stored, _ := repo.FindByID(context.Background(), origin.ID); !stored.QuantityOnHand.Equal(dec("150")) {
		t.Errorf("denied transfer changed the stored origin: %s", stored.QuantityOnHand)
	}
}

func TestTransferAcrossProjectsRejectsSameProject(t *testing.T) {
	repo := newMemItemRepo()
	origin := seedStockedItem(t, repo, "10", "1.00")

	svc := NewTransferService(repo, &stubApprovalGateway{approved: true}, &recordingPublisher{}, zap.NewNop())

	_, err := svc.TransferAcrossProjects(context.Background(), origin.ID, uuid.New(), origin.ProjectID, dec("5"), uuid.New(), "ref")
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTransferAcrossProjectsSurvivesPublishFailure(t *testing.T) {
	repo := newMemItemRepo()
	origin := seedStockedItem(t, repo, "150", "11.00")
	publisher := &recordingPublisher{err: errors.New("broker down")}

	svc := NewTransferService(repo, &stubApprovalGateway{approved: true}, publisher, zap.NewNop())

	result, err := svc.TransferAcrossProjects(context.Background(), origin.ID, uuid.New(), uuid.New(), dec("40"), uuid.New(), "ref")
	if err != nil {
		t.Fatalf("a publish failure must not fail a committed transfer: %v", err)
	}
	if !result.Origin.QuantityOnHand.Equal(dec("110")) {
		t.Errorf("origin quantity: expected 110, got %s", result.Origin.QuantityOnHand)
	}
}

func TestTransferToExistingDestination(t *testing.T) {
	repo := newMemItemRepo()
	origin := seedStockedItem(t, repo, "100", "10.00")

	destination, err := model.NewInventoryItem(origin.ProjectID, origin.ResourceID, origin.Unit, uuid.New(), origin.Name, origin.Classification)
	if err != nil {
		t.Fatalf("NewInventoryItem: %v", err)
	}
	if _, err := destination.Receive(dec("50"), dec("13.00"), nil, "Purchase PO-002 - ACME"); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	repo.seed(destination)

	svc := NewTransferService(repo, &stubApprovalGateway{}, &recordingPublisher{}, zap.NewNop())

	result, err := svc.TransferWithinProject(context.Background(), origin.ID, destination.WarehouseID, dec("100"), "Consolidate stock")
	if err != nil {
		t.Fatalf("TransferWithinProject: %v", err)
	}
	if result.Destination.ID != destination.ID {
		t.Errorf("expected reuse of the existing destination item")
	}
	// 50 @ 13.00 plus 100 @ 10.00 = 1650 / 150 = 11.00
	if !result.Destination.AverageCost.Equal(dec("11.00")) {
		t.Errorf("destination cost: expected 11.00, got %s", result.Destination.AverageCost)
	}
}
