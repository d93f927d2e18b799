package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferService coordinates the only operations that touch two aggregates
// at once. Both legs of a transfer share one freshly generated transfer id,
// and both items are saved as one atomic unit of work: a transfer is either
// fully applied or not applied at all.
type TransferService struct {
	items    repository.ItemRepository
	approval ApprovalGateway
	events   TransferEventPublisher
	log      *zap.Logger
}

func NewTransferService(items repository.ItemRepository, approval ApprovalGateway, events TransferEventPublisher, log *zap.Logger) *TransferService {
	return &TransferService{
		items:    items,
		approval: approval,
		events:   events,
		log:      log,
	}
}

// TransferResult carries both legs of a completed transfer plus the updated
// aggregates, so callers can report exactly what was applied.
type TransferResult struct {
	TransferID  uuid.UUID            `json:"transfer_id"`
	Origin      *model.InventoryItem `json:"origin"`
	Destination *model.InventoryItem `json:"destination"`
	OutMovement *model.Movement      `json:"out_movement"`
	InMovement  *model.Movement      `json:"in_movement"`
}

// TransferWithinProject moves material from the origin item to the same
// resource's item in another warehouse of the same project. The destination
// item is created on first use, carrying the origin's descriptive snapshot.
func (s *TransferService) TransferWithinProject(ctx context.Context, originID, destWarehouseID uuid.UUID, quantity decimal.Decimal, reference string) (*TransferResult, error) {
	if err := validateTransferArgs(destWarehouseID, quantity, reference); err != nil {
		return nil, err
	}

	origin, err := s.items.FindByID(ctx, originID)
	if err != nil {
		return nil, err
	}
	if origin.WarehouseID == destWarehouseID {
		return nil, fmt.Errorf("%w: destination warehouse must differ from origin", model.ErrInvalidArgument)
	}

	destination, err := s.findOrCreateDestination(ctx, origin, origin.ProjectID, destWarehouseID)
	if err != nil {
		return nil, err
	}

	transferID := uuid.New()

	outMove, err := origin.TransferOut(quantity, transferID, reference)
	if err != nil {
		return nil, err
	}
	// The destination enters the stock at the origin's average cost at this
	// instant, never at a locally derived price.
	inMove, err := destination.TransferIn(quantity, outMove.UnitCost, transferID, reference)
	if err != nil {
		return nil, err
	}

	if err := s.items.SaveAll(ctx, origin, destination); err != nil {
		return nil, err
	}

	s.log.Info("transfer completed",
		zap.String("transfer_id", transferID.String()),
		zap.String("resource_id", origin.ResourceID),
		zap.String("quantity", quantity.String()),
	)

	return &TransferResult{
		TransferID:  transferID,
		Origin:      origin,
		Destination: destination,
		OutMovement: outMove,
		InMovement:  inMove,
	}, nil
}

// TransferAcrossProjects loans material to a warehouse of another project.
// It requires an approved exception, tags both legs as loan movements, and
// publishes a domain event so accounting can record the inter-project debt.
func (s *TransferService) TransferAcrossProjects(ctx context.Context, originID, destWarehouseID, destProjectID uuid.UUID, quantity decimal.Decimal, exceptionID uuid.UUID, reference string) (*TransferResult, error) {
	if err := validateTransferArgs(destWarehouseID, quantity, reference); err != nil {
		return nil, err
	}
	if destProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: destination project is required", model.ErrInvalidArgument)
	}
	if exceptionID == uuid.Nil {
		return nil, fmt.Errorf("%w: exception id is required", model.ErrInvalidArgument)
	}

	// Approval is checked before any aggregate is touched.
	approved, err := s.approval.IsApproved(ctx, exceptionID)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, fmt.Errorf("%w: exception %s", model.ErrExceptionNotApproved, exceptionID)
	}

	origin, err := s.items.FindByID(ctx, originID)
	if err != nil {
		return nil, err
	}
	if origin.ProjectID == destProjectID {
		return nil, fmt.Errorf("%w: use a within-project transfer for the same project", model.ErrInvalidArgument)
	}
	if origin.WarehouseID == destWarehouseID {
		return nil, fmt.Errorf("%w: destination warehouse must differ from origin", model.ErrInvalidArgument)
	}

	destination, err := s.findOrCreateDestination(ctx, origin, destProjectID, destWarehouseID)
	if err != nil {
		return nil, err
	}

	transferID := uuid.New()

	outMove, err := origin.LoanOut(quantity, transferID, reference)
	if err != nil {
		return nil, err
	}
	inMove, err := destination.LoanIn(quantity, outMove.UnitCost, transferID, reference)
	if err != nil {
		return nil, err
	}

	if err := s.items.SaveAll(ctx, origin, destination); err != nil {
		return nil, err
	}

	event := model.CrossProjectTransferEvent{
		TransferID:           transferID,
		SourceProjectID:      origin.ProjectID,
		DestinationProjectID: destProjectID,
		ResourceID:           origin.ResourceID,
		Quantity:             quantity,
		TotalValue:           outMove.TotalCost,
		OccurredAt:           time.Now(),
	}
	// The transfer is already committed; a publish failure is logged only.
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Error("failed to publish cross-project transfer event",
			zap.String("transfer_id", transferID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("cross-project loan completed",
		zap.String("transfer_id", transferID.String()),
		zap.String("source_project", origin.ProjectID.String()),
		zap.String("destination_project", destProjectID.String()),
		zap.String("total_value", outMove.TotalCost.String()),
	)

	return &TransferResult{
		TransferID:  transferID,
		Origin:      origin,
		Destination: destination,
		OutMovement: outMove,
		InMovement:  inMove,
	}, nil
}

// findOrCreateDestination resolves the destination item keyed by the origin's
// resource and unit in the target project and warehouse, creating a
// zero-quantity item with the origin's descriptive snapshot when absent.
func (s *TransferService) findOrCreateDestination(ctx context.Context, origin *model.InventoryItem, projectID, warehouseID uuid.UUID) (*model.InventoryItem, error) {
	key := model.ItemKey{
		ProjectID:   projectID,
		ResourceID:  origin.ResourceID,
		Unit:        origin.Unit,
		WarehouseID: warehouseID,
	}
	destination, err := s.items.FindByKey(ctx, key)
	if err == nil {
		return destination, nil
	}
	if !errors.Is(err, model.ErrItemNotFound) {
		return nil, err
	}
	return model.NewInventoryItem(projectID, origin.ResourceID, origin.Unit, warehouseID, origin.Name, origin.Classification)
}

func validateTransferArgs(destWarehouseID uuid.UUID, quantity decimal.Decimal, reference string) error {
	if destWarehouseID == uuid.Nil {
		return fmt.Errorf("%w: destination warehouse is required", model.ErrInvalidArgument)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: transfer quantity must be positive", model.ErrInvalidArgument)
	}
	if strings.TrimSpace(reference) == "" {
		return fmt.Errorf("%w: reference must not be blank", model.ErrInvalidArgument)
	}
	return nil
}
