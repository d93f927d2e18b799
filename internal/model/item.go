package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemKey is the true uniqueness key of an inventory item. Two items with the
// same resource but different units are independent ledgers; they are never
// merged or converted.
type ItemKey struct {
	ProjectID   uuid.UUID
	ResourceID  string
	Unit        string
	WarehouseID uuid.UUID
}

// InventoryItem is the aggregate root of the ledger. It owns a quantity on
// hand, a weighted-average cost, and the movements it has produced. Stock is
// only ever changed through its operations, each of which appends exactly one
// kardex movement. Items are never deleted; closing a project keeps its ledger.
//
// Version is the optimistic-concurrency token. The aggregate never touches it;
// the persistence layer checks and increments it on save.
type InventoryItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ProjectID      uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_item_key;not null" json:"project_id"`
	ResourceID     string          `gorm:"type:varchar(64);uniqueIndex:idx_item_key;not null" json:"resource_id"`
	Unit           string          `gorm:"type:varchar(20);uniqueIndex:idx_item_key;not null" json:"unit"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_item_key;not null" json:"warehouse_id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Classification string          `gorm:"type:varchar(120);not null" json:"classification"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity_on_hand"`
	AverageCost    decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"average_cost"`
	Version        int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Movements produced since the last persistence checkpoint. The store
	// persists exactly this delta and then clears it.
	uncommitted []Movement
}

// NewInventoryItem creates a zero-quantity item carrying the descriptive
// snapshot of its resource. The snapshot fields are immutable after creation.
func NewInventoryItem(projectID uuid.UUID, resourceID, unit string, warehouseID uuid.UUID, name, classification string) (*InventoryItem, error) {
	if projectID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, fmt.Errorf("%w: project and warehouse are required", ErrInvalidArgument)
	}
	resourceID = strings.TrimSpace(resourceID)
	unit = strings.TrimSpace(unit)
	name = strings.TrimSpace(name)
	classification = strings.TrimSpace(classification)
	if resourceID == "" || unit == "" || name == "" || classification == "" {
		return nil, fmt.Errorf("%w: resource, unit, name and classification must not be blank", ErrInvalidArgument)
	}
	return &InventoryItem{
		ID:             uuid.New(),
		ProjectID:      projectID,
		ResourceID:     resourceID,
		Unit:           unit,
		WarehouseID:    warehouseID,
		Name:           name,
		Classification: classification,
		QuantityOnHand: decimal.Zero,
		AverageCost:    decimal.Zero,
	}, nil
}

// Key returns the 4-tuple identity of the item.
func (i *InventoryItem) Key() ItemKey {
	return ItemKey{ProjectID: i.ProjectID, ResourceID: i.ResourceID, Unit: i.Unit, WarehouseID: i.WarehouseID}
}

// Receive records an entry from a purchase line. The average cost is
// recomputed by blending the incoming batch with the stock on hand.
func (i *InventoryItem) Receive(quantity, unitCost decimal.Decimal, purchaseLineID *uuid.UUID, reference string) (*Movement, error) {
	if err := validateEntry(quantity, unitCost, reference); err != nil {
		return nil, err
	}
	m := newMovement(i.ID, MovementEntryPurchase, quantity, unitCost, strings.TrimSpace(reference))
	m.PurchaseLineID = purchaseLineID
	i.applyEntry(m)
	return m, nil
}

// Issue records a consumption exit valued at the current average cost. Exits
// never change the average cost.
func (i *InventoryItem) Issue(quantity decimal.Decimal, reference string) (*Movement, error) {
	m, err := i.prepareExit(MovementExitConsumption, quantity, reference)
	if err != nil {
		return nil, err
	}
	i.applyExit(m)
	return m, nil
}

// IssueForRequisition is Issue with requisition and budget-line correlation.
func (i *InventoryItem) IssueForRequisition(quantity decimal.Decimal, requisitionID uuid.UUID, budgetLineID *uuid.UUID, reference string) (*Movement, error) {
	if requisitionID == uuid.Nil {
		return nil, fmt.Errorf("%w: requisition id is required", ErrInvalidArgument)
	}
	m, err := i.prepareExit(MovementExitConsumption, quantity, reference)
	if err != nil {
		return nil, err
	}
	m.RequisitionID = &requisitionID
	m.BudgetLineID = budgetLineID
	i.applyExit(m)
	return m, nil
}

// Adjust records a positive stock correction. It is costed like an entry: the
// average cost is recomputed from the adjustment's unit cost. The
// justification doubles as the movement reference and must carry at least
// MinJustificationLen characters.
func (i *InventoryItem) Adjust(quantity, unitCost decimal.Decimal, justification string) (*Movement, error) {
	if len(strings.TrimSpace(justification)) < MinJustificationLen {
		return nil, fmt.Errorf("%w: adjustment justification must have at least %d characters", ErrInvalidArgument, MinJustificationLen)
	}
	if err := validateEntry(quantity, unitCost, justification); err != nil {
		return nil, err
	}
	m := newMovement(i.ID, MovementAdjustment, quantity, unitCost, strings.TrimSpace(justification))
	i.applyEntry(m)
	return m, nil
}

// TransferOut records an exit bound for another warehouse in the same
// project. The movement's unit cost is the item's average cost at this
// instant; the destination must enter the stock at exactly that cost.
func (i *InventoryItem) TransferOut(quantity decimal.Decimal, transferID uuid.UUID, reference string) (*Movement, error) {
	return i.transferExit(MovementTransferOut, quantity, transferID, reference)
}

// TransferIn records an entry arriving from another warehouse. The unit cost
// is supplied by the coordinator (the origin's average cost at transfer time),
// never derived locally.
func (i *InventoryItem) TransferIn(quantity, sourceUnitCost decimal.Decimal, transferID uuid.UUID, reference string) (*Movement, error) {
	return i.transferEntry(MovementTransferIn, quantity, sourceUnitCost, transferID, reference)
}

// LoanOut records an exit loaned to another project.
func (i *InventoryItem) LoanOut(quantity decimal.Decimal, transferID uuid.UUID, reference string) (*Movement, error) {
	return i.transferExit(MovementLoanOut, quantity, transferID, reference)
}

// LoanIn records an entry borrowed from another project.
func (i *InventoryItem) LoanIn(quantity, sourceUnitCost decimal.Decimal, transferID uuid.UUID, reference string) (*Movement, error) {
	return i.transferEntry(MovementLoanIn, quantity, sourceUnitCost, transferID, reference)
}

// HasStock reports whether quantity units can be issued.
func (i *InventoryItem) HasStock(quantity decimal.Decimal) bool {
	return quantity.IsPositive() && i.QuantityOnHand.GreaterThanOrEqual(quantity)
}

// UncommittedMovements returns the movements produced since the last
// persistence checkpoint.
func (i *InventoryItem) UncommittedMovements() []Movement {
	return i.uncommitted
}

// ClearUncommitted marks the pending movements as persisted. Only the store
// should call it, after a successful save.
func (i *InventoryItem) ClearUncommitted() {
	i.uncommitted = nil
}

func (i *InventoryItem) transferExit(typ MovementType, quantity decimal.Decimal, transferID uuid.UUID, reference string) (*Movement, error) {
	if transferID == uuid.Nil {
		return nil, fmt.Errorf("%w: transfer id is required", ErrInvalidArgument)
	}
	m, err := i.prepareExit(typ, quantity, reference)
	if err != nil {
		return nil, err
	}
	m.TransferID = &transferID
	i.applyExit(m)
	return m, nil
}

func (i *InventoryItem) transferEntry(typ MovementType, quantity, unitCost decimal.Decimal, transferID uuid.UUID, reference string) (*Movement, error) {
	if transferID == uuid.Nil {
		return nil, fmt.Errorf("%w: transfer id is required", ErrInvalidArgument)
	}
	if err := validateEntry(quantity, unitCost, reference); err != nil {
		return nil, err
	}
	m := newMovement(i.ID, typ, quantity, unitCost, strings.TrimSpace(reference))
	m.TransferID = &transferID
	i.applyEntry(m)
	return m, nil
}

// prepareExit validates a stock-removing movement and builds it valued at the
// current average cost. Nothing is mutated until applyExit runs, so a failed
// validation leaves the item exactly as it was.
func (i *InventoryItem) prepareExit(typ MovementType, quantity decimal.Decimal, reference string) (*Movement, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: exit quantity must be positive", ErrInvalidArgument)
	}
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("%w: reference must not be blank", ErrInvalidArgument)
	}
	if i.QuantityOnHand.LessThan(quantity) {
		return nil, fmt.Errorf("%w: on hand %s, requested %s", ErrInsufficientStock, i.QuantityOnHand, quantity)
	}
	return newMovement(i.ID, typ, quantity, i.AverageCost, strings.TrimSpace(reference)), nil
}

func (i *InventoryItem) applyExit(m *Movement) {
	i.QuantityOnHand = i.QuantityOnHand.Sub(m.Quantity)
	i.uncommitted = append(i.uncommitted, *m)
}

// applyEntry recomputes the weighted average and adds the stock. Callers must
// have validated and fully decorated the movement already.
func (i *InventoryItem) applyEntry(m *Movement) {
	i.AverageCost = WeightedAverageCost(i.QuantityOnHand, i.AverageCost, m.Quantity, m.UnitCost)
	i.QuantityOnHand = i.QuantityOnHand.Add(m.Quantity)
	i.uncommitted = append(i.uncommitted, *m)
}

func validateEntry(quantity, unitCost decimal.Decimal, reference string) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: entry quantity must be positive", ErrInvalidArgument)
	}
	if unitCost.IsNegative() {
		return fmt.Errorf("%w: unit cost must not be negative", ErrInvalidArgument)
	}
	if strings.TrimSpace(reference) == "" {
		return fmt.Errorf("%w: reference must not be blank", ErrInvalidArgument)
	}
	return nil
}
