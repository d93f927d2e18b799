package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/service"
	"go-stock-ledger/pkg/validator"
)

type PurchaseHandler struct {
	ledger *service.LedgerService
}

func NewPurchaseHandler(ledger *service.LedgerService) *PurchaseHandler {
	return &PurchaseHandler{ledger: ledger}
}

type purchaseLineRequest struct {
	ID           uuid.UUID       `json:"id" validate:"uuid_required"`
	ResourceID   string          `json:"resource_id" validate:"required"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity" validate:"decimal_positive"`
	UnitPrice    decimal.Decimal `json:"unit_price" validate:"decimal_nonnegative"`
	BudgetLineID *uuid.UUID      `json:"budget_line_id"`
}

type purchaseReceiptRequest struct {
	ID        uuid.UUID             `json:"id" validate:"uuid_required"`
	ProjectID uuid.UUID             `json:"project_id" validate:"uuid_required"`
	Supplier  string                `json:"supplier" validate:"required"`
	Date      time.Time             `json:"date"`
	Lines     []purchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type receiptLineResult struct {
	Item     *model.InventoryItem `json:"item"`
	Movement *model.Movement      `json:"movement"`
}

// RecordReceipt books every line of a purchase into the ledger. Lines are
// processed in order; the first failure aborts the rest and reports which
// line failed.
func (h *PurchaseHandler) RecordReceipt(c *fiber.Ctx) error {
	var req purchaseReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); errs != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed", "details": errs})
	}

	purchase := model.Purchase{
		ID:        req.ID,
		ProjectID: req.ProjectID,
		Supplier:  req.Supplier,
		Date:      req.Date,
	}

	results := make([]receiptLineResult, 0, len(req.Lines))
	for i, lr := range req.Lines {
		line := model.PurchaseLine{
			ID:           lr.ID,
			ResourceID:   lr.ResourceID,
			Unit:         lr.Unit,
			Quantity:     lr.Quantity,
			UnitPrice:    lr.UnitPrice,
			BudgetLineID: lr.BudgetLineID,
		}
		item, movement, err := h.ledger.ReceivePurchaseLine(c.Context(), purchase, line)
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"error": err.Error(),
				"line":  i,
			})
		}
		results = append(results, receiptLineResult{Item: item, Movement: movement})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Receipt recorded", "lines": results})
}
