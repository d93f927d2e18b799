package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-stock-ledger/internal/service"
	"go-stock-ledger/pkg/validator"
)

type ItemHandler struct {
	ledger *service.LedgerService
}

func NewItemHandler(ledger *service.LedgerService) *ItemHandler {
	return &ItemHandler{ledger: ledger}
}

type issueRequest struct {
	Quantity      decimal.Decimal `json:"quantity" validate:"decimal_positive"`
	RequisitionID uuid.UUID       `json:"requisition_id"`
	BudgetLineID  *uuid.UUID      `json:"budget_line_id"`
	Reference     string          `json:"reference" validate:"required"`
}

type adjustmentRequest struct {
	Quantity      decimal.Decimal `json:"quantity" validate:"decimal_positive"`
	UnitCost      decimal.Decimal `json:"unit_cost" validate:"decimal_nonnegative"`
	Justification string          `json:"justification" validate:"required,min=20"`
}

func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	var projectID *uuid.UUID
	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid project ID"})
		}
		projectID = &id
	}

	items, err := h.ledger.ListItems(c.Context(), projectID)
	if err != nil {
		return errorJSON(c, err)
	}

	if resourceID, warehouseID := c.Query("resource_id"), c.Query("warehouse_id"); resourceID != "" || warehouseID != "" {
		filtered := items[:0]
		for _, item := range items {
			if resourceID != "" && item.ResourceID != resourceID {
				continue
			}
			if warehouseID != "" && item.WarehouseID.String() != warehouseID {
				continue
			}
			filtered = append(filtered, item)
		}
		items = filtered
	}
	return c.JSON(items)
}

func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	item, err := h.ledger.GetItem(c.Context(), itemID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(item)
}

func (h *ItemHandler) GetKardex(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	movements, err := h.ledger.Kardex(c.Context(), itemID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(movements)
}

func (h *ItemHandler) RecordIssue(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); errs != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed", "details": errs})
	}

	item, movement, err := h.ledger.RecordConsumption(c.Context(), itemID, req.Quantity, req.RequisitionID, req.BudgetLineID, req.Reference)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"item": item, "movement": movement})
}

func (h *ItemHandler) RecordAdjustment(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req adjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); errs != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed", "details": errs})
	}

	item, movement, err := h.ledger.RecordAdjustment(c.Context(), itemID, req.Quantity, req.UnitCost, req.Justification)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"item": item, "movement": movement})
}
