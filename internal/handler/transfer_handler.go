package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-stock-ledger/internal/service"
	"go-stock-ledger/pkg/validator"
)

type TransferHandler struct {
	transfers *service.TransferService
}

func NewTransferHandler(transfers *service.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type transferRequest struct {
	OriginItemID           uuid.UUID       `json:"origin_item_id" validate:"uuid_required"`
	DestinationWarehouseID uuid.UUID       `json:"destination_warehouse_id" validate:"uuid_required"`
	Quantity               decimal.Decimal `json:"quantity" validate:"decimal_positive"`
	Reference              string          `json:"reference" validate:"required"`
}

type crossProjectTransferRequest struct {
	OriginItemID           uuid.UUID       `json:"origin_item_id" validate:"uuid_required"`
	DestinationWarehouseID uuid.UUID       `json:"destination_warehouse_id" validate:"uuid_required"`
	DestinationProjectID   uuid.UUID       `json:"destination_project_id" validate:"uuid_required"`
	ExceptionID            uuid.UUID       `json:"exception_id" validate:"uuid_required"`
	Quantity               decimal.Decimal `json:"quantity" validate:"decimal_positive"`
	Reference              string          `json:"reference" validate:"required"`
}

func (h *TransferHandler) TransferWithinProject(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); errs != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed", "details": errs})
	}

	result, err := h.transfers.TransferWithinProject(c.Context(), req.OriginItemID, req.DestinationWarehouseID, req.Quantity, req.Reference)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(201).JSON(result)
}

func (h *TransferHandler) TransferAcrossProjects(c *fiber.Ctx) error {
	var req crossProjectTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); errs != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed", "details": errs})
	}

	result, err := h.transfers.TransferAcrossProjects(c.Context(), req.OriginItemID, req.DestinationWarehouseID, req.DestinationProjectID, req.Quantity, req.ExceptionID, req.Reference)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(201).JSON(result)
}
