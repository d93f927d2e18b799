package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/pkg/validator"
)

type WarehouseHandler struct {
	warehouses repository.WarehouseRepository
}

func NewWarehouseHandler(warehouses repository.WarehouseRepository) *WarehouseHandler {
	return &WarehouseHandler{warehouses: warehouses}
}

type createWarehouseRequest struct {
	ProjectID uuid.UUID `json:"project_id" validate:"uuid_required"`
	Name      string    `json:"name" validate:"required"`
	IsDefault bool      `json:"is_default"`
}

func (h *WarehouseHandler) CreateWarehouse(c *fiber.Ctx) error {
	var req createWarehouseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); errs != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Validation failed", "details": errs})
	}

	warehouse := &model.Warehouse{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		IsDefault: req.IsDefault,
	}
	if err := h.warehouses.Create(c.Context(), warehouse); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Warehouse created", "data": warehouse})
}

func (h *WarehouseHandler) ListWarehouses(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Query("project_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	warehouses, err := h.warehouses.FindByProject(c.Context(), projectID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(warehouses)
}
