package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-stock-ledger/internal/approval"
	"go-stock-ledger/internal/catalog"
	"go-stock-ledger/internal/events"
	"go-stock-ledger/internal/handler"
	"go-stock-ledger/internal/middleware"
	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/internal/service"
	"go-stock-ledger/internal/ws"
	"go-stock-ledger/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	zapLog, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer zapLog.Sync()

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(&model.Warehouse{}, &model.InventoryItem{}, &model.Movement{})

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(zapLog)
	go wsHub.Run()

	// 4. External gateways
	var catalogGateway catalog.Gateway = catalog.NewClient(getEnv("CATALOG_BASE_URL", "http://localhost:8081"))
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		ttl, _ := time.ParseDuration(getEnv("CATALOG_CACHE_TTL", "5m"))
		catalogGateway = catalog.NewCachedGateway(catalogGateway, rdb, ttl, zapLog)
	}
	approvalGateway := approval.NewHTTPGateway(getEnv("APPROVAL_BASE_URL", "http://localhost:8082"))

	var publisher service.TransferEventPublisher = events.NopPublisher{}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaPublisher := events.NewKafkaPublisher(strings.Split(brokers, ","), getEnv("KAFKA_TRANSFER_TOPIC", "inventory.transfers"))
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// 5. Dependency Injection (Wiring Layers)
	itemRepo := repository.NewItemRepo(db)
	warehouseRepo := repository.NewWarehouseRepo(db)

	resolver := service.NewCatalogReconciliationService(itemRepo, warehouseRepo, catalogGateway, os.Getenv("CATALOG_SOURCE"), zapLog)
	ledgerService := service.NewLedgerService(itemRepo, resolver, wsHub, zapLog)
	transferService := service.NewTransferService(itemRepo, approvalGateway, publisher, zapLog)

	itemHandler := handler.NewItemHandler(ledgerService)
	purchaseHandler := handler.NewPurchaseHandler(ledgerService)
	transferHandler := handler.NewTransferHandler(transferService)
	warehouseHandler := handler.NewWarehouseHandler(warehouseRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Stock Ledger v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")
	protected := api.Group("", middleware.RequireAuth())

	// Item and kardex routes
	protected.Get("/items", itemHandler.ListItems)
	protected.Get("/items/:id", itemHandler.GetItem)
	protected.Get("/items/:id/kardex", itemHandler.GetKardex)
	protected.Post("/items/:id/issues", middleware.RequirePrivilege("inventory:issue"), itemHandler.RecordIssue)
	protected.Post("/items/:id/adjustments", middleware.RequirePrivilege("inventory:adjust"), itemHandler.RecordAdjustment)

	// Purchase receipt routes
	protected.Post("/purchase-receipts", middleware.RequirePrivilege("inventory:receive"), purchaseHandler.RecordReceipt)

	// Transfer routes
	protected.Post("/transfers", middleware.RequirePrivilege("inventory:transfer"), transferHandler.TransferWithinProject)
	protected.Post("/transfers/cross-project", middleware.RequirePrivilege("inventory:transfer_cross_project"), transferHandler.TransferAcrossProjects)

	// Warehouse routes
	protected.Get("/warehouses", warehouseHandler.ListWarehouses)
	protected.Post("/warehouses", middleware.RequirePrivilege("warehouse:create"), warehouseHandler.CreateWarehouse)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := getEnv("PORT", "3000")
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	zapLog.Info("server exited")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
