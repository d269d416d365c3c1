package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/application/usecase"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/ws"
	"github.com/jhoicas/stockmaster-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC   *usecase.ProductUseCase
	WarehouseUC *usecase.WarehouseUseCase
	Engine      *inventory.Engine
	Query       *inventory.LedgerQuery
	Projector   *inventory.Projector
	Warehouses  *inventory.WarehouseService
	Dashboard   *inventory.DashboardService
	Catalog     inventory.Catalog
	Hub         *ws.Hub // nil = sin /ws
	JWTSecret   string  // vacío = identidad por cabecera X-User-ID
	JWTIssuer   string
	Log         zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if deps.Hub != nil {
		app.Use("/ws", WSUpgrade)
		app.Get("/ws", WSHandler(deps.Hub))
	}

	identity := TrustedHeaderMiddleware()
	if deps.JWTSecret != "" {
		identity = AuthMiddleware(deps.JWTSecret, deps.JWTIssuer)
	}
	api := app.Group("/api", identity)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Warehouses + inventario por bodega
	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC, deps.Warehouses, deps.Log)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/summaries", warehouseHandler.Summaries)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Get("/:id/summary", warehouseHandler.Summary)
	warehouses.Get("/:id/items", warehouseHandler.Items)
	warehouses.Get("/:id/report.pdf", warehouseHandler.Report)

	// Operaciones sobre el libro
	ops := api.Group("/operations")
	opsHandler := NewOperationsHandler(deps.Engine, deps.Query, deps.Log)
	ops.Post("/receipts", opsHandler.CreateReceipt)
	ops.Post("/deliveries", opsHandler.CreateDelivery)
	ops.Post("/transfers", opsHandler.CreateTransfer)
	ops.Post("/adjustments", opsHandler.CreateAdjustment)

	// Transactions
	txs := api.Group("/transactions")
	txHandler := NewTransactionHandler(deps.Engine, deps.Query, deps.Log)
	txs.Get("/", txHandler.List)
	txs.Get("/:id", txHandler.GetByID)
	txs.Get("/:id/history", txHandler.History)
	txs.Patch("/:id/status", txHandler.UpdateStatus)

	// Stock
	stockHandler := NewStockHandler(deps.Projector, deps.Catalog, deps.Log)
	api.Get("/stock", stockHandler.Get)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.Dashboard, deps.Log)
	api.Get("/dashboard/summary", dashboardHandler.GetSummary)

	// Admin (solo rol admin)
	admin := api.Group("/admin", RequireRole(jwt.RoleAdmin))
	adminHandler := NewAdminHandler(deps.Projector, deps.Log)
	admin.Get("/projection/verify", adminHandler.Verify)
	admin.Post("/projection/rebuild", adminHandler.Rebuild)
}
