package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"restropos_backend/internal/handlers"
	"restropos_backend/internal/middleware"
	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
	"restropos_backend/internal/services"
)

// Setup wires repositories, services and handlers and registers every route
// group under /api/v1.
func Setup(engine *gin.Engine, db *sql.DB) {
	txManager := repositories.NewTxManager(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	userRepo := repositories.NewUserRepository(db)

	resolver := services.NewConsumptionResolver(catalogRepo, inventoryRepo, txManager)
	ledgerService := services.NewLedgerService(customerRepo, txManager)
	orderService := services.NewOrderService(orderRepo, catalogRepo, resolver, ledgerService, txManager)
	inventoryService := services.NewInventoryService(inventoryRepo, txManager)
	customerService := services.NewCustomerService(customerRepo)
	agingService := services.NewAgingReportService(customerRepo)
	reportService := services.NewReportService(orderRepo, customerRepo)
	authService := services.NewAuthService(userRepo)

	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo)
	orderHandler := handlers.NewOrderHandler(orderService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	customerHandler := handlers.NewCustomerHandler(customerService, ledgerService)
	reportHandler := handlers.NewReportHandler(reportService, agingService)

	v1 := engine.Group("/api/v1")

	v1.POST("/auth/login", authHandler.Login)

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware())

	registerCatalogRoutes(authed, catalogHandler)
	registerOrderRoutes(authed, orderHandler)
	registerInventoryRoutes(authed, inventoryHandler)
	registerCustomerRoutes(authed, customerHandler)
	registerReportRoutes(authed, reportHandler)
}

func registerCatalogRoutes(rg *gin.RouterGroup, h *handlers.CatalogHandler) {
	rg.GET("/menu-items", h.GetMenuItems)
	rg.GET("/deals", h.GetDeals)
}

func registerOrderRoutes(rg *gin.RouterGroup, h *handlers.OrderHandler) {
	rg.POST("/orders", h.CreateOrder)
	rg.GET("/orders", h.GetOrders)
	rg.GET("/orders/:id", h.GetOrder)
	rg.PATCH("/orders/:id/status", h.UpdateStatus)
	rg.PATCH("/orders/:id/cancel", h.CancelOrder)
	rg.POST("/orders/:id/items", h.AppendItems)
	rg.PATCH("/orders/:id/discount", h.ApplyDiscount)
}

func registerInventoryRoutes(rg *gin.RouterGroup, h *handlers.InventoryHandler) {
	rg.GET("/inventory", h.GetItems)
	rg.GET("/inventory/low-stock", h.GetLowStockItems)
	rg.GET("/inventory-adjustments", h.GetAdjustments)
	rg.POST("/inventory-adjustments",
		middleware.AuthorizeRole(models.RoleAdmin), h.CreateAdjustment)
}

func registerCustomerRoutes(rg *gin.RouterGroup, h *handlers.CustomerHandler) {
	rg.POST("/customers", h.CreateCustomer)
	rg.GET("/customers", h.GetCustomers)
	rg.GET("/customers/:id", h.GetCustomer)
	rg.PUT("/customers/:id", h.UpdateCustomer)
	rg.GET("/customers/:id/ledger", h.GetLedger)
	rg.POST("/payments", h.RecordPayment)
	rg.GET("/payments", h.GetPayments)
	rg.DELETE("/payments/:id",
		middleware.AuthorizeRole(models.RoleAdmin), h.DeletePayment)
}

func registerReportRoutes(rg *gin.RouterGroup, h *handlers.ReportHandler) {
	rg.GET("/reports/sales", h.GetSalesReport)
	rg.GET("/reports/aging", h.GetAgingReport)
}
