package handler

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/techfix/techfix-backend/internal/middleware"
)

// Handlers groups every HTTP handler for route registration
type Handlers struct {
	Auth         *AuthHandler
	Customer     *CustomerHandler
	Product      *ProductHandler
	ServiceOrder *ServiceOrderHandler
	Sale         *SaleHandler
	Installment  *InstallmentHandler
	Transaction  *TransactionHandler
	Settings     *SettingsHandler
	WebSocket    *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API docs (public)
	e.GET("/openapi.json", ServeOpenAPI3Spec)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// WebSocket endpoint authenticates via query token, outside the
	// HTTP middleware chain
	e.GET("/ws", h.WebSocket.HandleWS)

	// API version 1 (protected)
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	api.GET("/me", h.Auth.Me)

	// Customer registry
	customers := api.Group("/customers")
	customers.POST("", h.Customer.CreateCustomer)
	customers.GET("", h.Customer.GetCustomers)
	customers.GET("/:id", h.Customer.GetCustomer)
	customers.PUT("/:id", h.Customer.UpdateCustomer)
	customers.DELETE("/:id", h.Customer.DeleteCustomer)
	customers.GET("/:id/plans", h.Installment.GetPlansByCustomer)
	api.GET("/cep/:code", h.Customer.LookupCEP)

	// Product catalog
	products := api.Group("/products")
	products.POST("", h.Product.CreateProduct)
	products.GET("", h.Product.GetProducts)
	products.GET("/low-stock", h.Product.GetLowStockProducts)
	products.GET("/:id", h.Product.GetProduct)
	products.PUT("/:id", h.Product.UpdateProduct)
	products.POST("/:id/stock", h.Product.AdjustStock)
	products.DELETE("/:id", h.Product.DeleteProduct)

	// Repair orders
	orders := api.Group("/service-orders")
	orders.POST("", h.ServiceOrder.CreateOrder)
	orders.GET("", h.ServiceOrder.GetOrders)
	orders.GET("/:id", h.ServiceOrder.GetOrder)
	orders.PUT("/:id", h.ServiceOrder.UpdateOrder)
	orders.POST("/:id/status", h.ServiceOrder.TransitionOrder)
	orders.POST("/:id/diagnosis", h.ServiceOrder.RequestDiagnosis)
	orders.POST("/:id/photos", h.ServiceOrder.UploadPhoto)
	orders.GET("/:id/photos", h.ServiceOrder.GetPhotoURLs)

	// Counter sales
	sales := api.Group("/sales")
	sales.POST("", h.Sale.CreateSale)
	sales.GET("", h.Sale.GetSales)
	sales.GET("/:id", h.Sale.GetSale)
	sales.GET("/:id/receipt", h.Sale.GetReceipt)

	// Installment plans (crediário)
	plans := api.Group("/plans")
	plans.POST("", h.Installment.CreatePlan)
	plans.GET("", h.Installment.GetPlans)
	plans.GET("/:id", h.Installment.GetPlan)
	plans.POST("/:id/installments/:number/pay", h.Installment.PayInstallment)
	plans.PUT("/:id/installments/:number", h.Installment.UpdateInstallmentValue)
	plans.POST("/:id/reminder", h.Installment.SendReminder)
	plans.GET("/:id/booklet", h.Installment.GetBooklet)

	// Financial ledger
	transactions := api.Group("/transactions")
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/summary", h.Transaction.GetMonthSummary)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	// Store settings
	settings := api.Group("/settings")
	settings.GET("/profile", h.Settings.GetProfile)
	settings.PUT("/profile", h.Settings.SaveProfile)
}
