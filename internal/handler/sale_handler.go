package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/service"
)

// SaleHandler handles counter sale HTTP requests
type SaleHandler struct {
	saleService    *service.SaleService
	receiptService *service.ReceiptService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *service.SaleService, receiptService *service.ReceiptService) *SaleHandler {
	return &SaleHandler{
		saleService:    saleService,
		receiptService: receiptService,
	}
}

// SaleItemRequest represents a single line of a sale request
type SaleItemRequest struct {
	ProductID int32 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// CreateSaleRequest represents the create sale request body
type CreateSaleRequest struct {
	CustomerID    *int32            `json:"customerId,omitempty"`
	Items         []SaleItemRequest `json:"items"`
	Discount      string            `json:"discount"`
	PaymentMethod string            `json:"paymentMethod"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ProductID   int32  `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID            int32              `json:"id"`
	CustomerID    *int32             `json:"customerId,omitempty"`
	CustomerName  *string            `json:"customerName,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	Discount      string             `json:"discount"`
	Total         string             `json:"total"`
	PaymentMethod string             `json:"paymentMethod"`
	CreatedAt     string             `json:"createdAt"`
}

// CreateSale handles POST /api/v1/sales
func (h *SaleHandler) CreateSale(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var req CreateSaleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	discount, err := parseOptionalDecimal(req.Discount)
	if err != nil {
		return NewValidationError(c, "Invalid discount", []ValidationError{
			{Field: "discount", Message: "Must be a valid decimal number"},
		})
	}

	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return NewValidationError(c, "Invalid payment method", []ValidationError{
			{Field: "paymentMethod", Message: "Must be 'cash', 'card' or 'pix'"},
		})
	}

	items := make([]service.SaleItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.SaleItemInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	sale, err := h.saleService.CreateSale(storeID, service.CreateSaleInput{
		CustomerID:    req.CustomerID,
		Items:         items,
		Discount:      discount,
		PaymentMethod: method,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSaleNoItems) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "items", Message: "Sale must have at least one item"},
			})
		}
		if errors.Is(err, domain.ErrSaleQuantityInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "items", Message: "Item quantity must be at least 1"},
			})
		}
		if errors.Is(err, domain.ErrSaleDiscountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "discount", Message: "Discount must not be negative"},
			})
		}
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "items", Message: "Product not found"},
			})
		}
		if errors.Is(err, domain.ErrInsufficientStock) {
			return NewConflictError(c, "Insufficient stock for one or more items")
		}
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to create sale")
		return NewInternalError(c, "Failed to create sale")
	}

	log.Info().Int32("store_id", storeID).Int32("sale_id", sale.ID).Msg("Sale registered")

	return c.JSON(http.StatusCreated, toSaleResponse(sale))
}

// GetSales handles GET /api/v1/sales with optional ?year=&month= filter
func (h *SaleHandler) GetSales(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var (
		sales []*domain.Sale
		err   error
	)
	if c.QueryParam("year") != "" || c.QueryParam("month") != "" {
		year, month, perr := parseYearMonth(c)
		if perr != nil {
			return NewValidationError(c, "Invalid year or month", nil)
		}
		sales, err = h.saleService.GetSalesByMonth(storeID, year, month)
	} else {
		sales, err = h.saleService.GetSales(storeID)
	}
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get sales")
		return NewInternalError(c, "Failed to get sales")
	}

	response := make([]SaleResponse, len(sales))
	for i, sale := range sales {
		response[i] = toSaleResponse(sale)
	}

	return c.JSON(http.StatusOK, response)
}

// GetSale handles GET /api/v1/sales/:id
func (h *SaleHandler) GetSale(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid sale ID", nil)
	}

	sale, err := h.saleService.GetSaleByID(storeID, id)
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			return NewNotFoundError(c, "Sale not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("sale_id", id).Msg("Failed to get sale")
		return NewInternalError(c, "Failed to get sale")
	}

	return c.JSON(http.StatusOK, toSaleResponse(sale))
}

// GetReceipt handles GET /api/v1/sales/:id/receipt
func (h *SaleHandler) GetReceipt(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid sale ID", nil)
	}

	html, err := h.receiptService.RenderSaleReceipt(storeID, id)
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			return NewNotFoundError(c, "Sale not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("sale_id", id).Msg("Failed to render receipt")
		return NewInternalError(c, "Failed to render receipt")
	}

	return c.HTMLBlob(http.StatusOK, html)
}

func parseYearMonth(c echo.Context) (int, int, error) {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil || year < 2000 || year > 2200 {
		return 0, 0, domain.ErrInvalidInput
	}
	month, err := strconv.Atoi(c.QueryParam("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, domain.ErrInvalidInput
	}
	return year, month, nil
}

func toSaleResponse(sale *domain.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = SaleItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Subtotal:    item.Subtotal.StringFixed(2),
		}
	}
	return SaleResponse{
		ID:            sale.ID,
		CustomerID:    sale.CustomerID,
		CustomerName:  sale.CustomerName,
		Items:         items,
		Discount:      sale.Discount.StringFixed(2),
		Total:         sale.Total.StringFixed(2),
		PaymentMethod: string(sale.PaymentMethod),
		CreatedAt:     sale.CreatedAt.Format(timeFormat),
	}
}
