package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/service"
)

// ProductHandler handles product catalog HTTP requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest represents the create/update product body
type ProductRequest struct {
	Name      string  `json:"name"`
	Brand     *string `json:"brand,omitempty"`
	Category  *string `json:"category,omitempty"`
	Barcode   *string `json:"barcode,omitempty"`
	CostPrice string  `json:"costPrice"`
	SalePrice string  `json:"salePrice"`
	Stock     int32   `json:"stock"`
	MinStock  int32   `json:"minStock"`
}

// AdjustStockRequest represents a manual stock adjustment body
type AdjustStockRequest struct {
	Delta int32 `json:"delta"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        int32   `json:"id"`
	Name      string  `json:"name"`
	Brand     *string `json:"brand,omitempty"`
	Category  *string `json:"category,omitempty"`
	Barcode   *string `json:"barcode,omitempty"`
	CostPrice string  `json:"costPrice"`
	SalePrice string  `json:"salePrice"`
	Stock     int32   `json:"stock"`
	MinStock  int32   `json:"minStock"`
	LowStock  bool    `json:"lowStock"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func (r ProductRequest) toInput() (service.ProductInput, []ValidationError) {
	costPrice, err := decimal.NewFromString(r.CostPrice)
	if err != nil {
		return service.ProductInput{}, []ValidationError{
			{Field: "costPrice", Message: "Must be a valid decimal number"},
		}
	}
	salePrice, err := decimal.NewFromString(r.SalePrice)
	if err != nil {
		return service.ProductInput{}, []ValidationError{
			{Field: "salePrice", Message: "Must be a valid decimal number"},
		}
	}
	return service.ProductInput{
		Name:      r.Name,
		Brand:     r.Brand,
		Category:  r.Category,
		Barcode:   r.Barcode,
		CostPrice: costPrice,
		SalePrice: salePrice,
		Stock:     r.Stock,
		MinStock:  r.MinStock,
	}, nil
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verrs := req.toInput()
	if verrs != nil {
		return NewValidationError(c, "Invalid price", verrs)
	}

	product, err := h.productService.CreateProduct(storeID, input)
	if err != nil {
		if verr := productValidationError(err); verr != nil {
			return NewValidationError(c, "Validation failed", verr)
		}
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to create product")
		return NewInternalError(c, "Failed to create product")
	}

	return c.JSON(http.StatusCreated, toProductResponse(product))
}

// GetProducts handles GET /api/v1/products with optional ?q= search
func (h *ProductHandler) GetProducts(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	products, err := h.productService.SearchProducts(storeID, c.QueryParam("q"))
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get products")
		return NewInternalError(c, "Failed to get products")
	}

	return c.JSON(http.StatusOK, toProductResponses(products))
}

// GetLowStockProducts handles GET /api/v1/products/low-stock
func (h *ProductHandler) GetLowStockProducts(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	products, err := h.productService.GetLowStockProducts(storeID)
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get low stock products")
		return NewInternalError(c, "Failed to get low stock products")
	}

	return c.JSON(http.StatusOK, toProductResponses(products))
}

// GetProduct handles GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid product ID", nil)
	}

	product, err := h.productService.GetProductByID(storeID, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewNotFoundError(c, "Product not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("product_id", id).Msg("Failed to get product")
		return NewInternalError(c, "Failed to get product")
	}

	return c.JSON(http.StatusOK, toProductResponse(product))
}

// UpdateProduct handles PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid product ID", nil)
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, verrs := req.toInput()
	if verrs != nil {
		return NewValidationError(c, "Invalid price", verrs)
	}

	product, err := h.productService.UpdateProduct(storeID, id, input)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewNotFoundError(c, "Product not found")
		}
		if verr := productValidationError(err); verr != nil {
			return NewValidationError(c, "Validation failed", verr)
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("product_id", id).Msg("Failed to update product")
		return NewInternalError(c, "Failed to update product")
	}

	return c.JSON(http.StatusOK, toProductResponse(product))
}

// AdjustStock handles POST /api/v1/products/:id/stock
func (h *ProductHandler) AdjustStock(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid product ID", nil)
	}

	var req AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	product, err := h.productService.AdjustStock(storeID, id, req.Delta)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewNotFoundError(c, "Product not found")
		}
		if errors.Is(err, domain.ErrInsufficientStock) {
			return NewConflictError(c, "Adjustment would make stock negative")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("product_id", id).Msg("Failed to adjust stock")
		return NewInternalError(c, "Failed to adjust stock")
	}

	return c.JSON(http.StatusOK, toProductResponse(product))
}

// DeleteProduct handles DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid product ID", nil)
	}

	if err := h.productService.DeleteProduct(storeID, id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return NewNotFoundError(c, "Product not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("product_id", id).Msg("Failed to delete product")
		return NewInternalError(c, "Failed to delete product")
	}

	return c.NoContent(http.StatusNoContent)
}

func productValidationError(err error) []ValidationError {
	switch {
	case errors.Is(err, domain.ErrProductNameEmpty), errors.Is(err, domain.ErrProductNameTooLong):
		return []ValidationError{{Field: "name", Message: "Name is required and must be 200 characters or less"}}
	case errors.Is(err, domain.ErrProductPriceInvalid):
		return []ValidationError{{Field: "salePrice", Message: "Prices must not be negative"}}
	case errors.Is(err, domain.ErrProductStockInvalid):
		return []ValidationError{{Field: "stock", Message: "Stock must not be negative"}}
	}
	return nil
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Brand:     p.Brand,
		Category:  p.Category,
		Barcode:   p.Barcode,
		CostPrice: p.CostPrice.StringFixed(2),
		SalePrice: p.SalePrice.StringFixed(2),
		Stock:     p.Stock,
		MinStock:  p.MinStock,
		LowStock:  p.Stock <= p.MinStock,
		CreatedAt: p.CreatedAt.Format(timeFormat),
		UpdatedAt: p.UpdatedAt.Format(timeFormat),
	}
}

func toProductResponses(products []*domain.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}
