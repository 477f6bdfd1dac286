package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/integration/ai"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/service"
)

// ServiceOrderHandler handles repair order HTTP requests
type ServiceOrderHandler struct {
	orderService *service.ServiceOrderService
}

// NewServiceOrderHandler creates a new ServiceOrderHandler
func NewServiceOrderHandler(orderService *service.ServiceOrderService) *ServiceOrderHandler {
	return &ServiceOrderHandler{orderService: orderService}
}

// CreateOrderRequest represents the create order request body
type CreateOrderRequest struct {
	CustomerID         int32   `json:"customerId"`
	Device             string  `json:"device"`
	Brand              *string `json:"brand,omitempty"`
	Model              *string `json:"model,omitempty"`
	SerialNumber       *string `json:"serialNumber,omitempty"`
	IMEI               *string `json:"imei,omitempty"`
	ProblemDescription string  `json:"problemDescription"`
	LaborCost          string  `json:"laborCost"`
	PartsCost          string  `json:"partsCost"`
}

// UpdateOrderRequest represents the update order request body
type UpdateOrderRequest struct {
	Device             string  `json:"device"`
	Brand              *string `json:"brand,omitempty"`
	Model              *string `json:"model,omitempty"`
	SerialNumber       *string `json:"serialNumber,omitempty"`
	IMEI               *string `json:"imei,omitempty"`
	ProblemDescription string  `json:"problemDescription"`
	LaborCost          string  `json:"laborCost"`
	PartsCost          string  `json:"partsCost"`
}

// TransitionOrderRequest represents the status transition body
type TransitionOrderRequest struct {
	Status string `json:"status"`
}

// ServiceOrderResponse represents a repair order in API responses
type ServiceOrderResponse struct {
	ID                 int32    `json:"id"`
	CustomerID         int32    `json:"customerId"`
	CustomerName       string   `json:"customerName"`
	Device             string   `json:"device"`
	Brand              *string  `json:"brand,omitempty"`
	Model              *string  `json:"model,omitempty"`
	SerialNumber       *string  `json:"serialNumber,omitempty"`
	IMEI               *string  `json:"imei,omitempty"`
	ProblemDescription string   `json:"problemDescription"`
	Diagnosis          *string  `json:"diagnosis,omitempty"`
	Status             string   `json:"status"`
	LaborCost          string   `json:"laborCost"`
	PartsCost          string   `json:"partsCost"`
	TotalCost          string   `json:"totalCost"`
	PhotoKeys          []string `json:"photoKeys,omitempty"`
	OpenedAt           string   `json:"openedAt"`
	ClosedAt           *string  `json:"closedAt,omitempty"`
}

// PhotoURLsResponse carries presigned photo URLs
type PhotoURLsResponse struct {
	URLs []string `json:"urls"`
}

// CreateOrder handles POST /api/v1/service-orders
func (h *ServiceOrderHandler) CreateOrder(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	laborCost, partsCost, verrs := parseCosts(req.LaborCost, req.PartsCost)
	if verrs != nil {
		return NewValidationError(c, "Invalid cost", verrs)
	}

	order, err := h.orderService.CreateOrder(storeID, service.CreateOrderInput{
		CustomerID:         req.CustomerID,
		Device:             req.Device,
		Brand:              req.Brand,
		Model:              req.Model,
		SerialNumber:       req.SerialNumber,
		IMEI:               req.IMEI,
		ProblemDescription: req.ProblemDescription,
		LaborCost:          laborCost,
		PartsCost:          partsCost,
	})
	if err != nil {
		if verr := orderValidationError(err); verr != nil {
			return NewValidationError(c, "Validation failed", verr)
		}
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to create service order")
		return NewInternalError(c, "Failed to create service order")
	}

	log.Info().Int32("store_id", storeID).Int32("order_id", order.ID).Msg("Service order opened")

	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

// GetOrders handles GET /api/v1/service-orders with optional ?status= filter
func (h *ServiceOrderHandler) GetOrders(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var (
		orders []*domain.ServiceOrder
		err    error
	)
	if statusParam := c.QueryParam("status"); statusParam != "" {
		status, perr := domain.ParseServiceOrderStatus(statusParam)
		if perr != nil {
			return NewValidationError(c, "Invalid status filter", nil)
		}
		orders, err = h.orderService.GetOrdersByStatus(storeID, status)
	} else {
		orders, err = h.orderService.GetOrders(storeID)
	}
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get service orders")
		return NewInternalError(c, "Failed to get service orders")
	}

	response := make([]ServiceOrderResponse, len(orders))
	for i, order := range orders {
		response[i] = toOrderResponse(order)
	}

	return c.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/service-orders/:id
func (h *ServiceOrderHandler) GetOrder(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid order ID", nil)
	}

	order, err := h.orderService.GetOrderByID(storeID, id)
	if err != nil {
		if errors.Is(err, domain.ErrServiceOrderNotFound) {
			return NewNotFoundError(c, "Service order not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("order_id", id).Msg("Failed to get service order")
		return NewInternalError(c, "Failed to get service order")
	}

	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// UpdateOrder handles PUT /api/v1/service-orders/:id
func (h *ServiceOrderHandler) UpdateOrder(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid order ID", nil)
	}

	var req UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	laborCost, partsCost, verrs := parseCosts(req.LaborCost, req.PartsCost)
	if verrs != nil {
		return NewValidationError(c, "Invalid cost", verrs)
	}

	order, err := h.orderService.UpdateOrder(storeID, id, service.UpdateOrderInput{
		Device:             req.Device,
		Brand:              req.Brand,
		Model:              req.Model,
		SerialNumber:       req.SerialNumber,
		IMEI:               req.IMEI,
		ProblemDescription: req.ProblemDescription,
		LaborCost:          laborCost,
		PartsCost:          partsCost,
	})
	if err != nil {
		if errors.Is(err, domain.ErrServiceOrderNotFound) {
			return NewNotFoundError(c, "Service order not found")
		}
		if errors.Is(err, domain.ErrServiceOrderTerminal) {
			return NewConflictError(c, "Closed orders cannot be edited")
		}
		if verr := orderValidationError(err); verr != nil {
			return NewValidationError(c, "Validation failed", verr)
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("order_id", id).Msg("Failed to update service order")
		return NewInternalError(c, "Failed to update service order")
	}

	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// TransitionOrder handles POST /api/v1/service-orders/:id/status
func (h *ServiceOrderHandler) TransitionOrder(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid order ID", nil)
	}

	var req TransitionOrderRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	target, err := domain.ParseServiceOrderStatus(req.Status)
	if err != nil {
		return NewValidationError(c, "Invalid status", []ValidationError{
			{Field: "status", Message: "Unknown service order status"},
		})
	}

	order, err := h.orderService.TransitionOrder(storeID, id, target)
	if err != nil {
		if errors.Is(err, domain.ErrServiceOrderNotFound) {
			return NewNotFoundError(c, "Service order not found")
		}
		if errors.Is(err, domain.ErrServiceOrderTerminal) || errors.Is(err, domain.ErrServiceOrderBadTransition) {
			return NewConflictError(c, "Status transition not allowed from current state")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("order_id", id).Msg("Failed to transition service order")
		return NewInternalError(c, "Failed to transition service order")
	}

	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// RequestDiagnosis handles POST /api/v1/service-orders/:id/diagnosis
func (h *ServiceOrderHandler) RequestDiagnosis(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid order ID", nil)
	}

	order, err := h.orderService.RequestDiagnosis(c.Request().Context(), storeID, id)
	if err != nil {
		if errors.Is(err, domain.ErrServiceOrderNotFound) {
			return NewNotFoundError(c, "Service order not found")
		}
		if errors.Is(err, ai.ErrNotConfigured) {
			return NewUnavailableError(c, "AI diagnosis is not configured")
		}
		if errors.Is(err, ai.ErrRequestFailed) || errors.Is(err, ai.ErrEmptyResponse) {
			return NewIntegrationError(c, "AI diagnosis request failed")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("order_id", id).Msg("Failed to request diagnosis")
		return NewInternalError(c, "Failed to request diagnosis")
	}

	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// UploadPhoto handles POST /api/v1/service-orders/:id/photos
func (h *ServiceOrderHandler) UploadPhoto(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid order ID", nil)
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return NewValidationError(c, "Photo file is required", nil)
	}

	src, err := file.Open()
	if err != nil {
		return NewValidationError(c, "Failed to read photo", nil)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxPhotoSize+1))
	if err != nil {
		return NewValidationError(c, "Failed to read photo", nil)
	}

	order, err := h.orderService.AttachPhoto(c.Request().Context(), storeID, id, data, file.Filename)
	if err != nil {
		if errors.Is(err, domain.ErrServiceOrderNotFound) {
			return NewNotFoundError(c, "Service order not found")
		}
		if errors.Is(err, service.ErrPhotoTooLarge) {
			return NewValidationError(c, "Photo exceeds the 5MB size limit", nil)
		}
		if errors.Is(err, service.ErrPhotoInvalidFormat) || errors.Is(err, service.ErrPhotoInvalidData) {
			return NewValidationError(c, "Photo must be a valid JPEG, PNG or WebP image", nil)
		}
		if errors.Is(err, service.ErrPhotoTooSmall) {
			return NewValidationError(c, "Photo is too small", nil)
		}
		if errors.Is(err, service.ErrPhotoStorageNotConfigured) {
			return NewUnavailableError(c, "Photo storage is not configured")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("order_id", id).Msg("Failed to upload photo")
		return NewInternalError(c, "Failed to upload photo")
	}

	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

// GetPhotoURLs handles GET /api/v1/service-orders/:id/photos
func (h *ServiceOrderHandler) GetPhotoURLs(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid order ID", nil)
	}

	order, err := h.orderService.GetOrderByID(storeID, id)
	if err != nil {
		if errors.Is(err, domain.ErrServiceOrderNotFound) {
			return NewNotFoundError(c, "Service order not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("order_id", id).Msg("Failed to get service order")
		return NewInternalError(c, "Failed to get service order")
	}

	urls, err := h.orderService.PhotoURLs(c.Request().Context(), order)
	if err != nil {
		if errors.Is(err, service.ErrPhotoStorageNotConfigured) {
			return NewUnavailableError(c, "Photo storage is not configured")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("order_id", id).Msg("Failed to presign photo URLs")
		return NewInternalError(c, "Failed to presign photo URLs")
	}

	return c.JSON(http.StatusOK, PhotoURLsResponse{URLs: urls})
}

func parseCosts(labor, parts string) (decimal.Decimal, decimal.Decimal, []ValidationError) {
	laborCost, err := parseOptionalDecimal(labor)
	if err != nil {
		return decimal.Zero, decimal.Zero, []ValidationError{
			{Field: "laborCost", Message: "Must be a valid decimal number"},
		}
	}
	partsCost, err := parseOptionalDecimal(parts)
	if err != nil {
		return decimal.Zero, decimal.Zero, []ValidationError{
			{Field: "partsCost", Message: "Must be a valid decimal number"},
		}
	}
	return laborCost, partsCost, nil
}

func orderValidationError(err error) []ValidationError {
	switch {
	case errors.Is(err, domain.ErrServiceOrderCustomerReq):
		return []ValidationError{{Field: "customerId", Message: "No customer selected"}}
	case errors.Is(err, domain.ErrServiceOrderDeviceEmpty):
		return []ValidationError{{Field: "device", Message: "Device description is required"}}
	case errors.Is(err, domain.ErrServiceOrderProblemEmpty):
		return []ValidationError{{Field: "problemDescription", Message: "Problem description is required"}}
	case errors.Is(err, domain.ErrServiceOrderCostInvalid):
		return []ValidationError{{Field: "laborCost", Message: "Costs must not be negative"}}
	}
	return nil
}

func toOrderResponse(order *domain.ServiceOrder) ServiceOrderResponse {
	resp := ServiceOrderResponse{
		ID:                 order.ID,
		CustomerID:         order.CustomerID,
		CustomerName:       order.CustomerName,
		Device:             order.Device,
		Brand:              order.Brand,
		Model:              order.Model,
		SerialNumber:       order.SerialNumber,
		IMEI:               order.IMEI,
		ProblemDescription: order.ProblemDescription,
		Diagnosis:          order.Diagnosis,
		Status:             string(order.Status),
		LaborCost:          order.LaborCost.StringFixed(2),
		PartsCost:          order.PartsCost.StringFixed(2),
		TotalCost:          order.TotalCost().StringFixed(2),
		PhotoKeys:          order.PhotoKeys,
		OpenedAt:           order.OpenedAt.Format(timeFormat),
	}
	if order.ClosedAt != nil {
		closedAt := order.ClosedAt.Format(timeFormat)
		resp.ClosedAt = &closedAt
	}
	return resp
}
