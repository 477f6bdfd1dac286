package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/integration/mail"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/service"
)

// InstallmentHandler handles installment plan HTTP requests
type InstallmentHandler struct {
	installmentService *service.InstallmentService
	receiptService     *service.ReceiptService
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(installmentService *service.InstallmentService, receiptService *service.ReceiptService) *InstallmentHandler {
	return &InstallmentHandler{
		installmentService: installmentService,
		receiptService:     receiptService,
	}
}

// TradeInRequest is the trade-in fragment of a plan request
type TradeInRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CreatePlanRequest represents the create plan request body
type CreatePlanRequest struct {
	CustomerID       int32           `json:"customerId"`
	ProductName      string          `json:"productName"`
	Brand            string          `json:"brand"`
	Model            string          `json:"model"`
	Color            *string         `json:"color,omitempty"`
	Storage          *string         `json:"storage,omitempty"`
	SerialNumber     *string         `json:"serialNumber,omitempty"`
	IMEI             *string         `json:"imei,omitempty"`
	TotalValue       string          `json:"totalValue"`
	CustomFee        string          `json:"customFee"`
	DownPayment      string          `json:"downPayment"`
	TradeIn          *TradeInRequest `json:"tradeIn,omitempty"`
	InstallmentCount int32           `json:"installmentCount"`
	Frequency        string          `json:"frequency"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID      int32   `json:"id"`
	Number  int32   `json:"number"`
	DueDate string  `json:"dueDate"`
	Value   string  `json:"value"`
	Status  string  `json:"status"`
	PaidAt  *string `json:"paidAt,omitempty"`
}

// PlanSummaryResponse represents the derived plan state
type PlanSummaryResponse struct {
	Settled        bool   `json:"settled"`
	Delinquent     bool   `json:"delinquent"`
	Current        bool   `json:"current"`
	PaidCount      int32  `json:"paidCount"`
	PendingCount   int32  `json:"pendingCount"`
	OverdueCount   int32  `json:"overdueCount"`
	PaidTotal      string `json:"paidTotal"`
	RemainingTotal string `json:"remainingTotal"`
}

// PlanResponse represents an installment plan in API responses
type PlanResponse struct {
	ID              string                `json:"id"`
	CustomerID      int32                 `json:"customerId"`
	CustomerName    string                `json:"customerName"`
	CustomerAddress string                `json:"customerAddress"`
	ProductName     string                `json:"productName"`
	Brand           string                `json:"brand"`
	Model           string                `json:"model"`
	Color           *string               `json:"color,omitempty"`
	Storage         *string               `json:"storage,omitempty"`
	SerialNumber    *string               `json:"serialNumber,omitempty"`
	IMEI            *string               `json:"imei,omitempty"`
	TotalValue      string                `json:"totalValue"`
	CustomFee       string                `json:"customFee"`
	DownPayment     string                `json:"downPayment"`
	TradeIn         *TradeInRequest       `json:"tradeIn,omitempty"`
	FinancedAmount  string                `json:"financedAmount"`
	Frequency       string                `json:"frequency"`
	CreatedAt       string                `json:"createdAt"`
	Installments    []InstallmentResponse `json:"installments"`
	Summary         PlanSummaryResponse   `json:"summary"`
}

// UpdateInstallmentValueRequest represents the value correction body
type UpdateInstallmentValueRequest struct {
	Value string `json:"value"`
}

// CreatePlan handles POST /api/v1/plans
func (h *InstallmentHandler) CreatePlan(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var req CreatePlanRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	totalValue, err := decimal.NewFromString(req.TotalValue)
	if err != nil {
		return NewValidationError(c, "Invalid total value", []ValidationError{
			{Field: "totalValue", Message: "Must be a valid decimal number"},
		})
	}
	customFee, err := parseOptionalDecimal(req.CustomFee)
	if err != nil {
		return NewValidationError(c, "Invalid custom fee", []ValidationError{
			{Field: "customFee", Message: "Must be a valid decimal number"},
		})
	}
	downPayment, err := parseOptionalDecimal(req.DownPayment)
	if err != nil {
		return NewValidationError(c, "Invalid down payment", []ValidationError{
			{Field: "downPayment", Message: "Must be a valid decimal number"},
		})
	}

	var tradeIn *domain.TradeIn
	if req.TradeIn != nil {
		value, err := decimal.NewFromString(req.TradeIn.Value)
		if err != nil {
			return NewValidationError(c, "Invalid trade-in value", []ValidationError{
				{Field: "tradeIn.value", Message: "Must be a valid decimal number"},
			})
		}
		tradeIn = &domain.TradeIn{Name: req.TradeIn.Name, Value: value}
	}

	frequency, err := domain.ParsePlanFrequency(req.Frequency)
	if err != nil {
		return NewValidationError(c, "Invalid frequency", []ValidationError{
			{Field: "frequency", Message: "Must be 'weekly' or 'monthly'"},
		})
	}

	input := service.CreatePlanInput{
		CustomerID:       req.CustomerID,
		ProductName:      req.ProductName,
		Brand:            req.Brand,
		Model:            req.Model,
		Color:            req.Color,
		Storage:          req.Storage,
		SerialNumber:     req.SerialNumber,
		IMEI:             req.IMEI,
		TotalValue:       totalValue,
		CustomFee:        customFee,
		DownPayment:      downPayment,
		TradeIn:          tradeIn,
		InstallmentCount: req.InstallmentCount,
		Frequency:        frequency,
	}

	plan, err := h.installmentService.CreatePlan(storeID, input)
	if err != nil {
		if errors.Is(err, domain.ErrPlanCustomerRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "customerId", Message: "No customer selected"},
			})
		}
		if errors.Is(err, domain.ErrNameRequired) || errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "productName", Message: "Product name is required and must be 200 characters or less"},
			})
		}
		if errors.Is(err, domain.ErrPlanValueNegative) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "totalValue", Message: "Values must not be negative"},
			})
		}
		if errors.Is(err, domain.ErrPlanCountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "installmentCount", Message: "Installment count must be at least 1"},
			})
		}
		if errors.Is(err, domain.ErrPlanFinancedNotPositive) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "totalValue", Message: "Financed amount is zero or negative; nothing to split into installments"},
			})
		}
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to create plan")
		return NewInternalError(c, "Failed to create plan")
	}

	log.Info().Int32("store_id", storeID).Str("plan_id", plan.ID.String()).Msg("Installment plan created")

	return c.JSON(http.StatusCreated, h.toPlanResponse(plan))
}

// GetPlans handles GET /api/v1/plans
func (h *InstallmentHandler) GetPlans(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	plans, err := h.installmentService.GetPlans(storeID)
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get plans")
		return NewInternalError(c, "Failed to get plans")
	}

	response := make([]PlanResponse, len(plans))
	for i, plan := range plans {
		response[i] = h.toPlanResponse(plan)
	}

	return c.JSON(http.StatusOK, response)
}

// GetPlan handles GET /api/v1/plans/:id
func (h *InstallmentHandler) GetPlan(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	plan, err := h.installmentService.GetPlanByID(storeID, planID)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return NewNotFoundError(c, "Plan not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get plan")
		return NewInternalError(c, "Failed to get plan")
	}

	return c.JSON(http.StatusOK, h.toPlanResponse(plan))
}

// GetPlansByCustomer handles GET /api/v1/customers/:id/plans
func (h *InstallmentHandler) GetPlansByCustomer(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	plans, err := h.installmentService.GetPlansByCustomer(storeID, int32(customerID))
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get customer plans")
		return NewInternalError(c, "Failed to get customer plans")
	}

	response := make([]PlanResponse, len(plans))
	for i, plan := range plans {
		response[i] = h.toPlanResponse(plan)
	}

	return c.JSON(http.StatusOK, response)
}

// PayInstallment handles POST /api/v1/plans/:id/installments/:number/pay
func (h *InstallmentHandler) PayInstallment(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid plan ID", nil)
	}
	number, err := parseInstallmentNumber(c.Param("number"))
	if err != nil {
		return NewValidationError(c, "Invalid installment number", nil)
	}

	paid, err := h.installmentService.PayInstallment(storeID, planID, number)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return NewNotFoundError(c, "Plan not found")
		}
		if errors.Is(err, domain.ErrInstallmentNotFound) {
			return NewNotFoundError(c, "Installment not found")
		}
		if errors.Is(err, domain.ErrInstallmentAlreadyPaid) {
			return NewConflictError(c, "Installment is already paid")
		}
		log.Error().Err(err).Int32("store_id", storeID).Str("plan_id", planID.String()).Msg("Failed to pay installment")
		return NewInternalError(c, "Failed to pay installment")
	}

	return c.JSON(http.StatusOK, toInstallmentResponse(paid, h.installmentService.Now()))
}

// UpdateInstallmentValue handles PUT /api/v1/plans/:id/installments/:number
func (h *InstallmentHandler) UpdateInstallmentValue(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid plan ID", nil)
	}
	number, err := parseInstallmentNumber(c.Param("number"))
	if err != nil {
		return NewValidationError(c, "Invalid installment number", nil)
	}

	var req UpdateInstallmentValueRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return NewValidationError(c, "Invalid value", []ValidationError{
			{Field: "value", Message: "Must be a valid decimal number"},
		})
	}

	updated, err := h.installmentService.UpdateInstallmentValue(storeID, planID, number, value)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return NewNotFoundError(c, "Plan not found")
		}
		if errors.Is(err, domain.ErrInstallmentNotFound) {
			return NewNotFoundError(c, "Installment not found")
		}
		if errors.Is(err, domain.ErrInstallmentAlreadyPaid) {
			return NewConflictError(c, "Paid installments cannot be corrected")
		}
		if errors.Is(err, domain.ErrInstallmentValueInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "value", Message: "Value must be positive"},
			})
		}
		log.Error().Err(err).Int32("store_id", storeID).Str("plan_id", planID.String()).Msg("Failed to update installment value")
		return NewInternalError(c, "Failed to update installment value")
	}

	return c.JSON(http.StatusOK, toInstallmentResponse(updated, h.installmentService.Now()))
}

// SendReminder handles POST /api/v1/plans/:id/reminder
func (h *InstallmentHandler) SendReminder(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	overdue, err := h.installmentService.SendReminder(storeID, planID)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return NewNotFoundError(c, "Plan not found")
		}
		if errors.Is(err, domain.ErrNothingOverdue) {
			return NewConflictError(c, "Plan has no overdue installment")
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Customer has no email on file", nil)
		}
		if errors.Is(err, mail.ErrNotConfigured) {
			return NewUnavailableError(c, "Email sending is not configured")
		}
		log.Error().Err(err).Str("plan_id", planID.String()).Msg("Failed to send reminder")
		return NewIntegrationError(c, "Failed to send reminder")
	}

	return c.JSON(http.StatusOK, toInstallmentResponse(overdue, h.installmentService.Now()))
}

// GetBooklet handles GET /api/v1/plans/:id/booklet
func (h *InstallmentHandler) GetBooklet(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid plan ID", nil)
	}

	html, err := h.receiptService.RenderBooklet(storeID, planID)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return NewNotFoundError(c, "Plan not found")
		}
		log.Error().Err(err).Str("plan_id", planID.String()).Msg("Failed to render booklet")
		return NewInternalError(c, "Failed to render booklet")
	}

	return c.HTMLBlob(http.StatusOK, html)
}

func parseInstallmentNumber(param string) (int32, error) {
	number, err := strconv.ParseInt(param, 10, 32)
	if err != nil || number < 1 {
		return 0, domain.ErrInvalidInput
	}
	return int32(number), nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func (h *InstallmentHandler) toPlanResponse(plan *domain.InstallmentPlan) PlanResponse {
	now := h.installmentService.Now()
	summary := plan.Classify(now)

	resp := PlanResponse{
		ID:              plan.ID.String(),
		CustomerID:      plan.CustomerID,
		CustomerName:    plan.CustomerName,
		CustomerAddress: plan.CustomerAddress,
		ProductName:     plan.ProductName,
		Brand:           plan.Brand,
		Model:           plan.Model,
		Color:           plan.Color,
		Storage:         plan.Storage,
		SerialNumber:    plan.SerialNumber,
		IMEI:            plan.IMEI,
		TotalValue:      plan.TotalValue.StringFixed(2),
		CustomFee:       plan.CustomFee.StringFixed(2),
		DownPayment:     plan.DownPayment.StringFixed(2),
		FinancedAmount:  plan.FinancedAmount().StringFixed(2),
		Frequency:       string(plan.Frequency),
		CreatedAt:       plan.CreatedAt.Format(time.RFC3339),
		Summary: PlanSummaryResponse{
			Settled:        summary.Settled,
			Delinquent:     summary.Delinquent,
			Current:        summary.Current,
			PaidCount:      summary.PaidCount,
			PendingCount:   summary.PendingCount,
			OverdueCount:   summary.OverdueCount,
			PaidTotal:      summary.PaidTotal.StringFixed(2),
			RemainingTotal: summary.RemainingTotal.StringFixed(2),
		},
	}
	if plan.TradeIn != nil {
		resp.TradeIn = &TradeInRequest{
			Name:  plan.TradeIn.Name,
			Value: plan.TradeIn.Value.StringFixed(2),
		}
	}

	resp.Installments = make([]InstallmentResponse, len(plan.Installments))
	for i, inst := range plan.Installments {
		resp.Installments[i] = toInstallmentResponse(inst, now)
	}
	return resp
}

// toInstallmentResponse serializes the installment with its display
// status: overdue is derived against now, never read from storage.
func toInstallmentResponse(inst *domain.Installment, now time.Time) InstallmentResponse {
	resp := InstallmentResponse{
		ID:      inst.ID,
		Number:  inst.Number,
		DueDate: inst.DueDate.Format(time.RFC3339),
		Value:   inst.Value.StringFixed(2),
		Status:  string(inst.DisplayStatus(now)),
	}
	if inst.PaidAt != nil {
		paidAt := inst.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}
