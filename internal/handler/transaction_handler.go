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

// TransactionHandler handles financial ledger HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the create ledger entry body
type CreateTransactionRequest struct {
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Method      *string `json:"method,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID          int32   `json:"id"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Method      *string `json:"method,omitempty"`
	Category    *string `json:"category,omitempty"`
	SaleID      *int32  `json:"saleId,omitempty"`
	PlanID      *string `json:"planId,omitempty"`
	OccurredAt  string  `json:"occurredAt"`
}

// MonthSummaryResponse aggregates a month of ledger entries
type MonthSummaryResponse struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	kind, err := domain.ParseTransactionKind(req.Kind)
	if err != nil {
		return NewValidationError(c, "Invalid kind", []ValidationError{
			{Field: "kind", Message: "Must be 'income' or 'expense'"},
		})
	}

	tx, err := h.transactionService.CreateTransaction(storeID, service.CreateTransactionInput{
		Kind:        kind,
		Description: req.Description,
		Amount:      amount,
		Method:      req.Method,
		Category:    req.Category,
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransactionDescEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "description", Message: "Description is required"},
			})
		}
		if errors.Is(err, domain.ErrTransactionAmountInvalid) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "amount", Message: "Amount must be positive"},
			})
		}
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

// GetTransactions handles GET /api/v1/transactions?year=&month=
// Defaults to the current month when no filter is given.
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	year, month, err := h.yearMonth(c)
	if err != nil {
		return NewValidationError(c, "Invalid year or month", nil)
	}

	transactions, err := h.transactionService.GetTransactionsByMonth(storeID, year, month)
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get transactions")
		return NewInternalError(c, "Failed to get transactions")
	}

	response := make([]TransactionResponse, len(transactions))
	for i, tx := range transactions {
		response[i] = toTransactionResponse(tx)
	}

	return c.JSON(http.StatusOK, response)
}

// GetMonthSummary handles GET /api/v1/transactions/summary?year=&month=
func (h *TransactionHandler) GetMonthSummary(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	year, month, err := h.yearMonth(c)
	if err != nil {
		return NewValidationError(c, "Invalid year or month", nil)
	}

	summary, err := h.transactionService.GetMonthSummary(storeID, year, month)
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get month summary")
		return NewInternalError(c, "Failed to get month summary")
	}

	return c.JSON(http.StatusOK, MonthSummaryResponse{
		Year:    summary.Year,
		Month:   summary.Month,
		Income:  summary.Income.StringFixed(2),
		Expense: summary.Expense.StringFixed(2),
		Net:     summary.Net.StringFixed(2),
	})
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(storeID, id); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("transaction_id", id).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *TransactionHandler) yearMonth(c echo.Context) (int, int, error) {
	if c.QueryParam("year") == "" && c.QueryParam("month") == "" {
		year, month := h.transactionService.CurrentMonth()
		return year, month, nil
	}
	return parseYearMonth(c)
}

func toTransactionResponse(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		Description: tx.Description,
		Amount:      tx.Amount.StringFixed(2),
		Method:      tx.Method,
		Category:    tx.Category,
		SaleID:      tx.SaleID,
		OccurredAt:  tx.OccurredAt.Format(timeFormat),
	}
	if tx.PlanID != nil {
		planID := tx.PlanID.String()
		resp.PlanID = &planID
	}
	return resp
}
