package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/integration/viacep"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/service"
)

// CustomerHandler handles customer registry HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CustomerRequest represents the create/update customer body
type CustomerRequest struct {
	Name         string  `json:"name"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Document     *string `json:"document,omitempty"`
	CEP          *string `json:"cep,omitempty"`
	Street       *string `json:"street,omitempty"`
	Number       *string `json:"number,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

func (r CustomerRequest) toInput() service.CustomerInput {
	return service.CustomerInput{
		Name:         r.Name,
		Phone:        r.Phone,
		Email:        r.Email,
		Document:     r.Document,
		CEP:          r.CEP,
		Street:       r.Street,
		Number:       r.Number,
		Neighborhood: r.Neighborhood,
		City:         r.City,
		State:        r.State,
		Notes:        r.Notes,
	}
}

// CEPResponse represents a resolved postal code
type CEPResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// CreateCustomer handles POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	customer, err := h.customerService.CreateCustomer(c.Request().Context(), storeID, req.toInput())
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) || errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required and must be 200 characters or less"},
			})
		}
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to create customer")
		return NewInternalError(c, "Failed to create customer")
	}

	return c.JSON(http.StatusCreated, customer)
}

// GetCustomers handles GET /api/v1/customers with optional ?q= search
func (h *CustomerHandler) GetCustomers(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	customers, err := h.customerService.SearchCustomers(storeID, c.QueryParam("q"))
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get customers")
		return NewInternalError(c, "Failed to get customers")
	}

	return c.JSON(http.StatusOK, customers)
}

// GetCustomer handles GET /api/v1/customers/:id
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	customer, err := h.customerService.GetCustomerByID(storeID, id)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("customer_id", id).Msg("Failed to get customer")
		return NewInternalError(c, "Failed to get customer")
	}

	return c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles PUT /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	var req CustomerRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	customer, err := h.customerService.UpdateCustomer(c.Request().Context(), storeID, id, req.toInput())
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer not found")
		}
		if errors.Is(err, domain.ErrNameRequired) || errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required and must be 200 characters or less"},
			})
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("customer_id", id).Msg("Failed to update customer")
		return NewInternalError(c, "Failed to update customer")
	}

	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id
func (h *CustomerHandler) DeleteCustomer(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	if err := h.customerService.DeleteCustomer(storeID, id); err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer not found")
		}
		log.Error().Err(err).Int32("store_id", storeID).Int32("customer_id", id).Msg("Failed to delete customer")
		return NewInternalError(c, "Failed to delete customer")
	}

	return c.NoContent(http.StatusNoContent)
}

// LookupCEP handles GET /api/v1/cep/:code
func (h *CustomerHandler) LookupCEP(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	address, err := h.customerService.LookupCEP(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, viacep.ErrInvalidCEP) {
			return NewValidationError(c, "CEP must be 8 digits", nil)
		}
		if errors.Is(err, viacep.ErrCEPNotFound) {
			return NewNotFoundError(c, "CEP not found")
		}
		log.Error().Err(err).Msg("CEP lookup failed")
		return NewIntegrationError(c, "CEP lookup failed")
	}

	return c.JSON(http.StatusOK, CEPResponse{
		CEP:          address.CEP,
		Street:       address.Street,
		Neighborhood: address.Neighborhood,
		City:         address.City,
		State:        address.State,
	})
}

func parseIDParam(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id < 1 {
		return 0, domain.ErrInvalidInput
	}
	return int32(id), nil
}
