package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/service"
	"github.com/techfix/techfix-backend/internal/testutil"
	"github.com/techfix/techfix-backend/internal/websocket"
)

// setupStoreContext builds an echo context with the store resolved, the
// way the auth middleware leaves it for authenticated requests.
func setupStoreContext(method, path, body string, storeID int32) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	ctx := context.WithValue(req.Context(), middleware.Auth0IDKey, "auth0|test-user")
	if storeID != 0 {
		ctx = context.WithValue(ctx, middleware.StoreIDKey, storeID)
	}
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newInstallmentHandler(t *testing.T, now time.Time) (*InstallmentHandler, *testutil.MockCustomerRepository) {
	t.Helper()
	planRepo := testutil.NewMockInstallmentPlanRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	svc := service.NewInstallmentService(planRepo, customerRepo, testutil.FixedClock{Time: now}, &testutil.MockReminderSender{}, &websocket.NoOpPublisher{})
	return NewInstallmentHandler(svc, nil), customerRepo
}

func TestCreatePlan_Success(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, customerRepo := newInstallmentHandler(t, now)
	customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Maria Souza"})

	body := `{
		"customerId": 1,
		"productName": "iPhone 13",
		"brand": "Apple",
		"model": "A2633",
		"totalValue": "1000",
		"customFee": "0",
		"downPayment": "200",
		"installmentCount": 4,
		"frequency": "monthly"
	}`
	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans", body, 1)

	if err := h.CreatePlan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PlanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.FinancedAmount != "800.00" {
		t.Errorf("Expected financed amount 800.00, got %s", resp.FinancedAmount)
	}
	if len(resp.Installments) != 4 {
		t.Fatalf("Expected 4 installments, got %d", len(resp.Installments))
	}
	for _, inst := range resp.Installments {
		if inst.Value != "200.00" {
			t.Errorf("Expected installment value 200.00, got %s", inst.Value)
		}
		if inst.Status != "pending" {
			t.Errorf("Expected pending status, got %s", inst.Status)
		}
	}
	if resp.CustomerName != "Maria Souza" {
		t.Errorf("Expected customer snapshot, got %s", resp.CustomerName)
	}
}

func TestCreatePlan_FinancedNotPositive(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, customerRepo := newInstallmentHandler(t, now)
	customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Maria Souza"})

	body := `{
		"customerId": 1,
		"productName": "Fone",
		"totalValue": "100",
		"downPayment": "100",
		"installmentCount": 2,
		"frequency": "monthly"
	}`
	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans", body, 1)

	if err := h.CreatePlan(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	json.Unmarshal(rec.Body.Bytes(), &problem)
	if len(problem.Errors) == 0 || problem.Errors[0].Field != "totalValue" {
		t.Errorf("Expected totalValue field error, got %+v", problem.Errors)
	}
}

func TestCreatePlan_InvalidFrequency(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, _ := newInstallmentHandler(t, now)

	body := `{"customerId": 1, "productName": "Fone", "totalValue": "100", "installmentCount": 2, "frequency": "daily"}`
	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans", body, 1)

	h.CreatePlan(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreatePlan_NoStore(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, _ := newInstallmentHandler(t, now)

	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans", `{}`, 0)

	h.CreatePlan(c)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func createPlanForTest(t *testing.T, h *InstallmentHandler, customerRepo *testutil.MockCustomerRepository) string {
	t.Helper()
	customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Maria Souza"})

	body := `{
		"customerId": 1,
		"productName": "iPhone 13",
		"totalValue": "600",
		"installmentCount": 3,
		"frequency": "monthly"
	}`
	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans", body, 1)
	if err := h.CreatePlan(c); err != nil || rec.Code != http.StatusCreated {
		t.Fatalf("Failed to create plan: err=%v status=%d", err, rec.Code)
	}

	var resp PlanResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp.ID
}

func TestPayInstallment_ThenConflict(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, customerRepo := newInstallmentHandler(t, now)
	planID := createPlanForTest(t, h, customerRepo)

	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans/"+planID+"/installments/1/pay", "", 1)
	c.SetParamNames("id", "number")
	c.SetParamValues(planID, "1")

	if err := h.PayInstallment(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var paid InstallmentResponse
	json.Unmarshal(rec.Body.Bytes(), &paid)
	if paid.Status != "paid" || paid.PaidAt == nil {
		t.Errorf("Expected paid installment with PaidAt, got %+v", paid)
	}

	// Paying again conflicts
	c2, rec2 := setupStoreContext(http.MethodPost, "/api/v1/plans/"+planID+"/installments/1/pay", "", 1)
	c2.SetParamNames("id", "number")
	c2.SetParamValues(planID, "1")

	h.PayInstallment(c2)
	if rec2.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec2.Code)
	}
}

func TestPayInstallment_UnknownNumber(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, customerRepo := newInstallmentHandler(t, now)
	planID := createPlanForTest(t, h, customerRepo)

	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans/"+planID+"/installments/9/pay", "", 1)
	c.SetParamNames("id", "number")
	c.SetParamValues(planID, "9")

	h.PayInstallment(c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestUpdateInstallmentValue_RejectsNonPositive(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, customerRepo := newInstallmentHandler(t, now)
	planID := createPlanForTest(t, h, customerRepo)

	c, rec := setupStoreContext(http.MethodPut, "/api/v1/plans/"+planID+"/installments/1", `{"value": "0"}`, 1)
	c.SetParamNames("id", "number")
	c.SetParamValues(planID, "1")

	h.UpdateInstallmentValue(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateInstallmentValue_FreeForm(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, customerRepo := newInstallmentHandler(t, now)
	planID := createPlanForTest(t, h, customerRepo)

	c, rec := setupStoreContext(http.MethodPut, "/api/v1/plans/"+planID+"/installments/2", `{"value": "250.50"}`, 1)
	c.SetParamNames("id", "number")
	c.SetParamValues(planID, "2")

	if err := h.UpdateInstallmentValue(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated InstallmentResponse
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Value != "250.50" {
		t.Errorf("Expected value 250.50, got %s", updated.Value)
	}
}

func TestGetPlan_OverdueInstallmentSerializesAsOverdue(t *testing.T) {
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	planRepo := testutil.NewMockInstallmentPlanRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Maria Souza"})

	svc := service.NewInstallmentService(planRepo, customerRepo, testutil.FixedClock{Time: created}, &testutil.MockReminderSender{}, &websocket.NoOpPublisher{})
	h := NewInstallmentHandler(svc, nil)

	body := `{
		"customerId": 1,
		"productName": "iPhone 13",
		"totalValue": "600",
		"installmentCount": 3,
		"frequency": "monthly"
	}`
	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans", body, 1)
	if err := h.CreatePlan(c); err != nil || rec.Code != http.StatusCreated {
		t.Fatalf("Failed to create plan: err=%v status=%d", err, rec.Code)
	}
	var createdPlan PlanResponse
	json.Unmarshal(rec.Body.Bytes(), &createdPlan)

	// Six weeks on, the first installment is past due while the stored
	// status is still pending
	lateSvc := service.NewInstallmentService(planRepo, customerRepo, testutil.FixedClock{Time: created.AddDate(0, 0, 42)}, &testutil.MockReminderSender{}, &websocket.NoOpPublisher{})
	lateHandler := NewInstallmentHandler(lateSvc, nil)

	c2, rec2 := setupStoreContext(http.MethodGet, "/api/v1/plans/"+createdPlan.ID, "", 1)
	c2.SetParamNames("id")
	c2.SetParamValues(createdPlan.ID)

	if err := lateHandler.GetPlan(c2); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec2.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec2.Code, rec2.Body.String())
	}

	var fetched PlanResponse
	json.Unmarshal(rec2.Body.Bytes(), &fetched)
	if fetched.Installments[0].Status != "overdue" {
		t.Errorf("Expected first installment reported as overdue, got %s", fetched.Installments[0].Status)
	}
	if fetched.Installments[2].Status != "pending" {
		t.Errorf("Expected future installment reported as pending, got %s", fetched.Installments[2].Status)
	}
	if !fetched.Summary.Delinquent {
		t.Error("Expected plan classified delinquent")
	}
}

func TestSendReminder_NothingOverdueConflicts(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, customerRepo := newInstallmentHandler(t, now)
	planID := createPlanForTest(t, h, customerRepo)

	c, rec := setupStoreContext(http.MethodPost, "/api/v1/plans/"+planID+"/reminder", "", 1)
	c.SetParamNames("id")
	c.SetParamValues(planID)

	h.SendReminder(c)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestGetPlan_NotFound(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, _ := newInstallmentHandler(t, now)

	c, rec := setupStoreContext(http.MethodGet, "/api/v1/plans/8a2d1b34-0000-0000-0000-000000000000", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("8a2d1b34-0000-0000-0000-000000000000")

	h.GetPlan(c)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetPlan_InvalidID(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	h, _ := newInstallmentHandler(t, now)

	c, rec := setupStoreContext(http.MethodGet, "/api/v1/plans/not-a-uuid", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	h.GetPlan(c)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
