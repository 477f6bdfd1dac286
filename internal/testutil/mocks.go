package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/integration/viacep"
)

// FixedClock is a Clock pinned to a single instant
type FixedClock struct {
	Time time.Time
}

// Now returns the pinned instant
func (c FixedClock) Now() time.Time {
	return c.Time
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users map[string]*domain.User
	ByID  map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:        uuid.New(),
		Auth0ID:   auth0ID,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// MockStoreRepository is a mock implementation of domain.StoreRepository.
// Auth0Owners links Auth0 subjects to owner user IDs for the
// GetByUserAuth0ID join the real repository does in SQL.
type MockStoreRepository struct {
	Stores      map[int32]*domain.Store
	Auth0Owners map[string]uuid.UUID
	nextID      int32
}

// NewMockStoreRepository creates a new MockStoreRepository
func NewMockStoreRepository() *MockStoreRepository {
	return &MockStoreRepository{
		Stores:      make(map[int32]*domain.Store),
		Auth0Owners: make(map[string]uuid.UUID),
	}
}

// GetByID retrieves a store by ID
func (m *MockStoreRepository) GetByID(id int32) (*domain.Store, error) {
	if store, ok := m.Stores[id]; ok {
		return store, nil
	}
	return nil, domain.ErrStoreNotFound
}

// GetByUserID retrieves a store by owner user ID
func (m *MockStoreRepository) GetByUserID(userID uuid.UUID) (*domain.Store, error) {
	for _, store := range m.Stores {
		if store.UserID == userID {
			return store, nil
		}
	}
	return nil, domain.ErrStoreNotFound
}

// GetByUserAuth0ID retrieves a store through the Auth0Owners link
func (m *MockStoreRepository) GetByUserAuth0ID(auth0ID string) (*domain.Store, error) {
	userID, ok := m.Auth0Owners[auth0ID]
	if !ok {
		return nil, domain.ErrStoreNotFound
	}
	return m.GetByUserID(userID)
}

// Create creates a new store
func (m *MockStoreRepository) Create(store *domain.Store) (*domain.Store, error) {
	m.nextID++
	store.ID = m.nextID
	store.CreatedAt = time.Now()
	m.Stores[store.ID] = store
	return store, nil
}

// MockCustomerRepository is a mock implementation of domain.CustomerRepository
type MockCustomerRepository struct {
	Customers map[int32]*domain.Customer
	nextID    int32
}

// NewMockCustomerRepository creates a new MockCustomerRepository
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{Customers: make(map[int32]*domain.Customer)}
}

// Create creates a new customer
func (m *MockCustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	m.nextID++
	customer.ID = m.nextID
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	m.Customers[customer.ID] = customer
	return customer, nil
}

// GetByID retrieves a customer by ID within a store
func (m *MockCustomerRepository) GetByID(storeID int32, id int32) (*domain.Customer, error) {
	customer, ok := m.Customers[id]
	if !ok || customer.StoreID != storeID || customer.DeletedAt != nil {
		return nil, domain.ErrCustomerNotFound
	}
	return customer, nil
}

// GetAllByStore retrieves all customers for a store
func (m *MockCustomerRepository) GetAllByStore(storeID int32) ([]*domain.Customer, error) {
	var out []*domain.Customer
	for _, customer := range m.Customers {
		if customer.StoreID == storeID && customer.DeletedAt == nil {
			out = append(out, customer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Search retrieves customers matching the query on name or phone
func (m *MockCustomerRepository) Search(storeID int32, query string) ([]*domain.Customer, error) {
	all, _ := m.GetAllByStore(storeID)
	query = strings.ToLower(query)
	var out []*domain.Customer
	for _, customer := range all {
		if strings.Contains(strings.ToLower(customer.Name), query) {
			out = append(out, customer)
			continue
		}
		if customer.Phone != nil && strings.Contains(*customer.Phone, query) {
			out = append(out, customer)
		}
	}
	return out, nil
}

// Update updates an existing customer
func (m *MockCustomerRepository) Update(customer *domain.Customer) (*domain.Customer, error) {
	existing, ok := m.Customers[customer.ID]
	if !ok || existing.StoreID != customer.StoreID || existing.DeletedAt != nil {
		return nil, domain.ErrCustomerNotFound
	}
	customer.CreatedAt = existing.CreatedAt
	customer.UpdatedAt = time.Now()
	m.Customers[customer.ID] = customer
	return customer, nil
}

// SoftDelete marks a customer as deleted
func (m *MockCustomerRepository) SoftDelete(storeID int32, id int32) error {
	customer, ok := m.Customers[id]
	if !ok || customer.StoreID != storeID || customer.DeletedAt != nil {
		return domain.ErrCustomerNotFound
	}
	now := time.Now()
	customer.DeletedAt = &now
	return nil
}

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	Products map[int32]*domain.Product
	nextID   int32
}

// NewMockProductRepository creates a new MockProductRepository
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{Products: make(map[int32]*domain.Product)}
}

// Create creates a new product
func (m *MockProductRepository) Create(product *domain.Product) (*domain.Product, error) {
	m.nextID++
	product.ID = m.nextID
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	m.Products[product.ID] = product
	return product, nil
}

// GetByID retrieves a product by ID within a store
func (m *MockProductRepository) GetByID(storeID int32, id int32) (*domain.Product, error) {
	product, ok := m.Products[id]
	if !ok || product.StoreID != storeID || product.DeletedAt != nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// GetAllByStore retrieves all products for a store
func (m *MockProductRepository) GetAllByStore(storeID int32) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, product := range m.Products {
		if product.StoreID == storeID && product.DeletedAt == nil {
			out = append(out, product)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Search retrieves products matching the query on name, brand or barcode
func (m *MockProductRepository) Search(storeID int32, query string) ([]*domain.Product, error) {
	all, _ := m.GetAllByStore(storeID)
	query = strings.ToLower(query)
	var out []*domain.Product
	for _, product := range all {
		if strings.Contains(strings.ToLower(product.Name), query) {
			out = append(out, product)
		}
	}
	return out, nil
}

// GetLowStock retrieves products at or below their minimum stock
func (m *MockProductRepository) GetLowStock(storeID int32) ([]*domain.Product, error) {
	all, _ := m.GetAllByStore(storeID)
	var out []*domain.Product
	for _, product := range all {
		if product.Stock <= product.MinStock {
			out = append(out, product)
		}
	}
	return out, nil
}

// Update updates an existing product
func (m *MockProductRepository) Update(product *domain.Product) (*domain.Product, error) {
	existing, ok := m.Products[product.ID]
	if !ok || existing.StoreID != product.StoreID || existing.DeletedAt != nil {
		return nil, domain.ErrProductNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	m.Products[product.ID] = product
	return product, nil
}

// AdjustStock applies a signed delta, refusing to go below zero
func (m *MockProductRepository) AdjustStock(storeID int32, id int32, delta int32) (*domain.Product, error) {
	product, err := m.GetByID(storeID, id)
	if err != nil {
		return nil, err
	}
	if product.Stock+delta < 0 {
		return nil, domain.ErrInsufficientStock
	}
	product.Stock += delta
	product.UpdatedAt = time.Now()
	return product, nil
}

// SoftDelete marks a product as deleted
func (m *MockProductRepository) SoftDelete(storeID int32, id int32) error {
	product, ok := m.Products[id]
	if !ok || product.StoreID != storeID || product.DeletedAt != nil {
		return domain.ErrProductNotFound
	}
	now := time.Now()
	product.DeletedAt = &now
	return nil
}

// MockServiceOrderRepository is a mock implementation of domain.ServiceOrderRepository
type MockServiceOrderRepository struct {
	Orders map[int32]*domain.ServiceOrder
	nextID int32
}

// NewMockServiceOrderRepository creates a new MockServiceOrderRepository
func NewMockServiceOrderRepository() *MockServiceOrderRepository {
	return &MockServiceOrderRepository{Orders: make(map[int32]*domain.ServiceOrder)}
}

// Create creates a new service order
func (m *MockServiceOrderRepository) Create(order *domain.ServiceOrder) (*domain.ServiceOrder, error) {
	m.nextID++
	order.ID = m.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	m.Orders[order.ID] = order
	return order, nil
}

// GetByID retrieves a service order by ID within a store
func (m *MockServiceOrderRepository) GetByID(storeID int32, id int32) (*domain.ServiceOrder, error) {
	order, ok := m.Orders[id]
	if !ok || order.StoreID != storeID {
		return nil, domain.ErrServiceOrderNotFound
	}
	return order, nil
}

// GetAllByStore retrieves all service orders for a store
func (m *MockServiceOrderRepository) GetAllByStore(storeID int32) ([]*domain.ServiceOrder, error) {
	var out []*domain.ServiceOrder
	for _, order := range m.Orders {
		if order.StoreID == storeID {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByStatus retrieves service orders in the given status
func (m *MockServiceOrderRepository) GetByStatus(storeID int32, status domain.ServiceOrderStatus) ([]*domain.ServiceOrder, error) {
	all, _ := m.GetAllByStore(storeID)
	var out []*domain.ServiceOrder
	for _, order := range all {
		if order.Status == status {
			out = append(out, order)
		}
	}
	return out, nil
}

// Update updates an existing service order
func (m *MockServiceOrderRepository) Update(order *domain.ServiceOrder) (*domain.ServiceOrder, error) {
	existing, ok := m.Orders[order.ID]
	if !ok || existing.StoreID != order.StoreID {
		return nil, domain.ErrServiceOrderNotFound
	}
	order.CreatedAt = existing.CreatedAt
	order.UpdatedAt = time.Now()
	m.Orders[order.ID] = order
	return order, nil
}

// MockSaleRepository is a mock implementation of domain.SaleRepository.
// Create fails with the configured error before persisting anything,
// mirroring the transactional all-or-nothing of the real repository.
type MockSaleRepository struct {
	Sales     map[int32]*domain.Sale
	CreateErr error
	nextID    int32
}

// NewMockSaleRepository creates a new MockSaleRepository
func NewMockSaleRepository() *MockSaleRepository {
	return &MockSaleRepository{Sales: make(map[int32]*domain.Sale)}
}

// Create creates a new sale with its items
func (m *MockSaleRepository) Create(sale *domain.Sale) (*domain.Sale, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	sale.ID = m.nextID
	sale.CreatedAt = time.Now()
	for i, item := range sale.Items {
		item.ID = int32(i + 1)
		item.SaleID = sale.ID
	}
	m.Sales[sale.ID] = sale
	return sale, nil
}

// GetByID retrieves a sale by ID within a store
func (m *MockSaleRepository) GetByID(storeID int32, id int32) (*domain.Sale, error) {
	sale, ok := m.Sales[id]
	if !ok || sale.StoreID != storeID {
		return nil, domain.ErrSaleNotFound
	}
	return sale, nil
}

// GetAllByStore retrieves all sales for a store
func (m *MockSaleRepository) GetAllByStore(storeID int32) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for _, sale := range m.Sales {
		if sale.StoreID == storeID {
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByMonth retrieves sales created within the given month
func (m *MockSaleRepository) GetByMonth(storeID int32, year, month int) ([]*domain.Sale, error) {
	all, _ := m.GetAllByStore(storeID)
	var out []*domain.Sale
	for _, sale := range all {
		if sale.CreatedAt.Year() == year && int(sale.CreatedAt.Month()) == month {
			out = append(out, sale)
		}
	}
	return out, nil
}

// MockInstallmentPlanRepository is a mock implementation of
// domain.InstallmentPlanRepository
type MockInstallmentPlanRepository struct {
	Plans     map[uuid.UUID]*domain.InstallmentPlan
	CreateErr error
}

// NewMockInstallmentPlanRepository creates a new MockInstallmentPlanRepository
func NewMockInstallmentPlanRepository() *MockInstallmentPlanRepository {
	return &MockInstallmentPlanRepository{Plans: make(map[uuid.UUID]*domain.InstallmentPlan)}
}

// Create creates a plan with its installment schedule
func (m *MockInstallmentPlanRepository) Create(plan *domain.InstallmentPlan) (*domain.InstallmentPlan, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	for i, inst := range plan.Installments {
		inst.ID = int32(i + 1)
		inst.PlanID = plan.ID
	}
	m.Plans[plan.ID] = plan
	return plan, nil
}

// GetByID retrieves a plan by ID within a store
func (m *MockInstallmentPlanRepository) GetByID(storeID int32, id uuid.UUID) (*domain.InstallmentPlan, error) {
	plan, ok := m.Plans[id]
	if !ok || plan.StoreID != storeID {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

// GetAllByStore retrieves all plans for a store
func (m *MockInstallmentPlanRepository) GetAllByStore(storeID int32) ([]*domain.InstallmentPlan, error) {
	var out []*domain.InstallmentPlan
	for _, plan := range m.Plans {
		if plan.StoreID == storeID {
			out = append(out, plan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetByCustomer retrieves all plans for a customer
func (m *MockInstallmentPlanRepository) GetByCustomer(storeID int32, customerID int32) ([]*domain.InstallmentPlan, error) {
	all, _ := m.GetAllByStore(storeID)
	var out []*domain.InstallmentPlan
	for _, plan := range all {
		if plan.CustomerID == customerID {
			out = append(out, plan)
		}
	}
	return out, nil
}

// MarkInstallmentPaid pays a pending installment, rejecting repeats
func (m *MockInstallmentPlanRepository) MarkInstallmentPaid(planID uuid.UUID, number int32, paidAt time.Time) (*domain.Installment, error) {
	plan, ok := m.Plans[planID]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	inst := plan.Installment(number)
	if inst == nil {
		return nil, domain.ErrInstallmentNotFound
	}
	if inst.Status == domain.InstallmentPaid {
		return nil, domain.ErrInstallmentAlreadyPaid
	}
	inst.Status = domain.InstallmentPaid
	inst.PaidAt = &paidAt
	inst.UpdatedAt = paidAt
	return inst, nil
}

// UpdateInstallmentValue corrects one installment's value
func (m *MockInstallmentPlanRepository) UpdateInstallmentValue(planID uuid.UUID, number int32, value decimal.Decimal) (*domain.Installment, error) {
	plan, ok := m.Plans[planID]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	inst := plan.Installment(number)
	if inst == nil {
		return nil, domain.ErrInstallmentNotFound
	}
	inst.Value = value
	inst.UpdatedAt = time.Now()
	return inst, nil
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	nextID       int32
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{Transactions: make(map[int32]*domain.Transaction)}
}

// Create creates a new ledger entry
func (m *MockTransactionRepository) Create(tx *domain.Transaction) (*domain.Transaction, error) {
	m.nextID++
	tx.ID = m.nextID
	tx.CreatedAt = time.Now()
	m.Transactions[tx.ID] = tx
	return tx, nil
}

// GetByID retrieves a ledger entry by ID within a store
func (m *MockTransactionRepository) GetByID(storeID int32, id int32) (*domain.Transaction, error) {
	tx, ok := m.Transactions[id]
	if !ok || tx.StoreID != storeID {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

// GetByMonth retrieves ledger entries within the given month
func (m *MockTransactionRepository) GetByMonth(storeID int32, year, month int) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, tx := range m.Transactions {
		if tx.StoreID == storeID && tx.OccurredAt.Year() == year && int(tx.OccurredAt.Month()) == month {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes a ledger entry
func (m *MockTransactionRepository) Delete(storeID int32, id int32) error {
	tx, ok := m.Transactions[id]
	if !ok || tx.StoreID != storeID {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// MockStoreProfileRepository is a mock implementation of domain.StoreProfileRepository
type MockStoreProfileRepository struct {
	Profiles map[int32]*domain.StoreProfile
}

// NewMockStoreProfileRepository creates a new MockStoreProfileRepository
func NewMockStoreProfileRepository() *MockStoreProfileRepository {
	return &MockStoreProfileRepository{Profiles: make(map[int32]*domain.StoreProfile)}
}

// Get retrieves a store's profile
func (m *MockStoreProfileRepository) Get(storeID int32) (*domain.StoreProfile, error) {
	if profile, ok := m.Profiles[storeID]; ok {
		return profile, nil
	}
	return nil, domain.ErrNotFound
}

// Upsert creates or replaces a store's profile
func (m *MockStoreProfileRepository) Upsert(profile *domain.StoreProfile) (*domain.StoreProfile, error) {
	profile.UpdatedAt = time.Now()
	m.Profiles[profile.StoreID] = profile
	return profile, nil
}

// MockCEPLookup is a mock CEP resolver
type MockCEPLookup struct {
	Addresses map[string]*viacep.Address
	Err       error
}

// NewMockCEPLookup creates a new MockCEPLookup
func NewMockCEPLookup() *MockCEPLookup {
	return &MockCEPLookup{Addresses: make(map[string]*viacep.Address)}
}

// Lookup resolves a postal code from the fixture map
func (m *MockCEPLookup) Lookup(ctx context.Context, cep string) (*viacep.Address, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if address, ok := m.Addresses[cep]; ok {
		return address, nil
	}
	return nil, viacep.ErrCEPNotFound
}

// SentReminder records one reminder delivery
type SentReminder struct {
	To           string
	CustomerName string
	ProductName  string
	Number       int32
	Value        decimal.Decimal
	DueDate      time.Time
}

// MockReminderSender records overdue reminders instead of sending email
type MockReminderSender struct {
	Sent []SentReminder
	Err  error
}

// SendOverdueReminder records the reminder
func (m *MockReminderSender) SendOverdueReminder(to, customerName, productName string, number int32, value decimal.Decimal, dueDate time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentReminder{
		To:           to,
		CustomerName: customerName,
		ProductName:  productName,
		Number:       number,
		Value:        value,
		DueDate:      dueDate,
	})
	return nil
}

// MockDiagnoser returns canned diagnosis text
type MockDiagnoser struct {
	Text string
	Err  error
}

// Diagnose returns the canned text
func (m *MockDiagnoser) Diagnose(ctx context.Context, device, problem string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Text != "" {
		return m.Text, nil
	}
	return fmt.Sprintf("Diagnóstico para %s: %s", device, problem), nil
}

// MockPhotoRepository stores uploads in memory
type MockPhotoRepository struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

// NewMockPhotoRepository creates a new MockPhotoRepository
func NewMockPhotoRepository() *MockPhotoRepository {
	return &MockPhotoRepository{Objects: make(map[string][]byte)}
}

// Upload stores the object in memory
func (m *MockPhotoRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf.Bytes()
	return objectPath, nil
}

// Delete removes the object
func (m *MockPhotoRepository) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for the object
func (m *MockPhotoRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "https://storage.test/" + objectPath, nil
}
