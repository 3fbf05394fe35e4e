package controllers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"payment-gateway/controllers"
	"payment-gateway/models"
	"payment-gateway/repository"
	"payment-gateway/routes"
	"payment-gateway/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// ---- in-memory order repository ----

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	finds  int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (m *memOrderRepo) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) SetInvoiceID(_ context.Context, id uuid.UUID, invoiceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		o.InvoiceID = &invoiceID
	}
	return nil
}

func (m *memOrderRepo) CompleteIfPending(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusComplete
	return true, nil
}

func (m *memOrderRepo) AppendNote(_ context.Context, id uuid.UUID, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		o.Notes += note
	}
	return nil
}

// ---- harness ----

const testAPIKey = "testkey"

func newTestRouter(repo repository.OrderRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	gateway := services.NewUddoktaPayClient(testAPIKey, "https://pay.example.com")
	reconciler := services.NewReconciler(repo, nil, nil, "", logger)
	checkout := services.NewCheckoutService(repo, gateway, services.CheckoutSettings{
		StoreCurrency: "BDT",
		ExchangeRate:  1,
		PublicBaseURL: "https://shop.example.com",
	}, logger)

	r := gin.New()
	routes.RegisterRoutes(r, &controllers.CheckoutController{
		Checkout:   checkout,
		Gateway:    gateway,
		Reconciler: reconciler,
		Frontend:   "http://localhost:3000",
		Logger:     logger,
	})
	return r
}

func seedPendingOrder(repo *memOrderRepo) *models.Order {
	o := &models.Order{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Email:    "buyer@example.com",
		Amount:   100,
		Currency: "BDT",
		Status:   models.OrderStatusPending,
	}
	repo.Create(context.Background(), o)
	return o
}

func notificationBody(orderID uuid.UUID) string {
	return fmt.Sprintf(`{
		"invoice_id": "INV123",
		"status": "COMPLETED",
		"metadata": {"order_id": %q}
	}`, orderID.String())
}

// ---- tests ----

func TestWebhook_RejectsUnauthenticatedBeforeOrderLookup(t *testing.T) {
	repo := newMemOrderRepo()
	router := newTestRouter(repo)
	order := seedPendingOrder(repo)

	req := httptest.NewRequest(http.MethodPost, "/payments/confirmation?payment-confirmation=uddoktapay_ipn",
		strings.NewReader(notificationBody(order.ID)))
	req.Header.Set("RT-UDDOKTAPAY-API-KEY", "forged")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, repo.finds) // rejected before any order lookup
	assert.Equal(t, models.OrderStatusPending, repo.orders[order.ID].Status)
}

func TestWebhook_CompletesPendingOrder(t *testing.T) {
	repo := newMemOrderRepo()
	router := newTestRouter(repo)
	order := seedPendingOrder(repo)

	req := httptest.NewRequest(http.MethodPost, "/payments/confirmation?payment-confirmation=uddoktapay_ipn",
		strings.NewReader(notificationBody(order.ID)))
	req.Header.Set("RT-UDDOKTAPAY-API-KEY", testAPIKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(services.OutcomeCompleted))
	assert.Equal(t, models.OrderStatusComplete, repo.orders[order.ID].Status)
}

func TestWebhook_DuplicateIsNoOp(t *testing.T) {
	repo := newMemOrderRepo()
	router := newTestRouter(repo)
	order := seedPendingOrder(repo)

	for i, want := range []services.Outcome{services.OutcomeCompleted, services.OutcomeAlreadyResolved} {
		req := httptest.NewRequest(http.MethodPost, "/payments/confirmation?payment-confirmation=uddoktapay_ipn",
			strings.NewReader(notificationBody(order.ID)))
		req.Header.Set("RT-UDDOKTAPAY-API-KEY", testAPIKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "call %d", i+1)
		assert.Contains(t, w.Body.String(), string(want), "call %d", i+1)
	}
	assert.Equal(t, models.OrderStatusComplete, repo.orders[order.ID].Status)
}

// brokenRepo fails every order lookup with a storage error.
type brokenRepo struct {
	*memOrderRepo
}

func (b *brokenRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestWebhook_StorageFailureAnswersNon2xx(t *testing.T) {
	repo := newMemOrderRepo()
	router := newTestRouter(&brokenRepo{memOrderRepo: repo})
	order := seedPendingOrder(repo)

	req := httptest.NewRequest(http.MethodPost, "/payments/confirmation?payment-confirmation=uddoktapay_ipn",
		strings.NewReader(notificationBody(order.ID)))
	req.Header.Set("RT-UDDOKTAPAY-API-KEY", testAPIKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Non-2xx so UddoktaPay retries; the order must stay pending.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, models.OrderStatusPending, repo.orders[order.ID].Status)
}

func TestConfirmation_CancelLeavesOrderUntouched(t *testing.T) {
	repo := newMemOrderRepo()
	router := newTestRouter(repo)
	order := seedPendingOrder(repo)

	req := httptest.NewRequest(http.MethodGet, "/payments/confirmation?payment-confirmation=uddoktapay_cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "http://localhost:3000/checkout", w.Header().Get("Location"))
	assert.Equal(t, models.OrderStatusPending, repo.orders[order.ID].Status)
}

func TestInitiate_RequiresAuth(t *testing.T) {
	repo := newMemOrderRepo()
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/checkout/initiate",
		strings.NewReader(`{"full_name":"Rahim Uddin","email":"rahim@example.com","amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, repo.orders)
}

func TestInitiate_RejectsMalformedUserID(t *testing.T) {
	repo := newMemOrderRepo()
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/checkout/initiate",
		strings.NewReader(`{"full_name":"Rahim Uddin","email":"rahim@example.com","amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "not-a-uuid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, repo.orders)
}
