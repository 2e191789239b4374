package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"admitpredict/internal/model"
	"admitpredict/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc    *OrderService
	orders *fakeOrderStore
	users  *fakeUserStore
	outbox *fakeOutboxStore
	gw     *fakeGateway
}

func newOrderFixture() *orderFixture {
	users := newFakeUserStore()
	orders := newFakeOrderStore()
	outbox := &fakeOutboxStore{}
	gw := &fakeGateway{secret: testSecret, keyID: "rzp_test_key"}
	return &orderFixture{
		svc:    NewOrderService(orders, users, outbox, gw, "payment-events"),
		orders: orders,
		users:  users,
		outbox: outbox,
		gw:     gw,
	}
}

func validOrderRequest(userID int64) *CreateOrderRequest {
	return &CreateOrderRequest{
		UserID:     userID,
		UserName:   "Asha",
		UserEmail:  "asha@example.com",
		UserMobile: "9876543210",
		Credits:    200,
		Amount:     23600,
		BaseAmount: 20000,
		TaxAmount:  3600,
	}
}

func TestCreateOrder_PersistsPendingRow(t *testing.T) {
	f := newOrderFixture()
	userID := f.users.addUser(0)

	resp, err := f.svc.CreateOrder(context.Background(), validOrderRequest(userID))

	require.NoError(t, err)
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, "rzp_test_key", resp.KeyID)
	assert.Equal(t, "INR", resp.Currency)
	assert.Contains(t, resp.Receipt, "RCPT")
	assert.LessOrEqual(t, len(resp.Receipt), 40)

	stored, err := f.orders.GetByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCreated, stored.Status)
	assert.Equal(t, int64(200), stored.RequestedCredits)
	assert.Equal(t, int64(23600), stored.Amount)
	assert.Equal(t, int64(20000), stored.BaseAmount)
	assert.Equal(t, int64(3600), stored.TaxAmount)
}

func TestCreateOrder_MissingUserIDRejectedBeforeGatewayCall(t *testing.T) {
	f := newOrderFixture()

	req := validOrderRequest(0)
	_, err := f.svc.CreateOrder(context.Background(), req)

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, f.gw.createCalls())
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrder_ValidationMatrix(t *testing.T) {
	f := newOrderFixture()
	userID := f.users.addUser(0)

	mutations := map[string]func(*CreateOrderRequest){
		"empty name":          func(r *CreateOrderRequest) { r.UserName = "" },
		"empty email":         func(r *CreateOrderRequest) { r.UserEmail = "" },
		"empty mobile":        func(r *CreateOrderRequest) { r.UserMobile = "" },
		"zero credits":        func(r *CreateOrderRequest) { r.Credits = 0 },
		"zero amount":         func(r *CreateOrderRequest) { r.Amount = 0 },
		"mismatched tax sum":  func(r *CreateOrderRequest) { r.TaxAmount = 1 },
		"negative tax amount": func(r *CreateOrderRequest) { r.BaseAmount = 0; r.TaxAmount = -1 },
	}

	for name, mutate := range mutations {
		req := validOrderRequest(userID)
		mutate(req)
		_, err := f.svc.CreateOrder(context.Background(), req)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
	assert.Equal(t, 0, f.gw.createCalls())
}

func TestCreateOrder_UnknownUser(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.CreateOrder(context.Background(), validOrderRequest(42))

	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.Equal(t, 0, f.gw.createCalls())
}

func TestCreateOrder_GatewayErrorSurfacedNoRow(t *testing.T) {
	f := newOrderFixture()
	userID := f.users.addUser(0)
	f.gw.createErr = errors.New("BAD_REQUEST_ERROR: amount exceeds maximum")

	_, err := f.svc.CreateOrder(context.Background(), validOrderRequest(userID))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount exceeds maximum")
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrder_DefaultsBaseAmountToAmount(t *testing.T) {
	f := newOrderFixture()
	userID := f.users.addUser(0)

	req := validOrderRequest(userID)
	req.BaseAmount = 0
	req.TaxAmount = 0

	resp, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	stored, _ := f.orders.GetByOrderID(context.Background(), resp.OrderID)
	assert.Equal(t, stored.Amount, stored.BaseAmount)
	assert.Equal(t, int64(0), stored.TaxAmount)
}

func TestExpireStale_FailsOldCreatedOrders(t *testing.T) {
	f := newOrderFixture()
	userID := f.users.addUser(0)

	old := &model.PaymentOrder{OrderID: "order_old", UserID: userID, Status: model.OrderStatusCreated}
	f.orders.Create(context.Background(), old)
	f.orders.mu.Lock()
	f.orders.orders["order_old"].CreatedAt = time.Now().Add(-2 * time.Hour)
	f.orders.mu.Unlock()

	fresh := &model.PaymentOrder{OrderID: "order_fresh", UserID: userID, Status: model.OrderStatusCreated}
	f.orders.Create(context.Background(), fresh)

	done := &model.PaymentOrder{OrderID: "order_done", UserID: userID, Status: model.OrderStatusCompleted}
	f.orders.Create(context.Background(), done)

	expired, err := f.svc.ExpireStale(context.Background(), time.Hour, 100)

	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, _ := f.orders.GetByOrderID(context.Background(), "order_old")
	assert.Equal(t, model.OrderStatusFailed, stored.Status)
	stored, _ = f.orders.GetByOrderID(context.Background(), "order_fresh")
	assert.Equal(t, model.OrderStatusCreated, stored.Status)
	stored, _ = f.orders.GetByOrderID(context.Background(), "order_done")
	assert.Equal(t, model.OrderStatusCompleted, stored.Status)

	assert.Equal(t, 1, f.outbox.count())
}
