package service

import (
	"context"
	"crypto/hmac"
	"fmt"
	"strings"
	"sync"
	"time"

	"admitpredict/internal/gateway"
	"admitpredict/internal/model"
	"admitpredict/internal/repository"
)

// In-memory test doubles for the service-layer stores. The fakes keep
// the same atomicity contracts as the real repositories: AdjustCredits
// and MarkCompleted are conditional and mutex-guarded, so concurrency
// tests exercise real interleavings.

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64

	adjustErr error // forced error, when set
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*model.User)}
}

func (f *fakeUserStore) addUser(credits int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.users[f.nextID] = &model.User{ID: f.nextID, Credits: credits}
	return f.nextID
}

func (f *fakeUserStore) balance(userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID].Credits
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, userID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) AdjustCredits(_ context.Context, userID, delta int64) (int64, error) {
	if f.adjustErr != nil {
		return 0, f.adjustErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return 0, repository.ErrUserNotFound
	}
	if user.Credits+delta < 0 {
		return 0, repository.ErrInsufficientCredits
	}
	user.Credits += delta
	return user.Credits, nil
}

type fakeTransactionStore struct {
	mu        sync.Mutex
	rows      []*model.CreditTransaction
	appendErr error
}

func (f *fakeTransactionStore) Append(_ context.Context, trans *model.CreditTransaction) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *trans
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeTransactionStore) ListByUserID(_ context.Context, userID int64, _, _ int) ([]*model.CreditTransaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.CreditTransaction
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeTransactionStore) GetByPaymentID(_ context.Context, paymentID string) (*model.CreditTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.PaymentID == paymentID {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeTransactionStore) SumDeltasByUserID(_ context.Context, userID int64) (int64, error) {
	return f.sumDeltas(userID), nil
}

func (f *fakeTransactionStore) sumDeltas(userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, row := range f.rows {
		if row.UserID == userID {
			sum += row.CreditsDelta
		}
	}
	return sum
}

type fakeAlerts struct {
	mu    sync.Mutex
	calls []error
}

func (f *fakeAlerts) PublishAuditFailure(_ *model.CreditTransaction, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cause)
}

func (f *fakeAlerts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]*model.PaymentOrder

	createErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*model.PaymentOrder)}
}

func (f *fakeOrderStore) Create(_ context.Context, order *model.PaymentOrder) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *order
	copied.CreatedAt = time.Now()
	f.orders[order.OrderID] = &copied
	return nil
}

func (f *fakeOrderStore) GetByOrderID(_ context.Context, orderID string) (*model.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderStore) MarkCompleted(_ context.Context, orderID, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.Status != model.OrderStatusCreated {
		return false, nil
	}
	order.Status = model.OrderStatusCompleted
	order.PaymentID = paymentID
	return true, nil
}

func (f *fakeOrderStore) MarkFailed(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok || order.Status != model.OrderStatusCreated {
		return false, nil
	}
	order.Status = model.OrderStatusFailed
	return true, nil
}

func (f *fakeOrderStore) GetStaleCreated(_ context.Context, before time.Time, limit int) ([]*model.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PaymentOrder
	for _, order := range f.orders {
		if order.Status == model.OrderStatusCreated && order.CreatedAt.Before(before) {
			copied := *order
			out = append(out, &copied)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListByUserID(_ context.Context, userID int64, _, _ int) ([]*model.PaymentOrder, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PaymentOrder
	for _, order := range f.orders {
		if order.UserID == userID {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

type fakeOutboxStore struct {
	mu   sync.Mutex
	rows []*model.OutboxMessage
}

func (f *fakeOutboxStore) Create(_ context.Context, msg *model.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *msg
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeOutboxStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeLocker struct{}

func (fakeLocker) Lock(context.Context, string, string) error   { return nil }
func (fakeLocker) Unlock(context.Context, string, string) error { return nil }

type fakeGateway struct {
	mu        sync.Mutex
	secret    string
	keyID     string
	createErr error
	created   int
}

func (f *fakeGateway) CreateOrder(_ context.Context, _ int64, _, _ string, _ map[string]interface{}) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return fmt.Sprintf("order_fake%03d", f.created), nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	expected := gateway.Sign(orderID, paymentID, f.secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (f *fakeGateway) KeyID() string { return f.keyID }

func (f *fakeGateway) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

// fakeCutoffStore applies the filter semantics in memory, mirroring the
// SQL the real repository generates.
type fakeCutoffStore struct {
	rows       []*model.CutoffRecord
	err        error
	lastFilter model.CutoffFilter
}

func (f *fakeCutoffStore) Search(_ context.Context, filter model.CutoffFilter) ([]*model.CutoffRecord, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.CutoffRecord
	for _, row := range f.rows {
		if row.AcademicYear != filter.AcademicYear {
			continue
		}
		if row.ClosingRank > filter.MaxClosingRank || row.OpeningRank < filter.MinOpeningRank {
			continue
		}
		if filter.SeatType != "" && row.SeatType != filter.SeatType {
			continue
		}
		if filter.Gender != "" && row.Gender != filter.Gender {
			continue
		}
		if filter.ExcludeReserved {
			name := strings.ToLower(row.Institute)
			if strings.EqualFold(row.InstituteType, "IIT") ||
				strings.Contains(name, "indian institute of technology") ||
				strings.Contains(name, "iit") {
				continue
			}
		}
		out = append(out, row)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
