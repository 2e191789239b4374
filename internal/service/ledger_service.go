package service

import (
	"context"
	"errors"
	"log"

	"admitpredict/internal/model"
	"admitpredict/pkg/idgen"
)

var ErrInvalidAmount = errors.New("amount must be a positive number of credits")

// UserStore is the slice of user persistence the ledger consumes.
// AdjustCredits must be atomic and conditionally guarded server-side:
// it either applies the full delta or, when the delta would take the
// balance below zero, applies nothing.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, userID int64) (*model.User, error)
	AdjustCredits(ctx context.Context, userID, delta int64) (int64, error)
}

// TransactionStore is the append-only audit log. GetByPaymentID and
// SumDeltasByUserID back the reconciliation surface: the former finds
// the row a gateway payment produced, the latter replays the log.
type TransactionStore interface {
	Append(ctx context.Context, trans *model.CreditTransaction) error
	ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.CreditTransaction, int64, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*model.CreditTransaction, error)
	SumDeltasByUserID(ctx context.Context, userID int64) (int64, error)
}

// AlertPublisher carries audit-log write failures to the operational
// alerting channel. Implementations must not block the request path.
type AlertPublisher interface {
	PublishAuditFailure(trans *model.CreditTransaction, cause error)
}

// Ledger is the boundary callers see: post a credit or a debit, get the
// new balance back.
type Ledger interface {
	Credit(ctx context.Context, userID, amount int64, transactionType, paymentID string) (int64, error)
	Debit(ctx context.Context, userID, amount int64, transactionType string) (int64, error)
}

// LedgerService is the authoritative owner of users.credits. Balance
// mutations happen as one conditional update; the audit append that
// follows is best-effort and independent: a failed append never rolls
// back committed money movement, it raises an alert for out-of-band
// reconciliation instead.
type LedgerService struct {
	users  UserStore
	txns   TransactionStore
	alerts AlertPublisher
}

func NewLedgerService(users UserStore, txns TransactionStore, alerts AlertPublisher) *LedgerService {
	return &LedgerService{
		users:  users,
		txns:   txns,
		alerts: alerts,
	}
}

// Credit adds amount to the user's balance and appends a positive-delta
// log row.
func (s *LedgerService) Credit(ctx context.Context, userID, amount int64, transactionType, paymentID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.users.AdjustCredits(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	s.appendLog(ctx, userID, amount, transactionType, paymentID)
	return balance, nil
}

// Debit subtracts amount from the user's balance. When the balance is
// lower than amount the call fails with ErrInsufficientCredits and no
// state changes.
func (s *LedgerService) Debit(ctx context.Context, userID, amount int64, transactionType string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.users.AdjustCredits(ctx, userID, -amount)
	if err != nil {
		return 0, err
	}

	s.appendLog(ctx, userID, -amount, transactionType, "")
	return balance, nil
}

// appendLog writes the audit row for an already-committed balance
// mutation. The append is deliberately outside the mutation's
// transaction scope; on failure the discrepancy goes to the alert
// channel, never silently dropped.
func (s *LedgerService) appendLog(ctx context.Context, userID, delta int64, transactionType, paymentID string) {
	trans := &model.CreditTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        userID,
		CreditsDelta:  delta,
		Type:          transactionType,
		PaymentID:     paymentID,
	}

	if err := s.txns.Append(ctx, trans); err != nil {
		log.Printf("[Ledger] audit append failed after committed balance change: userID=%d delta=%d type=%s err=%v",
			userID, delta, transactionType, err)
		s.alerts.PublishAuditFailure(trans, err)
	}
}

// Register provisions a user with a zero balance.
func (s *LedgerService) Register(ctx context.Context, name, email, mobile string) (*model.User, error) {
	user := &model.User{
		Name:   name,
		Email:  email,
		Mobile: mobile,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetBalance reads the fast-path balance cache.
func (s *LedgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

// ListTransactions pages through a user's ledger history.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, page, pageSize int) ([]*model.CreditTransaction, int64, error) {
	return s.txns.ListByUserID(ctx, userID, page, pageSize)
}

// ReconciliationReport compares the balance cache against a full replay
// of the user's audit log.
type ReconciliationReport struct {
	UserID     int64 `json:"user_id"`
	Credits    int64 `json:"credits"`
	LogSum     int64 `json:"log_sum"`
	Consistent bool  `json:"consistent"`
}

// Reconcile replays the user's audit log and checks it against the
// balance field. A mismatch means an audit append was lost after a
// committed balance change; the alert channel should already carry the
// failed row.
func (s *LedgerService) Reconcile(ctx context.Context, userID int64) (*ReconciliationReport, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum, err := s.txns.SumDeltasByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		UserID:     userID,
		Credits:    user.Credits,
		LogSum:     sum,
		Consistent: user.Credits == sum,
	}
	if !report.Consistent {
		log.Printf("[Ledger] reconciliation mismatch: userID=%d credits=%d logSum=%d",
			userID, user.Credits, sum)
	}
	return report, nil
}

// FindPaymentTransaction looks up the ledger row a gateway payment
// produced. A nil row means the credit never posted and the completed
// order should be replayed.
func (s *LedgerService) FindPaymentTransaction(ctx context.Context, paymentID string) (*model.CreditTransaction, error) {
	return s.txns.GetByPaymentID(ctx, paymentID)
}
