package handler

import (
	"errors"
	"strconv"

	"admitpredict/internal/config"
	"admitpredict/internal/gateway"
	"admitpredict/internal/infrastructure/lock"
	"admitpredict/internal/infrastructure/mq"
	"admitpredict/internal/model"
	"admitpredict/internal/repository"
	"admitpredict/internal/service"
	"admitpredict/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler bundles the service dependencies behind the HTTP surface.
type Handler struct {
	ledgerService    *service.LedgerService
	orderService     *service.OrderService
	verifyService    *service.VerifyService
	bookingService   *service.BookingService
	predictorService *service.PredictorService
}

func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	userRepo := repository.NewUserRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cutoffRepo := repository.NewCutoffRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	gw := gateway.NewRazorpayGateway(&cfg.Razorpay)
	alerts := mq.NewLedgerAlertPublisher(cfg.Kafka.Topic.LedgerAlerts)
	locker := lock.NewRedisLocker(rdb)

	ledger := service.NewLedgerService(userRepo, txnRepo, alerts)

	return &Handler{
		ledgerService:    ledger,
		orderService:     service.NewOrderService(orderRepo, userRepo, outboxRepo, gw, cfg.Kafka.Topic.PaymentEvents),
		verifyService:    service.NewVerifyService(orderRepo, ledger, outboxRepo, gw, locker, cfg.Kafka.Topic.PaymentEvents),
		bookingService:   service.NewBookingService(ledger),
		predictorService: service.NewPredictorService(cutoffRepo, cfg.Business.CutoffYear),
	}
}

// respondError maps service and repository errors onto business codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRank),
		errors.Is(err, service.ErrOrderUserMismatch):
		response.ParamError(c, err.Error())
	case errors.Is(err, repository.ErrUserNotFound):
		response.BusinessError(c, response.CodeUserNotFound, err.Error())
	case errors.Is(err, repository.ErrInsufficientCredits):
		response.BusinessError(c, response.CodeInsufficientCredits, err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		response.BusinessError(c, response.CodeOrderNotFound, err.Error())
	case errors.Is(err, repository.ErrOrderStatusInvalid),
		errors.Is(err, service.ErrPaymentConflict):
		response.BusinessError(c, response.CodeOrderStatusInvalid, err.Error())
	case errors.Is(err, service.ErrSignatureMismatch):
		response.BusinessError(c, response.CodeSignatureMismatch, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}

// ============================================================
// Users & credits
// ============================================================

type RegisterUserRequest struct {
	Name   string `json:"name" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Mobile string `json:"mobile" binding:"required"`
}

// RegisterUser provisions a user with a zero credit balance.
// POST /api/v1/users/register
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.ledgerService.Register(c.Request.Context(), req.Name, req.Email, req.Mobile)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id": user.ID,
		"credits": user.Credits,
	})
}

// GetBalance returns the fast-path credit balance.
// GET /api/v1/credits/balance?user_id=xxx
func (h *Handler) GetBalance(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "user_id must be numeric")
		return
	}

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id": userID,
		"credits": balance,
	})
}

// normalizePagination clamps page/page_size so garbage or out-of-range
// query values can never produce a negative offset downstream.
func normalizePagination(pageStr, pageSizeStr string) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// GetHistory pages through the user's ledger log.
// GET /api/v1/credits/history?user_id=xxx&page=1&page_size=10
func (h *Handler) GetHistory(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "user_id must be numeric")
		return
	}

	page, pageSize := normalizePagination(c.DefaultQuery("page", "1"), c.DefaultQuery("page_size", "10"))

	transactions, total, err := h.ledgerService.ListTransactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      transactions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ReconcileCredits replays a user's ledger log and compares the sum of
// deltas against the balance field. The ops surface for chasing down
// audit-append alerts.
// GET /api/v1/credits/reconcile?user_id=xxx
func (h *Handler) ReconcileCredits(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "user_id must be numeric")
		return
	}

	report, err := h.ledgerService.Reconcile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, report)
}

type ManualRechargeRequest struct {
	UserID  int64 `json:"user_id" binding:"required"`
	Credits int64 `json:"credits" binding:"required,gt=0"`
}

// ManualRecharge is the ops surface for issuing credits outside the
// payment gateway.
// POST /api/v1/credits/recharge
func (h *Handler) ManualRecharge(c *gin.Context) {
	var req ManualRechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	balance, err := h.ledgerService.Credit(c.Request.Context(), req.UserID, req.Credits,
		model.TransactionTypeManualRecharge, "")
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id": req.UserID,
		"credits": balance,
	})
}

// ============================================================
// Payment orders
// ============================================================

type CreateOrderRequest struct {
	UserID     int64  `json:"user_id" binding:"required"`
	UserName   string `json:"user_name" binding:"required"`
	UserEmail  string `json:"user_email" binding:"required,email"`
	UserMobile string `json:"user_mobile" binding:"required"`
	Credits    int64  `json:"credits" binding:"required,gt=0"`
	Amount     int64  `json:"amount" binding:"required,gt=0"` // paise
	BaseAmount int64  `json:"base_amount"`
	TaxAmount  int64  `json:"tax_amount"`
}

// CreateOrder mints a gateway order for a credit purchase.
// POST /api/v1/payment/order
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderRequest{
		UserID:     req.UserID,
		UserName:   req.UserName,
		UserEmail:  req.UserEmail,
		UserMobile: req.UserMobile,
		Credits:    req.Credits,
		Amount:     req.Amount,
		BaseAmount: req.BaseAmount,
		TaxAmount:  req.TaxAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

type VerifyPaymentRequest struct {
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
	UserID    int64  `json:"user_id" binding:"required"`
	Credits   int64  `json:"credits"`
}

// VerifyPayment authenticates a completed-checkout callback and posts
// the purchased credits. Replaying the same callback is a no-op.
// POST /api/v1/payment/verify
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.verifyService.Verify(c.Request.Context(), &service.VerifyRequest{
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Signature: req.Signature,
		UserID:    req.UserID,
		Credits:   req.Credits,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}

// GetOrder returns one payment order.
// GET /api/v1/payment/order/detail?order_id=xxx
func (h *Handler) GetOrder(c *gin.Context) {
	orderID := c.Query("order_id")
	if orderID == "" {
		response.ParamError(c, "order_id is required")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, order)
}

// ListOrders pages through a user's payment orders.
// GET /api/v1/payment/order/list?user_id=xxx&page=1&page_size=10
func (h *Handler) ListOrders(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		response.ParamError(c, "user_id must be numeric")
		return
	}

	page, pageSize := normalizePagination(c.DefaultQuery("page", "1"), c.DefaultQuery("page_size", "10"))

	orders, total, err := h.orderService.ListUserOrders(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetPaymentTransaction looks up the ledger row a gateway payment
// produced. Used when reconciling a completed order whose credit may
// not have posted.
// GET /api/v1/payment/transaction?payment_id=xxx
func (h *Handler) GetPaymentTransaction(c *gin.Context) {
	paymentID := c.Query("payment_id")
	if paymentID == "" {
		response.ParamError(c, "payment_id is required")
		return
	}

	trans, err := h.ledgerService.FindPaymentTransaction(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"payment_id":  paymentID,
		"posted":      trans != nil,
		"transaction": trans,
	})
}

// ============================================================
// Bookings & predictions
// ============================================================

type DebitRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// BookSession charges the fixed session price.
// POST /api/v1/booking/session
func (h *Handler) BookSession(c *gin.Context) {
	var req DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	balance, err := h.bookingService.BookSession(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id":         req.UserID,
		"credits_charged": model.SessionBookingCredits,
		"credits":         balance,
	})
}

// UnlockPrediction charges the fixed prediction-unlock price.
// POST /api/v1/predict/unlock
func (h *Handler) UnlockPrediction(c *gin.Context) {
	var req DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	balance, err := h.bookingService.UnlockPrediction(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id":         req.UserID,
		"credits_charged": model.PredictionUnlockCredits,
		"credits":         balance,
	})
}

// Predict matches colleges in a ±20% band around the given rank.
// GET /api/v1/predict?rank=10000&category=OPEN&gender=female&exam_type=jee-main
func (h *Handler) Predict(c *gin.Context) {
	rank, err := strconv.ParseInt(c.Query("rank"), 10, 64)
	if err != nil {
		// non-numeric rank is rejected before any query runs
		response.ParamError(c, "rank must be a positive integer")
		return
	}

	records, err := h.predictorService.Predict(c.Request.Context(), &service.PredictRequest{
		Rank:     rank,
		Category: c.Query("category"),
		Gender:   c.Query("gender"),
		ExamType: c.Query("exam_type"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"rank":    rank,
		"matches": records,
		"count":   len(records),
	})
}
