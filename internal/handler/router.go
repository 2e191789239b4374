package handler

import (
	"admitpredict/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter wires middleware and routes.
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg)

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/register", h.RegisterUser)
		}

		credits := api.Group("/credits")
		{
			credits.GET("/balance", h.GetBalance)
			credits.GET("/history", h.GetHistory)
			credits.GET("/reconcile", h.ReconcileCredits)
			credits.POST("/recharge", h.ManualRecharge)
		}

		payment := api.Group("/payment")
		{
			payment.POST("/order", h.CreateOrder)
			payment.POST("/verify", h.VerifyPayment)
			payment.GET("/order/detail", h.GetOrder)
			payment.GET("/order/list", h.ListOrders)
			payment.GET("/transaction", h.GetPaymentTransaction)
		}

		booking := api.Group("/booking")
		{
			booking.POST("/session", h.BookSession)
		}

		predict := api.Group("/predict")
		{
			predict.GET("", h.Predict)
			predict.POST("/unlock", h.UnlockPrediction)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
