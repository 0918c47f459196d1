package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-payments/config"
)

// RequestObserver receives the outcome of every served request
type RequestObserver interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
}

type Options struct {
	Service  PaymentService
	Health   Pinger
	Auth     config.AuthConfig
	CORS     config.CORSConfig
	Logger   *zap.Logger
	Observer RequestObserver
	Metrics  http.Handler // served on /metrics when set
}

// NewRouter builds the HTTP API
func NewRouter(opts Options) *gin.Engine {
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	r := gin.New()
	r.Use(recovery(l), requestLogger(l, opts.Observer))
	if c, ok := corsConfig(opts.CORS); ok {
		r.Use(cors.New(c))
	}

	h := &handlers{svc: opts.Service, health: opts.Health, l: l}
	r.GET("/healthz", h.healthz)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	payment := r.Group("/api/payment",
		authenticate([]byte(opts.Auth.JWTSecret), l),
		protect(opts.Auth.ProtectedRoutes),
	)
	payment.POST("/make-payment", h.makePayment)
	payment.GET("/customer/:customerId/payments", h.customerPayments)
	payment.POST("/bank-transfer", h.bankTransfer)
	payment.GET("/bank-transfer/:transferId", h.getBankTransfer)

	return r
}

func recovery(l *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		l.Error("Recovered from panic.", zap.String("path", c.Request.URL.Path), zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

func requestLogger(l *zap.Logger, obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if obs != nil {
			obs.ObserveRequest(c.Request.Method, route, c.Writer.Status(), elapsed)
		}
		l.Info("Request served.",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", elapsed),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func corsConfig(cfg config.CORSConfig) (cors.Config, bool) {
	if len(cfg.AllowedOrigins) == 0 {
		return cors.Config{}, false
	}
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	c.MaxAge = 12 * time.Hour
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c, true
		}
	}
	c.AllowOrigins = cfg.AllowedOrigins
	return c, true
}
