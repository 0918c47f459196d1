package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"go-payments/payments"
)

// PaymentService is the workflow behind the payment routes
type PaymentService interface {
	MakePayment(ctx context.Context, req payments.MakePaymentRequest) (*payments.TransactionSummary, error)
	GetPaymentsByCustomerID(ctx context.Context, customerID uuid.UUID) ([]payments.TransactionSummary, error)
	ProcessBankTransfer(ctx context.Context, req payments.BankTransferRequest) (*payments.TransferSummary, error)
	GetBankTransfer(ctx context.Context, transferID string) (*payments.TransferSummary, error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	svc    PaymentService
	health Pinger
	l      *zap.Logger
}

func (h *handlers) makePayment(c *gin.Context) {
	var req payments.MakePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}

	summary, err := h.svc.MakePayment(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) customerPayments(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("customerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid customer id"}})
		return
	}

	list, err := h.svc.GetPaymentsByCustomerID(c.Request.Context(), customerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *handlers) bankTransfer(c *gin.Context) {
	var req payments.BankTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{"Invalid request body"}})
		return
	}

	summary, err := h.svc.ProcessBankTransfer(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) getBankTransfer(c *gin.Context) {
	summary, err := h.svc.GetBankTransfer(c.Request.Context(), c.Param("transferId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.l.Warn("Health check failed.", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps workflow errors to responses. Internal detail only reaches the log.
func (h *handlers) fail(c *gin.Context, err error) {
	var invalid *payments.ValidationError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"errors": invalid.Problems})
	case payments.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"errors": []string{err.Error()}})
	case payments.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.l.Error("Request failed.",
			zap.String("route", c.FullPath()),
			zap.Bool("execution_failure", payments.IsExecutionFailure(err)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
