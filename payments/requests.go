package payments

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"go-payments/models"
)

type MakePaymentRequest struct {
	CustomerID    uuid.UUID       `json:"customerId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

type BankTransferRequest struct {
	AccountNumber     string           `json:"accountNumber" validate:"notblank"`
	RoutingNumber     string           `json:"routingNumber" validate:"notblank,routing"`
	AccountHolderName string           `json:"accountHolderName" validate:"notblank"`
	Amount            *decimal.Decimal `json:"amount" validate:"-"`
	Currency          string           `json:"currency"`
	Description       string           `json:"description"`
}

// TransactionSummary is the view of a payment transaction returned to callers
type TransactionSummary struct {
	TransactionID uuid.UUID                `json:"transactionId"`
	Amount        decimal.Decimal          `json:"amount"`
	Status        models.TransactionStatus `json:"status"`
	CreatedAt     time.Time                `json:"createdAt"`
}

// TransferSummary is the view of a bank transfer returned to callers
type TransferSummary struct {
	TransferID        string                   `json:"transferId"`
	AccountNumber     string                   `json:"accountNumber"`
	RoutingNumber     string                   `json:"routingNumber"`
	AccountHolderName string                   `json:"accountHolderName"`
	Amount            decimal.Decimal          `json:"amount"`
	Currency          string                   `json:"currency"`
	Status            models.TransactionStatus `json:"status"`
	TransferDate      time.Time                `json:"transferDate"`
	Description       string                   `json:"description"`
}

func summarizeTransaction(t models.Transaction) TransactionSummary {
	return TransactionSummary{
		TransactionID: t.ID,
		Amount:        t.Amount,
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
	}
}

func summarizeTransfer(t models.Transaction) *TransferSummary {
	return &TransferSummary{
		TransferID:        t.TransactionID,
		AccountNumber:     t.AccountNumber,
		RoutingNumber:     t.RoutingNumber,
		AccountHolderName: t.AccountHolderName,
		Amount:            t.Amount,
		Currency:          t.Currency,
		Status:            t.Status,
		TransferDate:      t.UpdatedAt,
		Description:       t.Description,
	}
}

var routingNumberRe = regexp.MustCompile(`^[0-9]{9}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("routing", func(fl validator.FieldLevel) bool {
		return routingNumberRe.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks the transfer before anything is written.
// All problems are reported together in a *ValidationError.
func (r BankTransferRequest) Validate() error {
	var problems []string

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return invalid(err.Error())
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	switch {
	case r.Amount == nil:
		problems = append(problems, "amount is required")
	case !r.Amount.IsPositive():
		problems = append(problems, "amount must be greater than zero")
	}

	if len(problems) > 0 {
		return invalid(problems...)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fe.Field() + " must not be blank"
	case "routing":
		return fe.Field() + " must be exactly 9 digits"
	}
	return fe.Error()
}
