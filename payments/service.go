package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"go-payments/gateway"
	"go-payments/models"
	"go-payments/store"
)

const DefaultGatewayTimeout = 10 * time.Second

// Service runs the payment and bank-transfer workflows
type Service struct {
	store          Store
	gateway        gateway.Client
	recorder       Recorder
	logger         *zap.Logger
	gatewayTimeout time.Duration
	now            func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder reports payment and transfer outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the service logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithGatewayTimeout bounds each bank call; non-positive values keep the default
func WithGatewayTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.gatewayTimeout = d
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service persisting to st and moving funds through gw.
func NewService(st Store, gw gateway.Client, opts ...Option) *Service {
	s := &Service{
		store:          st,
		gateway:        gw,
		recorder:       nopRecorder{},
		logger:         zap.NewNop(),
		gatewayTimeout: DefaultGatewayTimeout,
		now:            func() time.Time { return time.Now() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamps are stored with microsecond precision in every backend
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// MakePayment records a pending transaction against the customer's payment,
// creating the customer and the payment on first use.
func (s *Service) MakePayment(ctx context.Context, req MakePaymentRequest) (*TransactionSummary, error) {
	if req.CustomerID == uuid.Nil {
		return nil, invalid("customerId is required")
	}
	logger := s.logger.With(zap.Stringer("customer_id", req.CustomerID))

	customer, created, err := s.findOrCreateCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("Created customer.", zap.Stringer("id", customer.ID))
	}

	payment, err := s.paymentFor(ctx, customer)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	tx := &models.Transaction{
		PaymentID: payment.ID,
		Amount:    req.Amount,
		Status:    models.TransactionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "Failed save transaction")
	}

	s.recorder.PaymentMade()
	logger.Info("Payment recorded.",
		zap.Stringer("payment_id", payment.ID),
		zap.Stringer("transaction_id", tx.ID),
		zap.Stringer("amount", tx.Amount),
		zap.String("payment_method", req.PaymentMethod),
	)

	summary := summarizeTransaction(*tx)
	return &summary, nil
}

func (s *Service) findOrCreateCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, bool, error) {
	customer, err := s.store.FindCustomerByCustomerID(ctx, customerID)
	if err == nil {
		return customer, false, nil
	}
	if !store.IsNotFound(err) {
		return nil, false, errors.Wrap(err, "Failed find customer")
	}

	now := s.timestamp()
	customer = &models.Customer{CustomerID: customerID, CreatedAt: now, UpdatedAt: now}
	created, err := s.store.CreateCustomerIfAbsent(ctx, customer)
	if err != nil {
		return nil, false, errors.Wrap(err, "Failed create customer")
	}
	return customer, created, nil
}

// paymentFor returns the customer's payment after stamping it with the
// customer reference and fresh timestamps. A customer without one gets a new payment.
// When a concurrent request stores the customer's payment first, the stored row wins.
func (s *Service) paymentFor(ctx context.Context, customer *models.Customer) (*models.Payment, error) {
	payment, err := s.existingPayment(ctx, customer)
	if err != nil {
		return nil, err
	}
	err = s.stampPayment(ctx, payment, customer)
	switch {
	case err == nil:
		return payment, nil
	case !store.IsConflict(err):
		return nil, err
	}

	s.logger.Debug("Payment created concurrently, reusing it.", zap.Stringer("customer", customer.ID))
	payment, err = s.existingPayment(ctx, customer)
	if err != nil {
		return nil, err
	}
	if payment.ID == uuid.Nil {
		return nil, errors.Wrap(store.ErrConflict, "Failed find payment after conflict")
	}
	if err := s.stampPayment(ctx, payment, customer); err != nil {
		return nil, err
	}
	return payment, nil
}

// existingPayment returns the stored payment or an unsaved empty one
func (s *Service) existingPayment(ctx context.Context, customer *models.Customer) (*models.Payment, error) {
	found, err := s.store.FindPaymentByCustomerID(ctx, customer.ID)
	switch {
	case err == nil:
		return found, nil
	case store.IsNotFound(err):
		return &models.Payment{}, nil
	default:
		return nil, errors.Wrap(err, "Failed find payment")
	}
}

func (s *Service) stampPayment(ctx context.Context, payment *models.Payment, customer *models.Customer) error {
	ref := customer.ID
	now := s.timestamp()
	payment.CustomerID = &ref
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if err := s.store.SavePayment(ctx, payment); err != nil {
		return errors.Wrap(err, "Failed save payment")
	}
	return nil
}

// GetPaymentsByCustomerID lists the transactions of the customer's payment in insertion order
func (s *Service) GetPaymentsByCustomerID(ctx context.Context, customerID uuid.UUID) ([]TransactionSummary, error) {
	customer, err := s.store.FindCustomerByCustomerID(ctx, customerID)
	if err != nil {
		return nil, errors.Wrapf(err, "customer %s", customerID)
	}
	payment, err := s.store.FindPaymentByCustomerID(ctx, customer.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "payment of customer %s", customerID)
	}
	transactions, err := s.store.ListTransactionsByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, errors.Wrap(err, "Failed list transactions")
	}

	summaries := make([]TransactionSummary, 0, len(transactions))
	for _, t := range transactions {
		summaries = append(summaries, summarizeTransaction(t))
	}
	return summaries, nil
}

// GetBankTransfer returns a stored transfer by the id handed to the bank
func (s *Service) GetBankTransfer(ctx context.Context, transferID string) (*TransferSummary, error) {
	tx, err := s.store.FindTransactionByTransactionID(ctx, transferID)
	if err != nil {
		return nil, errors.Wrapf(err, "bank transfer %s", transferID)
	}
	return summarizeTransfer(*tx), nil
}

// ProcessBankTransfer records a transfer, submits it to the bank and settles
// both records as COMPLETED or FAILED. A FAILED transfer stays stored.
func (s *Service) ProcessBankTransfer(ctx context.Context, req BankTransferRequest) (*TransferSummary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.timestamp()
	payment := &models.Payment{
		AccountNumber:     req.AccountNumber,
		RoutingNumber:     req.RoutingNumber,
		AccountHolderName: req.AccountHolderName,
		Amount:            *req.Amount,
		Currency:          req.Currency,
		TransferStatus:    models.TransferPending,
		Description:       req.Description,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.SavePayment(ctx, payment); err != nil {
		return nil, errors.Wrap(err, "Failed save payment")
	}

	tx := &models.Transaction{
		TransactionID:     uuid.NewString(),
		PaymentID:         payment.ID,
		Amount:            *req.Amount,
		Currency:          req.Currency,
		AccountNumber:     req.AccountNumber,
		RoutingNumber:     req.RoutingNumber,
		AccountHolderName: req.AccountHolderName,
		Description:       req.Description,
		Status:            models.TransactionProcessing,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	logger := s.logger.With(
		zap.String("transfer_id", tx.TransactionID),
		zap.Stringer("payment_id", payment.ID),
	)

	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		s.abandon(ctx, logger, payment)
		return nil, errors.Wrap(err, "Failed save transaction")
	}

	if err := s.submit(ctx, tx); err != nil {
		logger.Warn("Bank rejected transfer.", zap.Error(err))
		return nil, s.fail(ctx, logger, payment, tx, err)
	}

	done, err := s.complete(ctx, *payment, *tx)
	if err != nil {
		logger.Error("Failed to record completed transfer.", zap.Error(err))
		return nil, s.fail(ctx, logger, payment, tx, err)
	}

	s.recorder.TransferFinished(models.TransferCompleted)
	logger.Info("Bank transfer completed.", zap.Stringer("amount", done.Amount))
	return summarizeTransfer(*done), nil
}

func (s *Service) submit(ctx context.Context, tx *models.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	start := time.Now()
	err := s.gateway.Transfer(ctx, gateway.Instruction{
		TransactionID: tx.TransactionID,
		AccountNumber: tx.AccountNumber,
		RoutingNumber: tx.RoutingNumber,
		Amount:        tx.Amount,
	})
	s.recorder.GatewayObserved(time.Since(start), err == nil)
	return err
}

// complete settles copies so a failed write leaves the caller's records PROCESSING
func (s *Service) complete(ctx context.Context, payment models.Payment, tx models.Transaction) (*models.Transaction, error) {
	if err := settle(&payment, &tx, models.TransferCompleted, models.TransactionCompleted, s.timestamp()); err != nil {
		return nil, err
	}
	if err := s.store.SaveTransaction(ctx, &tx); err != nil {
		return nil, errors.Wrap(err, "Failed save transaction")
	}
	if err := s.store.SavePayment(ctx, &payment); err != nil {
		return nil, errors.Wrap(err, "Failed save payment")
	}
	return &tx, nil
}

// fail records both records as FAILED. The writes outlive request cancellation.
func (s *Service) fail(ctx context.Context, logger *zap.Logger, payment *models.Payment, tx *models.Transaction, cause error) error {
	ctx = context.WithoutCancel(ctx)

	var compensation error
	if err := settle(payment, tx, models.TransferFailed, models.TransactionFailed, s.timestamp()); err != nil {
		compensation = err
	} else {
		if err := s.store.SaveTransaction(ctx, tx); err != nil {
			compensation = errors.Wrap(err, "Failed save transaction")
		}
		if err := s.store.SavePayment(ctx, payment); err != nil && compensation == nil {
			compensation = errors.Wrap(err, "Failed save payment")
		}
	}
	if compensation != nil {
		logger.Error("Failed to record failed transfer.", zap.Error(compensation))
	}

	s.recorder.TransferFinished(models.TransferFailed)
	return &ExecutionError{
		TransferID:   tx.TransactionID,
		Cause:        cause,
		Compensation: compensation,
	}
}

// abandon marks a payment whose transaction could not be stored
func (s *Service) abandon(ctx context.Context, logger *zap.Logger, payment *models.Payment) {
	payment.TransferStatus = models.TransferFailed
	payment.UpdatedAt = s.timestamp()
	if err := s.store.SavePayment(context.WithoutCancel(ctx), payment); err != nil {
		logger.Error("Failed to mark payment failed.", zap.Error(err))
	}
	s.recorder.TransferFinished(models.TransferFailed)
}

func settle(payment *models.Payment, tx *models.Transaction, transfer models.TransferStatus, status models.TransactionStatus, at time.Time) error {
	if !payment.TransferStatus.CanTransition(transfer) {
		return errors.Errorf("payment %s cannot move from %s to %s", payment.ID, payment.TransferStatus, transfer)
	}
	if !tx.Status.CanTransition(status) {
		return errors.Errorf("transaction %s cannot move from %s to %s", tx.TransactionID, tx.Status, status)
	}
	payment.TransferStatus = transfer
	payment.UpdatedAt = at
	tx.Status = status
	tx.UpdatedAt = at
	return nil
}
