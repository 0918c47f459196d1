package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"go-payments/models"
)

// Memory holds customers, payments and transactions in process memory.
// Records are copied on the way in and out so callers never share stored state.
type Memory struct {
	mutex sync.RWMutex

	customers    map[uuid.UUID]models.Customer
	customerKeys map[uuid.UUID]uuid.UUID // business customer id -> Customer.ID

	payments      map[uuid.UUID]models.Payment
	paymentOwners map[uuid.UUID]uuid.UUID // Customer.ID -> Payment.ID

	transactions    map[uuid.UUID]models.Transaction
	transactionKeys map[string]uuid.UUID      // TransactionID -> Transaction.ID
	byPayment       map[uuid.UUID][]uuid.UUID // Payment.ID -> Transaction.IDs in insertion order
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		customers:       make(map[uuid.UUID]models.Customer),
		customerKeys:    make(map[uuid.UUID]uuid.UUID),
		payments:        make(map[uuid.UUID]models.Payment),
		paymentOwners:   make(map[uuid.UUID]uuid.UUID),
		transactions:    make(map[uuid.UUID]models.Transaction),
		transactionKeys: make(map[string]uuid.UUID),
		byPayment:       make(map[uuid.UUID][]uuid.UUID),
	}
}

// FindCustomerByCustomerID returns the customer with the given business id or ErrNotFound.
func (s *Memory) FindCustomerByCustomerID(_ context.Context, customerID uuid.UUID) (*models.Customer, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	id, ok := s.customerKeys[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	c := s.customers[id]
	return &c, nil
}

// CreateCustomerIfAbsent inserts c unless a customer with the same CustomerID exists,
// in which case c is overwritten with the stored record and false is returned.
func (s *Memory) CreateCustomerIfAbsent(_ context.Context, c *models.Customer) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if id, ok := s.customerKeys[c.CustomerID]; ok {
		*c = s.customers[id]
		return false, nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if _, taken := s.customers[c.ID]; taken {
		return false, ErrConflict
	}
	s.customers[c.ID] = *c
	s.customerKeys[c.CustomerID] = c.ID
	return true, nil
}

// FindPaymentByCustomerID returns the payment owned by the customer row customerRef or ErrNotFound.
func (s *Memory) FindPaymentByCustomerID(_ context.Context, customerRef uuid.UUID) (*models.Payment, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	id, ok := s.paymentOwners[customerRef]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePayment(s.payments[id]), nil
}

// SavePayment upserts p, assigning an ID when missing.
// It returns ErrConflict when another payment already belongs to p.CustomerID.
func (s *Memory) SavePayment(_ context.Context, p *models.Payment) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CustomerID != nil {
		if owner, ok := s.paymentOwners[*p.CustomerID]; ok && owner != p.ID {
			return ErrConflict
		}
	}
	if prev, ok := s.payments[p.ID]; ok && prev.CustomerID != nil {
		delete(s.paymentOwners, *prev.CustomerID)
	}
	stored := clonePayment(*p)
	s.payments[p.ID] = *stored
	if stored.CustomerID != nil {
		s.paymentOwners[*stored.CustomerID] = p.ID
	}
	return nil
}

// SaveTransaction upserts t, assigning an ID when missing.
// It returns ErrConflict when another transaction holds the same TransactionID.
func (s *Memory) SaveTransaction(_ context.Context, t *models.Transaction) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.TransactionID != "" {
		if id, ok := s.transactionKeys[t.TransactionID]; ok && id != t.ID {
			return ErrConflict
		}
	}

	prev, existed := s.transactions[t.ID]
	if existed {
		if prev.TransactionID != "" {
			delete(s.transactionKeys, prev.TransactionID)
		}
		if prev.PaymentID != t.PaymentID {
			s.byPayment[prev.PaymentID] = remove(s.byPayment[prev.PaymentID], t.ID)
			s.byPayment[t.PaymentID] = append(s.byPayment[t.PaymentID], t.ID)
		}
	} else {
		s.byPayment[t.PaymentID] = append(s.byPayment[t.PaymentID], t.ID)
	}

	s.transactions[t.ID] = *t
	if t.TransactionID != "" {
		s.transactionKeys[t.TransactionID] = t.ID
	}
	return nil
}

// ListTransactionsByPaymentID returns the payment's transactions in insertion order.
func (s *Memory) ListTransactionsByPaymentID(_ context.Context, paymentID uuid.UUID) ([]models.Transaction, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ids := s.byPayment[paymentID]
	transactions := make([]models.Transaction, 0, len(ids))
	for _, id := range ids {
		transactions = append(transactions, s.transactions[id])
	}
	return transactions, nil
}

// FindTransactionByTransactionID looks a transaction up by its external transfer id.
func (s *Memory) FindTransactionByTransactionID(_ context.Context, transactionID string) (*models.Transaction, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	id, ok := s.transactionKeys[transactionID]
	if !ok {
		return nil, ErrNotFound
	}
	t := s.transactions[id]
	return &t, nil
}

// Migrate, Ping and Close are no-ops for the in-memory store.
func (s *Memory) Migrate(context.Context) error { return nil }
func (s *Memory) Ping(context.Context) error    { return nil }
func (s *Memory) Close() error                  { return nil }

func clonePayment(p models.Payment) *models.Payment {
	if p.CustomerID != nil {
		ref := *p.CustomerID
		p.CustomerID = &ref
	}
	return &p
}

func remove(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
