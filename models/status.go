package models

// TransactionStatus is the state of a Transaction.
// The plain payment path only ever writes TransactionPending; bank transfers
// move from TransactionProcessing to one of the terminal states.
type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionProcessing TransactionStatus = "PROCESSING"
	TransactionCompleted  TransactionStatus = "COMPLETED"
	TransactionFailed     TransactionStatus = "FAILED"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionProcessing, TransactionCompleted, TransactionFailed:
		return true
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionCompleted || s == TransactionFailed
}

// CanTransition reports whether a transaction in state s may move to next
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	switch s {
	case TransactionPending, TransactionProcessing:
		return next.IsTerminal()
	}
	return false
}

// TransferStatus is the state of a bank transfer recorded on its Payment
type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferCompleted TransferStatus = "COMPLETED"
	TransferFailed    TransferStatus = "FAILED"
)

func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferCompleted, TransferFailed:
		return true
	}
	return false
}

func (s TransferStatus) IsTerminal() bool {
	return s == TransferCompleted || s == TransferFailed
}

func (s TransferStatus) CanTransition(next TransferStatus) bool {
	return s == TransferPending && next.IsTerminal()
}
