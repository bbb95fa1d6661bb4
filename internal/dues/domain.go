package dues

import (
	"time"

	"github.com/khata-erp/khata-erp/internal/ledger"
)

// TransactionType distinguishes money owed to the business from money owed
// by it.
type TransactionType string

const (
	// TypeReceivable is money a customer owes the business.
	TypeReceivable TransactionType = "Receivable"
	// TypePayable is money the business owes a supplier.
	TypePayable TransactionType = "Payable"
)

// TransactionStatus tracks settlement. Transitions Pending -> Paid only;
// a transaction is never reopened.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "Pending"
	StatusPaid    TransactionStatus = "Paid"
)

// TransactionPurpose classifies why the entry exists. The enum is set at
// creation time; nothing downstream infers purpose from free-text
// descriptions.
type TransactionPurpose string

const (
	// PurposeSaleDue is the unpaid remainder of a Due or Split sale.
	PurposeSaleDue TransactionPurpose = "SaleDue"
	// PurposeSalePartialPayment records the immediately paid portion of a
	// Split sale for cash-flow reporting.
	PurposeSalePartialPayment TransactionPurpose = "SalePartialPayment"
	// PurposeCustomerPayment records a customer settling earlier dues.
	PurposeCustomerPayment TransactionPurpose = "CustomerPayment"
	// PurposePurchaseDue is the unpaid portion of a supplier purchase.
	PurposePurchaseDue TransactionPurpose = "PurchaseDue"
	// PurposeRefund records a direct refund paid out for a sales return.
	PurposeRefund TransactionPurpose = "Refund"
)

// Transaction is one receivable/payable ledger entry.
type Transaction struct {
	ID            int64                 `json:"id"`
	Description   string                `json:"description"`
	Amount        float64               `json:"amount"`
	DueDate       time.Time             `json:"due_date"`
	Status        TransactionStatus     `json:"status"`
	Type          TransactionType       `json:"type"`
	Purpose       TransactionPurpose    `json:"purpose"`
	CustomerID    *int64                `json:"customer_id,omitempty"`
	PaymentMethod *ledger.PaymentMethod `json:"payment_method,omitempty"`
	SaleID        *int64                `json:"sale_id,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	PaidAt        *time.Time            `json:"paid_at,omitempty"`
}

// AgingBucket summarises pending amounts by overdue period.
type AgingBucket struct {
	Current   float64 `json:"current"`
	Bucket30  float64 `json:"bucket_30"`
	Bucket60  float64 `json:"bucket_60"`
	Bucket90  float64 `json:"bucket_90"`
	Bucket120 float64 `json:"bucket_120"`
}

// ListTransactionsRequest filters the ledger listing.
type ListTransactionsRequest struct {
	Type       *TransactionType   `json:"type,omitempty"`
	Status     *TransactionStatus `json:"status,omitempty"`
	CustomerID *int64             `json:"customer_id,omitempty"`
	Page       int                `json:"page" validate:"gte=0"`
	PerPage    int                `json:"per_page" validate:"gte=0,lte=200"`
}
