package sales

import (
	"time"

	"github.com/khata-erp/khata-erp/internal/ledger"
)

// ============================================================================
// CUSTOMER
// ============================================================================

// Customer carries an incrementally maintained running due balance. The
// balance must always equal the replay of the customer's sale, credit,
// payment and return history.
type Customer struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Phone          *string   `json:"phone,omitempty"`
	Address        *string   `json:"address,omitempty"`
	OpeningBalance float64   `json:"opening_balance"`
	DueBalance     float64   `json:"due_balance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateCustomerRequest creates a customer.
type CreateCustomerRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=500"`
	OpeningBalance float64 `json:"opening_balance" validate:"gte=0"`
}

// UpdateCustomerRequest patches customer master data. The due balance is not
// editable; only sales, payments and returns move it.
type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ListCustomersRequest filters the customer listing.
type ListCustomersRequest struct {
	Search  *string `json:"search,omitempty"`
	Page    int     `json:"page" validate:"gte=0"`
	PerPage int     `json:"per_page" validate:"gte=0,lte=200"`
}

// ============================================================================
// SALE
// ============================================================================

// SaleItem is one sold line as persisted.
type SaleItem struct {
	ItemID   int64   `json:"item_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Sale is immutable once created; DeleteSale reverses its effects instead of
// editing it.
type Sale struct {
	ID                 int64                 `json:"id"`
	SaleID             string                `json:"sale_id"`
	Date               time.Time             `json:"date"`
	CustomerID         int64                 `json:"customer_id"`
	Items              []SaleItem            `json:"items"`
	Subtotal           float64               `json:"subtotal"`
	DiscountType       ledger.DiscountType   `json:"discount_type"`
	DiscountValue      float64               `json:"discount_value"`
	Total              float64               `json:"total"`
	PaymentMethod      ledger.PaymentMethod  `json:"payment_method"`
	AmountPaid         *float64              `json:"amount_paid,omitempty"`
	SplitPaymentMethod *ledger.PaymentMethod `json:"split_payment_method,omitempty"`
	CreditApplied      float64               `json:"credit_applied"`
	CreatedAt          time.Time             `json:"created_at"`
}

// AddSaleItemRequest is one requested line.
type AddSaleItemRequest struct {
	ItemID   int64   `json:"item_id" validate:"required,gt=0"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// AddSaleRequest records a sale.
type AddSaleRequest struct {
	CustomerID         int64                 `json:"customer_id" validate:"required,gt=0"`
	Items              []AddSaleItemRequest  `json:"items" validate:"required,min=1,dive"`
	DiscountType       ledger.DiscountType   `json:"discount_type"`
	DiscountValue      float64               `json:"discount_value" validate:"gte=0"`
	PaymentMethod      ledger.PaymentMethod  `json:"payment_method" validate:"required"`
	AmountPaid         *float64              `json:"amount_paid,omitempty" validate:"omitempty,gte=0"`
	SplitPaymentMethod *ledger.PaymentMethod `json:"split_payment_method,omitempty"`
	CreditApplied      float64               `json:"credit_applied" validate:"gte=0"`
	DueDate            *time.Time            `json:"due_date,omitempty"`
	IdempotencyKey     string                `json:"idempotency_key,omitempty"`
}

// ============================================================================
// SALES RETURN
// ============================================================================

// RefundMethod describes how a return is compensated.
type RefundMethod string

const (
	// RefundAdjustDue reduces the customer's due balance.
	RefundAdjustDue RefundMethod = "Due Adjustment"
	// RefundCash pays the customer back from the cash drawer.
	RefundCash RefundMethod = "Cash"
	// RefundBank pays the customer back by bank.
	RefundBank RefundMethod = "Bank"
)

// SalesReturn restores stock and compensates the customer.
type SalesReturn struct {
	ID               int64        `json:"id"`
	ReturnID         string       `json:"return_id"`
	Date             time.Time    `json:"date"`
	CustomerID       int64        `json:"customer_id"`
	Items            []SaleItem   `json:"items"`
	TotalReturnValue float64      `json:"total_return_value"`
	RefundMethod     RefundMethod `json:"refund_method"`
}

// AddSalesReturnRequest records a return.
type AddSalesReturnRequest struct {
	CustomerID   int64                `json:"customer_id" validate:"required,gt=0"`
	Items        []AddSaleItemRequest `json:"items" validate:"required,min=1,dive"`
	RefundMethod RefundMethod         `json:"refund_method" validate:"required"`
}

// ============================================================================
// PAYMENT
// ============================================================================

// AddPaymentRequest settles a customer's oldest pending receivables.
type AddPaymentRequest struct {
	CustomerID     int64                `json:"customer_id" validate:"required,gt=0"`
	Amount         float64              `json:"amount" validate:"required,gt=0"`
	Method         ledger.PaymentMethod `json:"method" validate:"required"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
}

// PaymentResult reports what a payment settled.
type PaymentResult struct {
	PaymentID         string   `json:"payment_id"`
	Amount            float64  `json:"amount"`
	SettledIDs        []int64  `json:"settled_transaction_ids"`
	RemainingUnposted float64  `json:"remaining_unposted"`
	NewDueBalance     float64  `json:"new_due_balance"`
}

// ListSalesRequest filters the sales listing.
type ListSalesRequest struct {
	CustomerID *int64     `json:"customer_id,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	Page       int        `json:"page" validate:"gte=0"`
	PerPage    int        `json:"per_page" validate:"gte=0,lte=200"`
}
