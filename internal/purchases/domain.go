// Package purchases records supplier purchases, feeding stock into the
// catalog and booking the money side as expenses and payables.
package purchases

import (
	"time"

	"github.com/khata-erp/khata-erp/internal/ledger"
)

// PurchaseLine is one purchased item position. Lines are keyed by item name,
// not item id: a purchase may introduce items the catalog has never seen.
type PurchaseLine struct {
	ItemID   int64   `json:"item_id"`
	ItemName string  `json:"item_name"`
	Category string  `json:"category"`
	Author   *string `json:"author,omitempty"`
	Quantity int     `json:"quantity"`
	Cost     float64 `json:"cost"`
}

type Purchase struct {
	ID            int64                `json:"id"`
	PurchaseID    string               `json:"purchase_id"`
	Date          time.Time            `json:"date"`
	DueDate       time.Time            `json:"due_date"`
	Supplier      string               `json:"supplier"`
	Items         []PurchaseLine       `json:"items"`
	TotalAmount   float64              `json:"total_amount"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method"`
	AmountPaid    *float64             `json:"amount_paid,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

type AddPurchaseItemRequest struct {
	ItemName string  `json:"item_name" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Author   *string `json:"author,omitempty"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Cost     float64 `json:"cost" validate:"gte=0"`
}

type AddPurchaseRequest struct {
	Supplier       string                   `json:"supplier" validate:"required"`
	Items          []AddPurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod  ledger.PaymentMethod     `json:"payment_method" validate:"required"`
	AmountPaid     *float64                 `json:"amount_paid,omitempty"`
	DueDate        *time.Time               `json:"due_date,omitempty"`
	IdempotencyKey string                   `json:"idempotency_key,omitempty"`
}

type ListPurchasesRequest struct {
	Page     int        `json:"page"`
	PerPage  int        `json:"per_page"`
	Supplier string     `json:"supplier,omitempty"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
}
