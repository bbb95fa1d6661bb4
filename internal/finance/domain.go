// Package finance holds the plain money-movement records: expenses,
// donations, cash/bank transfers and owner capital contributions.
// Transfers and capital are first-class record types rather than specially
// marked donations, so reports never need to parse descriptions.
package finance

import (
	"time"

	"github.com/khata-erp/khata-erp/internal/ledger"
)

type Expense struct {
	ID            int64                `json:"id"`
	Description   string               `json:"description"`
	Amount        float64              `json:"amount"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method"`
	Date          time.Time            `json:"date"`
	CreatedAt     time.Time            `json:"created_at"`
}

type Donation struct {
	ID            int64                `json:"id"`
	DonorName     string               `json:"donor_name"`
	Description   string               `json:"description,omitempty"`
	Amount        float64              `json:"amount"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method"`
	Date          time.Time            `json:"date"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Transfer moves money between the cash drawer and the bank account.
type Transfer struct {
	ID        int64                `json:"id"`
	From      ledger.PaymentMethod `json:"from"`
	To        ledger.PaymentMethod `json:"to"`
	Amount    float64              `json:"amount"`
	Date      time.Time            `json:"date"`
	Note      string               `json:"note,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// CapitalContribution is owner money injected into the business. It raises
// cash or bank and equity but never counts as income.
type CapitalContribution struct {
	ID            int64                `json:"id"`
	Contributor   string               `json:"contributor"`
	Amount        float64              `json:"amount"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method"`
	Date          time.Time            `json:"date"`
	Note          string               `json:"note,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

type AddExpenseRequest struct {
	Description   string               `json:"description" validate:"required"`
	Amount        float64              `json:"amount" validate:"required,gt=0"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method" validate:"required"`
	Date          *time.Time           `json:"date,omitempty"`
}

type AddDonationRequest struct {
	DonorName     string               `json:"donor_name" validate:"required"`
	Description   string               `json:"description,omitempty"`
	Amount        float64              `json:"amount" validate:"required,gt=0"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method" validate:"required"`
	Date          *time.Time           `json:"date,omitempty"`
}

type AddTransferRequest struct {
	From   ledger.PaymentMethod `json:"from" validate:"required"`
	To     ledger.PaymentMethod `json:"to" validate:"required"`
	Amount float64              `json:"amount" validate:"required,gt=0"`
	Date   *time.Time           `json:"date,omitempty"`
	Note   string               `json:"note,omitempty"`
}

type AddCapitalRequest struct {
	Contributor   string               `json:"contributor" validate:"required"`
	Amount        float64              `json:"amount" validate:"required,gt=0"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method" validate:"required"`
	Date          *time.Time           `json:"date,omitempty"`
	Note          string               `json:"note,omitempty"`
}

type ListRequest struct {
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
}
