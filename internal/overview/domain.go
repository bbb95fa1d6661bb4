// Package overview derives the financial position of the business by
// replaying history: cash, bank, stock value, receivables, payables and
// equity, optionally as of a past date.
package overview

import (
	"time"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/sales"
)

// Overview is the derived financial position.
type Overview struct {
	AsOf              time.Time `json:"as_of"`
	Cash              float64   `json:"cash"`
	Bank              float64   `json:"bank"`
	StockValue        float64   `json:"stock_value"`
	OfficeAssetsValue float64   `json:"office_assets_value"`
	Receivables       float64   `json:"receivables"`
	Payables          float64   `json:"payables"`
	TotalAssets       float64   `json:"total_assets"`
	Equity            float64   `json:"equity"`
}

// QuantityLine is the stock-affecting part of a sale, purchase or return line.
type QuantityLine struct {
	ItemID   int64
	Quantity int
}

// ItemState carries current stock; historical stock is reconstructed by
// reversing movements that happened after the cutoff.
type ItemState struct {
	ID              int64
	ProductionPrice float64
	Stock           int
}

type SaleRecord struct {
	Date               time.Time
	Total              float64
	PaymentMethod      ledger.PaymentMethod
	AmountPaid         *float64
	SplitPaymentMethod *ledger.PaymentMethod
	CreditApplied      float64
	Lines              []QuantityLine
}

type PurchaseRecord struct {
	Date  time.Time
	Lines []QuantityLine
}

type ReturnRecord struct {
	Date         time.Time
	Value        float64
	RefundMethod sales.RefundMethod
	Lines        []QuantityLine
}

type MoneyRecord struct {
	Date   time.Time
	Amount float64
	Method ledger.PaymentMethod
}

type TransferRecord struct {
	Date   time.Time
	Amount float64
	From   ledger.PaymentMethod
	To     ledger.PaymentMethod
}

type CustomerState struct {
	ID             int64
	OpeningBalance float64
}

// Snapshot is the full history the aggregator folds over. The money side of
// purchases and direct refunds is already present as expense records, so
// purchases and returns only contribute stock movements here.
type Snapshot struct {
	Items             []ItemState
	Customers         []CustomerState
	Sales             []SaleRecord
	Purchases         []PurchaseRecord
	Returns           []ReturnRecord
	Expenses          []MoneyRecord
	Donations         []MoneyRecord
	Capital           []MoneyRecord
	Transfers         []TransferRecord
	Transactions      []dues.Transaction
	OfficeAssetsValue float64
}
