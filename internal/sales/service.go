package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/ledger"
	"github.com/khata-erp/khata-erp/internal/shared"
)

// defaultDueTerm is applied when a Due/Split sale carries no explicit due date.
const defaultDueTerm = 30 * 24 * time.Hour

// RepositoryPort abstracts sales persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	GetSale(ctx context.Context, id int64) (*Sale, error)
	ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, int, error)
	ListCustomers(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	CreateCustomer(ctx context.Context, c Customer) (int64, error)
	UpdateCustomer(ctx context.Context, id int64, updates map[string]interface{}) error
}

// TxRepository exposes the operations available inside the atomic mutator.
type TxRepository interface {
	GetCustomerForUpdate(ctx context.Context, id int64) (*Customer, error)
	ItemForUpdate(ctx context.Context, id int64) (itemID int64, title string, stock int, err error)
	NextSequence(ctx context.Context, name string) (int64, error)
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	AdjustStock(ctx context.Context, itemID int64, delta int) error
	AdjustDueBalance(ctx context.Context, customerID int64, delta float64) error
	InsertTransaction(ctx context.Context, t dues.Transaction) (int64, error)
	MarkTransactionPaid(ctx context.Context, id int64, paidAt time.Time) error
	PendingReceivablesForUpdate(ctx context.Context, customerID int64) ([]dues.Transaction, error)
	GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error)
	DeleteSaleTransactions(ctx context.Context, saleID int64) error
	DeleteSale(ctx context.Context, id int64) error
	InsertSalesReturn(ctx context.Context, ret SalesReturn) (int64, error)
	InsertRefundExpense(ctx context.Context, description string, amount float64, method ledger.PaymentMethod, date time.Time) error
}

// Service implements the inventory and balance mutator. Every mutation runs
// as one repeatable-read transaction: on failure nothing is written.
type Service struct {
	repo  RepositoryPort
	clock shared.Clock
	idem  *shared.IdempotencyStore
}

// NewService constructs a sales service. The idempotency store may be nil;
// requests carrying a key then fail with a configuration error.
func NewService(repo RepositoryPort, clock shared.Clock, idem *shared.IdempotencyStore) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, clock: clock, idem: idem}
}

// claimKey reserves an idempotency key before a mutator runs. The returned
// release func frees the key again when the mutation fails, so the caller
// may retry with the same key.
func (s *Service) claimKey(ctx context.Context, key, module string) (func(), error) {
	if key == "" {
		return func() {}, nil
	}
	if err := s.idem.CheckAndInsert(ctx, key, module); err != nil {
		return nil, err
	}
	return func() { _ = s.idem.Delete(context.WithoutCancel(ctx), key) }, nil
}

// ============================================================================
// CUSTOMER OPERATIONS
// ============================================================================

// CreateCustomer registers a customer. The running due balance starts at the
// opening balance.
func (s *Service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	if req.OpeningBalance < 0 {
		return nil, fmt.Errorf("%w: opening balance must be non-negative", shared.ErrInvalidArgument)
	}
	now := s.clock.Now()
	customer := Customer{
		Name:           req.Name,
		Phone:          req.Phone,
		Address:        req.Address,
		OpeningBalance: req.OpeningBalance,
		DueBalance:     req.OpeningBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	id, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	customer.ID = id
	return &customer, nil
}

// UpdateCustomer patches customer master data.
func (s *Service) UpdateCustomer(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateCustomer(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}
	return s.repo.GetCustomer(ctx, id)
}

// GetCustomer retrieves a customer by id.
func (s *Service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// ListCustomers returns a paginated customer list.
func (s *Service) ListCustomers(ctx context.Context, req ListCustomersRequest) ([]Customer, shared.Pagination, error) {
	customers, total, err := s.repo.ListCustomers(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return customers, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// ============================================================================
// ADD SALE
// ============================================================================

// AddSale atomically validates stock, writes the sale, decrements stock,
// updates the customer's due balance and books receivable entries.
func (s *Service) AddSale(ctx context.Context, req AddSaleRequest) (*Sale, error) {
	if err := validateAddSale(req); err != nil {
		return nil, err
	}
	release, err := s.claimKey(ctx, req.IdempotencyKey, shared.IdempotencyModuleSales)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var sale Sale
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.GetCustomerForUpdate(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("customer %d: %w", req.CustomerID, err)
		}

		items := make([]SaleItem, 0, len(req.Items))
		for _, line := range req.Items {
			_, title, stock, err := tx.ItemForUpdate(ctx, line.ItemID)
			if err != nil {
				return fmt.Errorf("item %d: %w", line.ItemID, err)
			}
			if line.Quantity > stock {
				return &shared.InsufficientStockError{
					ItemID:    line.ItemID,
					Title:     title,
					Requested: line.Quantity,
					Available: stock,
				}
			}
			items = append(items, SaleItem{ItemID: line.ItemID, Quantity: line.Quantity, Price: line.Price})
		}

		subtotal := subtotalOf(items)
		discount := ledger.ComputeDiscount(subtotal, req.DiscountType, req.DiscountValue)
		total := subtotal - discount
		payable := total - req.CreditApplied
		if payable < 0 {
			return fmt.Errorf("%w: credit applied exceeds sale total", shared.ErrInvalidArgument)
		}
		unpaid := unpaidRemainder(req.PaymentMethod, payable, req.AmountPaid)
		if req.PaymentMethod == ledger.MethodSplit && unpaid <= 0 {
			return fmt.Errorf("%w: split sale must leave an unpaid remainder", shared.ErrInvalidArgument)
		}

		seq, err := tx.NextSequence(ctx, "sale")
		if err != nil {
			return fmt.Errorf("sale sequence: %w", err)
		}

		sale = Sale{
			SaleID:             fmt.Sprintf("SALE-%04d", seq),
			Date:               now,
			CustomerID:         req.CustomerID,
			Items:              items,
			Subtotal:           subtotal,
			DiscountType:       req.DiscountType,
			DiscountValue:      req.DiscountValue,
			Total:              total,
			PaymentMethod:      req.PaymentMethod,
			AmountPaid:         req.AmountPaid,
			SplitPaymentMethod: req.SplitPaymentMethod,
			CreditApplied:      req.CreditApplied,
			CreatedAt:          now,
		}
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		sale.ID = id

		// Re-validated at write time: the UPDATE refuses to push stock
		// below zero even if a concurrent sale slipped between the read
		// above and this write.
		for _, line := range items {
			if err := tx.AdjustStock(ctx, line.ItemID, -line.Quantity); err != nil {
				return err
			}
		}

		dueDelta := unpaid + req.CreditApplied
		if dueDelta != 0 {
			if err := tx.AdjustDueBalance(ctx, customer.ID, dueDelta); err != nil {
				return fmt.Errorf("adjust due balance: %w", err)
			}
		}

		dueDate := now.Add(defaultDueTerm)
		if req.DueDate != nil {
			dueDate = *req.DueDate
		}
		if unpaid > 0 {
			_, err := tx.InsertTransaction(ctx, dues.Transaction{
				Description: fmt.Sprintf("Due for %s", sale.SaleID),
				Amount:      unpaid,
				DueDate:     dueDate,
				Status:      dues.StatusPending,
				Type:        dues.TypeReceivable,
				Purpose:     dues.PurposeSaleDue,
				CustomerID:  &customer.ID,
				SaleID:      &sale.ID,
				CreatedAt:   now,
			})
			if err != nil {
				return fmt.Errorf("insert receivable: %w", err)
			}
		}
		if req.PaymentMethod == ledger.MethodSplit {
			method := ledger.MethodCash
			if req.SplitPaymentMethod != nil {
				method = *req.SplitPaymentMethod
			}
			paidAt := now
			_, err := tx.InsertTransaction(ctx, dues.Transaction{
				Description:   fmt.Sprintf("Initial payment for %s", sale.SaleID),
				Amount:        *req.AmountPaid,
				DueDate:       now,
				Status:        dues.StatusPaid,
				Type:          dues.TypeReceivable,
				Purpose:       dues.PurposeSalePartialPayment,
				CustomerID:    &customer.ID,
				PaymentMethod: &method,
				SaleID:        &sale.ID,
				CreatedAt:     now,
				PaidAt:        &paidAt,
			})
			if err != nil {
				return fmt.Errorf("insert split payment record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return &sale, nil
}

func validateAddSale(req AddSaleRequest) error {
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", shared.ErrInvalidArgument, req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: sale needs at least one item", shared.ErrInvalidArgument)
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", shared.ErrInvalidArgument)
		}
		if line.Price < 0 {
			return fmt.Errorf("%w: price must be non-negative", shared.ErrInvalidArgument)
		}
	}
	if req.DiscountValue < 0 || req.CreditApplied < 0 {
		return fmt.Errorf("%w: discount and credit must be non-negative", shared.ErrInvalidArgument)
	}
	if req.PaymentMethod == ledger.MethodSplit {
		if req.AmountPaid == nil || *req.AmountPaid <= 0 {
			return fmt.Errorf("%w: split sale requires a positive amount paid", shared.ErrInvalidArgument)
		}
		if req.SplitPaymentMethod != nil && !req.SplitPaymentMethod.Immediate() {
			return fmt.Errorf("%w: split payment method must be Cash or Bank", shared.ErrInvalidArgument)
		}
	}
	return nil
}

// unpaidRemainder returns the portion of the payable total deferred to the
// customer's due balance.
func unpaidRemainder(method ledger.PaymentMethod, payable float64, amountPaid *float64) float64 {
	switch method {
	case ledger.MethodDue:
		return payable
	case ledger.MethodSplit:
		paid := 0.0
		if amountPaid != nil {
			paid = *amountPaid
		}
		return payable - paid
	default:
		return 0
	}
}

func subtotalOf(items []SaleItem) float64 {
	var subtotal float64
	for _, line := range items {
		subtotal += float64(line.Quantity) * line.Price
	}
	return subtotal
}

// ============================================================================
// DELETE SALE
// ============================================================================

// DeleteSale reverses a sale: stock is restored, the due-balance delta is
// undone and associated receivable records are removed.
func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("sale %d: %w", id, err)
		}
		if _, err := tx.GetCustomerForUpdate(ctx, sale.CustomerID); err != nil {
			return fmt.Errorf("customer %d: %w", sale.CustomerID, err)
		}

		for _, line := range sale.Items {
			if err := tx.AdjustStock(ctx, line.ItemID, line.Quantity); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}

		payable := sale.Total - sale.CreditApplied
		dueDelta := unpaidRemainder(sale.PaymentMethod, payable, sale.AmountPaid) + sale.CreditApplied
		if dueDelta != 0 {
			if err := tx.AdjustDueBalance(ctx, sale.CustomerID, -dueDelta); err != nil {
				return fmt.Errorf("reverse due balance: %w", err)
			}
		}

		if err := tx.DeleteSaleTransactions(ctx, sale.ID); err != nil {
			return fmt.Errorf("delete sale receivables: %w", err)
		}
		return tx.DeleteSale(ctx, sale.ID)
	})
}

// ============================================================================
// SALES RETURN
// ============================================================================

// AddSalesReturn restores stock and either reduces the customer's due
// balance or books a refund expense.
func (s *Service) AddSalesReturn(ctx context.Context, req AddSalesReturnRequest) (*SalesReturn, error) {
	switch req.RefundMethod {
	case RefundAdjustDue, RefundCash, RefundBank:
	default:
		return nil, fmt.Errorf("%w: unknown refund method %q", shared.ErrInvalidArgument, req.RefundMethod)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: return needs at least one item", shared.ErrInvalidArgument)
	}

	now := s.clock.Now()
	var ret SalesReturn
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetCustomerForUpdate(ctx, req.CustomerID); err != nil {
			return fmt.Errorf("customer %d: %w", req.CustomerID, err)
		}

		items := make([]SaleItem, 0, len(req.Items))
		var value float64
		for _, line := range req.Items {
			if line.Quantity <= 0 || line.Price < 0 {
				return fmt.Errorf("%w: invalid return line", shared.ErrInvalidArgument)
			}
			if _, _, _, err := tx.ItemForUpdate(ctx, line.ItemID); err != nil {
				return fmt.Errorf("item %d: %w", line.ItemID, err)
			}
			items = append(items, SaleItem{ItemID: line.ItemID, Quantity: line.Quantity, Price: line.Price})
			value += float64(line.Quantity) * line.Price
		}

		seq, err := tx.NextSequence(ctx, "sales_return")
		if err != nil {
			return fmt.Errorf("return sequence: %w", err)
		}
		ret = SalesReturn{
			ReturnID:         fmt.Sprintf("RET-%04d", seq),
			Date:             now,
			CustomerID:       req.CustomerID,
			Items:            items,
			TotalReturnValue: value,
			RefundMethod:     req.RefundMethod,
		}
		id, err := tx.InsertSalesReturn(ctx, ret)
		if err != nil {
			return fmt.Errorf("insert return: %w", err)
		}
		ret.ID = id

		for _, line := range items {
			if err := tx.AdjustStock(ctx, line.ItemID, line.Quantity); err != nil {
				return fmt.Errorf("restock: %w", err)
			}
		}

		switch req.RefundMethod {
		case RefundAdjustDue:
			if err := tx.AdjustDueBalance(ctx, req.CustomerID, -value); err != nil {
				return fmt.Errorf("reduce due balance: %w", err)
			}
		case RefundCash, RefundBank:
			method := ledger.MethodCash
			if req.RefundMethod == RefundBank {
				method = ledger.MethodBank
			}
			desc := fmt.Sprintf("Refund for %s", ret.ReturnID)
			if err := tx.InsertRefundExpense(ctx, desc, value, method, now); err != nil {
				return fmt.Errorf("book refund expense: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// ============================================================================
// PAYMENT
// ============================================================================

// AddPayment settles the customer's oldest pending receivables first. A
// receivable is either fully covered and marked Paid or left Pending; there
// is no partial settlement. The due balance drops by the full payment amount
// regardless of how many receivables it covers.
func (s *Service) AddPayment(ctx context.Context, req AddPaymentRequest) (*PaymentResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", shared.ErrInvalidArgument)
	}
	if !req.Method.Immediate() {
		return nil, fmt.Errorf("%w: payment method must be Cash or Bank", shared.ErrInvalidArgument)
	}
	release, err := s.claimKey(ctx, req.IdempotencyKey, shared.IdempotencyModulePayments)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var result PaymentResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.GetCustomerForUpdate(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("customer %d: %w", req.CustomerID, err)
		}

		pending, err := tx.PendingReceivablesForUpdate(ctx, customer.ID)
		if err != nil {
			return fmt.Errorf("pending receivables: %w", err)
		}

		remaining := req.Amount
		var settled []int64
		for _, rec := range pending {
			if rec.Amount > remaining {
				continue
			}
			if err := tx.MarkTransactionPaid(ctx, rec.ID, now); err != nil {
				return fmt.Errorf("settle receivable %d: %w", rec.ID, err)
			}
			remaining -= rec.Amount
			settled = append(settled, rec.ID)
		}

		if err := tx.AdjustDueBalance(ctx, customer.ID, -req.Amount); err != nil {
			return fmt.Errorf("reduce due balance: %w", err)
		}

		seq, err := tx.NextSequence(ctx, "payment")
		if err != nil {
			return fmt.Errorf("payment sequence: %w", err)
		}
		paymentID := fmt.Sprintf("PAY-%04d", seq)
		method := req.Method
		paidAt := now
		if _, err := tx.InsertTransaction(ctx, dues.Transaction{
			Description:   fmt.Sprintf("Payment %s from %s", paymentID, customer.Name),
			Amount:        req.Amount,
			DueDate:       now,
			Status:        dues.StatusPaid,
			Type:          dues.TypeReceivable,
			Purpose:       dues.PurposeCustomerPayment,
			CustomerID:    &customer.ID,
			PaymentMethod: &method,
			CreatedAt:     now,
			PaidAt:        &paidAt,
		}); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}

		result = PaymentResult{
			PaymentID:         paymentID,
			Amount:            req.Amount,
			SettledIDs:        settled,
			RemainingUnposted: remaining,
			NewDueBalance:     customer.DueBalance - req.Amount,
		}
		return nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return &result, nil
}

// ============================================================================
// READS
// ============================================================================

// GetSale retrieves a sale with its lines.
func (s *Service) GetSale(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// ListSales returns a paginated sales listing.
func (s *Service) ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, shared.Pagination, error) {
	sales, total, err := s.repo.ListSales(ctx, req)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return sales, shared.NewPagination(req.Page, req.PerPage, total), nil
}
