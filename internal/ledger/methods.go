package ledger

// PaymentMethod enumerates how money moved on a sale, purchase or payment.
type PaymentMethod string

const (
	// MethodCash settles immediately from the cash drawer.
	MethodCash PaymentMethod = "Cash"
	// MethodBank settles immediately through the bank account.
	MethodBank PaymentMethod = "Bank"
	// MethodDue defers the full amount to the customer's due balance.
	MethodDue PaymentMethod = "Due"
	// MethodSplit pays part now, the remainder becomes due.
	MethodSplit PaymentMethod = "Split"
	// MethodCredit settles against previously applied customer credit.
	MethodCredit PaymentMethod = "Paid by Credit"
)

// Valid reports whether m is a known sale payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBank, MethodDue, MethodSplit, MethodCredit:
		return true
	}
	return false
}

// Immediate reports whether m moves cash or bank money at sale time.
func (m PaymentMethod) Immediate() bool {
	return m == MethodCash || m == MethodBank
}
