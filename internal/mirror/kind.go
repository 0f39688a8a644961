package mirror

import "fmt"

// Kind identifies one synced entity kind.
type Kind string

const (
	KindCustomers      Kind = "customers"
	KindInvoices       Kind = "invoices"
	KindVendors        Kind = "vendors"
	KindExpenses       Kind = "expenses"
	KindItems          Kind = "items"
	KindPayments       Kind = "payments"
	KindBills          Kind = "bills"
	KindSalesReceipts  Kind = "salesReceipts"
	KindCreditMemos    Kind = "creditMemos"
	KindPurchaseOrders Kind = "purchaseOrders"
	KindDeposits       Kind = "deposits"
	KindBillPayments   Kind = "billPayments"
)

// Kinds returns every entity kind in the order a run processes them.
func Kinds() []Kind {
	return []Kind{
		KindCustomers,
		KindInvoices,
		KindVendors,
		KindExpenses,
		KindItems,
		KindPayments,
		KindBills,
		KindSalesReceipts,
		KindCreditMemos,
		KindPurchaseOrders,
		KindDeposits,
		KindBillPayments,
	}
}

// ParseKind validates s as an entity kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}
