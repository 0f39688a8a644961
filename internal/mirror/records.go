package mirror

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment status values derived for invoices and bills.
const (
	PaymentStatusPaid    = "Paid"
	PaymentStatusPartial = "Partial"
	PaymentStatusUnpaid  = "Unpaid"
)

// Record is a mirror row for one synced entity kind.
type Record interface {
	// TableName returns the mirror table the record is stored in.
	TableName() string

	// Base returns the fields shared by every mirror row.
	Base() *Model
}

// Model holds the columns every mirror table carries.
// (connection_id, external_id) is unique per table.
type Model struct {
	// ID is the local row identifier, assigned on insert and preserved on update.
	ID uint `gorm:"primaryKey" json:"id"`

	// ConnectionID is the connection the record was synced through.
	ConnectionID uint `gorm:"not null;index:,unique,composite:connection_external" json:"connection_id"`

	// ExternalID is the record's identifier in the accounting system.
	ExternalID string `gorm:"size:64;not null;index:,unique,composite:connection_external" json:"external_id"`

	// SyncToken is the remote optimistic-concurrency version.
	SyncToken string `gorm:"size:32" json:"sync_token"`

	// RemoteCreatedAt is the remote creation time.
	RemoteCreatedAt *time.Time `json:"remote_created_at"`

	// RemoteUpdatedAt is the remote last modification time.
	RemoteUpdatedAt *time.Time `json:"remote_updated_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Base returns m.
func (m *Model) Base() *Model { return m }

// Customer mirrors a remote customer.
type Customer struct {
	Model

	DisplayName     string          `gorm:"size:255" json:"display_name"`
	GivenName       string          `gorm:"size:100" json:"given_name"`
	FamilyName      string          `gorm:"size:100" json:"family_name"`
	CompanyName     string          `gorm:"size:255" json:"company_name"`
	PrimaryEmail    string          `gorm:"size:255" json:"primary_email"`
	PrimaryPhone    string          `gorm:"size:50" json:"primary_phone"`
	Website         string          `gorm:"size:255" json:"website"`
	BillingAddress  datatypes.JSON  `json:"billing_address"`
	ShippingAddress datatypes.JSON  `json:"shipping_address"`
	Balance         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	CurrencyCode    string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	IsActive        bool            `gorm:"not null" json:"is_active"`
}

// TableName implements gorm's Tabler.
func (Customer) TableName() string { return "quickbooks_customers" }

// Invoice mirrors a remote invoice.
type Invoice struct {
	Model

	DocNumber       string          `gorm:"size:50" json:"doc_number"`
	CustomerID      string          `gorm:"size:64;index" json:"customer_id"`
	CustomerName    string          `gorm:"size:255" json:"customer_name"`
	TxnDate         *time.Time      `gorm:"type:date" json:"txn_date"`
	DueDate         *time.Time      `gorm:"type:date" json:"due_date"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	Balance         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_paid"`
	PaymentStatus   string          `gorm:"size:20" json:"payment_status"`
	CurrencyCode    string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	EmailStatus     string          `gorm:"size:20" json:"email_status"`
	BillEmail       string          `gorm:"size:255" json:"bill_email"`
	LineItems       datatypes.JSON  `json:"line_items"`
	BillingAddress  datatypes.JSON  `json:"billing_address"`
	ShippingAddress datatypes.JSON  `json:"shipping_address"`
	PrivateNote     string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (Invoice) TableName() string { return "quickbooks_invoices" }

// Vendor mirrors a remote vendor.
type Vendor struct {
	Model

	DisplayName    string          `gorm:"size:255" json:"display_name"`
	CompanyName    string          `gorm:"size:255" json:"company_name"`
	PrimaryEmail   string          `gorm:"size:255" json:"primary_email"`
	PrimaryPhone   string          `gorm:"size:50" json:"primary_phone"`
	Website        string          `gorm:"size:255" json:"website"`
	BillingAddress datatypes.JSON  `json:"billing_address"`
	AccountNumber  string          `gorm:"size:100" json:"account_number"`
	Vendor1099     bool            `gorm:"column:vendor_1099" json:"vendor_1099"`
	Balance        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	CurrencyCode   string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	IsActive       bool            `gorm:"not null" json:"is_active"`
}

// TableName implements gorm's Tabler.
func (Vendor) TableName() string { return "quickbooks_vendors" }

// Expense mirrors a remote purchase (cash, check or credit card spend).
type Expense struct {
	Model

	PaymentType  string          `gorm:"size:20" json:"payment_type"`
	AccountID    string          `gorm:"size:64" json:"account_id"`
	AccountName  string          `gorm:"size:255" json:"account_name"`
	VendorID     string          `gorm:"size:64;index" json:"vendor_id"`
	VendorName   string          `gorm:"size:255" json:"vendor_name"`
	TxnDate      *time.Time      `gorm:"type:date" json:"txn_date"`
	DocNumber    string          `gorm:"size:50" json:"doc_number"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	CurrencyCode string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	LineItems    datatypes.JSON  `json:"line_items"`
	PrivateNote  string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (Expense) TableName() string { return "quickbooks_expenses" }

// Item mirrors a remote catalog item.
type Item struct {
	Model

	Name               string          `gorm:"size:255" json:"name"`
	SKU                string          `gorm:"column:sku;size:100" json:"sku"`
	Description        string          `gorm:"type:text" json:"description"`
	Type               string          `gorm:"size:30" json:"type"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"unit_price"`
	PurchaseCost       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"purchase_cost"`
	QtyOnHand          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"qty_on_hand"`
	IncomeAccountID    string          `gorm:"size:64" json:"income_account_id"`
	IncomeAccountName  string          `gorm:"size:255" json:"income_account_name"`
	ExpenseAccountID   string          `gorm:"size:64" json:"expense_account_id"`
	ExpenseAccountName string          `gorm:"size:255" json:"expense_account_name"`
	TrackQtyOnHand     bool            `json:"track_qty_on_hand"`
	IsActive           bool            `gorm:"not null" json:"is_active"`
}

// TableName implements gorm's Tabler.
func (Item) TableName() string { return "quickbooks_items" }

// Payment mirrors a remote customer payment.
type Payment struct {
	Model

	CustomerID         string          `gorm:"size:64;index" json:"customer_id"`
	CustomerName       string          `gorm:"size:255" json:"customer_name"`
	PaymentDate        *time.Time      `gorm:"type:date" json:"payment_date"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	UnappliedAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"unapplied_amount"`
	PaymentRefNumber   string          `gorm:"size:100" json:"payment_ref_number"`
	PaymentMethodID    string          `gorm:"size:64" json:"payment_method_id"`
	PaymentMethodName  string          `gorm:"size:100" json:"payment_method_name"`
	DepositAccountID   string          `gorm:"size:64" json:"deposit_account_id"`
	DepositAccountName string          `gorm:"size:255" json:"deposit_account_name"`
	CurrencyCode       string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	LineItems          datatypes.JSON  `json:"line_items"`
	PrivateNote        string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (Payment) TableName() string { return "quickbooks_payments" }

// Bill mirrors a remote vendor bill.
type Bill struct {
	Model

	DocNumber     string          `gorm:"size:50" json:"doc_number"`
	VendorID      string          `gorm:"size:64;index" json:"vendor_id"`
	VendorName    string          `gorm:"size:255" json:"vendor_name"`
	APAccountID   string          `gorm:"column:ap_account_id;size:64" json:"ap_account_id"`
	APAccountName string          `gorm:"column:ap_account_name;size:255" json:"ap_account_name"`
	TxnDate       *time.Time      `gorm:"type:date" json:"txn_date"`
	DueDate       *time.Time      `gorm:"type:date" json:"due_date"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_paid"`
	PaymentStatus string          `gorm:"size:20" json:"payment_status"`
	CurrencyCode  string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	LineItems     datatypes.JSON  `json:"line_items"`
	PrivateNote   string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (Bill) TableName() string { return "quickbooks_bills" }

// SalesReceipt mirrors a remote sales receipt.
type SalesReceipt struct {
	Model

	DocNumber          string          `gorm:"size:50" json:"doc_number"`
	CustomerID         string          `gorm:"size:64;index" json:"customer_id"`
	CustomerName       string          `gorm:"size:255" json:"customer_name"`
	TxnDate            *time.Time      `gorm:"type:date" json:"txn_date"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	PaymentMethodID    string          `gorm:"size:64" json:"payment_method_id"`
	PaymentMethodName  string          `gorm:"size:100" json:"payment_method_name"`
	DepositAccountID   string          `gorm:"size:64" json:"deposit_account_id"`
	DepositAccountName string          `gorm:"size:255" json:"deposit_account_name"`
	CurrencyCode       string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	LineItems          datatypes.JSON  `json:"line_items"`
	PrivateNote        string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (SalesReceipt) TableName() string { return "quickbooks_sales_receipts" }

// CreditMemo mirrors a remote credit memo.
type CreditMemo struct {
	Model

	DocNumber       string          `gorm:"size:50" json:"doc_number"`
	CustomerID      string          `gorm:"size:64;index" json:"customer_id"`
	CustomerName    string          `gorm:"size:255" json:"customer_name"`
	TxnDate         *time.Time      `gorm:"type:date" json:"txn_date"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	RemainingCredit decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"remaining_credit"`
	CurrencyCode    string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	LineItems       datatypes.JSON  `json:"line_items"`
	PrivateNote     string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (CreditMemo) TableName() string { return "quickbooks_credit_memos" }

// PurchaseOrder mirrors a remote purchase order.
type PurchaseOrder struct {
	Model

	DocNumber       string          `gorm:"size:50" json:"doc_number"`
	VendorID        string          `gorm:"size:64;index" json:"vendor_id"`
	VendorName      string          `gorm:"size:255" json:"vendor_name"`
	TxnDate         *time.Time      `gorm:"type:date" json:"txn_date"`
	DueDate         *time.Time      `gorm:"type:date" json:"due_date"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	POStatus        string          `gorm:"column:po_status;size:20" json:"po_status"`
	CurrencyCode    string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	LineItems       datatypes.JSON  `json:"line_items"`
	ShippingAddress datatypes.JSON  `json:"shipping_address"`
	PrivateNote     string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (PurchaseOrder) TableName() string { return "quickbooks_purchase_orders" }

// Deposit mirrors a remote bank deposit.
type Deposit struct {
	Model

	DepositAccountID   string          `gorm:"size:64" json:"deposit_account_id"`
	DepositAccountName string          `gorm:"size:255" json:"deposit_account_name"`
	TxnDate            *time.Time      `gorm:"type:date" json:"txn_date"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	CurrencyCode       string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	LineItems          datatypes.JSON  `json:"line_items"`
	PrivateNote        string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (Deposit) TableName() string { return "quickbooks_deposits" }

// BillPayment mirrors a remote payment against one or more vendor bills.
type BillPayment struct {
	Model

	DocNumber       string          `gorm:"size:50" json:"doc_number"`
	VendorID        string          `gorm:"size:64;index" json:"vendor_id"`
	VendorName      string          `gorm:"size:255" json:"vendor_name"`
	TxnDate         *time.Time      `gorm:"type:date" json:"txn_date"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	PayType         string          `gorm:"size:20" json:"pay_type"`
	BankAccountID   string          `gorm:"size:64" json:"bank_account_id"`
	BankAccountName string          `gorm:"size:255" json:"bank_account_name"`
	CurrencyCode    string          `gorm:"size:3;not null;default:USD" json:"currency_code"`
	LineItems       datatypes.JSON  `json:"line_items"`
	PrivateNote     string          `gorm:"type:text" json:"private_note"`
}

// TableName implements gorm's Tabler.
func (BillPayment) TableName() string { return "quickbooks_bill_payments" }

// Tables returns one zero value of every mirror record, in sync order.
func Tables() []Record {
	return []Record{
		&Customer{},
		&Invoice{},
		&Vendor{},
		&Expense{},
		&Item{},
		&Payment{},
		&Bill{},
		&SalesReceipt{},
		&CreditMemo{},
		&PurchaseOrder{},
		&Deposit{},
		&BillPayment{},
	}
}
