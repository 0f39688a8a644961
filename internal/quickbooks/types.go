// Package quickbooks provides a client for the QuickBooks Online accounting API
// and mappers from its entities to mirror records.
package quickbooks

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Remote entity names, used both in queries and as keys of the query response envelope.
const (
	EntityBill          = "Bill"
	EntityBillPayment   = "BillPayment"
	EntityCreditMemo    = "CreditMemo"
	EntityCustomer      = "Customer"
	EntityDeposit       = "Deposit"
	EntityInvoice       = "Invoice"
	EntityItem          = "Item"
	EntityPayment       = "Payment"
	EntityPurchase      = "Purchase"
	EntityPurchaseOrder = "PurchaseOrder"
	EntitySalesReceipt  = "SalesReceipt"
	EntityVendor        = "Vendor"
)

// Ref is a reference to another remote entity.
type Ref struct {
	// Name is the display name of the referenced entity.
	Name string `json:"name,omitempty"`

	// Type is the referenced entity's type, set on polymorphic references.
	Type string `json:"type,omitempty"`

	// Value is the referenced entity's ID.
	Value string `json:"value"`
}

// MetaData carries remote creation and modification timestamps.
type MetaData struct {
	// CreateTime is when the entity was created, in RFC 3339 format.
	CreateTime string `json:"CreateTime"`

	// LastUpdatedTime is when the entity was last modified, in RFC 3339 format.
	LastUpdatedTime string `json:"LastUpdatedTime"`
}

// EmailAddr is an email address.
type EmailAddr struct {
	Address string `json:"Address"`
}

// Phone is a free-form telephone number.
type Phone struct {
	FreeFormNumber string `json:"FreeFormNumber"`
}

// WebAddr is a website address.
type WebAddr struct {
	URI string `json:"URI"`
}

// Header holds the fields every remote entity carries.
type Header struct {
	// ID is the entity's remote identifier.
	ID string `json:"Id"`

	// MetaData holds remote timestamps.
	MetaData *MetaData `json:"MetaData,omitempty"`

	// SyncToken is the entity's version for optimistic concurrency.
	SyncToken string `json:"SyncToken"`
}

// Customer represents a QuickBooks customer.
type Customer struct {
	Header

	Active             *bool           `json:"Active,omitempty"`
	Balance            decimal.Decimal `json:"Balance"`
	BillAddr           json.RawMessage `json:"BillAddr,omitempty"`
	CompanyName        string          `json:"CompanyName,omitempty"`
	CurrencyRef        *Ref            `json:"CurrencyRef,omitempty"`
	DisplayName        string          `json:"DisplayName,omitempty"`
	FamilyName         string          `json:"FamilyName,omitempty"`
	FullyQualifiedName string          `json:"FullyQualifiedName,omitempty"`
	GivenName          string          `json:"GivenName,omitempty"`
	PrimaryEmailAddr   *EmailAddr      `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone       *Phone          `json:"PrimaryPhone,omitempty"`
	ShipAddr           json.RawMessage `json:"ShipAddr,omitempty"`
	WebAddr            *WebAddr        `json:"WebAddr,omitempty"`
}

// Invoice represents a QuickBooks invoice.
type Invoice struct {
	Header

	Balance     decimal.Decimal `json:"Balance"`
	BillAddr    json.RawMessage `json:"BillAddr,omitempty"`
	BillEmail   *EmailAddr      `json:"BillEmail,omitempty"`
	CurrencyRef *Ref            `json:"CurrencyRef,omitempty"`
	CustomerRef *Ref            `json:"CustomerRef,omitempty"`
	DocNumber   string          `json:"DocNumber,omitempty"`
	DueDate     string          `json:"DueDate,omitempty"`
	EmailStatus string          `json:"EmailStatus,omitempty"`
	Line        json.RawMessage `json:"Line,omitempty"`
	PrivateNote string          `json:"PrivateNote,omitempty"`
	ShipAddr    json.RawMessage `json:"ShipAddr,omitempty"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	TxnDate     string          `json:"TxnDate,omitempty"`
}

// Vendor represents a QuickBooks vendor.
type Vendor struct {
	Header

	AcctNum          string          `json:"AcctNum,omitempty"`
	Active           *bool           `json:"Active,omitempty"`
	Balance          decimal.Decimal `json:"Balance"`
	BillAddr         json.RawMessage `json:"BillAddr,omitempty"`
	CompanyName      string          `json:"CompanyName,omitempty"`
	CurrencyRef      *Ref            `json:"CurrencyRef,omitempty"`
	DisplayName      string          `json:"DisplayName,omitempty"`
	PrimaryEmailAddr *EmailAddr      `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone     *Phone          `json:"PrimaryPhone,omitempty"`
	Vendor1099       bool            `json:"Vendor1099"`
	WebAddr          *WebAddr        `json:"WebAddr,omitempty"`
}

// Purchase represents a QuickBooks purchase, synced locally as an expense.
type Purchase struct {
	Header

	// AccountRef is the bank or credit card account the money came from.
	AccountRef *Ref `json:"AccountRef,omitempty"`

	CurrencyRef *Ref            `json:"CurrencyRef,omitempty"`
	DocNumber   string          `json:"DocNumber,omitempty"`
	EntityRef   *Ref            `json:"EntityRef,omitempty"`
	Line        json.RawMessage `json:"Line,omitempty"`
	PaymentType string          `json:"PaymentType,omitempty"`
	PrivateNote string          `json:"PrivateNote,omitempty"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	TxnDate     string          `json:"TxnDate,omitempty"`
}

// Item represents a QuickBooks product or service.
type Item struct {
	Header

	Active            *bool           `json:"Active,omitempty"`
	Description       string          `json:"Description,omitempty"`
	ExpenseAccountRef *Ref            `json:"ExpenseAccountRef,omitempty"`
	IncomeAccountRef  *Ref            `json:"IncomeAccountRef,omitempty"`
	Name              string          `json:"Name,omitempty"`
	PurchaseCost      decimal.Decimal `json:"PurchaseCost"`
	QtyOnHand         decimal.Decimal `json:"QtyOnHand"`
	Sku               string          `json:"Sku,omitempty"`
	TrackQtyOnHand    bool            `json:"TrackQtyOnHand"`
	Type              string          `json:"Type,omitempty"`
	UnitPrice         decimal.Decimal `json:"UnitPrice"`
}

// Payment represents a QuickBooks customer payment.
type Payment struct {
	Header

	CurrencyRef         *Ref            `json:"CurrencyRef,omitempty"`
	CustomerRef         *Ref            `json:"CustomerRef,omitempty"`
	DepositToAccountRef *Ref            `json:"DepositToAccountRef,omitempty"`
	Line                json.RawMessage `json:"Line,omitempty"`
	PaymentMethodRef    *Ref            `json:"PaymentMethodRef,omitempty"`
	PaymentRefNum       string          `json:"PaymentRefNum,omitempty"`
	PrivateNote         string          `json:"PrivateNote,omitempty"`
	TotalAmt            decimal.Decimal `json:"TotalAmt"`
	TxnDate             string          `json:"TxnDate,omitempty"`
	UnappliedAmt        decimal.Decimal `json:"UnappliedAmt"`
}

// Bill represents a QuickBooks vendor bill.
type Bill struct {
	Header

	APAccountRef *Ref            `json:"APAccountRef,omitempty"`
	Balance      decimal.Decimal `json:"Balance"`
	CurrencyRef  *Ref            `json:"CurrencyRef,omitempty"`
	DocNumber    string          `json:"DocNumber,omitempty"`
	DueDate      string          `json:"DueDate,omitempty"`
	Line         json.RawMessage `json:"Line,omitempty"`
	PrivateNote  string          `json:"PrivateNote,omitempty"`
	TotalAmt     decimal.Decimal `json:"TotalAmt"`
	TxnDate      string          `json:"TxnDate,omitempty"`
	VendorRef    *Ref            `json:"VendorRef,omitempty"`
}

// SalesReceipt represents a QuickBooks sales receipt.
type SalesReceipt struct {
	Header

	CurrencyRef         *Ref            `json:"CurrencyRef,omitempty"`
	CustomerRef         *Ref            `json:"CustomerRef,omitempty"`
	DepositToAccountRef *Ref            `json:"DepositToAccountRef,omitempty"`
	DocNumber           string          `json:"DocNumber,omitempty"`
	Line                json.RawMessage `json:"Line,omitempty"`
	PaymentMethodRef    *Ref            `json:"PaymentMethodRef,omitempty"`
	PrivateNote         string          `json:"PrivateNote,omitempty"`
	TotalAmt            decimal.Decimal `json:"TotalAmt"`
	TxnDate             string          `json:"TxnDate,omitempty"`
}

// CreditMemo represents a QuickBooks credit memo.
type CreditMemo struct {
	Header

	CurrencyRef     *Ref            `json:"CurrencyRef,omitempty"`
	CustomerRef     *Ref            `json:"CustomerRef,omitempty"`
	DocNumber       string          `json:"DocNumber,omitempty"`
	Line            json.RawMessage `json:"Line,omitempty"`
	PrivateNote     string          `json:"PrivateNote,omitempty"`
	RemainingCredit decimal.Decimal `json:"RemainingCredit"`
	TotalAmt        decimal.Decimal `json:"TotalAmt"`
	TxnDate         string          `json:"TxnDate,omitempty"`
}

// PurchaseOrder represents a QuickBooks purchase order.
type PurchaseOrder struct {
	Header

	CurrencyRef *Ref            `json:"CurrencyRef,omitempty"`
	DocNumber   string          `json:"DocNumber,omitempty"`
	DueDate     string          `json:"DueDate,omitempty"`
	Line        json.RawMessage `json:"Line,omitempty"`
	POStatus    string          `json:"POStatus,omitempty"`
	PrivateNote string          `json:"PrivateNote,omitempty"`
	ShipAddr    json.RawMessage `json:"ShipAddr,omitempty"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	TxnDate     string          `json:"TxnDate,omitempty"`
	VendorRef   *Ref            `json:"VendorRef,omitempty"`
}

// Deposit represents a QuickBooks bank deposit.
type Deposit struct {
	Header

	CurrencyRef         *Ref            `json:"CurrencyRef,omitempty"`
	DepositToAccountRef *Ref            `json:"DepositToAccountRef,omitempty"`
	Line                json.RawMessage `json:"Line,omitempty"`
	PrivateNote         string          `json:"PrivateNote,omitempty"`
	TotalAmt            decimal.Decimal `json:"TotalAmt"`
	TxnDate             string          `json:"TxnDate,omitempty"`
}

// BillPayment represents a QuickBooks payment against vendor bills.
type BillPayment struct {
	Header

	CheckPayment      *CheckPayment      `json:"CheckPayment,omitempty"`
	CreditCardPayment *CreditCardPayment `json:"CreditCardPayment,omitempty"`
	CurrencyRef       *Ref               `json:"CurrencyRef,omitempty"`
	DocNumber         string             `json:"DocNumber,omitempty"`
	Line              json.RawMessage    `json:"Line,omitempty"`
	PayType           string             `json:"PayType,omitempty"`
	PrivateNote       string             `json:"PrivateNote,omitempty"`
	TotalAmt          decimal.Decimal    `json:"TotalAmt"`
	TxnDate           string             `json:"TxnDate,omitempty"`
	VendorRef         *Ref               `json:"VendorRef,omitempty"`
}

// CheckPayment holds the bank account a check bill payment was drawn on.
type CheckPayment struct {
	BankAccountRef *Ref `json:"BankAccountRef,omitempty"`
}

// CreditCardPayment holds the card account a bill payment was charged to.
type CreditCardPayment struct {
	CCAccountRef *Ref `json:"CCAccountRef,omitempty"`
}

// Query describes one page of a remote entity query.
type Query struct {
	// Entity is the remote entity name.
	Entity string

	// MaxResults is the page size.
	MaxResults int

	// StartPosition is the 1-based offset of the first record.
	StartPosition int

	// Where is an optional filter expression without the WHERE keyword.
	Where string
}

// QueryPage is one page of raw query results.
type QueryPage struct {
	// Records holds the undecoded entities in response order.
	Records []json.RawMessage

	// TransactionID is the diagnostic identifier the remote assigned to the response.
	TransactionID string
}

// queryResponse is the envelope returned by the query endpoint.
type queryResponse struct {
	QueryResponse map[string]json.RawMessage `json:"QueryResponse"`
}
