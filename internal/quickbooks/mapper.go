package quickbooks

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/peteski22/booksync/internal/mirror"
)

// defaultCurrency is assumed when an entity carries no currency reference.
const defaultCurrency = "USD"

// dateLayout is the format of transaction and due dates.
const dateLayout = "2006-01-02"

// PaymentStatus derives the settlement state of a document from its total and open balance,
// returning the status and the amount paid so far.
func PaymentStatus(total decimal.Decimal, balance decimal.Decimal) (string, decimal.Decimal) {
	paid := total.Sub(balance)

	switch {
	case balance.IsZero():
		return mirror.PaymentStatusPaid, paid
	case balance.IsPositive() && balance.LessThan(total):
		return mirror.PaymentStatusPartial, paid
	default:
		return mirror.PaymentStatusUnpaid, paid
	}
}

// ToDomainType converts a Header to the shared mirror columns.
func (h *Header) ToDomainType(connectionID uint) mirror.Model {
	m := mirror.Model{
		ConnectionID: connectionID,
		ExternalID:   h.ID,
		SyncToken:    h.SyncToken,
	}
	if h.MetaData != nil {
		m.RemoteCreatedAt = parseTimestamp(h.MetaData.CreateTime)
		m.RemoteUpdatedAt = parseTimestamp(h.MetaData.LastUpdatedTime)
	}
	return m
}

// ToDomainType converts a Customer to its mirror record.
func (c *Customer) ToDomainType(connectionID uint) *mirror.Customer {
	if c == nil {
		return nil
	}

	displayName := c.DisplayName
	if displayName == "" {
		displayName = c.FullyQualifiedName
	}

	return &mirror.Customer{
		Model:           c.Header.ToDomainType(connectionID),
		DisplayName:     displayName,
		GivenName:       c.GivenName,
		FamilyName:      c.FamilyName,
		CompanyName:     c.CompanyName,
		PrimaryEmail:    c.PrimaryEmailAddr.address(),
		PrimaryPhone:    c.PrimaryPhone.number(),
		Website:         c.WebAddr.uri(),
		BillingAddress:  blob(c.BillAddr),
		ShippingAddress: blob(c.ShipAddr),
		Balance:         c.Balance,
		CurrencyCode:    currency(c.CurrencyRef),
		IsActive:        active(c.Active),
	}
}

// ToDomainType converts an Invoice to its mirror record, deriving its payment status.
func (i *Invoice) ToDomainType(connectionID uint) *mirror.Invoice {
	if i == nil {
		return nil
	}

	status, paid := PaymentStatus(i.TotalAmt, i.Balance)

	return &mirror.Invoice{
		Model:           i.Header.ToDomainType(connectionID),
		DocNumber:       i.DocNumber,
		CustomerID:      i.CustomerRef.id(),
		CustomerName:    i.CustomerRef.name(),
		TxnDate:         parseDate(i.TxnDate),
		DueDate:         parseDate(i.DueDate),
		TotalAmount:     i.TotalAmt,
		Balance:         i.Balance,
		AmountPaid:      paid,
		PaymentStatus:   status,
		CurrencyCode:    currency(i.CurrencyRef),
		EmailStatus:     i.EmailStatus,
		BillEmail:       i.BillEmail.address(),
		LineItems:       blob(i.Line),
		BillingAddress:  blob(i.BillAddr),
		ShippingAddress: blob(i.ShipAddr),
		PrivateNote:     i.PrivateNote,
	}
}

// ToDomainType converts a Vendor to its mirror record.
func (v *Vendor) ToDomainType(connectionID uint) *mirror.Vendor {
	if v == nil {
		return nil
	}

	return &mirror.Vendor{
		Model:          v.Header.ToDomainType(connectionID),
		DisplayName:    v.DisplayName,
		CompanyName:    v.CompanyName,
		PrimaryEmail:   v.PrimaryEmailAddr.address(),
		PrimaryPhone:   v.PrimaryPhone.number(),
		Website:        v.WebAddr.uri(),
		BillingAddress: blob(v.BillAddr),
		AccountNumber:  v.AcctNum,
		Vendor1099:     v.Vendor1099,
		Balance:        v.Balance,
		CurrencyCode:   currency(v.CurrencyRef),
		IsActive:       active(v.Active),
	}
}

// ToDomainType converts a Purchase to its mirror expense record.
func (p *Purchase) ToDomainType(connectionID uint) *mirror.Expense {
	if p == nil {
		return nil
	}

	return &mirror.Expense{
		Model:        p.Header.ToDomainType(connectionID),
		PaymentType:  p.PaymentType,
		AccountID:    p.AccountRef.id(),
		AccountName:  p.AccountRef.name(),
		VendorID:     p.EntityRef.id(),
		VendorName:   p.EntityRef.name(),
		TxnDate:      parseDate(p.TxnDate),
		DocNumber:    p.DocNumber,
		TotalAmount:  p.TotalAmt,
		CurrencyCode: currency(p.CurrencyRef),
		LineItems:    blob(p.Line),
		PrivateNote:  p.PrivateNote,
	}
}

// ToDomainType converts an Item to its mirror record.
func (i *Item) ToDomainType(connectionID uint) *mirror.Item {
	if i == nil {
		return nil
	}

	return &mirror.Item{
		Model:              i.Header.ToDomainType(connectionID),
		Name:               i.Name,
		SKU:                i.Sku,
		Description:        i.Description,
		Type:               i.Type,
		UnitPrice:          i.UnitPrice,
		PurchaseCost:       i.PurchaseCost,
		QtyOnHand:          i.QtyOnHand,
		IncomeAccountID:    i.IncomeAccountRef.id(),
		IncomeAccountName:  i.IncomeAccountRef.name(),
		ExpenseAccountID:   i.ExpenseAccountRef.id(),
		ExpenseAccountName: i.ExpenseAccountRef.name(),
		TrackQtyOnHand:     i.TrackQtyOnHand,
		IsActive:           active(i.Active),
	}
}

// ToDomainType converts a Payment to its mirror record.
func (p *Payment) ToDomainType(connectionID uint) *mirror.Payment {
	if p == nil {
		return nil
	}

	return &mirror.Payment{
		Model:              p.Header.ToDomainType(connectionID),
		CustomerID:         p.CustomerRef.id(),
		CustomerName:       p.CustomerRef.name(),
		PaymentDate:        parseDate(p.TxnDate),
		TotalAmount:        p.TotalAmt,
		UnappliedAmount:    p.UnappliedAmt,
		PaymentRefNumber:   p.PaymentRefNum,
		PaymentMethodID:    p.PaymentMethodRef.id(),
		PaymentMethodName:  p.PaymentMethodRef.name(),
		DepositAccountID:   p.DepositToAccountRef.id(),
		DepositAccountName: p.DepositToAccountRef.name(),
		CurrencyCode:       currency(p.CurrencyRef),
		LineItems:          blob(p.Line),
		PrivateNote:        p.PrivateNote,
	}
}

// ToDomainType converts a Bill to its mirror record, deriving its payment status.
func (b *Bill) ToDomainType(connectionID uint) *mirror.Bill {
	if b == nil {
		return nil
	}

	status, paid := PaymentStatus(b.TotalAmt, b.Balance)

	return &mirror.Bill{
		Model:         b.Header.ToDomainType(connectionID),
		DocNumber:     b.DocNumber,
		VendorID:      b.VendorRef.id(),
		VendorName:    b.VendorRef.name(),
		APAccountID:   b.APAccountRef.id(),
		APAccountName: b.APAccountRef.name(),
		TxnDate:       parseDate(b.TxnDate),
		DueDate:       parseDate(b.DueDate),
		TotalAmount:   b.TotalAmt,
		Balance:       b.Balance,
		AmountPaid:    paid,
		PaymentStatus: status,
		CurrencyCode:  currency(b.CurrencyRef),
		LineItems:     blob(b.Line),
		PrivateNote:   b.PrivateNote,
	}
}

// ToDomainType converts a SalesReceipt to its mirror record.
func (s *SalesReceipt) ToDomainType(connectionID uint) *mirror.SalesReceipt {
	if s == nil {
		return nil
	}

	return &mirror.SalesReceipt{
		Model:              s.Header.ToDomainType(connectionID),
		DocNumber:          s.DocNumber,
		CustomerID:         s.CustomerRef.id(),
		CustomerName:       s.CustomerRef.name(),
		TxnDate:            parseDate(s.TxnDate),
		TotalAmount:        s.TotalAmt,
		PaymentMethodID:    s.PaymentMethodRef.id(),
		PaymentMethodName:  s.PaymentMethodRef.name(),
		DepositAccountID:   s.DepositToAccountRef.id(),
		DepositAccountName: s.DepositToAccountRef.name(),
		CurrencyCode:       currency(s.CurrencyRef),
		LineItems:          blob(s.Line),
		PrivateNote:        s.PrivateNote,
	}
}

// ToDomainType converts a CreditMemo to its mirror record.
func (c *CreditMemo) ToDomainType(connectionID uint) *mirror.CreditMemo {
	if c == nil {
		return nil
	}

	return &mirror.CreditMemo{
		Model:           c.Header.ToDomainType(connectionID),
		DocNumber:       c.DocNumber,
		CustomerID:      c.CustomerRef.id(),
		CustomerName:    c.CustomerRef.name(),
		TxnDate:         parseDate(c.TxnDate),
		TotalAmount:     c.TotalAmt,
		RemainingCredit: c.RemainingCredit,
		CurrencyCode:    currency(c.CurrencyRef),
		LineItems:       blob(c.Line),
		PrivateNote:     c.PrivateNote,
	}
}

// ToDomainType converts a PurchaseOrder to its mirror record.
func (p *PurchaseOrder) ToDomainType(connectionID uint) *mirror.PurchaseOrder {
	if p == nil {
		return nil
	}

	return &mirror.PurchaseOrder{
		Model:           p.Header.ToDomainType(connectionID),
		DocNumber:       p.DocNumber,
		VendorID:        p.VendorRef.id(),
		VendorName:      p.VendorRef.name(),
		TxnDate:         parseDate(p.TxnDate),
		DueDate:         parseDate(p.DueDate),
		TotalAmount:     p.TotalAmt,
		POStatus:        p.POStatus,
		CurrencyCode:    currency(p.CurrencyRef),
		LineItems:       blob(p.Line),
		ShippingAddress: blob(p.ShipAddr),
		PrivateNote:     p.PrivateNote,
	}
}

// ToDomainType converts a Deposit to its mirror record.
func (d *Deposit) ToDomainType(connectionID uint) *mirror.Deposit {
	if d == nil {
		return nil
	}

	return &mirror.Deposit{
		Model:              d.Header.ToDomainType(connectionID),
		DepositAccountID:   d.DepositToAccountRef.id(),
		DepositAccountName: d.DepositToAccountRef.name(),
		TxnDate:            parseDate(d.TxnDate),
		TotalAmount:        d.TotalAmt,
		CurrencyCode:       currency(d.CurrencyRef),
		LineItems:          blob(d.Line),
		PrivateNote:        d.PrivateNote,
	}
}

// ToDomainType converts a BillPayment to its mirror record.
// The bank account is taken from whichever of the check or credit card details is present.
func (b *BillPayment) ToDomainType(connectionID uint) *mirror.BillPayment {
	if b == nil {
		return nil
	}

	var account *Ref
	switch {
	case b.CheckPayment != nil && b.CheckPayment.BankAccountRef != nil:
		account = b.CheckPayment.BankAccountRef
	case b.CreditCardPayment != nil:
		account = b.CreditCardPayment.CCAccountRef
	}

	return &mirror.BillPayment{
		Model:           b.Header.ToDomainType(connectionID),
		DocNumber:       b.DocNumber,
		VendorID:        b.VendorRef.id(),
		VendorName:      b.VendorRef.name(),
		TxnDate:         parseDate(b.TxnDate),
		TotalAmount:     b.TotalAmt,
		PayType:         b.PayType,
		BankAccountID:   account.id(),
		BankAccountName: account.name(),
		CurrencyCode:    currency(b.CurrencyRef),
		LineItems:       blob(b.Line),
		PrivateNote:     b.PrivateNote,
	}
}

func (r *Ref) id() string {
	if r == nil {
		return ""
	}
	return r.Value
}

func (r *Ref) name() string {
	if r == nil {
		return ""
	}
	return r.Name
}

func (e *EmailAddr) address() string {
	if e == nil {
		return ""
	}
	return e.Address
}

func (p *Phone) number() string {
	if p == nil {
		return ""
	}
	return p.FreeFormNumber
}

func (w *WebAddr) uri() string {
	if w == nil {
		return ""
	}
	return w.URI
}

// active treats an absent flag as active.
func active(b *bool) bool {
	return b == nil || *b
}

func currency(r *Ref) string {
	if r == nil || r.Value == "" {
		return defaultCurrency
	}
	return r.Value
}

// blob keeps a nested remote structure as opaque JSON. Absent or null structures map to NULL.
func blob(raw json.RawMessage) datatypes.JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return datatypes.JSON(trimmed)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
