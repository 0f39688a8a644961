package sync

import (
	"encoding/json"
	"fmt"

	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/quickbooks"
)

// descriptor binds one entity kind to its remote name and mapper.
type descriptor interface {
	// kind returns the local entity kind.
	kind() mirror.Kind

	// remoteName returns the remote entity name, which is also its response envelope key.
	remoteName() string

	// decode maps one raw remote record to its mirror record.
	decode(raw json.RawMessage, connectionID uint) (mirror.Record, error)
}

// entity is a descriptor for wire type W mapped to mirror record P.
type entity[W any, P mirror.Record] struct {
	k      mirror.Kind
	remote string
	to     func(*W, uint) P
}

func (e entity[W, P]) kind() mirror.Kind { return e.k }

func (e entity[W, P]) remoteName() string { return e.remote }

func (e entity[W, P]) decode(raw json.RawMessage, connectionID uint) (mirror.Record, error) {
	var w W
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", e.remote, err)
	}

	rec := e.to(&w, connectionID)
	if rec.Base().ExternalID == "" {
		return nil, fmt.Errorf("%s has no Id", e.remote)
	}
	return rec, nil
}

// entities lists every synced kind in processing order.
var entities = []descriptor{
	entity[quickbooks.Customer, *mirror.Customer]{mirror.KindCustomers, quickbooks.EntityCustomer, (*quickbooks.Customer).ToDomainType},
	entity[quickbooks.Invoice, *mirror.Invoice]{mirror.KindInvoices, quickbooks.EntityInvoice, (*quickbooks.Invoice).ToDomainType},
	entity[quickbooks.Vendor, *mirror.Vendor]{mirror.KindVendors, quickbooks.EntityVendor, (*quickbooks.Vendor).ToDomainType},
	entity[quickbooks.Purchase, *mirror.Expense]{mirror.KindExpenses, quickbooks.EntityPurchase, (*quickbooks.Purchase).ToDomainType},
	entity[quickbooks.Item, *mirror.Item]{mirror.KindItems, quickbooks.EntityItem, (*quickbooks.Item).ToDomainType},
	entity[quickbooks.Payment, *mirror.Payment]{mirror.KindPayments, quickbooks.EntityPayment, (*quickbooks.Payment).ToDomainType},
	entity[quickbooks.Bill, *mirror.Bill]{mirror.KindBills, quickbooks.EntityBill, (*quickbooks.Bill).ToDomainType},
	entity[quickbooks.SalesReceipt, *mirror.SalesReceipt]{mirror.KindSalesReceipts, quickbooks.EntitySalesReceipt, (*quickbooks.SalesReceipt).ToDomainType},
	entity[quickbooks.CreditMemo, *mirror.CreditMemo]{mirror.KindCreditMemos, quickbooks.EntityCreditMemo, (*quickbooks.CreditMemo).ToDomainType},
	entity[quickbooks.PurchaseOrder, *mirror.PurchaseOrder]{mirror.KindPurchaseOrders, quickbooks.EntityPurchaseOrder, (*quickbooks.PurchaseOrder).ToDomainType},
	entity[quickbooks.Deposit, *mirror.Deposit]{mirror.KindDeposits, quickbooks.EntityDeposit, (*quickbooks.Deposit).ToDomainType},
	entity[quickbooks.BillPayment, *mirror.BillPayment]{mirror.KindBillPayments, quickbooks.EntityBillPayment, (*quickbooks.BillPayment).ToDomainType},
}

// externalID extracts the remote Id of a record that may not decode fully.
func externalID(raw json.RawMessage) string {
	var h struct {
		ID string `json:"Id"`
	}
	_ = json.Unmarshal(raw, &h)
	return h.ID
}
