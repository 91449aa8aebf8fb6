package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// BankAccountRow mirrors one customer bank account. customer.source.deleted
// detaches the account; the row is kept with the customer pointer from the
// final payload.
type BankAccountRow struct {
	BankAccountID     *int64  `td:"bank_account_id,pk"`
	ID                string  `td:"id,unique"`
	AccountHolderName *string `td:"account_holder_name"`
	AccountHolderType *string `td:"account_holder_type"`
	BankName          *string `td:"bank_name"`
	Country           string  `td:"country"`
	Currency          string  `td:"currency"`
	Customer          *string `td:"customer"`
	Fingerprint       *string `td:"fingerprint"`
	Last4             string  `td:"last4"`
	Metadata          *string `td:"metadata,json"`
	RoutingNumber     *string `td:"routing_number"`
	Status            string  `td:"status"`
	InsertTS          string  `td:"insert_ts,insert_ts"`
	UpdateTS          *string `td:"update_ts,update_ts"`
}

// BankAccountsTable is the bank_accounts table metadata.
var BankAccountsTable = meta.MustParse("bank_accounts", "bank_account", BankAccountRow{})

func bankAccountRowFrom(x *stripe.BankAccount) *BankAccountRow {
	return &BankAccountRow{
		ID:                x.ID,
		AccountHolderName: x.AccountHolderName,
		AccountHolderType: x.AccountHolderType,
		BankName:          x.BankName,
		Country:           x.Country,
		Currency:          x.Currency,
		Customer:          expID(x.Customer),
		Fingerprint:       x.Fingerprint,
		Last4:             x.Last4,
		Metadata:          rawJSON(x.Metadata),
		RoutingNumber:     x.RoutingNumber,
		Status:            x.Status,
	}
}

func bankAccountInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return bankAccountUpsertTree(tx, w, data)
}

func bankAccountUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.BankAccount](data, "bank_account")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, BankAccountsTable, bankAccountRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func bankAccountDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}
