package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// BalanceTransactionRow mirrors one balance transaction. Pure ledger:
// immutable, never deleted.
type BalanceTransactionRow struct {
	BalanceTransactionID *int64   `td:"balance_transaction_id,pk"`
	ID                   string   `td:"id,unique"`
	Amount               int64    `td:"amount"`
	AvailableOn          string   `td:"available_on,dt"`
	Currency             string   `td:"currency"`
	Description          *string  `td:"description"`
	ExchangeRate         *float64 `td:"exchange_rate"`
	Fee                  int64    `td:"fee"`
	FeeDetails           *string  `td:"fee_details,json"`
	Net                  int64    `td:"net"`
	ReportingCategory    string   `td:"reporting_category"`
	Source               *string  `td:"source"`
	Status               string   `td:"status"`
	Type                 string   `td:"type"`
	Created              string   `td:"created,dt"`
	InsertTS             string   `td:"insert_ts,insert_ts"`
	UpdateTS             *string  `td:"update_ts,update_ts"`
}

// BalanceTransactionsTable is the balance_transactions table metadata.
var BalanceTransactionsTable = meta.MustParse("balance_transactions", "balance_transaction", BalanceTransactionRow{})

func balanceTransactionRowFrom(x *stripe.BalanceTransaction) *BalanceTransactionRow {
	return &BalanceTransactionRow{
		ID:                x.ID,
		Amount:            x.Amount,
		AvailableOn:       unixDT(x.AvailableOn),
		Currency:          x.Currency,
		Description:       x.Description,
		ExchangeRate:      x.ExchangeRate,
		Fee:               x.Fee,
		FeeDetails:        rawJSON(x.FeeDetails),
		Net:               x.Net,
		ReportingCategory: x.ReportingCategory,
		Source:            x.Source,
		Status:            x.Status,
		Type:              x.Type,
		Created:           unixDT(x.Created),
	}
}

func balanceTransactionInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return balanceTransactionUpsertTree(tx, w, data)
}

func balanceTransactionUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.BalanceTransaction](data, "balance_transaction")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, BalanceTransactionsTable, balanceTransactionRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func balanceTransactionDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}
