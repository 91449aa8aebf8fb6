package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// SourceRow mirrors one legacy payment source. Sources detach from their
// customer but never fire their own delete; the row stays.
type SourceRow struct {
	SourceID            *int64  `td:"source_id,pk"`
	ID                  string  `td:"id,unique"`
	Amount              *int64  `td:"amount"`
	ClientSecret        string  `td:"client_secret"`
	Currency            *string `td:"currency"`
	Customer            *string `td:"customer"`
	Flow                string  `td:"flow"`
	Livemode            bool    `td:"livemode"`
	Metadata            *string `td:"metadata,json"`
	Owner               *string `td:"owner,json"`
	StatementDescriptor *string `td:"statement_descriptor"`
	Status              string  `td:"status"`
	Type                string  `td:"type"`
	Usage               *string `td:"usage"`
	Created             string  `td:"created,dt"`
	InsertTS            string  `td:"insert_ts,insert_ts"`
	UpdateTS            *string `td:"update_ts,update_ts"`
}

// SourcesTable is the sources table metadata.
var SourcesTable = meta.MustParse("sources", "source", SourceRow{})

func sourceRowFrom(x *stripe.Source) *SourceRow {
	return &SourceRow{
		ID:                  x.ID,
		Amount:              x.Amount,
		ClientSecret:        x.ClientSecret,
		Currency:            x.Currency,
		Customer:            x.Customer,
		Flow:                x.Flow,
		Livemode:            x.Livemode,
		Metadata:            rawJSON(x.Metadata),
		Owner:               rawJSON(x.Owner),
		StatementDescriptor: x.StatementDescriptor,
		Status:              x.Status,
		Type:                x.Type,
		Usage:               x.Usage,
		Created:             unixDT(x.Created),
	}
}

func sourceInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return sourceUpsertTree(tx, w, data)
}

func sourceUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Source](data, "source")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, SourcesTable, sourceRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func sourceDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}
