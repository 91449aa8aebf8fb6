package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// CardRow mirrors one customer card source.
type CardRow struct {
	CardID      *int64  `td:"card_id,pk"`
	ID          string  `td:"id,unique"`
	Brand       string  `td:"brand"`
	Country     *string `td:"country"`
	Customer    *string `td:"customer"`
	CVCCheck    *string `td:"cvc_check"`
	ExpMonth    int64   `td:"exp_month"`
	ExpYear     int64   `td:"exp_year"`
	Fingerprint *string `td:"fingerprint"`
	Funding     string  `td:"funding"`
	Last4       string  `td:"last4"`
	Metadata    *string `td:"metadata,json"`
	Name        *string `td:"name"`
	InsertTS    string  `td:"insert_ts,insert_ts"`
	UpdateTS    *string `td:"update_ts,update_ts"`
}

// CardsTable is the cards table metadata.
var CardsTable = meta.MustParse("cards", "card", CardRow{})

func cardRowFrom(x *stripe.Card) *CardRow {
	return &CardRow{
		ID:          x.ID,
		Brand:       x.Brand,
		Country:     x.Country,
		Customer:    expID(x.Customer),
		CVCCheck:    x.CVCCheck,
		ExpMonth:    x.ExpMonth,
		ExpYear:     x.ExpYear,
		Fingerprint: x.Fingerprint,
		Funding:     x.Funding,
		Last4:       x.Last4,
		Metadata:    rawJSON(x.Metadata),
		Name:        x.Name,
	}
}

func cardInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return cardUpsertTree(tx, w, data)
}

func cardUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Card](data, "card")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, CardsTable, cardRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func cardDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}
