package store

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tabledog/internal/meta"
)

type gadgetRow struct {
	GadgetID *int64   `td:"gadget_id,pk"`
	ID       string   `td:"id,unique"`
	Name     string   `td:"name"`
	Count    *int64   `td:"count"`
	Active   bool     `td:"active"`
	Ratio    *float64 `td:"ratio"`
	Payload  *string  `td:"payload,json"`
	Created  string   `td:"created,dt"`
	InsertTS string   `td:"insert_ts,insert_ts"`
	UpdateTS *string  `td:"update_ts,update_ts"`
}

// DDL is compared against goldens per dialect so an accidental change to
// column-type translation is visible in review.
func TestCreateTableSQLGolden(t *testing.T) {
	tbl := meta.MustParse("gadgets", "gadget", gadgetRow{})
	ddl := DDLTable{Table: tbl, Indexes: [][]string{{"name"}}}

	for _, d := range []Dialect{SQLite{}, MySQL{}, Postgres{}} {
		t.Run(d.Name(), func(t *testing.T) {
			stmts := CreateTableSQL(d, ddl)
			g := goldie.New(t)
			g.Assert(t, "ddl_"+d.Name(), []byte(strings.Join(stmts, ";\n\n")+";\n"))
		})
	}
}
