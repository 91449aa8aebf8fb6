// Package meta derives relational table metadata from Go row structs.
//
// A row struct describes one mirrored table. Columns are declared with the
// `td` struct tag:
//
//	type Price struct {
//		PriceID  *int64  `td:"price_id,pk"`
//		ID       string  `td:"id,unique"`
//		Product  string  `td:"product"`
//		Tiers    *string `td:"tiers,json"`
//		InsertTS string  `td:"insert_ts,insert_ts"`
//		UpdateTS *string `td:"update_ts,update_ts"`
//	}
//
// The same metadata drives DDL generation, inserts, updates, and deletes, so
// every dialect sees a schema that matches the rows the engine writes.
package meta

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind is the portable column type. Dialects translate kinds to concrete
// SQL column types.
type Kind int

const (
	KindInt64 Kind = iota
	KindString
	KindBool
	KindFloat64
)

// Col is one column of a mapped table.
type Col struct {
	Name     string
	Field    int
	Kind     Kind
	Nullable bool
	PK       bool
	Unique   bool
	InsertTS bool
	UpdateTS bool
	JSON     bool
	DT       bool

	// WriteOnce columns are set on insert and never touched by updates
	// (insert_ts, provenance flags).
	WriteOnce bool
}

// NamedValue pairs a column name with its value for named-parameter SQL.
type NamedValue struct {
	Name  string
	Value any
}

// Table is the derived metadata for one row struct.
type Table struct {
	Name    string
	ObjType string

	rowType reflect.Type
	Cols    []Col

	pk       int
	id       int
	insertTS int
	updateTS int
}

// MustParse derives a Table from the given row struct. It panics on a
// malformed struct; tables are package-level values built at init time, so a
// bad tag is a programming error, not a runtime condition.
func MustParse(table, objType string, row any) *Table {
	t, err := Parse(table, objType, row)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse derives a Table from the given row struct.
func Parse(table, objType string, row any) (*Table, error) {
	rt := reflect.TypeOf(row)
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("meta: %s: row type must be a struct, got %s", table, rt.Kind())
	}

	t := &Table{
		Name:     table,
		ObjType:  objType,
		rowType:  rt,
		pk:       -1,
		id:       -1,
		insertTS: -1,
		updateTS: -1,
	}

	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag, ok := f.Tag.Lookup("td")
		if !ok || tag == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		col := Col{Name: parts[0], Field: i}
		if col.Name == "" {
			return nil, fmt.Errorf("meta: %s.%s: empty column name", table, f.Name)
		}

		for _, opt := range parts[1:] {
			switch opt {
			case "pk":
				col.PK = true
			case "unique":
				col.Unique = true
			case "insert_ts":
				col.InsertTS = true
			case "update_ts":
				col.UpdateTS = true
			case "json":
				col.JSON = true
			case "dt":
				col.DT = true
			case "writeonce":
				col.WriteOnce = true
			default:
				return nil, fmt.Errorf("meta: %s.%s: unknown tag option %q", table, f.Name, opt)
			}
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			col.Nullable = true
			ft = ft.Elem()
		}
		switch ft.Kind() {
		case reflect.Int64:
			col.Kind = KindInt64
		case reflect.String:
			col.Kind = KindString
		case reflect.Bool:
			col.Kind = KindBool
		case reflect.Float64:
			col.Kind = KindFloat64
		default:
			return nil, fmt.Errorf("meta: %s.%s: unsupported field type %s", table, f.Name, f.Type)
		}

		idx := len(t.Cols)
		switch {
		case col.PK:
			if t.pk != -1 {
				return nil, fmt.Errorf("meta: %s: multiple pk columns", table)
			}
			if col.Kind != KindInt64 || !col.Nullable {
				return nil, fmt.Errorf("meta: %s.%s: pk must be *int64", table, f.Name)
			}
			t.pk = idx
		case col.InsertTS:
			t.insertTS = idx
		case col.UpdateTS:
			t.updateTS = idx
		}
		if col.Name == "id" {
			t.id = idx
		}
		t.Cols = append(t.Cols, col)
	}

	if len(t.Cols) == 0 {
		return nil, fmt.Errorf("meta: %s: no td-tagged columns", table)
	}
	if t.pk == -1 {
		return nil, fmt.Errorf("meta: %s: no pk column", table)
	}
	return t, nil
}

// HasID reports whether the table carries a provider-assigned `id` column.
// Child tables keyed only by their parent (no direct provider id) do not.
func (t *Table) HasID() bool { return t.id != -1 }

// PKName returns the surrogate primary key column name.
func (t *Table) PKName() string { return t.Cols[t.pk].Name }

// structValue unwraps a row into its addressable struct value.
func (t *Table) structValue(row any) reflect.Value {
	v := reflect.ValueOf(row)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Type() != t.rowType {
		panic(fmt.Sprintf("meta: %s: row type %s does not match table type %s", t.Name, v.Type(), t.rowType))
	}
	return v
}

// ID returns the provider string id of a row. Panics if the table has no id
// column; callers gate on HasID for parent-keyed child tables.
func (t *Table) ID(row any) string {
	if t.id == -1 {
		panic(fmt.Sprintf("meta: %s has no id column", t.Name))
	}
	return t.structValue(row).Field(t.Cols[t.id].Field).String()
}

// SetPK writes the surrogate key back onto the row after an insert.
func (t *Table) SetPK(row any, pk int64) {
	f := t.structValue(row).Field(t.Cols[t.pk].Field)
	f.Set(reflect.ValueOf(&pk))
}

// PK reads the surrogate key, or nil when the row has not been inserted.
func (t *Table) PK(row any) *int64 {
	f := t.structValue(row).Field(t.Cols[t.pk].Field)
	if f.IsNil() {
		return nil
	}
	v := f.Elem().Int()
	return &v
}

// SetInsertTS stamps the wall-clock insert timestamp on the row. No-op for
// tables without an insert_ts column.
func (t *Table) SetInsertTS(row any, now string) {
	if t.insertTS == -1 {
		return
	}
	f := t.structValue(row).Field(t.Cols[t.insertTS].Field)
	f.SetString(now)
}

// InsertCols returns the columns written on INSERT: everything except the
// surrogate pk and update_ts (update_ts starts NULL and is only touched by
// UPDATE, server-side).
func (t *Table) InsertCols() []Col {
	out := make([]Col, 0, len(t.Cols))
	for _, c := range t.Cols {
		if c.PK || c.UpdateTS {
			continue
		}
		out = append(out, c)
	}
	return out
}

// UpdateCols returns the columns written on UPDATE: everything except the
// surrogate pk, insert_ts (write-once), update_ts (set server-side), and the
// where column.
func (t *Table) UpdateCols(whereCol string) []Col {
	out := make([]Col, 0, len(t.Cols))
	for _, c := range t.Cols {
		if c.PK || c.InsertTS || c.UpdateTS || c.WriteOnce || c.Name == whereCol {
			continue
		}
		out = append(out, c)
	}
	return out
}

// UpdateTSCol returns the update_ts column name, or "" when the table has
// none.
func (t *Table) UpdateTSCol() string {
	if t.updateTS == -1 {
		return ""
	}
	return t.Cols[t.updateTS].Name
}

// Values extracts named values for the given columns from a row. Nil
// pointers become SQL NULLs.
func (t *Table) Values(row any, cols []Col) []NamedValue {
	v := t.structValue(row)
	out := make([]NamedValue, 0, len(cols))
	for _, c := range cols {
		f := v.Field(c.Field)
		var val any
		if c.Nullable {
			if f.IsNil() {
				val = nil
			} else {
				val = f.Elem().Interface()
			}
		} else {
			val = f.Interface()
		}
		out = append(out, NamedValue{Name: c.Name, Value: val})
	}
	return out
}

// Value extracts a single named column value from a row.
func (t *Table) Value(row any, colName string) (NamedValue, error) {
	for _, c := range t.Cols {
		if c.Name == colName {
			return t.Values(row, []Col{c})[0], nil
		}
	}
	return NamedValue{}, fmt.Errorf("meta: %s: no column %q", t.Name, colName)
}
