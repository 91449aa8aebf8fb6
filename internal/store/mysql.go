package store

import (
	"fmt"

	"github.com/roach88/tabledog/internal/meta"
)

// MySQL dialect. DATETIME(3) columns truncate the literal to milliseconds.
type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) QuoteIdent(ident string) string { return "`" + ident + "`" }

func (MySQL) Now3MS() string { return "UTC_TIMESTAMP(3)" }

func (MySQL) ColumnType(k meta.Kind) string {
	switch k {
	case meta.KindInt64:
		return "BIGINT"
	case meta.KindBool:
		return "TINYINT(1)"
	case meta.KindFloat64:
		return "DOUBLE"
	default:
		// Provider ids and scalar strings; long document fields use the
		// JSON column type instead.
		return "VARCHAR(255)"
	}
}

func (MySQL) JSONColumnType() string { return "JSON" }

func (MySQL) TimestampColumnType() string { return "DATETIME(3)" }

func (MySQL) AutoPKColumn(name string) string {
	return fmt.Sprintf("`%s` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY", name)
}

func (MySQL) InsertReturningID() bool { return false }

func (MySQL) InlineIndexes() bool { return true }
