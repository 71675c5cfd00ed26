// Package sqlbuilder renders goqu statements for whichever store the gorm
// handle is connected to and runs them through gorm, so they join the
// caller's transaction.
package sqlbuilder

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"gorm.io/gorm"
)

// Statement is any prepared goqu dataset.
type Statement interface {
	ToSQL() (string, []interface{}, error)
}

// For picks the goqu dialect for db's driver. Postgres uses the default
// dialect so placeholders stay "?" and gorm rebinds them.
func For(db *gorm.DB) goqu.DialectWrapper {
	switch dialectName(db) {
	case "mysql":
		return goqu.Dialect("mysql")
	case "sqlite":
		return goqu.Dialect("sqlite3")
	default:
		return goqu.Dialect("default")
	}
}

// Exec runs a write statement and returns the affected row count.
func Exec(ctx context.Context, db *gorm.DB, stmt Statement) (int64, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return 0, err
	}
	res := db.WithContext(ctx).Exec(query, args...)
	return res.RowsAffected, res.Error
}

// Scan runs a read statement into dest.
func Scan(ctx context.Context, db *gorm.DB, stmt Statement, dest any) error {
	query, args, err := stmt.ToSQL()
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}

func dialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return ""
	}
	return db.Dialector.Name()
}
