package dbstore

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Dialect selects the SQL flavour spoken by the engine.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

func (d Dialect) Validate() error {
	switch d {
	case DialectSQLite, DialectMySQL:
		return nil
	default:
		return fmt.Errorf("unsupported dialect %q", string(d))
	}
}

func (d Dialect) quote(name string) string {
	if d == DialectMySQL {
		return "`" + name + "`"
	}

	return `"` + name + `"`
}

func (d Dialect) columnType(kind columnKind) string {
	if d == DialectMySQL {
		switch kind {
		case kindID:
			return "VARCHAR(60)"
		case kindText:
			return "VARCHAR(128)"
		case kindLongText:
			return "VARCHAR(1024)"
		case kindInt:
			return "INTEGER"
		case kindFloat:
			return "DOUBLE"
		case kindTime:
			return "DATETIME(6)"
		case kindList:
			return "TEXT"
		}
	}

	switch kind {
	case kindInt:
		return "INTEGER"
	case kindFloat:
		return "REAL"
	case kindID, kindText, kindLongText, kindTime, kindList:
		return "TEXT"
	}

	return "TEXT"
}

func (d Dialect) tableOptions() string {
	if d == DialectMySQL {
		return " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}

	return ""
}

func (d Dialect) placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// upsert returns an insert statement that updates every non-key column on
// primary key conflict. It never deletes the existing row, so no cascade fires.
func (d Dialect) upsert(t *table) string {
	names := t.columnNames()
	quoted := lo.Map(names, func(name string, _ int) string { return d.quote(name) })

	updates := lo.FilterMap(names, func(name string, _ int) (string, bool) {
		if name == "id" {
			return "", false
		}
		if d == DialectMySQL {
			return fmt.Sprintf("%s = VALUES(%s)", d.quote(name), d.quote(name)), true
		}
		return fmt.Sprintf("%s = excluded.%s", d.quote(name), d.quote(name)), true
	})

	conflict := "ON CONFLICT(" + d.quote("id") + ") DO UPDATE SET "
	if d == DialectMySQL {
		conflict = "ON DUPLICATE KEY UPDATE "
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) %s%s",
		d.quote(t.name),
		strings.Join(quoted, ", "),
		d.placeholders(len(names)),
		conflict,
		strings.Join(updates, ", "),
	)
}
