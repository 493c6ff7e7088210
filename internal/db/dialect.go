package db

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Dialect captures the few places where the supported stores disagree:
// placeholder syntax, identifier quoting and catalog queries.
type Dialect struct {
	Name string

	driver    driver.Driver
	numbered  bool
	quoteChar string

	listTablesSQL  string
	listColumnsSQL string
}

var (
	SQLite = Dialect{
		Name:      "sqlite3",
		driver:    &sqlite3.SQLiteDriver{},
		quoteChar: `"`,
		listTablesSQL: `SELECT name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`,
		listColumnsSQL: `SELECT name FROM pragma_table_info(?) ORDER BY cid`,
	}

	Postgres = Dialect{
		Name:      "postgres",
		driver:    pq.Driver{},
		numbered:  true,
		quoteChar: `"`,
		listTablesSQL: `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
		listColumnsSQL: `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`,
	}

	MySQL = Dialect{
		Name:      "mysql",
		driver:    mysql.MySQLDriver{},
		quoteChar: "`",
		listTablesSQL: `SELECT table_name FROM information_schema.tables
WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
		listColumnsSQL: `SELECT column_name FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`,
	}
)

func DialectFor(name string) (Dialect, error) {
	switch name {
	case SQLite.Name:
		return SQLite, nil
	case Postgres.Name:
		return Postgres, nil
	case MySQL.Name:
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported driver %q", name)
	}
}

// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdent quotes a table or column name, doubling any embedded quote characters.
func (d Dialect) QuoteIdent(name string) string {
	q := d.quoteChar
	if q == "" {
		q = `"`
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func (d Dialect) ListTablesSQL() string { return d.listTablesSQL }

// ListColumnsSQL takes the table name as its only argument.
func (d Dialect) ListColumnsSQL() string { return d.listColumnsSQL }
