// Package dialect defines the database abstraction the mapper operates
// against.
//
// The mapper never touches database/sql directly; it talks to a
// dialect.Driver, which is supplied (and owned) by the caller:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	users, err := relmap.New(drv, userTable)
//
// Three dialects are recognized:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The dialect name selects placeholder style ($n for Postgres, ? elsewhere)
// and identifier quoting (backticks for MySQL, double quotes elsewhere) in
// the statement builders of the dialect/sql sub-package.
package dialect
