// Package sql provides the database/sql-backed dialect.Driver together
// with parameterized statement builders and predicates.
//
// Builders render statement text only; they never execute it. All values
// are carried as bound arguments:
//
//	query, args := sql.Dialect(dialect.Postgres).
//		Update("users").
//		Set("name", "Ariel").
//		Where(sql.EQ("user_id", 7)).
//		Query()
//	// UPDATE "users" SET "name" = $1 WHERE "user_id" = $2
package sql
