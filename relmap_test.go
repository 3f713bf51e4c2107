package relmap_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relmap/relmap"
	"github.com/relmap/relmap/dialect"
	"github.com/relmap/relmap/dialect/sql"
	"github.com/relmap/relmap/schema"
)

type User struct {
	ID    int64
	Name  string
	Email string
}

func userTable() schema.Table[User] {
	return schema.Table[User]{
		Name: "users",
		ID:   schema.Int64("user_id", func(u *User) *int64 { return &u.ID }),
		Columns: []schema.Column[User]{
			schema.String("name", func(u *User) *string { return &u.Name }),
			schema.String("email", func(u *User) *string { return &u.Email }),
		},
	}
}

func newMapper(t *testing.T, name string) (*relmap.Mapper[User], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	users, err := relmap.New(sql.OpenDB(name, db), userTable())
	require.NoError(t, err)
	return users, mock
}

func TestNew(t *testing.T) {
	t.Run("NilDriver", func(t *testing.T) {
		_, err := relmap.New(nil, userTable())
		require.Error(t, err)
		assert.True(t, relmap.IsConfiguration(err))
	})

	t.Run("InvalidTable", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		tb := userTable()
		tb.ID = schema.Column[User]{}
		_, err = relmap.New(sql.OpenDB(dialect.SQLite, db), tb)
		require.Error(t, err)
		assert.True(t, relmap.IsConfiguration(err))
		assert.True(t, errors.Is(err, relmap.ErrBadConfig))
	})
}

func TestPersistInsert(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectExec(`INSERT INTO "users" ("name", "email") VALUES (?, ?)`).
		WithArgs("Alice", "a@x.com").
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := &User{Name: "Alice", Email: "a@x.com"}
	ok, err := users.Persist(context.Background(), u)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), u.ID, "generated key must be assigned back")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistInsertPostgres(t *testing.T) {
	users, mock := newMapper(t, dialect.Postgres)
	mock.ExpectQuery(`INSERT INTO "users" ("name", "email") VALUES ($1, $2) RETURNING "user_id"`).
		WithArgs("Alice", "a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(9))

	u := &User{Name: "Alice", Email: "a@x.com"}
	ok, err := users.Persist(context.Background(), u)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(9), u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistInsertError(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	cause := errors.New("UNIQUE constraint failed: users.email")
	mock.ExpectExec(`INSERT INTO "users" ("name", "email") VALUES (?, ?)`).
		WithArgs("Alice", "a@x.com").
		WillReturnError(cause)

	_, err := users.Persist(context.Background(), &User{Name: "Alice", Email: "a@x.com"})
	require.Error(t, err)
	assert.True(t, relmap.IsExecution(err))
	assert.True(t, errors.Is(err, cause), "driver error must surface unchanged")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistUpdate(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "user_id" = ? LIMIT 1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email"}).
			AddRow(int64(7), "Alice", "a@x.com"))
	mock.ExpectExec(`UPDATE "users" SET "name" = ? WHERE "user_id" = ?`).
		WithArgs("Alice2", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := users.Persist(context.Background(), &User{ID: 7, Name: "Alice2", Email: "a@x.com"})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistUpdateAllChanged(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "user_id" = ? LIMIT 1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email"}).
			AddRow(int64(7), "Alice", "a@x.com"))
	// Changed columns keep declaration order.
	mock.ExpectExec(`UPDATE "users" SET "name" = ?, "email" = ? WHERE "user_id" = ?`).
		WithArgs("Bob", "b@x.com", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := users.Persist(context.Background(), &User{ID: 7, Name: "Bob", Email: "b@x.com"})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistUpdateNoChanges(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	// Only the read-for-diff runs; no UPDATE is expected.
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "user_id" = ? LIMIT 1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email"}).
			AddRow(int64(7), "Alice", "a@x.com"))

	ok, err := users.Persist(context.Background(), &User{ID: 7, Name: "Alice", Email: "a@x.com"})
	require.NoError(t, err)
	assert.False(t, ok, "no row was modified")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistInsertNoGeneratedKey(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectExec(`INSERT INTO "users" ("name", "email") VALUES (?, ?)`).
		WithArgs("Alice", "a@x.com").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("LastInsertId is not supported")))

	u := &User{Name: "Alice", Email: "a@x.com"}
	ok, err := users.Persist(context.Background(), u)
	require.NoError(t, err, "the insert itself succeeded")
	assert.True(t, ok)
	assert.Zero(t, u.ID, "key stays unset when the driver cannot report it")
	require.NoError(t, mock.ExpectationsWereMet())
}

type Item struct {
	ID   int64
	Name string
}

// itemTable maps items with a name column whose rendering fails for one
// sentinel value, standing in for a field that cannot be read.
func itemTable(unreadable string) schema.Table[Item] {
	name := schema.String("name", func(i *Item) *string { return &i.Name })
	render := name.Value
	name.Value = func(i *Item) (driver.Value, error) {
		if i.Name == unreadable {
			return nil, fmt.Errorf("unreadable name %q", i.Name)
		}
		return render(i)
	}
	return schema.Table[Item]{
		Name: "items",
		ID:   schema.Int64("item_id", func(i *Item) *int64 { return &i.ID }),
		Columns: []schema.Column[Item]{
			name,
		},
	}
}

func TestPersistUpdateUnreadableColumn(t *testing.T) {
	t.Run("StoredSideRewritten", func(t *testing.T) {
		// The stored row's value cannot be rendered for comparison: the
		// column counts as changed and is rewritten from the entity.
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()
		items, err := relmap.New(sql.OpenDB(dialect.SQLite, db), itemTable("corrupt"))
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT * FROM "items" WHERE "item_id" = ? LIMIT 1`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"item_id", "name"}).
				AddRow(int64(7), "corrupt"))
		mock.ExpectExec(`UPDATE "items" SET "name" = ? WHERE "item_id" = ?`).
			WithArgs("Widget", int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := items.Persist(context.Background(), &Item{ID: 7, Name: "Widget"})
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EntitySideFails", func(t *testing.T) {
		// The entity's own value cannot be rendered: there is nothing to
		// bind, so the update fails instead of writing a partial row.
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()
		items, err := relmap.New(sql.OpenDB(dialect.SQLite, db), itemTable("corrupt"))
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT * FROM "items" WHERE "item_id" = ? LIMIT 1`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"item_id", "name"}).
				AddRow(int64(7), "Widget"))

		_, err = items.Persist(context.Background(), &Item{ID: 7, Name: "corrupt"})
		require.Error(t, err)
		assert.True(t, relmap.IsMapping(err))
		assert.Contains(t, err.Error(), "name")
		require.NoError(t, mock.ExpectationsWereMet(), "no UPDATE may be issued")
	})
}

func TestPersistUpdateNotFound(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "user_id" = ? LIMIT 1`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email"}))

	_, err := users.Persist(context.Background(), &User{ID: 404, Name: "Ghost"})
	require.Error(t, err)
	assert.True(t, relmap.IsNotFound(err))
	assert.Contains(t, err.Error(), "404")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFind(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectQuery(`SELECT * FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email"}).
			AddRow(int64(1), "Alice", "a@x.com").
			AddRow(int64(2), "Bob", "b@x.com"))

	got, err := users.Find(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, &User{ID: 1, Name: "Alice", Email: "a@x.com"}, got[0])
	assert.Equal(t, &User{ID: 2, Name: "Bob", Email: "b@x.com"}, got[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindWithPredicate(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "email" = ?`).
		WithArgs("b@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email"}).
			AddRow(int64(2), "Bob", "b@x.com"))

	got, err := users.Find(context.Background(), sql.EQ("email", "b@x.com"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFirst(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "user_id" = ? LIMIT 1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email"}).
			AddRow(int64(1), "Alice", "a@x.com"))

	u, err := users.FindFirst(context.Background(), sql.EQ("user_id", int64(1)))
	require.NoError(t, err)
	assert.Equal(t, &User{ID: 1, Name: "Alice", Email: "a@x.com"}, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFirstNotFound(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	mock.ExpectQuery(`SELECT * FROM "users" LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email"}))

	_, err := users.FindFirst(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, relmap.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	// The legacy column has no descriptor and is discarded.
	mock.ExpectQuery(`SELECT * FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email", "legacy"}).
			AddRow(int64(1), "Alice", "a@x.com", "ignored").
			AddRow(int64(2), "Bob", nil, "ignored"))

	rows, err := users.Query(context.Background(), nil)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	u, err := rows.Entity()
	require.NoError(t, err)
	assert.Equal(t, &User{ID: 1, Name: "Alice", Email: "a@x.com"}, u)

	require.True(t, rows.Next())
	u, err = rows.Entity()
	require.NoError(t, err)
	assert.Equal(t, &User{ID: 2, Name: "Bob", Email: ""}, u, "NULL leaves the field at its zero value")

	require.False(t, rows.Next())
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	require.NoError(t, rows.Close(), "close is idempotent")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		users, mock := newMapper(t, dialect.SQLite)
		mock.ExpectExec(`DELETE FROM "users" WHERE "user_id" = ?`).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := users.Delete(context.Background(), &User{ID: 7})
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Transient", func(t *testing.T) {
		users, mock := newMapper(t, dialect.SQLite)
		ok, err := users.Delete(context.Background(), &User{})
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, relmap.IsNotFound(err))
		require.NoError(t, mock.ExpectationsWereMet(), "no statement may be issued")
	})

	t.Run("NoRowMatched", func(t *testing.T) {
		users, mock := newMapper(t, dialect.SQLite)
		mock.ExpectExec(`DELETE FROM "users" WHERE "user_id" = ?`).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := users.Delete(context.Background(), &User{ID: 7})
		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, relmap.IsNotFound(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMappingErrorOnScan(t *testing.T) {
	type Session struct {
		ID    int64
		Token uuid.UUID
	}
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	sessions, err := relmap.New(sql.OpenDB(dialect.SQLite, db), schema.Table[Session]{
		Name: "sessions",
		ID:   schema.Int64("session_id", func(s *Session) *int64 { return &s.ID }),
		Columns: []schema.Column[Session]{
			schema.UUID("token", func(s *Session) *uuid.UUID { return &s.Token }),
		},
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT * FROM "sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "token"}).
			AddRow(int64(1), "not-a-uuid"))

	_, err = sessions.Find(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, relmap.IsMapping(err))
	assert.Contains(t, err.Error(), "token")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryExecError(t *testing.T) {
	users, mock := newMapper(t, dialect.SQLite)
	cause := errors.New("no such table: users")
	mock.ExpectQuery(`SELECT * FROM "users"`).WillReturnError(cause)

	_, err := users.Find(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, relmap.IsExecution(err))
	assert.True(t, errors.Is(err, cause))
	require.NoError(t, mock.ExpectationsWereMet())
}
