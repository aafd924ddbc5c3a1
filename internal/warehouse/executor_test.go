package warehouse

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestExecuteReadOnlyReturnsColumnsAndRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT sku, stock FROM productos").WillReturnRows(
		sqlmock.NewRows([]string{"sku", "stock"}).
			AddRow([]byte("K-2001"), int64(42)).
			AddRow([]byte("K-2002"), int64(7)),
	)
	mock.ExpectRollback()

	executor := NewExecutor(db)
	result, err := executor.ExecuteReadOnly(context.Background(), "SELECT sku, stock FROM productos LIMIT 100")
	if err != nil {
		t.Fatalf("ExecuteReadOnly() error = %v", err)
	}

	if len(result.Columns) != 2 || result.Columns[0] != "sku" || result.Columns[1] != "stock" {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Rows = %v", result.Rows)
	}
	if result.Rows[0][0] != "K-2001" {
		t.Fatalf("byte column not normalized to string: %#v", result.Rows[0][0])
	}
	if result.Rows[0][1] != int64(42) {
		t.Fatalf("numeric column = %#v", result.Rows[0][1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExecuteReadOnlyEmptyResultIsNotAnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT sku FROM productos").WillReturnRows(sqlmock.NewRows([]string{"sku"}))
	mock.ExpectRollback()

	executor := NewExecutor(db)
	result, err := executor.ExecuteReadOnly(context.Background(), "SELECT sku FROM productos WHERE stock < 0 LIMIT 100")
	if err != nil {
		t.Fatalf("ExecuteReadOnly() error = %v", err)
	}
	if result.Columns == nil || len(result.Columns) != 0 {
		t.Fatalf("Columns = %#v, want empty slice", result.Columns)
	}
	if result.Rows == nil || len(result.Rows) != 0 {
		t.Fatalf("Rows = %#v, want empty slice", result.Rows)
	}
}

func TestExecuteReadOnlyWrapsQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	queryErr := errors.New(`relation "inventario" does not exist`)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnError(queryErr)
	mock.ExpectRollback()

	executor := NewExecutor(db)
	_, err = executor.ExecuteReadOnly(context.Background(), "SELECT * FROM inventario LIMIT 100")

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want ExecutionError", err)
	}
	if !errors.Is(err, queryErr) {
		t.Fatal("driver error not preserved")
	}
}

func TestExecuteReadOnlyUsesReadOnlyTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(int64(1)))
	mock.ExpectRollback()

	executor := NewExecutor(db)
	if _, err := executor.ExecuteReadOnly(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("ExecuteReadOnly() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReadOnlyDuckDBDSN(t *testing.T) {
	cases := map[string]string{
		"analytics.db":                       "analytics.db?access_mode=read_only",
		"analytics.db?threads=4":             "analytics.db?threads=4&access_mode=read_only",
		"analytics.db?access_mode=read_only": "analytics.db?access_mode=read_only",
	}
	for input, want := range cases {
		if got := readOnlyDuckDBDSN(input); got != want {
			t.Fatalf("readOnlyDuckDBDSN(%q) = %q, want %q", input, got, want)
		}
	}
}
