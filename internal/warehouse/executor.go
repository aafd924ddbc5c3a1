package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ExecutionError reports a statement that the warehouse rejected or that
// failed mid-flight. The driver error text feeds the user-facing
// explanation layer, so the cause is always preserved.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("warehouse: executing query: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Result carries one query's output. A query that matches nothing yields
// empty Columns and Rows rather than an error.
type Result struct {
	Columns  []string      `json:"columns"`
	Rows     [][]any       `json:"rows"`
	Duration time.Duration `json:"-"`
}

// Executor runs sanitized statements inside read-only transactions.
type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// ExecuteReadOnly runs one statement and materializes every row. The
// transaction is opened read-only so the database enforces the same
// guarantee the sanitizer checks textually.
func (e *Executor) ExecuteReadOnly(ctx context.Context, statement string) (Result, error) {
	start := time.Now()

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Result{}, &ExecutionError{Err: fmt.Errorf("begin read-only tx: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, statement)
	if err != nil {
		return Result{}, &ExecutionError{Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, &ExecutionError{Err: fmt.Errorf("query columns: %w", err)}
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, &ExecutionError{Err: fmt.Errorf("scan row: %w", err)}
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Result{}, &ExecutionError{Err: fmt.Errorf("iterate rows: %w", err)}
	}

	if len(resultRows) == 0 {
		return Result{Columns: []string{}, Rows: [][]any{}, Duration: time.Since(start)}, nil
	}

	return Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
