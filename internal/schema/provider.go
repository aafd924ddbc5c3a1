package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLProvider builds the schema description from information_schema, which
// both the Postgres and the DuckDB warehouse expose. Only the default schema
// name differs ("public" vs "main").
type SQLProvider struct {
	db         *sql.DB
	schemaName string
}

func NewPostgresProvider(db *sql.DB) *SQLProvider {
	return &SQLProvider{db: db, schemaName: "public"}
}

func NewDuckDBProvider(db *sql.DB) *SQLProvider {
	return &SQLProvider{db: db, schemaName: "main"}
}

const describeQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`

func (p *SQLProvider) Describe(ctx context.Context) (string, error) {
	rows, err := p.db.QueryContext(ctx, describeQuery, p.schemaName)
	if err != nil {
		return "", fmt.Errorf("query information_schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		builder      strings.Builder
		currentTable string
	)
	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return "", fmt.Errorf("scan column row: %w", err)
		}
		if tableName != currentTable {
			if currentTable != "" {
				builder.WriteString("\n")
			}
			builder.WriteString("Table " + tableName + ":\n")
			currentTable = tableName
		}
		builder.WriteString("  " + columnName + " " + dataType + "\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate column rows: %w", err)
	}
	if builder.Len() == 0 {
		return "", fmt.Errorf("no tables visible in schema %q", p.schemaName)
	}
	return builder.String(), nil
}
