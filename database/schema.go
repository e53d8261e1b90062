package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Querier is the subset of *sql.DB used for read-only access.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const tablesQuery = `SELECT name, sql FROM sqlite_master
WHERE type IN ('table', 'view')
  AND name NOT LIKE 'sqlite_%'
  AND name <> 'goose_db_version'
  AND sql IS NOT NULL
ORDER BY name`

// DescribeSchema renders every user table as its CREATE statement followed by
// up to sampleRows example rows in a block comment. The text is meant for a
// query translator prompt.
func DescribeSchema(ctx context.Context, db Querier, sampleRows int) (string, error) {
	rows, err := db.QueryContext(ctx, tablesQuery)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDescribe, err)
	}

	type table struct{ name, ddl string }
	var tables []table
	for rows.Next() {
		var t table
		if err := rows.Scan(&t.name, &t.ddl); err != nil {
			rows.Close()
			return "", fmt.Errorf("%w: %v", ErrDescribe, err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return "", fmt.Errorf("%w: %v", ErrDescribe, err)
	}
	rows.Close()

	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(t.ddl))

		if sampleRows <= 0 {
			continue
		}
		sample, err := describeSample(ctx, db, t.name, sampleRows)
		if err != nil {
			return "", err
		}
		b.WriteString("\n\n")
		b.WriteString(sample)
	}
	return b.String(), nil
}

func describeSample(ctx context.Context, db Querier, table string, n int) (string, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), n)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%w: sample %s: %v", ErrDescribe, table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("%w: sample %s: %v", ErrDescribe, table, err)
	}

	var lines []string
	lines = append(lines, strings.Join(cols, "\t"))
	for rows.Next() {
		values, err := ScanRow(rows, len(cols))
		if err != nil {
			return "", fmt.Errorf("%w: sample %s: %v", ErrDescribe, table, err)
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = fmt.Sprint(v)
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("%w: sample %s: %v", ErrDescribe, table, err)
	}

	return fmt.Sprintf("/*\n%d rows from %s table:\n%s\n*/", len(lines)-1, table, strings.Join(lines, "\n")), nil
}

// ScanRow scans the current row into driver-neutral values: []byte becomes
// string and NULL stays nil.
func ScanRow(rows *sql.Rows, width int) ([]any, error) {
	values := make([]any, width)
	ptrs := make([]any, width)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
