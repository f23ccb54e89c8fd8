package extract

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/BartekS5/snapetl/pkg/database"
	"github.com/BartekS5/snapetl/pkg/models"
)

// RowSource returns the rows of a table changed at or after a timestamp.
type RowSource interface {
	ChangedRows(ctx context.Context, table, since string) ([]models.Row, error)
}

// SQLSource reads changed rows from the operational database. Every source
// table carries a last_updated column.
type SQLSource struct {
	DB     *sql.DB
	Driver string
}

func NewSQLSource(db *sql.DB, driver string) *SQLSource {
	return &SQLSource{DB: db, Driver: driver}
}

func (s *SQLSource) query(table string) string {
	if s.Driver == database.DriverSQLServer {
		ident := "[" + strings.ReplaceAll(table, "]", "]]") + "]"
		return fmt.Sprintf("SELECT * FROM %s WHERE last_updated >= @p1", ident)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE last_updated >= $1", pgx.Identifier{table}.Sanitize())
}

func (s *SQLSource) ChangedRows(ctx context.Context, table, since string) ([]models.Row, error) {
	rows, err := s.DB.QueryContext(ctx, s.query(table), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []models.Row
	for rows.Next() {
		columns := make([]interface{}, len(cols))
		columnPointers := make([]interface{}, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}
		if err := rows.Scan(columnPointers...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}

		m := make(models.Row, len(cols))
		for i, colName := range cols {
			if b, ok := columns[i].([]byte); ok {
				m[colName] = string(b)
			} else {
				m[colName] = columns[i]
			}
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", table, err)
	}
	return results, nil
}
