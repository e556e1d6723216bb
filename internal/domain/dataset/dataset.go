// Package dataset holds the tabular dataset the statistics tools query.
//
// A Dataset is loaded once at start-up into an in-memory SQLite table (or
// opened read-only when the source already is a SQLite file) and is never
// mutated afterwards, so it is safe for concurrent readers.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/matiasleandrokruk/statsmcp/internal/infra/sqlite"
)

var (
	ErrColumnNotFound   = errors.New("column not found")
	ErrNotNumeric       = errors.New("column is not numeric")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidDataset   = errors.New("invalid dataset")
	ErrUnknownStatistic = errors.New("unknown statistic")
)

// Kind is the declared value kind of a column.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
)

type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Summary describes the shape of the dataset.
type Summary struct {
	RowCount    int      `json:"rowCount"`
	ColumnCount int      `json:"columnCount"`
	ColumnNames []string `json:"columnNames"`
}

func (s Summary) String() string {
	return fmt.Sprintf("Dataset has %d rows and %d columns. Columns: %s",
		s.RowCount, s.ColumnCount, strings.Join(s.ColumnNames, ", "))
}

// Statistic names an aggregate over the present values of a numeric column.
type Statistic string

const (
	StatMean   Statistic = "mean"
	StatMedian Statistic = "median"
	StatStdDev Statistic = "stddev"
)

// ParseStatistic accepts the canonical names plus "std" and "average".
func ParseStatistic(s string) (Statistic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean", "average", "avg":
		return StatMean, nil
	case "median":
		return StatMedian, nil
	case "stddev", "std":
		return StatStdDev, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatistic, s)
	}
}

type Dataset struct {
	db      *sql.DB
	table   string
	source  string
	rows    int
	columns []Column
	index   map[string]int
}

func newDataset(db *sql.DB, table, source string, columns []Column, rows int) *Dataset {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.Name] = i
	}
	return &Dataset{
		db:      db,
		table:   table,
		source:  source,
		rows:    rows,
		columns: columns,
		index:   index,
	}
}

// Summarize returns row count, column count and column names in file order.
func (d *Dataset) Summarize() Summary {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return Summary{
		RowCount:    d.rows,
		ColumnCount: len(d.columns),
		ColumnNames: names,
	}
}

// Columns returns a copy of the column metadata in file order.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

func (d *Dataset) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// Source is the path the dataset was loaded from.
func (d *Dataset) Source() string {
	return d.source
}

// ColumnStatistic computes op over the non-missing values of column.
// Missing values are excluded, never treated as zero.
func (d *Dataset) ColumnStatistic(ctx context.Context, column string, op Statistic) (float64, error) {
	col, ok := d.Column(column)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	if col.Kind != KindNumeric {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, column)
	}

	compute, err := statisticFunc(op)
	if err != nil {
		return 0, err
	}

	values, err := d.presentValues(ctx, col.Name)
	if err != nil {
		return 0, err
	}

	result, err := compute(values)
	if err != nil {
		return 0, fmt.Errorf("%w: column %q has %d values", err, column, len(values))
	}
	return result, nil
}

// presentValues reads the non-NULL values of a numeric column.
func (d *Dataset) presentValues(ctx context.Context, column string) ([]float64, error) {
	ident := sqlite.QuoteIdent(column)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL`, ident, sqlite.QuoteIdent(d.table), ident)

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dataset: query %q: %w", column, err)
	}
	defer rows.Close()

	values := make([]float64, 0, d.rows)
	for rows.Next() {
		var v float64
		if scanErr := rows.Scan(&v); scanErr != nil {
			// A numeric-affinity SQLite column can still hold text.
			return nil, fmt.Errorf("%w: %q: %v", ErrNotNumeric, column, scanErr)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", column, err)
	}
	return values, nil
}

// Close releases the underlying database handle.
func (d *Dataset) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
