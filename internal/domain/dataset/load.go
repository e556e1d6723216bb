package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matiasleandrokruk/statsmcp/internal/infra/sqlite"
)

// DefaultTable is the table a CSV is loaded into, and the table read from
// SQLite sources unless Options.Table says otherwise.
const DefaultTable = "dataset"

type Options struct {
	// Table selects the table of a SQLite source.
	Table string
}

// missingTokens are the cell values treated as missing (a subset of the
// pandas read_csv defaults).
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

// Load reads the dataset at path. SQLite files (.db, .sqlite, .sqlite3) are
// opened read-only; anything else is parsed as CSV with a header row.
func Load(ctx context.Context, path string, opts Options) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return loadSQLite(ctx, path, opts.Table)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("dataset: open %q: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(ctx, f, path)
	}
}

// ReadCSV loads CSV content into a fresh in-memory table. source is only
// recorded for diagnostics.
func ReadCSV(ctx context.Context, r io.Reader, source string) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: empty file", ErrInvalidDataset, source)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: header: %v", ErrInvalidDataset, source, err)
	}
	names, err := headerNames(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDataset, source, err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDataset, source, err)
	}

	columns := inferColumns(names, records)

	db, err := sqlite.NewMemoryDB()
	if err != nil {
		return nil, err
	}
	if err := createAndFill(ctx, db, columns, records); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: load %s: %w", source, err)
	}

	return newDataset(db, DefaultTable, source, columns, len(records)), nil
}

func headerNames(header []string) ([]string, error) {
	names := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		seen[name] = struct{}{}
		names[i] = name
	}
	return names, nil
}

// inferColumns marks a column numeric when every present cell parses as a
// float. A column without present cells is numeric, as pandas reads it as NaN.
func inferColumns(names []string, records [][]string) []Column {
	columns := make([]Column, len(names))
	for i, name := range names {
		kind := KindNumeric
		for _, rec := range records {
			cell := rec[i]
			if isMissing(cell) {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
				kind = KindText
				break
			}
		}
		columns[i] = Column{Name: name, Kind: kind}
	}
	return columns
}

func isMissing(cell string) bool {
	_, ok := missingTokens[strings.TrimSpace(cell)]
	return ok
}

func createAndFill(ctx context.Context, db *sql.DB, columns []Column, records [][]string) error {
	defs := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		affinity := "TEXT"
		if c.Kind == KindNumeric {
			affinity = "REAL"
		}
		defs[i] = sqlite.QuoteIdent(c.Name) + " " + affinity
		placeholders[i] = "?"
	}

	table := sqlite.QuoteIdent(DefaultTable)
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s (%s)`, table, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, table, strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for rowNum, rec := range records {
		for i, c := range columns {
			args[i] = cellValue(rec[i], c.Kind)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", rowNum+1, err)
		}
	}

	return tx.Commit()
}

func cellValue(cell string, kind Kind) any {
	if isMissing(cell) {
		return nil
	}
	if kind == KindNumeric {
		// Already validated by inferColumns.
		v, _ := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		return v
	}
	return cell
}

func loadSQLite(ctx context.Context, path, table string) (*Dataset, error) {
	if table == "" {
		table = DefaultTable
	}

	db, err := sqlite.NewReadOnlyDB(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	columns, rows, err := describeTable(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	return newDataset(db, table, path, columns, rows), nil
}

func describeTable(ctx context.Context, db *sql.DB, table string) ([]Column, int, error) {
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?`, table,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: table %q not found", ErrInvalidDataset, table)
	}
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, sqlite.QuoteIdent(table)))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	columns := make([]Column, 0, 8)
	for rows.Next() {
		var (
			cid       int
			colName   string
			declType  string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if scanErr := rows.Scan(&cid, &colName, &declType, &notNull, &dfltValue, &pk); scanErr != nil {
			return nil, 0, scanErr
		}
		columns = append(columns, Column{Name: colName, Kind: kindFromDeclType(declType)})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(columns) == 0 {
		return nil, 0, fmt.Errorf("%w: table %q has no columns", ErrInvalidDataset, table)
	}

	var count int
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, sqlite.QuoteIdent(table))).Scan(&count); err != nil {
		return nil, 0, err
	}
	return columns, count, nil
}

// kindFromDeclType follows SQLite's type affinity rules: INT, REAL, FLOA,
// DOUB, NUM and DEC declarations hold numbers.
func kindFromDeclType(declType string) Kind {
	t := strings.ToUpper(declType)
	for _, marker := range []string{"INT", "REAL", "FLOA", "DOUB", "NUM", "DEC"} {
		if strings.Contains(t, marker) {
			return KindNumeric
		}
	}
	return KindText
}
