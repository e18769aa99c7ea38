package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tabula/internal/querysql"
	"github.com/roach88/tabula/internal/record"
)

// ErrUnknownDataset is returned for a dataset that was never loaded.
var ErrUnknownDataset = errors.New("unknown dataset")

// ErrDuplicateDataset is returned when a dataset name is loaded twice.
var ErrDuplicateDataset = errors.New("dataset already loaded")

// LoadDataset creates the table of a dataset, inserts its records in order
// and records its schema in the catalog, in one transaction.
//
// An empty dataset gets a catalog row but no table.
func (s *Store) LoadDataset(ctx context.Context, ds *record.Dataset) error {
	if ds == nil {
		return fmt.Errorf("load dataset: nil dataset")
	}
	if ds.Name == "" {
		return fmt.Errorf("load dataset: name is required")
	}

	schemaJSON, err := json.Marshal(ds.Schema)
	if err != nil {
		return fmt.Errorf("load dataset %q: marshal schema: %w", ds.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("load dataset %q: begin: %w", ds.Name, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets WHERE name = ?`, ds.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("load dataset %q: %w", ds.Name, err)
	}
	if exists > 0 {
		return fmt.Errorf("load dataset %q: %w", ds.Name, ErrDuplicateDataset)
	}

	if !ds.Schema.IsEmpty() {
		if err := createTable(ctx, tx, ds); err != nil {
			return fmt.Errorf("load dataset %q: %w", ds.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (name, seq, schema, record_count)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM datasets), ?, ?)
	`, ds.Name, string(schemaJSON), len(ds.Records))
	if err != nil {
		return fmt.Errorf("load dataset %q: catalog: %w", ds.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("load dataset %q: commit: %w", ds.Name, err)
	}
	return nil
}

// createTable creates the dataset table and inserts every record.
// Columns carry no declared type so SQLite keeps each value's storage class.
func createTable(ctx context.Context, tx *sql.Tx, ds *record.Dataset) error {
	cols := make([]string, 0, len(ds.Schema.Fields)+1)
	cols = append(cols, querysql.QuoteIdent(querysql.SeqColumn)+" INTEGER PRIMARY KEY")
	names := make([]string, len(ds.Schema.Fields))
	marks := make([]string, len(ds.Schema.Fields))
	for i, f := range ds.Schema.Fields {
		cols = append(cols, querysql.QuoteIdent(f.Name))
		names[i] = querysql.QuoteIdent(f.Name)
		marks[i] = "?"
	}

	table := querysql.TableName(ds.Name)
	create := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, %s)",
		table,
		querysql.QuoteIdent(querysql.SeqColumn),
		strings.Join(names, ", "),
		strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(ds.Schema.Fields)+1)
	for i, rec := range ds.Records {
		args[0] = i + 1
		for j, f := range ds.Schema.Fields {
			args[j+1] = querysql.ValueToParam(rec[f.Name])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	return nil
}

// Schema returns the schema of a loaded dataset.
func (s *Store) Schema(ctx context.Context, name string) (record.Schema, error) {
	var schemaJSON string
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM datasets WHERE name = ?`, name).Scan(&schemaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Schema{}, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	if err != nil {
		return record.Schema{}, fmt.Errorf("read schema %q: %w", name, err)
	}
	return unmarshalSchema(schemaJSON)
}

// Schemas returns the schema of every loaded dataset by name.
func (s *Store) Schemas(ctx context.Context) (map[string]record.Schema, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, schema FROM datasets ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	schemas := make(map[string]record.Schema)
	for rows.Next() {
		var name, schemaJSON string
		if err := rows.Scan(&name, &schemaJSON); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		schema, err := unmarshalSchema(schemaJSON)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		schemas[name] = schema
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return schemas, nil
}

func unmarshalSchema(data string) (record.Schema, error) {
	var schema record.Schema
	if err := json.Unmarshal([]byte(data), &schema); err != nil {
		return record.Schema{}, fmt.Errorf("unmarshal schema: %w", err)
	}
	return schema, nil
}
