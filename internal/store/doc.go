// Package store provides the SQLite database behind the SQL backend.
//
// Each loaded dataset becomes a table named ds_<name> with one untyped
// column per schema field and a hidden _seq INTEGER PRIMARY KEY holding the
// record's position. Untyped columns keep every value in its own storage
// class, so text never compares equal to a number.
//
// The datasets catalog table records the schema of every loaded dataset,
// including empty ones, which get a catalog row but no table.
//
// # Critical Patterns
//
// Deterministic results:
//   - All queries over a dataset MUST include ORDER BY _seq ASC
//   - The catalog is read in load order (seq ASC)
//
// # Lifetime
//
// A Store is a private in-memory database on a single connection. Datasets
// live until Close; nothing is written to disk.
package store
