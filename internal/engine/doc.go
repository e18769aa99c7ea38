// Package engine executes queryir queries over a Backend.
//
// ARCHITECTURE:
//
// Backends:
// A Backend holds loaded datasets and answers Find, Filter, Aggregate,
// Range and Rows. MemoryBackend evaluates them with package table over
// in-memory records. SQLBackend compiles them with package querysql and runs
// them against a private SQLite store. Both return identical results for the
// same datasets; Transform is computed here from Rows so that a transform
// runs the same Go code on either backend.
//
// Execution Flow:
// 1. Execute stamps a run ID and a logical sequence number
// 2. The query's source dataset is resolved against the backend's schemas
// 3. queryir.Validate rejects malformed queries before dispatch
// 4. The backend answers; the result carries exactly one populated field
//
// CRITICAL PATTERNS:
//
// Absent is not an error:
// A Find with no match returns a Result whose Record is absent.
//
// Deterministic results:
// Record order is dataset order and group order is declaration order on
// every backend. Run IDs come from a RunIDGenerator so tests can fix them.
package engine
