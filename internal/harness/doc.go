// Package harness provides conformance testing for tabula queries.
//
// The harness compiles a directory of CUE queries, loads datasets, runs each
// check on the memory and SQL backends, and verifies both the expected
// results and agreement between the backends.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	queries: ../queries
//	dataset_files:
//	  - ../data/livros.yaml
//	datasets:
//	  vazio: []
//	checks:
//	  - query: livroDomQuixote
//	    record: {titulo: Dom Quixote, autor: Miguel de Cervantes, ano: 1605, categoria: aventura}
//	  - query: livroInexistente
//	    absent: true
//	  - query: mediaIdadePorSexo
//	    groups:
//	      - {group: M, value: 25}
//	      - {group: F, value: 35}
//
// # Expectations
//
// Each check states exactly one expectation:
//
//   - absent: a find with no match
//   - record: a find returning this record
//   - rows: a filter returning these records in order
//   - groups: an aggregate returning these groups in declaration order
//   - values: a transform returning these values in order
//   - numbers: a range returning these integers in order
//   - error: the query fails with this error code
//
// Numbers are compared with a small relative tolerance, since SQLite may
// sum in a different order than Go.
//
// # Deterministic Testing
//
// All scenarios execute with a fixed run ID (scenario.run_id or
// "test-run-default"), discarded logs and fresh in-memory backends, so
// golden snapshots are byte-identical across runs.
package harness
