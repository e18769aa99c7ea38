// Package coursework implements the classroom exercises on top of package
// table: each exercise is a typed record plus a call site that supplies a
// key, a predicate or a transform.
//
// Record field tags keep the Portuguese field names of the exercise data
// (titulo, idade, notaProva, ...) so the same records load from YAML and JSON
// fixtures unchanged.
package coursework
