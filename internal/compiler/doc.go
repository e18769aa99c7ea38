// Package compiler compiles CUE query definitions into queryir queries.
//
// A query directory holds .cue files of one package declaring
//
//	query: <name>: { <kind>: {...} }
//
// with exactly one kind per query:
//
//	find:      { from: "livros", where: { titulo: "Dom Quixote" } }
//	filter:    { from: "livros", where: { categoria: "fantasia" } }
//	aggregate: { from: "pessoas", group_by: "sexo", value: "idade", groups: ["M", "F"], reduce: "avg" }
//	transform: { from: "estudantes", row: {...}, out: row.notaProva*0.6 + row.notaTrabalho*0.4 }
//	range:     { divisor: 8, max: 20, min: 0, below: 40 }
//
// A where struct is a conjunction of equalities in declaration order. A
// transform's out expression is kept as a CUE value and evaluated once per
// record, with the record filled in at row.
package compiler
