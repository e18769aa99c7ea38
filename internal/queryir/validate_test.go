package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabula/internal/record"
)

func testSchemas() map[string]record.Schema {
	return map[string]record.Schema{
		"pessoas": {Fields: []record.FieldDef{
			{Name: "idade", Kind: record.KindNumber},
			{Name: "nome", Kind: record.KindString},
			{Name: "sexo", Kind: record.KindString},
		}},
		"vazio": {},
	}
}

func validationProblems(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Problems
}

func TestValidate_ValidQueries(t *testing.T) {
	queries := []Query{
		Find{From: "pessoas", Where: Eq("nome", record.String("Ana"))},
		&Filter{From: "pessoas", Where: And{Predicates: []Predicate{Eq("sexo", record.String("F"))}}},
		Filter{From: "pessoas"},
		Aggregate{From: "pessoas", GroupBy: "sexo", Value: "idade", Groups: []record.Value{record.String("M")}},
		Aggregate{From: "pessoas", GroupBy: "sexo", Func: AggCount},
		Transform{From: "pessoas", Fn: TransformFunc(func(record.Record) (record.Value, error) { return nil, nil })},
		Range{Divisor: 8, Max: 20, Min: 0, Below: IntPtr(40)},
	}
	for _, q := range queries {
		assert.NoError(t, Validate(q, testSchemas()), "%#v", q)
	}
}

func TestValidate_UnknownDataset(t *testing.T) {
	problems := validationProblems(t, Validate(Find{From: "livros"}, testSchemas()))
	assert.Equal(t, []string{`unknown dataset "livros"`}, problems)
}

func TestValidate_UnknownField(t *testing.T) {
	err := Validate(Filter{From: "pessoas", Where: Eq("categoria", record.String("x"))}, testSchemas())
	problems := validationProblems(t, err)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], `unknown where field "categoria"`)
	assert.Contains(t, err.Error(), "invalid filter query")
}

func TestValidate_EmptyDatasetSkipsFieldChecks(t *testing.T) {
	assert.NoError(t, Validate(Find{From: "vazio", Where: Eq("anything", record.Number(1))}, testSchemas()))
	assert.NoError(t, Validate(Aggregate{From: "vazio", GroupBy: "g", Value: "v"}, testSchemas()))
}

func TestValidate_Aggregate(t *testing.T) {
	q := Aggregate{From: "pessoas", GroupBy: "sexo", Value: "nome", Func: "median", Groups: []record.Value{nil}}
	problems := validationProblems(t, Validate(q, testSchemas()))
	assert.ElementsMatch(t, []string{
		`unknown aggregate function "median"`,
		`value field "nome" is string, want number`,
		"group 0 is nil",
	}, problems)
}

func TestValidate_DuplicateGroups(t *testing.T) {
	q := Aggregate{
		From:    "pessoas",
		GroupBy: "sexo",
		Value:   "idade",
		Groups:  []record.Value{record.String("M"), record.String("F"), record.String("M")},
	}
	problems := validationProblems(t, Validate(q, testSchemas()))
	assert.Equal(t, []string{`duplicate group string "M"`}, problems)
}

func TestValidate_AggregateMissingFields(t *testing.T) {
	problems := validationProblems(t, Validate(Aggregate{From: "pessoas"}, testSchemas()))
	assert.ElementsMatch(t, []string{"group field is required", "value field is required"}, problems)
}

func TestValidate_NilComparison(t *testing.T) {
	problems := validationProblems(t, Validate(Find{From: "pessoas", Where: Eq("nome", nil)}, testSchemas()))
	assert.Equal(t, []string{`where field "nome" compared to nil`}, problems)
}

func TestValidate_TransformNeedsFn(t *testing.T) {
	problems := validationProblems(t, Validate(Transform{From: "pessoas"}, testSchemas()))
	assert.Equal(t, []string{"transform function is required"}, problems)
}

func TestValidate_NilQuery(t *testing.T) {
	assert.Error(t, Validate(nil, testSchemas()))
}
