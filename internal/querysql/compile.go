package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
)

// SeqColumn is the hidden column holding each record's position in its
// dataset. Every compiled SELECT over a dataset orders by it.
const SeqColumn = "_seq"

// TablePrefix namespaces dataset tables away from the catalog.
const TablePrefix = "ds_"

// TableName returns the quoted table name of a dataset.
func TableName(dataset string) string {
	return QuoteIdent(TablePrefix + dataset)
}

// QuoteIdent quotes an SQLite identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// CRITICAL: Every SELECT over a dataset orders by _seq so results keep
// dataset order.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	// Schemas holds the schema of each loaded dataset. Column lists and
	// strict equality are derived from it.
	Schemas map[string]record.Schema
}

// NewSQLCompiler creates a new SQLCompiler over the given schemas.
func NewSQLCompiler(schemas map[string]record.Schema) *SQLCompiler {
	if schemas == nil {
		schemas = make(map[string]record.Schema)
	}
	return &SQLCompiler{Schemas: schemas}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// Transform has no SQL form; compile Rows for its source and apply the
// transform to the scanned records.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := queryir.Deref(q).(type) {
	case queryir.Find:
		return c.compileSelect(query.From, query.Where, " LIMIT 1")
	case queryir.Filter:
		return c.compileSelect(query.From, query.Where, "")
	case queryir.Aggregate:
		return c.compileAggregate(query)
	case queryir.Range:
		return c.compileRange(query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// CompileRows returns the SQL selecting every record of a dataset in order.
func (c *SQLCompiler) CompileRows(dataset string) (string, []any, error) {
	return c.compileSelect(dataset, nil, "")
}

func (c *SQLCompiler) schema(dataset string) (record.Schema, error) {
	s, ok := c.Schemas[dataset]
	if !ok {
		return record.Schema{}, fmt.Errorf("unknown dataset %q", dataset)
	}
	if s.IsEmpty() {
		return record.Schema{}, fmt.Errorf("dataset %q is empty and has no table", dataset)
	}
	return s, nil
}

// compileSelect selects the schema columns of a dataset.
// MANDATORY: Includes ORDER BY _seq.
func (c *SQLCompiler) compileSelect(dataset string, where queryir.Predicate, suffix string) (string, []any, error) {
	s, err := c.schema(dataset)
	if err != nil {
		return "", nil, err
	}

	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = QuoteIdent(f.Name)
	}

	var whereClause string
	var params []any
	if where != nil {
		filterSQL, filterParams, err := c.compilePredicate(where, s)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s ASC%s",
		strings.Join(cols, ", "),
		TableName(dataset),
		whereClause,
		QuoteIdent(SeqColumn),
		suffix)

	return sql, params, nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate, s record.Schema) (string, []any, error) {
	switch pred := queryir.DerefPredicate(p).(type) {
	case nil:
		return "1 = 1", nil, nil // Always true
	case queryir.Equals:
		return c.compileEquals(pred, s)
	case queryir.And:
		return c.compileAnd(pred, s)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate to "field = ?".
//
// A value whose kind differs from the column's can never be equal to it, so
// the comparison compiles to a constant false rather than letting SQLite
// compare across storage classes.
func (c *SQLCompiler) compileEquals(eq queryir.Equals, s record.Schema) (string, []any, error) {
	kind, ok := s.Lookup(eq.Field)
	if !ok {
		return "", nil, fmt.Errorf("unknown field %q", eq.Field)
	}
	if eq.Value == nil {
		return "", nil, fmt.Errorf("field %q compared to nil", eq.Field)
	}
	if eq.Value.Kind() != kind {
		return "0 = 1", nil, nil
	}

	sql := fmt.Sprintf("%s = ?", QuoteIdent(eq.Field))
	return sql, []any{ValueToParam(eq.Value)}, nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And, s record.Schema) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred, s)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, "("+sql+")")
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// compileAggregate compiles an Aggregate to a left join from the declared
// groups, so a group without records still yields one row.
//
// Result columns: (ord, result), ordered by ord, the group's declaration
// index.
func (c *SQLCompiler) compileAggregate(q queryir.Aggregate) (string, []any, error) {
	s, err := c.schema(q.From)
	if err != nil {
		return "", nil, err
	}
	groupKind, ok := s.Lookup(q.GroupBy)
	if !ok {
		return "", nil, fmt.Errorf("unknown group field %q", q.GroupBy)
	}

	fn := q.Func.OrDefault()
	var reduce string
	if fn == queryir.AggCount {
		reduce = fmt.Sprintf("COUNT(t.%s)", QuoteIdent(SeqColumn))
	} else {
		if _, ok := s.Lookup(q.Value); !ok {
			return "", nil, fmt.Errorf("unknown value field %q", q.Value)
		}
		sqlFn, err := aggFuncSQL(fn)
		if err != nil {
			return "", nil, err
		}
		reduce = fmt.Sprintf("COALESCE(%s(t.%s), 0)", sqlFn, QuoteIdent(q.Value))
	}

	var params []any
	var groupsSQL string
	if len(q.Groups) == 0 {
		groupsSQL = "SELECT 0, NULL WHERE 0"
	} else {
		rows := make([]string, len(q.Groups))
		for i, g := range q.Groups {
			rows[i] = "(?, ?)"
			// A key of another kind must match nothing; NULL never joins.
			var key any
			if g != nil && g.Kind() == groupKind {
				key = ValueToParam(g)
			}
			params = append(params, i, key)
		}
		groupsSQL = "VALUES " + strings.Join(rows, ", ")
	}

	sql := fmt.Sprintf(
		"WITH grp(ord, key) AS (%s) "+
			"SELECT grp.ord, %s FROM grp LEFT JOIN %s t ON t.%s = grp.key "+
			"GROUP BY grp.ord ORDER BY grp.ord ASC",
		groupsSQL,
		reduce,
		TableName(q.From),
		QuoteIdent(q.GroupBy))

	return sql, params, nil
}

func aggFuncSQL(fn queryir.AggFunc) (string, error) {
	switch fn {
	case queryir.AggAvg:
		return "AVG", nil
	case queryir.AggSum:
		return "TOTAL", nil
	case queryir.AggMin:
		return "MIN", nil
	case queryir.AggMax:
		return "MAX", nil
	default:
		return "", fmt.Errorf("unsupported aggregate function %q", fn)
	}
}

// compileRange compiles a Range to a recursive CTE counting down from Max.
// Result column: n, descending.
func (c *SQLCompiler) compileRange(q queryir.Range) (string, []any, error) {
	if q.Divisor == 0 {
		return "SELECT 0 AS n WHERE 0", nil, nil
	}

	params := []any{int64(q.Max), int64(q.Min), int64(q.Min), int64(q.Divisor)}
	conds := []string{"n >= ?", "n % ? = 0"}
	if q.Below != nil {
		conds = append(conds, "n < ?")
		params = append(params, int64(*q.Below))
	}
	if q.Above != nil {
		conds = append(conds, "n > ?")
		params = append(params, int64(*q.Above))
	}

	sql := "WITH RECURSIVE seq(n) AS (SELECT ? UNION ALL SELECT n - 1 FROM seq WHERE n > ?) " +
		"SELECT n FROM seq WHERE " + strings.Join(conds, " AND ") + " ORDER BY n DESC"

	return sql, params, nil
}

// ValueToParam converts a record.Value to a Go native type for an SQL
// parameter. Bools bind as 0/1, the way SQLite stores them.
func ValueToParam(v record.Value) any {
	switch val := v.(type) {
	case record.String:
		return string(val)
	case record.Number:
		return float64(val)
	case record.Bool:
		if val {
			return int64(1)
		}
		return int64(0)
	default:
		return nil
	}
}
