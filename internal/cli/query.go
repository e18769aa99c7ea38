package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
)

// QueryOptions holds the flags shared by the ad-hoc query commands.
type QueryOptions struct {
	*RootOptions
	Data []string // dataset files or directories
}

// buildFunc builds a query once the loaded schemas are known.
type buildFunc func(schemas map[string]record.Schema) (queryir.Query, error)

// executeQuery opens a session, builds the query and prints its result.
func executeQuery(cmd *cobra.Command, opts *QueryOptions, build buildFunc) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd.Context())

	sess, err := openSession(ctx, opts.RootOptions, opts.Data, nil, cmd.ErrOrStderr())
	if err != nil {
		return reportError(formatter, err)
	}
	defer sess.Close()

	q, err := build(sess.schemas)
	if err != nil {
		return reportError(formatter, &LoadError{Code: ErrCodeBadFlag, Message: err.Error()})
	}

	res, err := sess.engine.Execute(ctx, q)
	if err != nil {
		return formatter.QueryError(err)
	}
	return formatter.Result(res)
}

// parseValue converts flag text using the field's kind in the schema.
// Unknown fields fall back to guessing, and validation reports them.
func parseValue(schemas map[string]record.Schema, dataset, field, text string) (record.Value, error) {
	if kind, ok := schemas[dataset].Lookup(field); ok {
		v, err := record.Parse(kind, text)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		return v, nil
	}
	return record.Guess(text), nil
}

func addDataFlag(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringArrayVar(&opts.Data, "data", nil, "dataset file or directory (repeatable)")
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	var field, value string

	cmd := &cobra.Command{
		Use:   "find <dataset>",
		Short: "Find the first record whose field equals a value",
		Long: `Find the first record, in dataset order, whose field equals the value.

The value is parsed with the field's kind, so --value 1605 matches the
number 1605 but never the string "1605". Prints "absent" when nothing matches.

Example:
  tabula find livros --data ./data --field titulo --value "Dom Quixote"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset := args[0]
			return executeQuery(cmd, opts, func(schemas map[string]record.Schema) (queryir.Query, error) {
				v, err := parseValue(schemas, dataset, field, value)
				if err != nil {
					return nil, err
				}
				return queryir.Find{From: dataset, Where: queryir.Eq(field, v)}, nil
			})
		},
	}

	addDataFlag(cmd, opts)
	cmd.Flags().StringVar(&field, "field", "", "field to match (required)")
	cmd.Flags().StringVar(&value, "value", "", "value to match (required)")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	var fields, values []string

	cmd := &cobra.Command{
		Use:   "filter <dataset>",
		Short: "List the records matching every field=value condition",
		Long: `List, in dataset order, the records matching every condition.

Conditions are pairs of --field and --value, matched by position. Without
conditions every record is listed.

Example:
  tabula filter livros --data ./data --field categoria --value fantasia`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset := args[0]
			return executeQuery(cmd, opts, func(schemas map[string]record.Schema) (queryir.Query, error) {
				if len(fields) != len(values) {
					return nil, fmt.Errorf("got %d --field and %d --value flags; they must pair up", len(fields), len(values))
				}
				preds := make([]queryir.Predicate, len(fields))
				for i, f := range fields {
					v, err := parseValue(schemas, dataset, f, values[i])
					if err != nil {
						return nil, err
					}
					preds[i] = queryir.Eq(f, v)
				}
				return queryir.Filter{From: dataset, Where: queryir.AllOf(preds...)}, nil
			})
		},
	}

	addDataFlag(cmd, opts)
	cmd.Flags().StringArrayVar(&fields, "field", nil, "field to match (repeatable)")
	cmd.Flags().StringArrayVar(&values, "value", nil, "value to match (repeatable)")

	return cmd
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	var group, value, fn string
	var groups []string

	cmd := &cobra.Command{
		Use:   "aggregate <dataset>",
		Short: "Reduce a numeric field per declared group",
		Long: `Reduce a numeric field over the records of each declared group.

Groups are reported in the order given by --groups. A group with no records
reports 0; records whose key is not declared are ignored. --func is one of
avg (default), sum, count, min, max.

Example:
  tabula aggregate pessoas --data ./data --group sexo --value idade --groups M,F`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset := args[0]
			return executeQuery(cmd, opts, func(schemas map[string]record.Schema) (queryir.Query, error) {
				keys := make([]record.Value, len(groups))
				for i, g := range groups {
					v, err := parseValue(schemas, dataset, group, g)
					if err != nil {
						return nil, err
					}
					keys[i] = v
				}
				return queryir.Aggregate{
					From:    dataset,
					GroupBy: group,
					Value:   value,
					Groups:  keys,
					Func:    queryir.AggFunc(fn),
				}, nil
			})
		},
	}

	addDataFlag(cmd, opts)
	cmd.Flags().StringVar(&group, "group", "", "field to group by (required)")
	cmd.Flags().StringVar(&value, "value", "", "numeric field to reduce")
	cmd.Flags().StringSliceVar(&groups, "groups", nil, "declared group keys, in output order (required)")
	cmd.Flags().StringVar(&fn, "func", string(queryir.AggAvg), "reducer (avg|sum|count|min|max)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("groups")

	return cmd
}

// NewRangeCommand creates the range command.
func NewRangeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}
	var divisor, upper, lower, below, above int

	cmd := &cobra.Command{
		Use:   "range",
		Short: "List the multiples of a divisor from max down to min",
		Long: `List the integers from --max down to --min inclusive that are divisible
by --divisor, optionally strictly below --below or strictly above --above.

The list is empty when max < min or when the divisor is 0.

Examples:
  tabula range --divisor 8 --max 20 --min 0 --below 40
  tabula range --divisor 3 --max 20 --min 1 --above 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeQuery(cmd, opts, func(map[string]record.Schema) (queryir.Query, error) {
				q := queryir.Range{Divisor: divisor, Max: upper, Min: lower}
				if cmd.Flags().Changed("below") {
					q.Below = queryir.IntPtr(below)
				}
				if cmd.Flags().Changed("above") {
					q.Above = queryir.IntPtr(above)
				}
				return q, nil
			})
		},
	}

	cmd.Flags().IntVar(&divisor, "divisor", 0, "divisor (required)")
	cmd.Flags().IntVar(&upper, "max", 0, "upper end, inclusive (required)")
	cmd.Flags().IntVar(&lower, "min", 0, "lower end, inclusive (required)")
	cmd.Flags().IntVar(&below, "below", 0, "keep only values strictly below this bound")
	cmd.Flags().IntVar(&above, "above", 0, "keep only values strictly above this bound")
	_ = cmd.MarkFlagRequired("divisor")
	_ = cmd.MarkFlagRequired("max")
	_ = cmd.MarkFlagRequired("min")

	return cmd
}
