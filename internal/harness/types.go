package harness

// CheckResult is the observed outcome of one check.
type CheckResult struct {
	// Query is the checked query name.
	Query string `json:"query"`

	// Kind is the query kind (find, filter, aggregate, transform, range).
	Kind string `json:"kind"`

	// Data is the canonical result data from the memory backend,
	// decoded into plain JSON values. Nil when the query failed.
	Data any `json:"data"`

	// Error is the error code when the query failed.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every check matched on every backend and the backends agreed.
	Pass bool `json:"pass"`

	// Checks holds one entry per scenario check, in order.
	Checks []CheckResult `json:"checks"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Checks: []CheckResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCheck records the observed outcome of a check.
func (r *Result) AddCheck(c CheckResult) {
	r.Checks = append(r.Checks, c)
}
