// Package errs holds the sentinel error kinds shared across the margin
// pipeline, so callers can use errors.Is regardless of which component
// raised the failure.
package errs

import "errors"

var (
	// ErrInvalidCode marks an unparseable or exchange-inconsistent
	// position code.
	ErrInvalidCode = errors.New("invalid position code")

	// ErrUnknownExchange marks an exchange alias absent from the
	// normalization table.
	ErrUnknownExchange = errors.New("unknown exchange alias")

	// ErrMissingMarketData marks a leg whose market-data join produced
	// a null required field.
	ErrMissingMarketData = errors.New("missing market data")

	// ErrOptimizationFailed marks a MILP solver reporting infeasible
	// when x=0 is always feasible; this is a solver contract violation.
	ErrOptimizationFailed = errors.New("optimization failed")

	// ErrSingularCovariance marks a covariance matrix whose Cholesky
	// factorization failed.
	ErrSingularCovariance = errors.New("singular covariance matrix")
)

// RowError wraps a fatal per-row failure (InvalidCode, MissingMarketData,
// UnknownExchange) with enough context to log or report without aborting
// the whole run, mirroring the reference pipeline's preference for
// configurable strictness over a single hardcoded choice.
type RowError struct {
	Account string
	Code    string
	Err     error
}

func (e *RowError) Error() string {
	if e.Account != "" {
		return e.Account + "/" + e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *RowError) Unwrap() error { return e.Err }
