package engine

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/askql/internal/retry"
	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/core"
)

// Executor runs synthesized SQL against the target database.
type Executor struct {
	db     adapter.Adapter
	policy retry.Policy
	logger *slog.Logger
}

// NewExecutor creates an executor bounded by policy.
func NewExecutor(db adapter.Adapter, policy retry.Policy, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{db: db, policy: policy, logger: logger}
}

// Execute runs sql and never fails: an engine error is logged and reported
// as an empty result set with OutcomeError and the cause attached.
func (x *Executor) Execute(ctx context.Context, sql string) core.Result {
	var rs core.ResultSet
	err := retry.Do(ctx, x.policy, x.logger, "sql.execute", func(ctx context.Context) error {
		rows, err := x.db.Query(ctx, sql)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		rs, err = adapter.ScanResultSet(rows)
		return err
	})

	if err != nil {
		execErr := &core.ExecutionError{SQL: sql, Cause: err}
		x.logger.Error("query execution failed", slog.String("sql", sql), slog.String("error", err.Error()))
		return core.Result{Outcome: core.OutcomeError, Err: execErr}
	}

	outcome := core.OutcomeRows
	if rs.Empty() {
		outcome = core.OutcomeEmpty
	}
	x.logger.Debug("query executed", slog.String("sql", sql), slog.Int("rows", rs.Len()))
	return core.Result{ResultSet: rs, Outcome: outcome}
}
