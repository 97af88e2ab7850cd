package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlekbai/metaquery/internal/compiler"
	"github.com/atlekbai/metaquery/internal/compiler/sqlgen"
)

// ExecutionError reports a plan that could not be run against its source.
type ExecutionError struct {
	Op  string // connect, translate or query
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Executor runs plans on the source named by the model's connection.
type Executor struct {
	sources *Sources
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Executor)

// WithTimeout bounds every execution. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

func NewExecutor(sources *Sources, opts ...Option) *Executor {
	e := &Executor{sources: sources, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs plan and returns at most rowLimit rows. A negative rowLimit
// leaves the result bounded only by the plan's own limit.
func (e *Executor) Execute(ctx context.Context, plan *compiler.Plan, rowLimit int) (*RawResult, error) {
	src, err := e.sources.Lookup(plan.Model.Connection)
	if err != nil {
		return nil, &ExecutionError{Op: "connect", Err: err}
	}

	limit := EffectiveLimit(rowLimit, plan.Limit)
	stmt, err := sqlgen.Translate(plan, src.Dialect(), limit)
	if err != nil {
		return nil, &ExecutionError{Op: "translate", Err: err}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := src.Query(ctx, stmt, limit)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", e.timeout, err)
		}
		e.logger.ErrorContext(ctx, "query failed",
			"query_id", plan.ID.String(),
			"model", plan.Model.ID,
			"error", err,
		)
		return nil, &ExecutionError{Op: "query", Err: err}
	}

	e.logger.InfoContext(ctx, "query executed",
		"query_id", plan.ID.String(),
		"domain", plan.Model.DomainID,
		"model", plan.Model.ID,
		"rows", len(raw.Rows),
		"duration", time.Since(start),
	)
	e.logger.DebugContext(ctx, "query sql", "query_id", plan.ID.String(), "sql", stmt.SQL, "args", stmt.Args)
	return raw, nil
}

// EffectiveLimit combines two row limits where negative means unlimited.
func EffectiveLimit(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	}
	return min(a, b)
}
