package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StepFunc executes one catalog step. Steps are expected to be idempotent:
// re-running a step produces the same outputs.
type StepFunc func(ctx context.Context) error

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// LoggerRunnerOption sets the logger, zap.NewNop by default.
func LoggerRunnerOption(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner executes registered step functions in dependency order.
type Runner struct {
	catalog *Catalog
	funcs   map[string]StepFunc
	logger  *zap.Logger
}

// NewRunner returns a new instance of Runner.
func NewRunner(c *Catalog, opts ...RunnerOption) *Runner {
	r := &Runner{
		catalog: c,
		funcs:   make(map[string]StepFunc),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register binds a function to a step URI.
func (r *Runner) Register(uri string, fn StepFunc) error {
	if _, ok := r.catalog.Step(uri); !ok {
		return fmt.Errorf("unknown step %s", uri)
	}
	r.funcs[uri] = fn
	return nil
}

// Run executes steps in topological order and stops at the first failure.
// With target URIs given, only the targets and their transitive
// dependencies run; otherwise the whole catalog runs. Steps without a
// registered function are skipped.
func (r *Runner) Run(ctx context.Context, uris ...string) error {
	order, err := r.catalog.TopoSort()
	if err != nil {
		return err
	}

	selected := make(map[string]bool, len(order))
	if len(uris) == 0 {
		for _, uri := range order {
			selected[uri] = true
		}
	} else {
		for _, uri := range uris {
			sub, err := r.catalog.Subgraph(uri)
			if err != nil {
				return err
			}
			for _, u := range sub {
				selected[u] = true
			}
		}
	}

	logger := r.logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("run started", zap.Int("steps", len(selected)))

	for _, uri := range order {
		if !selected[uri] {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		fn, ok := r.funcs[uri]
		if !ok {
			logger.Debug("skip step without function", zap.String("step", uri))
			continue
		}

		start := time.Now()
		if err := fn(ctx); err != nil {
			logger.Error("step failed", zap.String("step", uri), zap.Error(err))
			return fmt.Errorf("step %s: %w", uri, err)
		}

		logger.Info("step done", zap.String("step", uri), zap.Duration("took", time.Since(start)))
	}

	logger.Info("run finished")

	return nil
}
