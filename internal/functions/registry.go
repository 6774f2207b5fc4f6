// Package functions registers every formula function with its argument metadata and
// dispatches positional calls through validation, the provider adapter and error classification.
package functions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onchain-formulas/internal/adapter"
	fnerrors "github.com/onchain-formulas/internal/errors"
	"github.com/onchain-formulas/internal/logging"
	"github.com/onchain-formulas/internal/types"
	"github.com/onchain-formulas/internal/validate"
)

// Function is one callable formula
type Function struct {
	Metadata
	Validator validate.Validator
	Run       adapter.Func
}

// Registry holds the callable functions by upper-case name
type Registry struct {
	fns map[string]*Function
}

// New registers every function backed by a
func New(a *adapter.Adapters) *Registry {
	r := &Registry{fns: make(map[string]*Function)}
	for _, e := range entries(a) {
		fn := e
		r.fns[fn.Name] = &fn
	}
	return r
}

// Lookup returns the named function, case-insensitively
func (r *Registry) Lookup(name string) (*Function, bool) {
	fn, ok := r.fns[strings.ToUpper(strings.TrimSpace(name))]
	return fn, ok
}

// List returns the metadata of every function sorted by name
func (r *Registry) List() []Metadata {
	out := make([]Metadata, 0, len(r.fns))
	for _, fn := range r.fns {
		out = append(out, fn.Metadata)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call binds args positionally, validates them, runs the adapter and converts any failure into
// an ErrorResult tagged with the function name. It never returns a Go error.
func (r *Registry) Call(ctx context.Context, name string, args []any) (res types.Result) {
	name = strings.ToUpper(strings.TrimSpace(name))
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"function":   name,
		"request_id": uuid.New().String(),
	})
	ctx = logging.WithLogger(ctx, logger)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			res = r.fail(ctx, name, fnerrors.NewDefaultError(fmt.Errorf("panic: %v", rec)))
		}
	}()

	fn, ok := r.fns[name]
	if !ok {
		return r.fail(ctx, name, fnerrors.NewCustomError("Unknown function", name))
	}

	logger.WithField("args", len(args)).Debug("function called")

	params, err := fn.Validator.Validate(validate.Bind(fn.Validator, args))
	if err != nil {
		return r.fail(ctx, name, err)
	}

	out, err := fn.Run(ctx, params)
	if err != nil {
		return r.fail(ctx, name, err)
	}

	logger.WithField("duration", time.Since(start).String()).Debug("function completed")
	return out
}

func (r *Registry) fail(ctx context.Context, name string, err error) types.Result {
	classified := fnerrors.Classify(err, name)
	logger := logging.FromContext(ctx).WithField("kind", string(classified.Type))
	switch {
	case fnerrors.IsUserError(err):
		logger.Info("function rejected input")
	case classified.Type == types.KindDefault:
		logger.WithError(err).Warn("function failed")
	default:
		logger.Warn("function failed")
	}
	return types.ErrResult(classified)
}
