// Package filterexpr provides client-side syntactic validation of a
// subscribe filter expression before it is ever sent to the broker. The
// engine itself never evaluates a filter against an event — that's the
// broker's job — but compiling it once with goja lets a caller catch a
// malformed expression locally instead of discovering it as a
// MalformedFilter round trip.
//
// Compiled programs are cached by source text so repeated Validate calls
// with the same filter expression don't re-parse it. The subscribe engine
// itself never calls Validate.
package filterexpr

import (
	"fmt"

	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// defaultCacheSize bounds how many distinct filter expressions are kept
// compiled at once.
const defaultCacheSize = 64

// Validator compiles and caches filter expressions.
type Validator struct {
	cache  *lru.Cache[string, *goja.Program]
	vm     *goja.Runtime
	logger zerolog.Logger
}

// New returns a Validator with its own goja runtime and a bounded cache
// of compiled programs.
func New(logger zerolog.Logger) (*Validator, error) {
	cache, err := lru.New[string, *goja.Program](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter expression cache: %w", err)
	}

	vm := goja.New()
	v := &Validator{
		cache:  cache,
		vm:     vm,
		logger: logger.With().Str("component", "filterexpr").Logger(),
	}
	v.setupConsole()
	return v, nil
}

// Validate compiles expr (an empty string is always valid — it means "no
// filter") and reports a syntax error without ever running it. A
// successful compile is cached so the next Validate call for the same
// source is a map lookup.
func (v *Validator) Validate(expr string) error {
	if expr == "" {
		return nil
	}

	if _, ok := v.cache.Get(expr); ok {
		return nil
	}

	program, err := goja.Compile("filter-expression", wrapExpression(expr), false)
	if err != nil {
		return fmt.Errorf("malformed filter expression: %w", err)
	}

	v.cache.Add(expr, program)
	return nil
}

// wrapExpression turns a bare boolean expression into a syntactically
// complete program goja can compile, mirroring how the broker itself
// treats a filter expression as an implicit return value.
func wrapExpression(expr string) string {
	return "(function() { return (" + expr + "); })"
}

func (v *Validator) setupConsole() {
	console := v.vm.NewObject()

	console.Set("log", func(call goja.FunctionCall) goja.Value {
		v.logger.Debug().Interface("args", exportArgs(call)).Msg("filter expression console.log")
		return goja.Undefined()
	})
	console.Set("warn", func(call goja.FunctionCall) goja.Value {
		v.logger.Warn().Interface("args", exportArgs(call)).Msg("filter expression console.warn")
		return goja.Undefined()
	})

	v.vm.Set("console", console)
}

func exportArgs(call goja.FunctionCall) []interface{} {
	args := make([]interface{}, len(call.Arguments))
	for i, a := range call.Arguments {
		args[i] = a.Export()
	}
	return args
}
