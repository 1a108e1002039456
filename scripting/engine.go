// Package scripting embeds a JavaScript engine so hosts can extend viewer
// policy decisions (such as link-action classification) without recompiling.
package scripting

import "context"

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute evaluates a script and returns its final value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// CallString invokes a previously defined global function and coerces
	// its return value to a string. An undefined function or a non-string
	// result yields an empty string without error.
	CallString(ctx context.Context, fn string, args ...interface{}) (string, error)
}
