package links

import (
	"context"
	"strings"

	"github.com/wudi/pdfview/scripting"
)

// ActionKind is how an internal link click is dispatched.
type ActionKind int

const (
	// ActionNone means the click could not be resolved and becomes a no-op.
	ActionNone ActionKind = iota
	// ActionJump scrolls directly to the resolved location.
	ActionJump
	// ActionPopup opens a side preview of the target content instead of
	// navigating, used for citation-style references.
	ActionPopup
)

// Policy decides between jump and popup for a destination. The decision is
// made from the raw, unresolved destination token, since resolution is
// deferred to click time.
//
// Citation-style destinations are recognized by name prefix. The known
// prefix set is a convention of the producing toolchain, not a documented
// exhaustive list, so it is configurable, and a host can additionally
// install a script hook for conventions this package has never seen.
type Policy struct {
	// CitationPrefixes lists destination-name prefixes that open a popup.
	CitationPrefixes []string
	// Script, when set, is consulted after the prefix check. ScriptFn names
	// a global function taking the raw token and returning "popup", "jump",
	// or "" to fall through to the default.
	Script   scripting.Engine
	ScriptFn string
}

// DefaultPolicy returns a policy with the single known citation prefix.
func DefaultPolicy() Policy {
	return Policy{CitationPrefixes: []string{"cite."}}
}

// Classify returns the action for a raw destination token. Tokens matching
// no rule jump directly.
func (p Policy) Classify(ctx context.Context, token string) ActionKind {
	for _, prefix := range p.CitationPrefixes {
		if prefix != "" && strings.HasPrefix(token, prefix) {
			return ActionPopup
		}
	}
	if p.Script != nil {
		fn := p.ScriptFn
		if fn == "" {
			fn = "classify"
		}
		switch res, err := p.Script.CallString(ctx, fn, token); {
		case err != nil:
			// A failing hook must not break navigation.
		case res == "popup":
			return ActionPopup
		case res == "jump":
			return ActionJump
		}
	}
	return ActionJump
}
