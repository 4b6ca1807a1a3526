package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// guardNotTerminal rejects transitions once the session has reached a
// terminal status. In statekit, guards receive the context by value.
// Since our context is *Context, the guard receives *Context directly.
func guardNotTerminal(ctx *Context, _ statekit.Event) bool {
	if ctx == nil || ctx.Session == nil {
		return false
	}
	return !ctx.Session.Status().Terminal()
}
