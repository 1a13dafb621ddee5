// Package generate produces assistant replies for submitted user messages,
// either from a canned demo lookup or by calling an external generation
// endpoint with a local catalog-backed fallback.
package generate

import (
	"context"

	"github.com/shelftalk/shelftalk/internal/models"
)

// Reply is the outcome of one generation request.
type Reply struct {
	Text    string
	Status  models.MessageStatus // StatusComplete or StatusError
	Actions *models.MessageActions
}

// Responder turns a user message into an assistant reply. Implementations
// are pure request/response: they never mutate chat state, never retry,
// and convert their own failures into error-status replies rather than
// returning an error. A non-nil error is reserved for unexpected faults
// the dispatcher converts to a generic failure message.
type Responder interface {
	Generate(ctx context.Context, sessionID, input string) (Reply, error)

	// Mode reports the deployment policy ("demo" or "live") for metrics.
	Mode() string
}
