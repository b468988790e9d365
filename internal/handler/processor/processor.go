// Package processor provides a generic interface for processing webhook deliveries using a chain of processors.
package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/clerk-user-sync/internal/models"
)

// Response bodies returned to the webhook sender.
const (
	MsgMissingHeaders     = "Error occurred -- missing svix headers"
	MsgVerificationFailed = "Error occurred during webhook verification"
	MsgEventNotHandled    = "Event type not handled"
	MsgUserUpserted       = "User is created or updated"
	MsgUserDeleted        = "User is deleted"
	MsgHandlingFailed     = "Error occurred during event handling"
)

// Option is a function that applies an option to a Processor.
type Option = func(Processor)

// Processor is an interface that defines a method to process a request.
type Processor interface {
	SetLogger(logger *slog.Logger)
	Process(ctx context.Context, req any) (*Bus, error)
}

// AuthRequest is the input of the chain: the raw delivery as received.
type AuthRequest struct {
	Body    []byte
	Headers map[string]string
}

// Bus carries a verified delivery and its response through the chain.
type Bus struct {
	Body       []byte
	Headers    map[string]string
	DeliveryID string
	Event      *models.Event
	Response   models.Response
}

// Process runs req through processors in order and stops at the first error.
// The returned Bus is never nil, so its Response can always be sent back.
// Processors are shared between concurrent deliveries and must not mutate themselves in Process.
func Process(ctx context.Context, req any, processors ...Processor) (*Bus, error) {
	var last *Bus
	for _, p := range processors {
		bus, err := p.Process(ctx, req)
		if bus != nil {
			last, req = bus, bus
		}
		if err != nil {
			return orInternalError(last), err
		}
	}
	if last == nil {
		return orInternalError(nil), NewInternalError("empty processor chain")
	}
	return last, nil
}

func orInternalError(bus *Bus) *Bus {
	if bus == nil {
		return &Bus{Response: models.NewTextResponse(http.StatusInternalServerError, MsgHandlingFailed)}
	}
	return bus
}

// WithLogger sets the processor logger at construction.
func WithLogger(logger *slog.Logger) Option {
	return func(p Processor) {
		p.SetLogger(logger)
	}
}

func applyOpts(m Processor, opts ...Option) {
	for _, opt := range opts {
		opt(m)
	}
}

func busFrom(req any) (*Bus, error) {
	bus, ok := req.(*Bus)
	if !ok || bus == nil {
		return nil, NewInternalError("invalid request type. expected *Bus got %T", req)
	}
	return bus, nil
}
