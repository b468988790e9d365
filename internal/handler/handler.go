// Package handler implements the webhook ingest handler: it authenticates Clerk deliveries
// and forwards user lifecycle events to the user store.
package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/isometry/clerk-user-sync/internal/handler/processor"
	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/isometry/clerk-user-sync/internal/users"
	"github.com/isometry/clerk-user-sync/internal/validation"
)

// Option configures a Handler.
type Option func(*Handler)

// Handler processes webhook deliveries. It keeps no state between deliveries and is safe for concurrent use.
type Handler struct {
	ctx               context.Context
	logger            *slog.Logger
	webhookSecret     string
	verifier          validation.Verifier
	store             users.Store
	archiver          processor.ObjectPutter
	archiveBucket     string
	archivePrefix     string
	logBody           bool
	lambdaPayloadType string

	processors []processor.Processor
}

// New builds a Handler. It fails when the webhook secret or the user store is missing.
func New(options ...Option) (*Handler, error) {
	_inst := &Handler{
		logger: helpers.NewNoopLogger(),
	}
	for _, opt := range options {
		opt(_inst)
	}

	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if strings.TrimSpace(_inst.webhookSecret) == "" {
		return nil, ErrMissingWebhookSecret
	}
	if _inst.store == nil {
		return nil, ErrMissingStore
	}
	if _inst.verifier == nil {
		_inst.verifier = validation.NewSvixVerifier()
	}

	withLogger := processor.WithLogger(_inst.logger)
	_inst.processors = []processor.Processor{
		processor.NewAuthValidatorProcessor(_inst.webhookSecret, _inst.verifier, _inst.logBody, withLogger),
	}
	if _inst.archiver != nil {
		_inst.processors = append(_inst.processors,
			processor.NewS3ArchiverProcessor(_inst.archiver, _inst.archiveBucket, _inst.archivePrefix, withLogger))
	}
	_inst.processors = append(_inst.processors, processor.NewUserSyncProcessor(_inst.store, withLogger))

	return _inst, nil
}

// Process authenticates a single delivery and dispatches it. The returned Bus is never nil and
// its Response is the one to send back; err explains non-2xx outcomes and is meant for logging.
func (h *Handler) Process(ctx context.Context, body []byte, headers map[string]string) (*processor.Bus, error) {
	if ctx == nil {
		ctx = h.ctx
	}
	h.logger.Debug("processing request...")
	return processor.Process(ctx, &processor.AuthRequest{
		Body:    body,
		Headers: headers,
	}, h.processors...)
}

// GetLambdaPayloadType returns the Lambda event format the handler answers with.
func (h *Handler) GetLambdaPayloadType() string {
	return h.lambdaPayloadType
}
