package handler

import (
	"context"
	"log/slog"

	"github.com/isometry/clerk-user-sync/internal/handler/processor"
	"github.com/isometry/clerk-user-sync/internal/users"
	"github.com/isometry/clerk-user-sync/internal/validation"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithContext sets the fallback context for the handler.
func WithContext(ctx context.Context) Option {
	return func(h *Handler) {
		h.ctx = ctx
	}
}

// WithWebhookSecret configures the handler with the secret used to verify deliveries.
func WithWebhookSecret(secret string) Option {
	return func(h *Handler) {
		h.webhookSecret = secret
	}
}

// WithVerifier replaces the default svix verifier.
func WithVerifier(verifier validation.Verifier) Option {
	return func(h *Handler) {
		h.verifier = verifier
	}
}

// WithStore sets the store receiving user lifecycle events.
func WithStore(store users.Store) Option {
	return func(h *Handler) {
		h.store = store
	}
}

// WithS3Archive archives every verified delivery to bucket, under prefix.
func WithS3Archive(putter processor.ObjectPutter, bucket, prefix string) Option {
	return func(h *Handler) {
		h.archiver = putter
		h.archiveBucket = bucket
		h.archivePrefix = prefix
	}
}

// WithLogBody logs the raw body of every verified delivery at debug level.
func WithLogBody(logBody bool) Option {
	return func(h *Handler) {
		h.logBody = logBody
	}
}

// WithLambdaPayloadType sets the lambda payload type for a Handler instance.
func WithLambdaPayloadType(payloadType string) Option {
	return func(h *Handler) {
		h.lambdaPayloadType = payloadType
	}
}
