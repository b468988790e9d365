package handler

import "github.com/pkg/errors"

// ErrMissingWebhookSecret is returned at construction when no verification secret is configured.
// It is a configuration fault: the process must not start serving without a secret.
var ErrMissingWebhookSecret = errors.New("missing webhook secret: set WEBHOOK_SECRET from the Clerk dashboard (Webhooks -> endpoint -> signing secret)")

// ErrMissingStore is returned at construction when no user store is configured.
var ErrMissingStore = errors.New("missing user store")
