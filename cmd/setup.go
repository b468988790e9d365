package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/isometry/clerk-user-sync/internal/config"
	"github.com/isometry/clerk-user-sync/internal/controllers/aws"
	"github.com/isometry/clerk-user-sync/internal/handler"
	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/isometry/clerk-user-sync/internal/store"
	"github.com/pkg/errors"
)

// setup builds the webhook handler from the configuration. The returned cleanup closes the user store.
// A missing webhook secret is fatal: the process must not serve unverifiable deliveries.
func setup(ctx context.Context, awsOpts ...aws.Option) (*handler.Handler, func(), error) {
	var awsCtl *aws.Controller
	if config.Webhook.SecretSSMKey != "" || config.Archive.S3.Enabled {
		logger.Debug("creating AWS controller...")
		var err error
		awsCtl, err = aws.NewController(append([]aws.Option{
			aws.WithContext(ctx),
			aws.WithLogger(logger.With("component", "aws-controller")),
		}, awsOpts...)...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create AWS controller")
		}
	}

	secret := config.Webhook.Secret
	if config.Webhook.SecretSSMKey != "" {
		var err error
		if secret, err = awsCtl.GetSecret(config.Webhook.SecretSSMKey, true); err != nil {
			return nil, nil, errors.Wrap(err, "failed to fetch webhook secret")
		}
	}
	if strings.TrimSpace(secret) == "" {
		return nil, nil, handler.ErrMissingWebhookSecret
	}

	logger.Debug("opening user store...", slog.String("driver", config.Store.Driver))
	userStore, err := store.Open(ctx, config.Store.Driver, config.Store.DSN,
		store.WithMigrate(helpers.Deref(config.Store.Migrate)),
		store.WithLogger(logger.With("component", "store")))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open user store")
	}
	cleanup := func() {
		if cerr := userStore.Close(); cerr != nil {
			logger.Warn("failed to close user store", slog.Any("error", cerr))
		}
	}

	opts := []handler.Option{
		handler.WithContext(ctx),
		handler.WithWebhookSecret(secret),
		handler.WithStore(userStore),
		handler.WithLogBody(helpers.Deref(config.Global.Logging.LogBody)),
		handler.WithLambdaPayloadType(config.Lambda.PayloadType),
		handler.WithLogger(logger.With("component", "webhook-handler")),
	}
	if config.Archive.S3.Enabled {
		opts = append(opts, handler.WithS3Archive(awsCtl, config.Archive.S3.BucketName, config.Archive.S3.Prefix))
	}

	logger.Debug("creating webhook handler...")
	hdl, err := handler.New(opts...)
	if err != nil {
		cleanup()
		return nil, nil, errors.Wrap(err, "failed to create webhook handler")
	}
	return hdl, cleanup, nil
}
