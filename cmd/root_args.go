package cmd

import (
	"github.com/isometry/clerk-user-sync/internal/config"
	"github.com/isometry/clerk-user-sync/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'lambda' and 'service'",
		Short:       helpers.Ptr("m"),
	},
	&config.Webhook.Secret: {
		Name:        "webhook-secret",
		Description: "The Clerk webhook signing secret (whsec_...) used to verify incoming deliveries. Required unless --webhook-secret-ssm-key is set",
		Env:         helpers.Ptr("WEBHOOK_SECRET"),
	},
	&config.Webhook.SecretSSMKey: {
		Name:        "webhook-secret-ssm-key",
		Description: "The SSM parameter to fetch the webhook signing secret from. Takes precedence over --webhook-secret",
	},
	&config.Store.Driver: {
		Name:        "store-driver",
		Description: "The user store driver. Supported values are 'sqlite', 'postgres' and 'memory'",
		Short:       helpers.Ptr("d"),
	},
	&config.Store.DSN: {
		Name:        "store-dsn",
		Description: "The user store data source name",
	},
	&config.Archive.S3.BucketName: {
		Name:        "archive-s3-bucket",
		Description: "The S3 bucket to archive verified deliveries to",
	},
	&config.Archive.S3.Prefix: {
		Name:        "archive-s3-prefix",
		Description: "The S3 key prefix of archived deliveries",
	},
}

// envMapBool is built after config.SetDefaults, which allocates the optional flags.
func envMapBool() map[*bool]boundEnvVar[bool] {
	return map[*bool]boundEnvVar[bool]{
		&config.Global.Logging.CallerTrace: {
			Name:        "verbosity-caller-trace",
			Description: "Enable caller trace in logs",
			Short:       helpers.Ptr("V"),
		},
		config.Global.Logging.LogBody: {
			Name:        "log-body",
			Description: "Log the raw body of verified deliveries at debug level. Bodies contain personal data",
		},
		config.Store.Migrate: {
			Name:        "store-migrate",
			Description: "Create the users table on startup",
		},
		&config.Archive.S3.Enabled: {
			Name:        "archive-s3-upload",
			Description: "Enable S3 archiving of verified deliveries",
		},
	}
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}
