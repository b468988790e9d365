package cmd

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/isometry/clerk-user-sync/internal/config"
	"github.com/isometry/clerk-user-sync/internal/runtime"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdLambda() *cobra.Command {
	cmd := &cobra.Command{
		Use: "lambda",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("mode", config.ModeLambda)

			hdl, cleanup, err := setup(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}
			defer cleanup()

			logger.Debug("creating runtime...")
			rtm := runtime.NewRuntime(hdl,
				runtime.WithLogger(logger.With("component", "runtime")))

			logger.Info("lambda starting...", "payloadType", config.Lambda.PayloadType)
			lambda.StartWithOptions(rtm.Lambda,
				lambda.WithContext(cmd.Context()))
			return nil
		},
	}

	bindEnvMap(cmd, lambdaEnvMapString)

	return cmd
}
