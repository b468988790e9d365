// Package cmd provides the entrypoint for the clerk-user-sync cli.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/isometry/clerk-user-sync/internal/config"
	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configFileEnv overrides the configuration file path. The file is read before flags are parsed.
const configFileEnv = "CONFIG_FILE"

var logger = helpers.NewNoopLogger()

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	Hidden            bool
}

// New returns the root command for the clerk-user-sync.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clerk-user-sync",
		Short:         "Receive Clerk user webhooks and mirror users into a database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			config.Global.Mode = strings.TrimSpace(config.Global.Mode)
			logger = helpers.NewLogger(os.Stdout, config.Global.Logging.Verbosity, config.Global.Logging.CallerTrace).
				With("mode", config.Global.Mode)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch config.Global.Mode {
			case config.ModeService:
				err = cmdService().RunE(cmd, args)
			case config.ModeLambda:
				err = cmdLambda().RunE(cmd, args)
			default:
				err = fmt.Errorf("invalid mode: %s", config.Global.Mode)
			}
			if err != nil {
				logger.Error("exiting", slog.Any("error", err))
			}
			return err
		},
	}

	// Configuration loading & defaults
	configFilePath := "config.yaml"
	if v, found := os.LookupEnv(configFileEnv); found {
		configFilePath = v
	}
	if err := errors.Join(
		config.LoadFromFile(configFilePath),
		config.SetDefaults(),
	); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdLambda(),
		cmdService(),
	)

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString)
	bindEnvMap(cmd, envMapBool())
	bindEnvMap(cmd, envMapCount)
}
