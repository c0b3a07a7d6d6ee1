package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "ENVBUILDER"

type RootConfig struct {
	ConfigFile string
	LogLevel   string
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:     "envbuilder",
		Short:   "Reproducible environment resolver and builder",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newResolveCommand())
	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newShellCommand())
	cmd.AddCommand(newInspectCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("envbuilder")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/envbuilder")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// exitCodeForError maps the error taxonomy onto process exit codes:
// 2 bad input, 3 resolution conflict, 4 missing distribution,
// 5 environment build failure, 1 anything else.
func exitCodeForError(err error) int {
	message := errorMessage(err)
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodeFailedPrecondition:
		if strings.HasPrefix(message, "resolution conflict") ||
			strings.HasPrefix(message, "dependency cycle") {
			return 3
		}
		return 5
	case errbuilder.CodeNotFound:
		if strings.HasPrefix(message, "no distribution") ||
			strings.HasPrefix(message, "no available versions") {
			return 4
		}
		return 2
	case errbuilder.CodeInternal, errbuilder.CodeUnavailable:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
