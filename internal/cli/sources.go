package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"isafw/internal/config"
	"isafw/internal/flags"
	"isafw/internal/logging"
)

const (
	defaultConfigName = "isafw"
	envPrefix         = "ISAFW"
)

// applyConfigSources fills every flag the user did not set from the config
// file or the environment.
func applyConfigSources(cmd *cobra.Command, cfgFile string) error {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/isafw/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == flags.FlagConfig || !v.IsSet(f.Name) {
			return
		}
		var val string
		switch f.Value.Type() {
		case "stringSlice", "stringArray":
			val = strings.Join(v.GetStringSlice(f.Name), ",")
		default:
			val = v.GetString(f.Name)
		}
		if err := cmd.Flags().Set(f.Name, val); err != nil {
			errs = append(errs, fmt.Errorf("config value for %s: %w", f.Name, err))
		}
	})
	if used := v.ConfigFileUsed(); used != "" {
		slog.Debug("config file loaded", "path", used)
	}
	return errors.Join(errs...)
}

func initLogging(cmd *cobra.Command, cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.Runtime.LogLevel)
	if err != nil {
		return err
	}
	logging.Init(cmd.ErrOrStderr(), level, color.NoColor)
	return nil
}
