package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/risor-io/quarry/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initConfig wires environment variables (QUARRY_*) and the config file into
// viper. An explicitly named config file must exist; the default one is
// optional.
func initConfig() error {
	viper.SetEnvPrefix("quarry")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	defaults := vm.DefaultConfig()
	viper.SetDefault("recursion_limit", defaults.RecursionLimit)
	viper.SetDefault("frame_pool_capacity", defaults.FramePoolCapacity)
	viper.SetDefault("pending_call_capacity", defaults.PendingCallCapacity)
	viper.SetDefault("gc_threshold", defaults.GCThreshold)
	viper.SetDefault("log_level", defaults.LogLevel)

	explicit := viper.GetString("config")
	if explicit != "" {
		path, err := homedir.Expand(explicit)
		if err != nil {
			return err
		}
		viper.SetConfigFile(path)
	} else {
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".quarry")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// loadConfig returns the validated engine settings.
func loadConfig() (vm.Config, error) {
	cfg := vm.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective engine configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			output, err := getOutputJSON(cfg)
			if err != nil {
				return err
			}
			if file := viper.ConfigFileUsed(); file != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "# %s\n", file)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}
}
