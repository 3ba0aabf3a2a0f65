package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quarry",
		Short:         "Execution core of the quarry predicate engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			processGlobalFlags()
			return initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.quarry.yaml)")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.Bool("no-color", false, "disable colored output")
	flags.Int("recursion-limit", 0, "maximum evaluation depth")
	flags.Int("frame-pool-capacity", 0, "number of disposed frames kept for reuse")
	flags.Int("pending-call-capacity", 0, "size of the pending call queue")
	flags.Int("gc-threshold", 0, "container allocations between cycle collections (0 disables)")

	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("no_color", flags.Lookup("no-color"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("recursion_limit", flags.Lookup("recursion-limit"))
	viper.BindPFlag("frame_pool_capacity", flags.Lookup("frame-pool-capacity"))
	viper.BindPFlag("pending_call_capacity", flags.Lookup("pending-call-capacity"))
	viper.BindPFlag("gc_threshold", flags.Lookup("gc-threshold"))

	root.AddCommand(newBenchCmd(), newConfigCmd(), newVersionCmd())
	return root
}
