package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{Version: version, Commit: commit, Date: date, Go: runtime.Version()}
			output, _ := cmd.Flags().GetString("output")
			switch output {
			case "json":
				data, err := getOutputJSON(info)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case "", "text":
				fmt.Fprintf(cmd.OutOrStdout(), "quarry %s (commit %s, built %s, %s)\n",
					info.Version, info.Commit, info.Date, info.Go)
			default:
				return fmt.Errorf("unknown output format: %s", output)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "output format (json, text)")
	return cmd
}
