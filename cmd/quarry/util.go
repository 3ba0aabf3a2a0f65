package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/vm"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var (
	red   = color.New(color.FgRed).SprintFunc()
	title = color.New(color.FgYellow, color.Bold).SprintFunc()
	label = color.New(color.FgMagenta).SprintFunc()
	value = color.New(color.FgGreen).SprintFunc()
	muted = color.New(color.FgHiBlack).SprintFunc()
)

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = formatError(msg)
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

// formatError returns the friendly message of engine errors, which carries
// the evaluation stack, and the plain message otherwise.
func formatError(err error) string {
	var friendly errz.FriendlyError
	if errors.As(err, &friendly) {
		return strings.TrimRight(friendly.FriendlyErrorMessage(), "\n")
	}
	return err.Error()
}

func isTerminalIO() bool {
	stdout := os.Stdout.Fd()
	return isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
}

func getOutputJSON(result any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no_color") || !isTerminalIO() {
		color.NoColor = true
	}
}

// newLogger returns a console logger on stderr at the configured level.
func newLogger(cfg vm.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    color.NoColor,
		TimeFormat: time.Kitchen,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
