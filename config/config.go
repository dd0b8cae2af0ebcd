// Package config handles command line options and application setup.
package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/log"
)

const (
	defaultSpeed         = 5
	defaultScale         = 10
	defaultStatsViewAddr = "localhost:18066"
)

// Options are the settings of a run.
type Options struct {
	ROM string

	Speed int
	Scale int

	Debug bool
	Trace bool

	WAV  string
	Mute bool

	StatsView     bool
	StatsViewAddr string

	Verbose bool
	Quiet   bool
}

// UsageError is returned when the command line can not be used and the
// usage should be shown.
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage and all flag defaults to w.
func (e *UsageError) ShowUsage(w io.Writer) {
	if e.msg != "" {
		fmt.Fprintf(w, "%s\n\n", e.msg)
	}
	fmt.Fprintf(w, "usage: chip8 [options] <rom file>\n\n")
	e.flags.SetOutput(w)
	e.flags.PrintDefaults()
	fmt.Fprintln(w)
}

// ParseFlags parses the command line. args[0] is the program name.
func ParseFlags(args []string) (Options, error) {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var opts Options
	readOptionFlags(flags, &opts)

	err := flags.Parse(args[1:])
	rest := flags.Args()
	if err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	if len(rest) == 0 {
		return opts, &UsageError{flags: flags, msg: "missing rom file"}
	}
	if len(rest) > 1 {
		return opts, &UsageError{
			flags: flags,
			msg:   fmt.Sprintf("unexpected argument %s after rom file, options must come first", rest[1]),
		}
	}
	opts.ROM = rest[0]

	if err := validateOptions(opts); err != nil {
		return opts, err
	}
	return opts, nil
}

func readOptionFlags(flags *flag.FlagSet, opts *Options) {
	flags.IntVar(&opts.Speed, "speed", defaultSpeed, "instructions executed per 1/60s frame")
	flags.IntVar(&opts.Scale, "scale", defaultScale, "window pixels per chip-8 pixel")
	flags.BoolVar(&opts.Debug, "debug", false, "start the debugger and break before the first instruction")
	flags.BoolVar(&opts.Trace, "trace", false, "log every executed instruction, implies -v")
	flags.StringVar(&opts.WAV, "wav", "", "record the buzzer to the given .wav file")
	flags.BoolVar(&opts.Mute, "mute", false, "do not play the buzzer")
	flags.BoolVar(&opts.StatsView, "statsview", false, "serve go runtime statistics charts while running")
	flags.StringVar(&opts.StatsViewAddr, "statsview-addr", defaultStatsViewAddr, "listen address of the statistics server")
	flags.BoolVar(&opts.Verbose, "v", false, "enable debug logging")
	flags.BoolVar(&opts.Quiet, "q", false, "only log errors")
}

func validateOptions(opts Options) error {
	if opts.Speed < 1 {
		return fmt.Errorf("invalid speed %d, must be at least 1", opts.Speed)
	}
	if opts.Scale < 1 {
		return fmt.Errorf("invalid scale %d, must be at least 1", opts.Scale)
	}
	if opts.Verbose && opts.Quiet {
		return fmt.Errorf("options -v and -q can not be combined")
	}
	return nil
}

// CreateLogger creates a logger with appropriate settings.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
