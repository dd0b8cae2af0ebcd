// Package main implements a Chip-8 interpreter with an OpenGL window,
// SDL sound and an optional command line debugger.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/mpingram/chip8vm/config"
	"github.com/mpingram/chip8vm/cpu"
	"github.com/mpingram/chip8vm/debugger"
	"github.com/mpingram/chip8vm/machine"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func init() {
	// openGL requires this to render properly
	runtime.LockOSThread()
}

func main() {
	ctx := app.Context()

	opts, err := config.ParseFlags(os.Args)
	if err != nil {
		logger := config.CreateLogger(opts.Verbose, opts.Quiet)
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			printBanner(logger, opts)
			usageErr.ShowUsage(os.Stderr)
		} else {
			logger.Error("Invalid options", log.Err(err))
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Verbose || opts.Trace, opts.Quiet)
	printBanner(logger, opts)

	if err := run(ctx, logger, opts); err != nil {
		logger.Fatal("Emulation failed", log.Err(err))
	}
}

func printBanner(logger *log.Logger, opts config.Options) {
	if opts.Quiet {
		return
	}
	logger.Info("chip8", log.String("version", buildinfo.Version(version, commit, date)))
}

func run(ctx context.Context, logger *log.Logger, opts config.Options) (err error) {
	image, err := loadImage(opts.ROM)
	if err != nil {
		return err
	}
	logger.Debug("Loaded rom", log.String("file", opts.ROM), log.Int("size", len(image)))

	chip := cpu.New(image, logger)
	chip.SetTrace(opts.Trace)

	if opts.StatsView {
		launchStatsView(logger, opts.StatsViewAddr)
	}

	window, err := createWindow(opts.Scale, fmt.Sprintf("Chip-8 - %s - ESC to exit", filepath.Base(opts.ROM)))
	if err != nil {
		return err
	}
	defer glfw.Terminate()

	renderer, err := NewOpenGLRenderer(window)
	if err != nil {
		return err
	}
	defer renderer.Close()

	input := NewGLFWKeyboardInput(window)

	sound, err := openAudio(logger, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sound.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	machineOpts := []machine.Option{
		machine.WithSpeed(opts.Speed),
		machine.WithDumpOutput(os.Stdout),
	}
	if speaker := sound.Speaker(); speaker != nil {
		machineOpts = append(machineOpts, machine.WithSpeaker(speaker))
	}
	if opts.Debug {
		dbg := debugger.New(chip, os.Stdin, os.Stdout, logger, input.Keypad)
		dbg.Break(fmt.Sprintf("Debugger started at 0x%04X, type help for a list of commands", chip.PC()))
		machineOpts = append(machineOpts, machine.WithDebugger(dbg))
	}

	m := machine.New(chip, renderer, input, logger, machineOpts...)
	if err := m.Run(ctx); err != nil {
		return fmt.Errorf("running %s: %w", filepath.Base(opts.ROM), err)
	}
	logger.Info("Powered off")
	return nil
}
