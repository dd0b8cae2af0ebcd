// Package machine drives a Chip-8 processor the way a host computer would:
// it polls the keyboard, runs a batch of instructions per video frame, ticks
// the timers at the frame rate, and hands the screen and the buzzer state to
// the output devices.
package machine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mpingram/chip8vm/cpu"
	"github.com/retroenv/retrogolib/log"
)

// FrameRate is the number of frames per second; the timers tick once per frame.
const FrameRate = 60

// DefaultSpeed is the number of instructions executed per frame.
const DefaultSpeed = 5

// Host control keys follow the 16 keypad keys in KeyState.
const (
	KeyPowerOff = cpu.KeyCount + iota
	KeyPause
	KeyResume
	KeyStep
	KeyDump
	KeyBreak

	keyStateSize
)

// KeyState is the state of the keypad plus the host control keys.
type KeyState [keyStateSize]bool

// Keypad returns the 16 keypad keys.
func (k KeyState) Keypad() cpu.KeyState {
	var keypad cpu.KeyState
	copy(keypad[:], k[:cpu.KeyCount])
	return keypad
}

// Display shows the screen.
type Display interface {
	Render(cpu.Framebuffer) error
}

// Input reports which keys are currently held down.
type Input interface {
	Poll() KeyState
}

// The Speaker interface represents the Chip8 speaker, which acts as a simple
// buzzer -- the Chip8 doesn't specify the frequency of the sound, only its
// duration. StartSound is called when the sound timer starts running and
// StopSound when it runs out.
type Speaker interface {
	StartSound()
	StopSound()
}

// FrameSpeaker is a Speaker that wants to hear about the end of every frame,
// so that it can produce a frame's worth of samples.
type FrameSpeaker interface {
	Speaker
	EndFrame() error
}

// Debugger is what the machine needs from an interactive debugger.
type Debugger interface {
	// ShouldBreak reports whether execution must stop before the next instruction.
	ShouldBreak() bool
	// Break stops execution; the prompt is shown at the start of the next frame.
	Break(reason string)
	// Stepping reports whether execution is stopped.
	Stepping() bool
	// Prompt runs the command loop until the user continues or quits.
	Prompt() (quit bool, err error)
}

// Machine runs a cpu.Chip8 against a display, a keyboard and a speaker.
type Machine struct {
	chip     *cpu.Chip8
	display  Display
	input    Input
	speaker  Speaker
	debugger Debugger
	logger   *log.Logger
	dump     io.Writer

	speed int

	paused     bool
	poweredOff bool
	beeping    bool
	prevKeys   KeyState
}

// Option configures a Machine.
type Option func(*Machine)

// WithSpeaker connects a speaker.
func WithSpeaker(speaker Speaker) Option {
	return func(m *Machine) {
		m.speaker = speaker
	}
}

// WithDebugger attaches a debugger. Execution faults then break into the
// debugger instead of stopping the machine.
func WithDebugger(debugger Debugger) Option {
	return func(m *Machine) {
		m.debugger = debugger
	}
}

// WithSpeed sets the number of instructions executed per frame.
func WithSpeed(speed int) Option {
	return func(m *Machine) {
		if speed > 0 {
			m.speed = speed
		}
	}
}

// WithDumpOutput sets where the dump key writes the processor state.
func WithDumpOutput(w io.Writer) Option {
	return func(m *Machine) {
		m.dump = w
	}
}

// New returns a Machine running chip.
func New(chip *cpu.Chip8, display Display, input Input, logger *log.Logger, opts ...Option) *Machine {
	m := &Machine{
		chip:    chip,
		display: display,
		input:   input,
		logger:  logger,
		dump:    io.Discard,
		speed:   DefaultSpeed,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run renders the blank screen and then runs one frame per 1/60th second
// until the machine is powered off or ctx is cancelled.
func (m *Machine) Run(ctx context.Context) error {
	if err := m.display.Render(m.chip.Framebuffer()); err != nil {
		return fmt.Errorf("rendering screen: %w", err)
	}

	clock := time.NewTicker(time.Second / FrameRate)
	defer clock.Stop()

	for !m.poweredOff {
		select {
		case <-ctx.Done():
			return nil
		case <-clock.C:
		}

		if err := m.Frame(); err != nil {
			return err
		}
	}
	return nil
}

// Frame runs one video frame: up to speed instructions, one timer tick,
// a render if the screen changed and a speaker update.
func (m *Machine) Frame() error {
	keys := m.input.Poll()
	singleStep := m.handleControlKeys(keys)
	if m.poweredOff {
		return nil
	}

	redraw := false
	if m.debugger != nil && m.debugger.Stepping() {
		quit, err := m.debugger.Prompt()
		if err != nil {
			return fmt.Errorf("debugger: %w", err)
		}
		if quit {
			m.PowerOff()
			return nil
		}
		redraw = true
	}

	steps := m.speed
	if m.paused {
		steps = 0
		if singleStep {
			steps = 1
		}
	}

	for i := 0; i < steps; i++ {
		if m.debugger != nil && m.debugger.ShouldBreak() {
			m.debugger.Break(fmt.Sprintf("breakpoint hit at 0x%04X", m.chip.PC()))
			break
		}

		if err := m.chip.Step(keys.Keypad()); err != nil {
			if m.debugger == nil {
				return fmt.Errorf("stepping processor: %w", err)
			}
			m.logger.Error("Execution fault", log.Err(err))
			m.debugger.Break(err.Error())
			break
		}
		if m.chip.ShouldRedraw() {
			redraw = true
		}
	}

	if !m.paused {
		m.chip.UpdateTimers()
	}

	if redraw {
		if err := m.display.Render(m.chip.Framebuffer()); err != nil {
			return fmt.Errorf("rendering screen: %w", err)
		}
	}

	return m.updateSound()
}

// handleControlKeys acts on control keys that went down since the last
// frame. It returns true if a single step was requested.
func (m *Machine) handleControlKeys(keys KeyState) bool {
	pressed := func(key int) bool {
		return keys[key] && !m.prevKeys[key]
	}
	defer func() {
		m.prevKeys = keys
	}()

	if pressed(KeyPowerOff) {
		m.PowerOff()
		return false
	}
	if pressed(KeyPause) && !m.paused {
		m.logger.Info("Paused")
		m.paused = true
	}
	if pressed(KeyResume) && m.paused {
		m.logger.Info("Resumed")
		m.paused = false
	}
	if pressed(KeyDump) {
		m.Dump()
	}
	if pressed(KeyBreak) && m.debugger != nil {
		m.debugger.Break("break key pressed")
	}
	return pressed(KeyStep) && m.paused
}

func (m *Machine) updateSound() error {
	beep := m.chip.ShouldBeep()
	if m.speaker == nil {
		m.beeping = beep
		return nil
	}

	if beep != m.beeping {
		if beep {
			m.speaker.StartSound()
		} else {
			m.speaker.StopSound()
		}
		m.beeping = beep
	}

	if fs, ok := m.speaker.(FrameSpeaker); ok {
		if err := fs.EndFrame(); err != nil {
			return fmt.Errorf("speaker: %w", err)
		}
	}
	return nil
}

// Dump writes the processor state and the screen to the dump output.
func (m *Machine) Dump() {
	fb := m.chip.Framebuffer()
	fmt.Fprint(m.dump, m.chip.Snapshot().String())
	fmt.Fprint(m.dump, fb.String())
}

// Pause stops execution after the current frame. Timers stop too.
func (m *Machine) Pause() {
	m.paused = true
}

// Resume continues execution after Pause.
func (m *Machine) Resume() {
	m.paused = false
}

// Paused reports whether execution is paused.
func (m *Machine) Paused() bool {
	return m.paused
}

// PowerOff makes Run return after the current frame and silences the speaker.
func (m *Machine) PowerOff() {
	if m.poweredOff {
		return
	}
	m.poweredOff = true
	if m.beeping && m.speaker != nil {
		m.speaker.StopSound()
	}
	m.beeping = false
}

// PoweredOff reports whether the machine has been powered off.
func (m *Machine) PoweredOff() bool {
	return m.poweredOff
}
