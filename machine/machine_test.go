package machine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mpingram/chip8vm/cpu"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type fakeDisplay struct {
	frames []cpu.Framebuffer
}

func (d *fakeDisplay) Render(fb cpu.Framebuffer) error {
	d.frames = append(d.frames, fb)
	return nil
}

// fakeInput returns the queued key states one per Poll, then nothing pressed.
type fakeInput struct {
	queue []KeyState
}

func (i *fakeInput) Poll() KeyState {
	if len(i.queue) == 0 {
		return KeyState{}
	}
	keys := i.queue[0]
	i.queue = i.queue[1:]
	return keys
}

type fakeSpeaker struct {
	starts    int
	stops     int
	endFrames int
}

func (s *fakeSpeaker) StartSound() { s.starts++ }
func (s *fakeSpeaker) StopSound() { s.stops++ }
func (s *fakeSpeaker) EndFrame() error { s.endFrames++; return nil }

type fakeDebugger struct {
	chip     *cpu.Chip8
	breakAt  uint16
	armed    bool
	stepping bool
	quit     bool
	reasons  []string
	prompts  int
}

func (d *fakeDebugger) ShouldBreak() bool {
	return d.armed && d.chip.PC() == d.breakAt
}

func (d *fakeDebugger) Break(reason string) {
	d.stepping = true
	d.reasons = append(d.reasons, reason)
}

func (d *fakeDebugger) Stepping() bool {
	return d.stepping
}

func (d *fakeDebugger) Prompt() (bool, error) {
	d.prompts++
	d.stepping = false
	d.armed = false
	return d.quit, nil
}

func press(keys ...int) KeyState {
	var ks KeyState
	for _, k := range keys {
		ks[k] = true
	}
	return ks
}

// quietLogger discards records. The test logger fails a test on any
// error record, which fault paths emit on purpose.
func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Handler = slog.NewTextHandler(io.Discard, nil)
	return log.NewWithConfig(cfg)
}

func newTestMachine(t *testing.T, image []byte, opts ...Option) (*Machine, *cpu.Chip8, *fakeDisplay, *fakeInput) {
	t.Helper()
	logger := log.NewTestLogger(t)
	chip := cpu.New(image, logger)
	display := &fakeDisplay{}
	input := &fakeInput{}
	return New(chip, display, input, logger, opts...), chip, display, input
}

func TestKeyState_Keypad(t *testing.T) {
	keys := press(0x3, 0xF, KeyPause)
	keypad := keys.Keypad()

	assert.True(t, keypad[0x3])
	assert.True(t, keypad[0xF])
	assert.False(t, keypad[0x0])
}

func TestFrame_Speed(t *testing.T) {
	// ADD V0, 1; JP 0x200
	m, chip, _, _ := newTestMachine(t, []byte{0x70, 0x01, 0x12, 0x00}, WithSpeed(4))

	assert.NoError(t, m.Frame())
	assert.Equal(t, byte(2), chip.Snapshot().V[0])

	assert.NoError(t, m.Frame())
	assert.Equal(t, byte(4), chip.Snapshot().V[0])
}

func TestFrame_RendersOnlyWhenScreenChanged(t *testing.T) {
	// CLS; JP 0x202
	m, _, display, _ := newTestMachine(t, []byte{0x00, 0xE0, 0x12, 0x02})

	assert.NoError(t, m.Frame())
	assert.Len(t, display.frames, 1)

	assert.NoError(t, m.Frame())
	assert.Len(t, display.frames, 1)
}

func TestFrame_Sound(t *testing.T) {
	// LD V0, 5; LD ST, V0; JP 0x204
	speaker := &fakeSpeaker{}
	m, chip, _, _ := newTestMachine(t, []byte{0x60, 0x05, 0xF0, 0x18, 0x12, 0x04}, WithSpeaker(speaker))

	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, speaker.starts)
	assert.Equal(t, byte(4), chip.Snapshot().ST)

	for i := 0; i < 3; i++ {
		assert.NoError(t, m.Frame())
	}
	assert.Equal(t, 0, speaker.stops)

	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, speaker.starts)
	assert.Equal(t, 1, speaker.stops)
	assert.Equal(t, 5, speaker.endFrames)
}

func TestFrame_PauseStepResume(t *testing.T) {
	// ADD V0, 1; JP 0x200
	m, chip, _, input := newTestMachine(t, []byte{0x70, 0x01, 0x12, 0x00})
	input.queue = []KeyState{
		press(KeyPause),
		press(KeyPause, KeyStep),
		press(KeyResume),
	}

	assert.NoError(t, m.Frame())
	assert.True(t, m.Paused())
	assert.Equal(t, byte(0), chip.Snapshot().V[0])

	assert.NoError(t, m.Frame())
	assert.Equal(t, byte(1), chip.Snapshot().V[0])
	assert.Equal(t, uint16(0x202), chip.PC())

	assert.NoError(t, m.Frame())
	assert.False(t, m.Paused())
	assert.Equal(t, byte(3), chip.Snapshot().V[0])
}

func TestFrame_PausedTimersHold(t *testing.T) {
	// LD V0, 5; LD DT, V0; JP 0x204
	m, chip, _, input := newTestMachine(t, []byte{0x60, 0x05, 0xF0, 0x15, 0x12, 0x04})

	assert.NoError(t, m.Frame())
	assert.Equal(t, byte(4), chip.Snapshot().DT)

	input.queue = []KeyState{press(KeyPause), press(KeyPause)}
	assert.NoError(t, m.Frame())
	assert.NoError(t, m.Frame())
	assert.Equal(t, byte(4), chip.Snapshot().DT)
}

func TestFrame_ControlKeysAreEdgeTriggered(t *testing.T) {
	var out bytes.Buffer
	m, _, _, input := newTestMachine(t, []byte{0x12, 0x00}, WithDumpOutput(&out))
	input.queue = []KeyState{press(KeyDump), press(KeyDump)}

	assert.NoError(t, m.Frame())
	first := out.Len()
	assert.True(t, first > 0)
	assert.Contains(t, out.String(), "Registers:")

	assert.NoError(t, m.Frame())
	assert.Equal(t, first, out.Len())
}

func TestFrame_PowerOff(t *testing.T) {
	// LD V0, 5; LD ST, V0; JP 0x204
	speaker := &fakeSpeaker{}
	m, _, _, input := newTestMachine(t, []byte{0x60, 0x05, 0xF0, 0x18, 0x12, 0x04}, WithSpeaker(speaker))

	assert.NoError(t, m.Frame())
	input.queue = []KeyState{press(KeyPowerOff)}
	assert.NoError(t, m.Frame())

	assert.True(t, m.PoweredOff())
	assert.Equal(t, 1, speaker.stops)
}

func TestFrame_FaultWithoutDebugger(t *testing.T) {
	m, chip, _, _ := newTestMachine(t, []byte{0x00, 0x00})

	err := m.Frame()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, cpu.ErrUnsupportedInstruction))
	assert.Equal(t, uint16(0x200), chip.PC())
}

func TestFrame_FaultBreaksIntoDebugger(t *testing.T) {
	logger := quietLogger()
	chip := cpu.New([]byte{0x00, 0x00}, logger)
	dbg := &fakeDebugger{chip: chip, quit: true}
	m := New(chip, &fakeDisplay{}, &fakeInput{}, logger, WithDebugger(dbg))

	assert.NoError(t, m.Frame())
	assert.Len(t, dbg.reasons, 1)
	assert.True(t, dbg.Stepping())

	// the next frame shows the prompt, where the user quits
	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, dbg.prompts)
	assert.True(t, m.PoweredOff())
}

func TestFrame_Breakpoint(t *testing.T) {
	logger := log.NewTestLogger(t)
	// ADD V0, 1 three times; JP 0x206
	chip := cpu.New([]byte{0x70, 0x01, 0x70, 0x01, 0x70, 0x01, 0x12, 0x06}, logger)
	dbg := &fakeDebugger{chip: chip, breakAt: 0x202, armed: true}
	m := New(chip, &fakeDisplay{}, &fakeInput{}, logger, WithDebugger(dbg))

	assert.NoError(t, m.Frame())
	assert.Equal(t, byte(1), chip.Snapshot().V[0])
	assert.Len(t, dbg.reasons, 1)
	assert.Contains(t, dbg.reasons[0], "0x0202")

	assert.NoError(t, m.Frame())
	assert.Equal(t, 1, dbg.prompts)
	assert.Equal(t, byte(3), chip.Snapshot().V[0])
}

func TestRun_PowerOff(t *testing.T) {
	m, _, display, input := newTestMachine(t, []byte{0x12, 0x00})
	input.queue = []KeyState{press(KeyPowerOff)}

	assert.NoError(t, m.Run(context.Background()))
	assert.True(t, m.PoweredOff())
	assert.Len(t, display.frames, 1)
}

func TestRun_Cancelled(t *testing.T) {
	m, _, _, _ := newTestMachine(t, []byte{0x12, 0x00})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, m.Run(ctx))
}
