package debugger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mpingram/chip8vm/cpu"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// ADD V0, 1 three times; JP 0x206
var countingProgram = []byte{0x70, 0x01, 0x70, 0x01, 0x70, 0x01, 0x12, 0x06}

func newTestDebugger(t *testing.T, image []byte, commands string) (*Debugger, *cpu.Chip8, *bytes.Buffer) {
	t.Helper()
	logger := log.NewTestLogger(t)
	chip := cpu.New(image, logger)
	out := &bytes.Buffer{}
	return New(chip, strings.NewReader(commands), out, logger, nil), chip, out
}

func TestShouldBreak_Address(t *testing.T) {
	d, chip, _ := newTestDebugger(t, countingProgram, "")
	d.AddAddressBreakpoint(0x202)

	assert.False(t, d.ShouldBreak())
	assert.NoError(t, chip.Step(cpu.KeyState{}))
	assert.True(t, d.ShouldBreak())
}

func TestShouldBreak_Opcode(t *testing.T) {
	d, chip, _ := newTestDebugger(t, countingProgram, "")
	d.AddOpcodeBreakpoint(0x1206)

	for i := 0; i < 3; i++ {
		assert.False(t, d.ShouldBreak())
		assert.NoError(t, chip.Step(cpu.KeyState{}))
	}
	assert.True(t, d.ShouldBreak())
}

func TestBreak_EnablesTrace(t *testing.T) {
	d, chip, out := newTestDebugger(t, countingProgram, "c\n")

	d.Break("stopped")
	assert.True(t, d.Stepping())
	assert.True(t, chip.Tracing())
	assert.Contains(t, out.String(), "stopped")

	quit, err := d.Prompt()
	assert.NoError(t, err)
	assert.False(t, quit)
	assert.False(t, d.Stepping())
	assert.False(t, chip.Tracing())
}

func TestContinue_LeavesBreakpoint(t *testing.T) {
	d, chip, _ := newTestDebugger(t, countingProgram, "c\n")
	d.AddAddressBreakpoint(0x200)

	assert.True(t, d.ShouldBreak())
	d.Break("breakpoint")
	_, err := d.Prompt()
	assert.NoError(t, err)

	// the first check after continuing must not stop at the same address again
	assert.False(t, d.ShouldBreak())
	assert.NoError(t, chip.Step(cpu.KeyState{}))
	assert.False(t, d.ShouldBreak())
}

func TestPrompt_Step(t *testing.T) {
	d, chip, out := newTestDebugger(t, countingProgram, "s\ns 2\nc\n")
	d.Break("boot")

	quit, err := d.Prompt()
	assert.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, byte(3), chip.Snapshot().V[0])
	assert.Equal(t, uint16(0x206), chip.PC())
	assert.Contains(t, out.String(), "0x0206: 1206  jp $206")
}

func TestPrompt_StepError(t *testing.T) {
	// the failed step is logged at error level, which the test logger rejects
	cfg := log.DefaultConfig()
	cfg.Handler = slog.NewTextHandler(io.Discard, nil)
	logger := log.NewWithConfig(cfg)
	chip := cpu.New([]byte{0x00, 0x00}, logger)
	out := &bytes.Buffer{}
	d := New(chip, strings.NewReader("s\nq\n"), out, logger, nil)

	quit, err := d.Prompt()
	assert.NoError(t, err)
	assert.True(t, quit)
	assert.Equal(t, uint16(0x200), chip.PC())
	assert.Contains(t, out.String(), "Error:")
}

func TestPrompt_Breakpoints(t *testing.T) {
	d, _, out := newTestDebugger(t, countingProgram, "ba 204\nbo 0x1206\nb\nba zz\nclear\nb\nq\n")

	quit, err := d.Prompt()
	assert.NoError(t, err)
	assert.True(t, quit)

	output := out.String()
	assert.Contains(t, output, "Added breakpoint for address 0x0204")
	assert.Contains(t, output, "Added breakpoint for opcode 0x1206")
	assert.Contains(t, output, "address 0x0204")
	assert.Contains(t, output, "Invalid address")
	assert.Contains(t, output, "No breakpoints")
	assert.False(t, d.ShouldBreak())
}

func TestPrompt_Print(t *testing.T) {
	d, _, out := newTestDebugger(t, countingProgram, "p cpu\np 201\np 1000\nq\n")

	_, err := d.Prompt()
	assert.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "Registers:")
	assert.Contains(t, output, "0x0201: 0x01")
	assert.Contains(t, output, "Error:")
}

func TestPrompt_Disassemble(t *testing.T) {
	d, _, out := newTestDebugger(t, countingProgram, "d 4\nq\n")

	_, err := d.Prompt()
	assert.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "=> 0x0200  7001  add V0, $01")
	assert.Contains(t, output, "   0x0206  1206  jp $206")
}

func TestPrompt_Reset(t *testing.T) {
	d, chip, _ := newTestDebugger(t, countingProgram, "s 2\nr\nq\n")

	_, err := d.Prompt()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x200), chip.PC())
	assert.Equal(t, byte(0), chip.Snapshot().V[0])
}

func TestPrompt_Memviz(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.dot")
	d, _, out := newTestDebugger(t, countingProgram, "memviz "+path+"\nq\n")

	_, err := d.Prompt()
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Wrote state graph")

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
}

func TestPrompt_EndOfInput(t *testing.T) {
	d, _, _ := newTestDebugger(t, countingProgram, "")

	quit, err := d.Prompt()
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestPrompt_UnknownCommand(t *testing.T) {
	d, _, out := newTestDebugger(t, countingProgram, "xyz\nq\n")

	_, err := d.Prompt()
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "Invalid command")
	assert.Contains(t, out.String(), "Available commands:")
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		input    string
		expected uint16
		wantErr  bool
	}{
		{"200", 0x200, false},
		{"0x1A2B", 0x1A2B, false},
		{"$ff", 0xFF, false},
		{"", 0, true},
		{"10000", 0, true},
		{"xyz", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := parseHex(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}
