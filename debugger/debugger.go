// Package debugger implements a line based debugger for a Chip-8 processor
// with address and opcode breakpoints, single stepping and disassembly.
package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bradleyjkemp/memviz"
	"github.com/mpingram/chip8vm/cpu"
	"github.com/retroenv/retrogolib/log"
)

const (
	prompt = "chip8> "

	defaultDisassembleCount = 5
)

// Target is the processor being debugged. *cpu.Chip8 implements it.
type Target interface {
	Step(keys cpu.KeyState) error
	PC() uint16
	FetchInstruction() (uint16, error)
	ReadByte(addr uint16) (byte, error)
	Snapshot() cpu.State
	Reset()
	SetTrace(enabled bool)
	Tracing() bool
}

// Debugger reads commands from its input while execution is stopped.
type Debugger struct {
	target Target
	in     *bufio.Scanner
	out    io.Writer
	logger *log.Logger
	keys   func() cpu.KeyState

	addresses map[uint16]struct{}
	opcodes   map[uint16]struct{}

	stepping   bool
	traceSaved bool

	// set by continue so that execution can leave a breakpoint address
	resumed  bool
	resumePC uint16
}

// New returns a debugger for target reading commands from in and writing
// to out. keys supplies the keyboard state for single steps; it may be nil.
func New(target Target, in io.Reader, out io.Writer, logger *log.Logger, keys func() cpu.KeyState) *Debugger {
	if keys == nil {
		keys = func() cpu.KeyState { return cpu.KeyState{} }
	}
	return &Debugger{
		target:    target,
		in:        bufio.NewScanner(in),
		out:       out,
		logger:    logger,
		keys:      keys,
		addresses: map[uint16]struct{}{},
		opcodes:   map[uint16]struct{}{},
	}
}

// AddAddressBreakpoint stops execution before the instruction at addr.
func (d *Debugger) AddAddressBreakpoint(addr uint16) {
	d.addresses[addr] = struct{}{}
}

// AddOpcodeBreakpoint stops execution before any instruction equal to opcode.
func (d *Debugger) AddOpcodeBreakpoint(opcode uint16) {
	d.opcodes[opcode] = struct{}{}
}

// ClearBreakpoints removes all breakpoints.
func (d *Debugger) ClearBreakpoints() {
	d.addresses = map[uint16]struct{}{}
	d.opcodes = map[uint16]struct{}{}
}

// ShouldBreak reports whether the instruction at the program counter is
// on an address or opcode breakpoint.
func (d *Debugger) ShouldBreak() bool {
	pc := d.target.PC()
	if d.resumed {
		d.resumed = false
		if pc == d.resumePC {
			return false
		}
	}

	if _, ok := d.addresses[pc]; ok {
		return true
	}
	if len(d.opcodes) == 0 {
		return false
	}
	opcode, err := d.target.FetchInstruction()
	if err != nil {
		return false
	}
	_, ok := d.opcodes[opcode]
	return ok
}

// Break stops execution and turns on instruction tracing.
func (d *Debugger) Break(reason string) {
	fmt.Fprintln(d.out, reason)
	if d.stepping {
		return
	}
	d.stepping = true
	d.traceSaved = d.target.Tracing()
	d.target.SetTrace(true)
}

// Stepping reports whether execution is stopped.
func (d *Debugger) Stepping() bool {
	return d.stepping
}

// Prompt reads and runs commands until one of them continues execution or
// quits. It returns quit true if the user asked to quit or the input ended.
func (d *Debugger) Prompt() (bool, error) {
	d.printLocation()

	for {
		fmt.Fprint(d.out, prompt)
		if !d.in.Scan() {
			if err := d.in.Err(); err != nil {
				return true, fmt.Errorf("reading command: %w", err)
			}
			fmt.Fprintln(d.out)
			return true, nil
		}

		fields := strings.Fields(d.in.Text())
		if len(fields) == 0 {
			continue
		}

		done, quit := d.execute(fields[0], fields[1:])
		if done {
			return quit, nil
		}
	}
}

// execute runs one command. done is true if the prompt should return.
func (d *Debugger) execute(cmd string, args []string) (done, quit bool) {
	switch cmd {
	case "q", "quit":
		fmt.Fprintln(d.out, "Exiting...")
		return true, true

	case "c", "continue":
		d.resume()
		return true, false

	case "s", "step":
		d.step(args)

	case "ba":
		d.addBreakpoint(args, "address", d.AddAddressBreakpoint)

	case "bo":
		d.addBreakpoint(args, "opcode", d.AddOpcodeBreakpoint)

	case "clear":
		d.ClearBreakpoints()
		fmt.Fprintln(d.out, "Cleared breakpoints")

	case "b", "breakpoints":
		d.listBreakpoints()

	case "p", "print":
		d.print(args)

	case "d", "disasm":
		d.disassemble(args)

	case "r", "reset":
		d.target.Reset()
		fmt.Fprintln(d.out, "Reset")
		d.printLocation()

	case "memviz":
		d.memviz(args)

	case "help", "h", "?":
		d.help()

	default:
		fmt.Fprintf(d.out, "Invalid command %q. ", cmd)
		d.help()
	}
	return false, false
}

func (d *Debugger) resume() {
	d.stepping = false
	d.resumed = true
	d.resumePC = d.target.PC()
	d.target.SetTrace(d.traceSaved)
}

func (d *Debugger) step(args []string) {
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintf(d.out, "Invalid number: %q\n", args[0])
			return
		}
		count = n
	}

	for i := 0; i < count; i++ {
		if err := d.target.Step(d.keys()); err != nil {
			d.logger.Error("Step failed", log.Err(err))
			fmt.Fprintf(d.out, "Error: %v\n", err)
			break
		}
	}
	d.printLocation()
}

func (d *Debugger) addBreakpoint(args []string, kind string, add func(uint16)) {
	if len(args) == 0 {
		fmt.Fprintf(d.out, "Missing %s\n", kind)
		return
	}
	value, err := parseHex(args[0])
	if err != nil {
		fmt.Fprintf(d.out, "Invalid %s: %q\n", kind, args[0])
		return
	}
	add(value)
	fmt.Fprintf(d.out, "Added breakpoint for %s 0x%04X\n", kind, value)
}

func (d *Debugger) listBreakpoints() {
	if len(d.addresses) == 0 && len(d.opcodes) == 0 {
		fmt.Fprintln(d.out, "No breakpoints")
		return
	}
	for _, addr := range sortedKeys(d.addresses) {
		fmt.Fprintf(d.out, "address 0x%04X\n", addr)
	}
	for _, opcode := range sortedKeys(d.opcodes) {
		fmt.Fprintf(d.out, "opcode  0x%04X  %s\n", opcode, cpu.Disassemble(opcode))
	}
}

func (d *Debugger) print(args []string) {
	if len(args) == 0 || args[0] == "cpu" {
		fmt.Fprint(d.out, d.target.Snapshot().String())
		return
	}

	addr, err := parseHex(args[0])
	if err != nil {
		fmt.Fprintf(d.out, "Invalid address: %q\n", args[0])
		return
	}
	b, err := d.target.ReadByte(addr)
	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "0x%04X: 0x%02X\n", addr, b)
}

func (d *Debugger) disassemble(args []string) {
	count := defaultDisassembleCount
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintf(d.out, "Invalid number: %q\n", args[0])
			return
		}
		count = n
	}

	pc := d.target.PC()
	for i := 0; i < count; i++ {
		addr := int(pc) + i*cpu.InstructionSize
		if addr+1 >= cpu.MemorySize {
			break
		}
		opcode, err := d.readWord(uint16(addr))
		if err != nil {
			fmt.Fprintf(d.out, "Error: %v\n", err)
			return
		}

		marker := "  "
		if i == 0 {
			marker = "=>"
		}
		fmt.Fprintf(d.out, "%s 0x%04X  %04X  %s\n", marker, addr, opcode, cpu.Disassemble(opcode))
	}
}

func (d *Debugger) readWord(addr uint16) (uint16, error) {
	high, err := d.target.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	low, err := d.target.ReadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(high)<<8 | uint16(low), nil
}

// memviz writes a graphviz dot graph of the processor state.
func (d *Debugger) memviz(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(d.out, "Missing file name")
		return
	}

	if err := writeStateGraph(args[0], d.target.Snapshot()); err != nil {
		d.logger.Error("Writing state graph failed", log.String("file", args[0]), log.Err(err))
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "Wrote state graph to %s\n", args[0])
}

func writeStateGraph(path string, state cpu.State) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	memviz.Map(f, &state)
	return nil
}

// printLocation shows the next instruction.
func (d *Debugger) printLocation() {
	pc := d.target.PC()
	opcode, err := d.target.FetchInstruction()
	if err != nil {
		fmt.Fprintf(d.out, "0x%04X: %v\n", pc, err)
		return
	}
	fmt.Fprintf(d.out, "0x%04X: %04X  %s\n", pc, opcode, cpu.Disassemble(opcode))
}

func (d *Debugger) help() {
	fmt.Fprint(d.out, `Available commands:

  ba <hex>       set breakpoint at address
  bo <hex>       set breakpoint for opcode
  b              list breakpoints
  clear          clear breakpoints
  c              continue
  s [n]          step once or n times
  p cpu          print cpu state
  p <hex>        print byte at address
  d [n]          disassemble n instructions from pc
  r              reset
  memviz <file>  write cpu state graph in dot format
  q              quit
`)
}

var errEmptyNumber = errors.New("empty number")

// parseHex parses a 16 bit hexadecimal number with optional 0x or $ prefix.
func parseHex(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "0x"), "$")
	if s == "" {
		return 0, errEmptyNumber
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parsing hex number: %w", err)
	}
	return uint16(v), nil
}

func sortedKeys(m map[uint16]struct{}) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
