package cpu

import (
	"math/rand"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const (
	// StackDepth is the number of return addresses the stack can hold.
	StackDepth = 16
	// InstructionSize is the width of one opcode in bytes.
	InstructionSize = 2
	// FlagRegister is VF, which doubles as the carry, borrow and collision flag.
	FlagRegister = 0xF

	// FX1E sets VF when I goes past this value rather than on 16-bit overflow.
	indexOverflowThreshold = 0x0F00
)

// Chip8 represents an emulated Chip-8 CPU. Not that the Chip-8 was ever a real physical
// computer with a CPU, but it is fun to pretend.
//
// The Chip8 does no timing of its own. Whoever drives it calls Step once per
// virtual cycle, handing over the current keyboard state, and UpdateTimers once
// per 60Hz tick. After a Step, ShouldRedraw says whether the screen changed and
// ShouldBeep says whether the buzzer should be sounding.
//
// A Chip8 must not be used from more than one goroutine at a time.
type Chip8 struct {
	mem *Memory

	// program counter
	pc uint16
	// address register
	i uint16
	// data registers
	v [16]byte
	// delay and sound timers, decremented at 60hz by UpdateTimers once set.
	dt byte
	st byte

	stack [StackDepth]uint16
	// stack pointer, the number of return addresses on the stack.
	sp int

	screen   Framebuffer
	drawFlag bool

	keys KeyState
	// set by FX0A: execution is suspended until a key is pressed,
	// and the key is stored in register waitRegister.
	waiting      bool
	waitRegister byte

	rnd    *rand.Rand
	logger *log.Logger
	trace  bool
}

// New returns a Chip8 with the program image loaded at ProgramAddress,
// ready to Step.
func New(image []byte, logger *log.Logger) *Chip8 {
	if logger == nil {
		logger = log.NewWithConfig(log.DefaultConfig())
	}
	c := &Chip8{
		mem:    NewMemory(image),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
	c.Reset()
	return c
}

// Reset puts the Chip8 back to the state it was in right after the program
// was loaded: memory reloaded, screen cleared, registers, stack, timers,
// keyboard and key wait state zeroed, program counter at ProgramAddress.
func (c *Chip8) Reset() {
	c.mem.Reset()
	c.pc = ProgramAddress
	c.i = 0
	c.v = [16]byte{}
	c.dt = 0
	c.st = 0
	c.stack = [StackDepth]uint16{}
	c.sp = 0
	c.screen.Clear()
	c.drawFlag = false
	c.keys = KeyState{}
	c.waiting = false
	c.waitRegister = 0
}

// LoadImage replaces the program and resets the Chip8.
func (c *Chip8) LoadImage(image []byte) {
	c.mem.LoadImage(image)
	c.Reset()
}

// Step executes one cycle.
//
// If an FX0A instruction left the Chip8 waiting for a key, Step only looks
// for the lowest numbered pressed key in keys; if there is one it is stored,
// the program counter advances one more instruction and execution carries
// on with the next call. Otherwise the instruction at
// the program counter is fetched, the program counter moves past it, and the
// instruction is executed.
//
// A returned error is fatal for the running program. The program counter is
// left pointing at the instruction that failed. A failed fetch is reported as
// an ExecError with a zero Opcode.
func (c *Chip8) Step(keys KeyState) error {
	c.drawFlag = false
	c.keys = keys

	if c.waiting {
		if key, ok := c.keys.First(); ok {
			c.v[c.waitRegister] = byte(key)
			c.pc += InstructionSize
			c.waiting = false
		}
		return nil
	}

	pc := c.pc
	opcode, err := c.mem.ReadWord(pc)
	if err != nil {
		return &ExecError{PC: pc, Err: err}
	}
	if c.trace {
		c.logger.Debug("Executing opcode",
			log.Hex("pc", pc),
			log.Hex("opcode", opcode),
			log.String("instruction", Disassemble(opcode)))
	}

	c.pc += InstructionSize
	if err := c.exec(opcode); err != nil {
		c.pc = pc
		return wrapExecError(err, opcode, pc)
	}
	return nil
}

func wrapExecError(err error, opcode, pc uint16) error {
	switch e := err.(type) {
	case *InstructionError:
		e.PC = pc
		return e
	case *StackError:
		e.PC = pc
		return e
	default:
		return &ExecError{Opcode: opcode, PC: pc, Err: err}
	}
}

// UpdateTimers decrements the delay and sound timers, stopping at zero.
func (c *Chip8) UpdateTimers() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
	}
}

// ShouldRedraw reports whether the last Step changed the screen.
func (c *Chip8) ShouldRedraw() bool {
	return c.drawFlag
}

// ShouldBeep reports whether the sound timer is running.
func (c *Chip8) ShouldBeep() bool {
	return c.st > 0
}

// Framebuffer returns a copy of the screen.
func (c *Chip8) Framebuffer() Framebuffer {
	return c.screen
}

// ReadByte returns the byte at addr.
func (c *Chip8) ReadByte(addr uint16) (byte, error) {
	return c.mem.ReadByte(addr)
}

// FetchInstruction returns the opcode at the program counter without executing it.
func (c *Chip8) FetchInstruction() (uint16, error) {
	return c.mem.ReadWord(c.pc)
}

// PC returns the program counter.
func (c *Chip8) PC() uint16 {
	return c.pc
}

// SetTrace turns logging of every executed instruction on or off.
// Trace lines are logged at debug level.
func (c *Chip8) SetTrace(enabled bool) {
	c.trace = enabled
}

// Tracing reports whether instruction tracing is on.
func (c *Chip8) Tracing() bool {
	return c.trace
}

func (c *Chip8) stackPush(addr uint16) error {
	if c.sp >= StackDepth {
		return &StackError{Depth: c.sp, Err: ErrStackOverflow}
	}
	c.stack[c.sp] = addr
	c.sp++
	return nil
}

func (c *Chip8) stackPop() (uint16, error) {
	if c.sp == 0 {
		return 0, &StackError{Depth: c.sp, Err: ErrStackUnderflow}
	}
	c.sp--
	return c.stack[c.sp], nil
}
