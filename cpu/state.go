package cpu

import (
	"fmt"
	"strings"
)

// State is a read-only snapshot of the internal state of the Chip-8 CPU.
// Memory and the screen are left out; read them with Chip8.ReadByte and
// Chip8.Framebuffer.
type State struct {
	PC    uint16
	I     uint16
	V     [16]byte
	SP    int
	Stack [StackDepth]uint16
	DT    byte
	ST    byte

	Keys            KeyState
	WaitingForKey   bool
	WaitingRegister byte
}

// Snapshot returns a static copy of the Chip8 CPU at the moment the method is called.
func (c *Chip8) Snapshot() State {
	return State{
		PC:              c.pc,
		I:               c.i,
		V:               c.v,
		SP:              c.sp,
		Stack:           c.stack,
		DT:              c.dt,
		ST:              c.st,
		Keys:            c.keys,
		WaitingForKey:   c.waiting,
		WaitingRegister: c.waitRegister,
	}
}

// keypadLayout is the physical arrangement of the hexadecimal keyboard.
var keypadLayout = [4][4]KeyCode{
	{Key1, Key2, Key3, KeyC},
	{Key4, Key5, Key6, KeyD},
	{Key7, Key8, Key9, KeyE},
	{KeyA, Key0, KeyB, KeyF},
}

// String prints the registers followed by the keyboard in its physical layout.
func (s State) String() string {
	var sb strings.Builder

	sb.WriteString("Registers:\n")
	for row := 0; row < 2; row++ {
		sb.WriteString(" ")
		for r := row * 8; r < row*8+8; r++ {
			fmt.Fprintf(&sb, " v%x=%02X", r, s.V[r])
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  i=%04X pc=%04X sp=%02X\n", s.I, s.PC, s.SP)
	fmt.Fprintf(&sb, "  delay=%02X sound=%02X\n", s.DT, s.ST)

	sb.WriteString("Stack:\n ")
	if s.SP == 0 {
		sb.WriteString(" (empty)")
	}
	for _, addr := range s.Stack[:s.SP] {
		fmt.Fprintf(&sb, " %04X", addr)
	}
	sb.WriteString("\n")

	sb.WriteString("Keypad:\n")
	for _, row := range keypadLayout {
		sb.WriteString(" ")
		for _, key := range row {
			pressed := 0
			if s.Keys[key] {
				pressed = 1
			}
			fmt.Fprintf(&sb, " %d", pressed)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  waiting=%t register=%02X\n", s.WaitingForKey, s.WaitingRegister)

	return sb.String()
}
