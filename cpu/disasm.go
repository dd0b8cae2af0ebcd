package cpu

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Disassemble returns the assembly form of opcode, for example "jp $234" or
// "se V2, $34". Opcodes that are not instructions are shown as a data word.
func Disassemble(opcode uint16) string {
	ins := lookupInstruction(opcode)
	if ins == nil || !isSupported(opcode) {
		return fmt.Sprintf("dw $%04X", opcode)
	}
	if params := formatParams(ins.Name, opcode); params != "" {
		return fmt.Sprintf("%s %s", ins.Name, params)
	}
	return ins.Name
}

// lookupInstruction finds the instruction whose mask and value match opcode
// in the opcode table for its first nibble.
func lookupInstruction(opcode uint16) *chip8.Instruction {
	firstNibble := (opcode & 0xF000) >> 12
	for _, op := range chip8.Opcodes[int(firstNibble)] {
		if op.Info.Mask&opcode == op.Info.Value {
			return op.Instruction
		}
	}
	return nil
}

// isSupported reports whether opcode is one of the 34 instructions the
// interpreter executes. The opcode table also knows 0nnn (SYS), which is
// not executed.
func isSupported(opcode uint16) bool {
	switch opcode & 0xF000 {
	case 0x0000:
		return opcode == 0x00E0 || opcode == 0x00EE
	case 0x5000, 0x9000:
		return opcode&0x000F == 0
	case 0x8000:
		switch opcode & 0x000F {
		case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0xE:
			return true
		}
		return false
	case 0xE000:
		return opcode&0x00FF == 0x9E || opcode&0x00FF == 0xA1
	case 0xF000:
		switch opcode & 0x00FF {
		case 0x07, 0x0A, 0x15, 0x18, 0x1E, 0x29, 0x33, 0x55, 0x65:
			return true
		}
		return false
	}
	return true
}

func formatParams(name string, opcode uint16) string {
	x := registerX(opcode)
	y := registerY(opcode)

	switch name {
	case chip8.ClsName, chip8.RetName:
		return ""
	case chip8.JpName:
		if opcode&0xF000 == 0xB000 {
			return fmt.Sprintf("V0, $%03X", opcode&0x0FFF)
		}
		return fmt.Sprintf("$%03X", opcode&0x0FFF)
	case chip8.CallName:
		return fmt.Sprintf("$%03X", opcode&0x0FFF)
	case chip8.SeName, chip8.SneName:
		if opcode&0xF000 == 0x3000 || opcode&0xF000 == 0x4000 {
			return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
		}
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.LdName:
		return formatLoad(opcode)
	case chip8.AddName:
		switch opcode & 0xF000 {
		case 0x7000:
			return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
		case 0xF000:
			return fmt.Sprintf("I, V%X", x)
		}
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.OrName, chip8.AndName, chip8.XorName, chip8.SubName, chip8.SubnName:
		return fmt.Sprintf("V%X, V%X", x, y)
	case chip8.ShrName, chip8.ShlName, chip8.SkpName, chip8.SknpName:
		return fmt.Sprintf("V%X", x)
	case chip8.RndName:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case chip8.DrwName:
		return fmt.Sprintf("V%X, V%X, $%X", x, y, opcode&0x000F)
	}
	return ""
}

// formatLoad formats the many forms of LD.
func formatLoad(opcode uint16) string {
	x := registerX(opcode)

	switch opcode & 0xF000 {
	case 0x6000:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, registerY(opcode))
	case 0xA000:
		return fmt.Sprintf("I, $%03X", opcode&0x0FFF)
	}

	switch opcode & 0x00FF {
	case 0x07:
		return fmt.Sprintf("V%X, DT", x)
	case 0x0A:
		return fmt.Sprintf("V%X, K", x)
	case 0x15:
		return fmt.Sprintf("DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("ST, V%X", x)
	case 0x29:
		return fmt.Sprintf("F, V%X", x)
	case 0x33:
		return fmt.Sprintf("B, V%X", x)
	case 0x55:
		return fmt.Sprintf("[I], V%X", x)
	case 0x65:
		return fmt.Sprintf("V%X, [I]", x)
	}
	return ""
}

func registerX(opcode uint16) uint16 {
	return (opcode & 0x0F00) >> 8
}

func registerY(opcode uint16) uint16 {
	return (opcode & 0x00F0) >> 4
}
