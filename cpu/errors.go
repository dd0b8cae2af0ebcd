package cpu

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedInstruction is returned when the fetched opcode matches
	// none of the 35 Chip-8 instructions.
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
	// ErrAddressOutOfRange is returned when an instruction reaches past the
	// end of the 4KB address space.
	ErrAddressOutOfRange = errors.New("address out of range")
	// ErrStackOverflow is returned when a call is made with all 16 stack slots in use.
	ErrStackOverflow = errors.New("stack overflow")
	// ErrStackUnderflow is returned when a return is made with an empty stack.
	ErrStackUnderflow = errors.New("stack underflow")
)

// InstructionError reports an opcode that could not be decoded.
type InstructionError struct {
	Opcode uint16
	PC     uint16
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("%s 0x%04X at 0x%04X", ErrUnsupportedInstruction, e.Opcode, e.PC)
}

func (e *InstructionError) Unwrap() error {
	return ErrUnsupportedInstruction
}

// AddressError reports a memory access at or past MemorySize.
type AddressError struct {
	Address int
	Op      string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s: %s 0x%04X", ErrAddressOutOfRange, e.Op, e.Address)
}

func (e *AddressError) Unwrap() error {
	return ErrAddressOutOfRange
}

// StackError reports a call with a full stack or a return with an empty one.
type StackError struct {
	PC    uint16
	Depth int
	Err   error
}

func (e *StackError) Error() string {
	return fmt.Sprintf("%s at 0x%04X (depth %d)", e.Err, e.PC, e.Depth)
}

func (e *StackError) Unwrap() error {
	return e.Err
}

// ExecError wraps a fault raised while executing the instruction at PC.
type ExecError struct {
	Opcode uint16
	PC     uint16
	Err    error
}

func (e *ExecError) Error() string {
	// opcode 0000 never executes, so a zero Opcode means the fetch failed
	if e.Opcode == 0 {
		return fmt.Sprintf("fetching instruction at 0x%04X: %s", e.PC, e.Err)
	}
	return fmt.Sprintf("executing 0x%04X at 0x%04X: %s", e.Opcode, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
