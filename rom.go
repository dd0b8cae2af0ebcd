package main

import (
	"fmt"
	"os"

	"github.com/mpingram/chip8vm/cpu"
)

// loadImage reads a program image. Images that do not fit between
// cpu.ProgramAddress and the end of memory are rejected.
func loadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom file '%s': %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("rom file '%s' is empty", path)
	}
	if len(data) > cpu.MaxImageSize {
		return nil, fmt.Errorf("rom file '%s' is %d bytes, the maximum is %d", path, len(data), cpu.MaxImageSize)
	}
	return data, nil
}
