package main

import (
	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/mpingram/chip8vm/cpu"
	"github.com/mpingram/chip8vm/machine"
)

// keypadKeys maps the left hand side of a qwerty keyboard onto the
// hexadecimal keypad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var keypadKeys = map[glfw.Key]cpu.KeyCode{
	glfw.Key1: cpu.Key1, glfw.Key2: cpu.Key2, glfw.Key3: cpu.Key3, glfw.Key4: cpu.KeyC,
	glfw.KeyQ: cpu.Key4, glfw.KeyW: cpu.Key5, glfw.KeyE: cpu.Key6, glfw.KeyR: cpu.KeyD,
	glfw.KeyA: cpu.Key7, glfw.KeyS: cpu.Key8, glfw.KeyD: cpu.Key9, glfw.KeyF: cpu.KeyE,
	glfw.KeyZ: cpu.KeyA, glfw.KeyX: cpu.Key0, glfw.KeyC: cpu.KeyB, glfw.KeyV: cpu.KeyF,
}

var controlKeys = map[glfw.Key]int{
	glfw.KeyEscape:       machine.KeyPowerOff,
	glfw.KeyP:            machine.KeyPause,
	glfw.KeyLeftBracket:  machine.KeyResume,
	glfw.KeyRightBracket: machine.KeyStep,
	glfw.KeyO:            machine.KeyDump,
	glfw.KeyB:            machine.KeyBreak,
}

// GLFWKeyboardInput reads the keyboard of a glfw window.
type GLFWKeyboardInput struct {
	window *glfw.Window
}

func NewGLFWKeyboardInput(window *glfw.Window) *GLFWKeyboardInput {
	return &GLFWKeyboardInput{window}
}

// Poll processes pending window events and returns the keys held down.
// Closing the window counts as the power off key.
func (input *GLFWKeyboardInput) Poll() machine.KeyState {
	glfw.PollEvents()

	k := machine.KeyState{}
	for key, code := range keypadKeys {
		if input.window.GetKey(key) == glfw.Press {
			k[code] = true
		}
	}
	for key, control := range controlKeys {
		if input.window.GetKey(key) == glfw.Press {
			k[control] = true
		}
	}

	if k[machine.KeyPowerOff] {
		input.window.SetShouldClose(true)
	}
	if input.window.ShouldClose() {
		k[machine.KeyPowerOff] = true
	}
	return k
}

// Keypad returns the keypad part of Poll, for single steps in the debugger.
func (input *GLFWKeyboardInput) Keypad() cpu.KeyState {
	return input.Poll().Keypad()
}
