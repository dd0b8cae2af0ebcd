package cpu

// A KeyCode is a number that represents a key on the Chip-8 hexadecimal keyboard.
// Only the numbers 0 through 15 (0x0 through 0xF) are valid KeyCodes.
type KeyCode byte

// KeyCount is the number of keys on the hexadecimal keyboard.
const KeyCount = 16

const (
	Key0 KeyCode = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// KeyState stores the state of the keyboard as an array of booleans.
// Each index in the array corresponds to one key -- index 0 is '0',
// index 15 is 'F'. If the element at a key's index is true, the key is pressed.
type KeyState [KeyCount]bool

// Pressed reports whether key is held down. Only the low nibble of key is used.
func (k KeyState) Pressed(key byte) bool {
	return k[key&0x0F]
}

// First returns the lowest numbered key that is held down.
func (k KeyState) First() (KeyCode, bool) {
	for i, down := range k {
		if down {
			return KeyCode(i), true
		}
	}
	return 0, false
}
