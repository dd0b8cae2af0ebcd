package cpu

// Memory map:
//
//	0x000-0x1FF  reserved for the interpreter; the font glyphs live at 0x050-0x0A0
//	0x200-0xFFF  program image and work RAM
const (
	MemorySize     = 0x1000
	FontAddress    = 0x050
	ProgramAddress = 0x200

	// MaxImageSize is the largest program image that fits in memory.
	MaxImageSize = MemorySize - ProgramAddress

	glyphSize = 5
)

// fontSprites holds the hexadecimal digit glyphs 0 through F, five bytes each.
var fontSprites = [16 * glyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the 4KB address space of the Chip-8. It remembers the program
// image it was given so that a reset can put the machine back exactly the
// way it was when the program was first loaded.
type Memory struct {
	image []byte
	ram   [MemorySize]byte
}

// NewMemory returns a Memory with the font glyphs and the program image loaded.
func NewMemory(image []byte) *Memory {
	m := &Memory{}
	m.LoadImage(image)
	return m
}

// LoadImage replaces the program image and resets the memory.
func (m *Memory) LoadImage(image []byte) {
	m.image = make([]byte, len(image))
	copy(m.image, image)
	m.Reset()
}

// Reset zeroes every cell, then writes the font glyphs and the program image.
// Image bytes that do not fit below MemorySize are dropped; making sure a
// program fits is up to whoever hands it over.
func (m *Memory) Reset() {
	m.ram = [MemorySize]byte{}
	copy(m.ram[FontAddress:], fontSprites[:])
	copy(m.ram[ProgramAddress:], m.image)
}

// ReadByte returns the byte stored at addr.
func (m *Memory) ReadByte(addr uint16) (byte, error) {
	if int(addr) >= MemorySize {
		return 0, &AddressError{Address: int(addr), Op: "read"}
	}
	return m.ram[addr], nil
}

// WriteByte stores value at addr.
func (m *Memory) WriteByte(addr uint16, value byte) error {
	if int(addr) >= MemorySize {
		return &AddressError{Address: int(addr), Op: "write"}
	}
	m.ram[addr] = value
	return nil
}

// ReadWord returns the two bytes at addr and addr+1 combined big-endian,
// which is how every instruction is stored.
func (m *Memory) ReadWord(addr uint16) (uint16, error) {
	if int(addr) >= MemorySize {
		return 0, &AddressError{Address: int(addr), Op: "read"}
	}
	if int(addr)+1 >= MemorySize {
		return 0, &AddressError{Address: int(addr) + 1, Op: "read"}
	}
	high := m.ram[addr]
	low := m.ram[addr+1]
	return uint16(high)<<8 | uint16(low), nil
}
