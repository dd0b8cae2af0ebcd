package cpu

// exec decodes and executes opcode. The program counter already points past it.
func (c *Chip8) exec(opcode uint16) error {

	// key:
	// ------
	// nnn - low 12 bits of opcode
	// n - low 4 bits of opcode
	// x - low 4 bits of opcode's high byte
	// y - high 4 bits of opcode's low byte
	// kk - opcode's low byte
	x := (opcode & 0x0f00) >> 8
	y := (opcode & 0x00f0) >> 4
	n := opcode & 0x000f
	kk := byte(opcode & 0x00ff)
	nnn := opcode & 0x0fff

	switch opcode & 0xf000 {

	case 0x0000:
		switch opcode {
		// 00E0: CLS (clear)
		case 0x00e0:
			c.screen.Clear()
			c.drawFlag = true

		// 00EE: RET (return)
		case 0x00ee:
			addr, err := c.stackPop()
			if err != nil {
				return err
			}
			c.pc = addr

		default:
			return &InstructionError{Opcode: opcode}
		}

	// 1nnn: JP (jump) addr
	case 0x1000:
		c.pc = nnn

	// 2nnn: CALL addr
	case 0x2000:
		if err := c.stackPush(c.pc); err != nil {
			return err
		}
		c.pc = nnn

	// 3xkk: SE Vx byte (skip if equal)
	case 0x3000:
		if c.v[x] == kk {
			c.skip()
		}

	// 4xkk: SNE Vx byte (skip if not equal)
	case 0x4000:
		if c.v[x] != kk {
			c.skip()
		}

	// 5xy0: SE Vx Vy (skip if equal)
	case 0x5000:
		if n != 0 {
			return &InstructionError{Opcode: opcode}
		}
		if c.v[x] == c.v[y] {
			c.skip()
		}

	// 6xkk: LD Vx byte (load value to register)
	case 0x6000:
		c.v[x] = kk

	// 7xkk: ADD Vx byte (add value to register, no carry)
	case 0x7000:
		c.v[x] += kk

	case 0x8000:
		return c.execALU(opcode, x, y)

	// 9xy0: SNE Vx Vy (skip next opcode if Vx != Vy)
	case 0x9000:
		if n != 0 {
			return &InstructionError{Opcode: opcode}
		}
		if c.v[x] != c.v[y] {
			c.skip()
		}

	// Annn: LD I addr (set I=nnn)
	case 0xa000:
		c.i = nnn

	// Bnnn: JP V0 addr (set PC=nnn + V0)
	case 0xb000:
		c.pc = nnn + uint16(c.v[0])

	// Cxkk: RND Vx byte (Vx = random byte AND kk)
	case 0xc000:
		c.v[x] = byte(c.rnd.Intn(256)) & kk

	// Dxyn: DRW Vx Vy n (display n-byte sprite located at I at coordinates Vx,Vy,
	// set VF=collision)
	case 0xd000:
		return c.draw(x, y, n)

	case 0xe000:
		switch kk {
		// Ex9E: SKP Vx (skip next instruction if key Vx is pressed)
		case 0x9e:
			if c.keys.Pressed(c.v[x]) {
				c.skip()
			}

		// ExA1: SKNP Vx (skip next instruction if key Vx is not pressed)
		case 0xa1:
			if !c.keys.Pressed(c.v[x]) {
				c.skip()
			}

		default:
			return &InstructionError{Opcode: opcode}
		}

	case 0xf000:
		return c.execMisc(opcode, x, kk)

	default:
		return &InstructionError{Opcode: opcode}
	}

	return nil
}

// execALU runs the 8xyN register to register instructions.
func (c *Chip8) execALU(opcode, x, y uint16) error {
	vx, vy := c.v[x], c.v[y]

	switch opcode & 0x000f {
	// 8xy0: LD Vx Vy
	case 0x0:
		c.v[x] = vy

	// 8xy1: OR Vx Vy
	case 0x1:
		c.v[x] = vx | vy

	// 8xy2: AND Vx Vy
	case 0x2:
		c.v[x] = vx & vy

	// 8xy3: XOR Vx Vy
	case 0x3:
		c.v[x] = vx ^ vy

	// 8xy4: ADD Vx Vy (VF=1 on carry)
	case 0x4:
		sum := uint16(vx) + uint16(vy)
		c.v[x] = byte(sum)
		c.v[FlagRegister] = boolToFlag(sum > 0xff)

	// 8xy5: SUB Vx Vy (VF=1 if Vx > Vy)
	case 0x5:
		c.v[FlagRegister] = boolToFlag(vx > vy)
		c.v[x] = vx - vy

	// 8xy6: SHR Vx (VF=lowest bit of Vx, then Vx >>= 1)
	case 0x6:
		c.v[FlagRegister] = vx & 0x01
		c.v[x] = vx >> 1

	// 8xy7: SUBN Vx Vy (Vx = Vy - Vx, VF=0 if Vx > Vy otherwise 1)
	case 0x7:
		c.v[FlagRegister] = boolToFlag(vx <= vy)
		c.v[x] = vy - vx

	// 8xyE: SHL Vx (VF=highest bit of Vx, then Vx <<= 1)
	case 0xe:
		c.v[FlagRegister] = vx >> 7
		c.v[x] = vx << 1

	default:
		return &InstructionError{Opcode: opcode}
	}

	return nil
}

// execMisc runs the FxNN timer, keyboard and memory instructions.
func (c *Chip8) execMisc(opcode, x uint16, kk byte) error {
	switch kk {
	// Fx07: LD Vx DT
	case 0x07:
		c.v[x] = c.dt

	// Fx0A: LD Vx K (wait for a key press, store it in Vx).
	// The program counter already points past this instruction; Step adds
	// another 2 when the key arrives, so the instruction after Fx0A is skipped.
	case 0x0a:
		c.waiting = true
		c.waitRegister = byte(x)

	// Fx15: LD DT Vx
	case 0x15:
		c.dt = c.v[x]

	// Fx18: LD ST Vx
	case 0x18:
		c.st = c.v[x]

	// Fx1E: ADD I Vx (VF=1 if I goes past 0x0F00)
	case 0x1e:
		c.i += uint16(c.v[x])
		c.v[FlagRegister] = boolToFlag(c.i > indexOverflowThreshold)

	// Fx29: LD F Vx (I = address of the font glyph for the digit in Vx)
	case 0x29:
		digit := uint16(c.v[x] & 0x0f)
		c.i = FontAddress + digit*glyphSize

	// Fx33: LD B Vx (store the decimal digits of Vx at I, I+1 and I+2)
	case 0x33:
		value := c.v[x]
		digits := [3]byte{value / 100, (value / 10) % 10, value % 10}
		for offset, d := range digits {
			if err := c.writeIndexed(offset, d); err != nil {
				return err
			}
		}

	// Fx55: LD [I] Vx (store V0 through Vx in memory starting at I)
	case 0x55:
		for r := 0; r <= int(x); r++ {
			if err := c.writeIndexed(r, c.v[r]); err != nil {
				return err
			}
		}

	// Fx65: LD Vx [I] (read V0 through Vx from memory starting at I)
	case 0x65:
		for r := 0; r <= int(x); r++ {
			b, err := c.readIndexed(r)
			if err != nil {
				return err
			}
			c.v[r] = b
		}

	default:
		return &InstructionError{Opcode: opcode}
	}

	return nil
}

// draw runs Dxyn. VF is cleared first and set if any lit pixel is switched off.
// The screen is marked for redraw even when nothing changed.
func (c *Chip8) draw(x, y, n uint16) error {
	px, py := c.v[x], c.v[y]
	c.v[FlagRegister] = 0

	sprite := make([]byte, n)
	for row := range sprite {
		b, err := c.readIndexed(row)
		if err != nil {
			return err
		}
		sprite[row] = b
	}

	if c.screen.drawSprite(sprite, px, py) {
		c.v[FlagRegister] = 1
	}
	c.drawFlag = true
	return nil
}

// readIndexed reads the byte at I+offset. The sum is not allowed to wrap
// around the 16-bit index register.
func (c *Chip8) readIndexed(offset int) (byte, error) {
	addr := int(c.i) + offset
	if addr >= MemorySize {
		return 0, &AddressError{Address: addr, Op: "read"}
	}
	return c.mem.ReadByte(uint16(addr))
}

func (c *Chip8) writeIndexed(offset int, value byte) error {
	addr := int(c.i) + offset
	if addr >= MemorySize {
		return &AddressError{Address: addr, Op: "write"}
	}
	return c.mem.WriteByte(uint16(addr), value)
}

func (c *Chip8) skip() {
	c.pc += InstructionSize
}

func boolToFlag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
