package cpu

import "strings"

// The screen is 64x32 px, top-left origin.
const (
	ScreenWidth  = 64
	ScreenHeight = 32
)

// Framebuffer is the monochrome screen, addressed row-major: fb[y][x].
type Framebuffer [ScreenHeight][ScreenWidth]bool

// Pixel reports whether the pixel at x, y is lit. Coordinates wrap around the screen edges.
func (fb *Framebuffer) Pixel(x, y int) bool {
	return fb[wrap(y, ScreenHeight)][wrap(x, ScreenWidth)]
}

// Clear turns every pixel off.
func (fb *Framebuffer) Clear() {
	*fb = Framebuffer{}
}

// drawSprite XORs an 8 pixel wide sprite onto the screen at x, y.
// Each sprite byte is one row; its highest bit is the leftmost pixel.
// Pixels falling off the right or bottom edge wrap around to the opposite edge.
//
// drawSprite returns true if any lit pixel was switched off.
func (fb *Framebuffer) drawSprite(sprite []byte, x, y byte) bool {
	var collided bool
	for row, spriteByte := range sprite {
		py := wrap(int(y)+row, ScreenHeight)
		for col := 0; col < 8; col++ {
			if spriteByte&(0x80>>col) == 0 {
				continue
			}
			px := wrap(int(x)+col, ScreenWidth)
			if fb[py][px] {
				collided = true
			}
			fb[py][px] = !fb[py][px]
		}
	}
	return collided
}

// Bytes returns the screen as ScreenWidth*ScreenHeight bytes, row-major,
// one byte per pixel holding 0 or 1.
func (fb *Framebuffer) Bytes() []byte {
	b := make([]byte, 0, ScreenWidth*ScreenHeight)
	for _, row := range fb {
		for _, px := range row {
			if px {
				b = append(b, 1)
			} else {
				b = append(b, 0)
			}
		}
	}
	return b
}

// String draws the screen as text inside a border, '*' for lit pixels.
func (fb *Framebuffer) String() string {
	var sb strings.Builder
	border := "+" + strings.Repeat("-", ScreenWidth) + "+\n"

	sb.WriteString(border)
	for _, row := range fb {
		sb.WriteByte('|')
		for _, px := range row {
			if px {
				sb.WriteByte('*')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}
