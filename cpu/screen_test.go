package cpu

import (
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestFramebuffer_Pixel(t *testing.T) {
	var fb Framebuffer
	fb[1][2] = true

	assert.True(t, fb.Pixel(2, 1))
	assert.True(t, fb.Pixel(2+ScreenWidth, 1+ScreenHeight))
	assert.True(t, fb.Pixel(2-ScreenWidth, 1))
	assert.False(t, fb.Pixel(1, 2))
}

func TestFramebuffer_Bytes(t *testing.T) {
	var fb Framebuffer
	fb[0][0] = true
	fb[1][3] = true

	b := fb.Bytes()
	assert.Len(t, b, ScreenWidth*ScreenHeight)
	assert.Equal(t, byte(1), b[0])
	assert.Equal(t, byte(1), b[ScreenWidth+3])
	assert.Equal(t, byte(0), b[3])
}

func TestFramebuffer_String(t *testing.T) {
	var fb Framebuffer
	fb.drawSprite([]byte{0x80}, 0, 0)

	lines := strings.Split(strings.TrimSuffix(fb.String(), "\n"), "\n")
	assert.Len(t, lines, ScreenHeight+2)
	assert.Equal(t, "|*"+strings.Repeat(" ", ScreenWidth-1)+"|", lines[1])
}

func TestFramebuffer_DrawSprite(t *testing.T) {
	var fb Framebuffer

	assert.False(t, fb.drawSprite([]byte{0xAA, 0x55}, 60, 0))
	assert.True(t, fb.Pixel(60, 0))
	assert.False(t, fb.Pixel(61, 0))
	assert.True(t, fb.Pixel(0, 0))  // fifth pixel wraps to the left edge
	assert.True(t, fb.Pixel(61, 1)) // second row starts with a dark pixel
	assert.True(t, fb.Pixel(3, 1))

	assert.True(t, fb.drawSprite([]byte{0x80}, 60, 0))
	assert.False(t, fb.Pixel(60, 0))
}
