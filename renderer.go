package main

import (
	"fmt"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.2/glfw"
	"github.com/mpingram/chip8vm/cpu"
)

// createWindow opens a window scale times the size of the Chip-8 screen
// and makes its OpenGL context current.
func createWindow(scale int, title string) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initializing glfw: %w", err)
	}

	// hints only apply to windows created after them
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	window, err := glfw.CreateWindow(cpu.ScreenWidth*scale, cpu.ScreenHeight*scale, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating window: %w", err)
	}
	window.MakeContextCurrent()
	return window, nil
}

// OpenGLRenderer draws the screen as a single texture stretched over the
// whole window.
type OpenGLRenderer struct {
	window  *glfw.Window
	texture uint32
	pixels  []byte
}

func NewOpenGLRenderer(window *glfw.Window) (*OpenGLRenderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing opengl: %w", err)
	}

	r := &OpenGLRenderer{
		window: window,
		pixels: make([]byte, cpu.ScreenWidth*cpu.ScreenHeight),
	}

	gl.GenTextures(1, &r.texture)
	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.Enable(gl.TEXTURE_2D)
	gl.ClearColor(0, 0, 0, 1)

	return r, glError("setting up texture")
}

// Render implements the machine.Display interface.
func (r *OpenGLRenderer) Render(fb cpu.Framebuffer) error {
	for i, px := range fb.Bytes() {
		r.pixels[i] = px * 0xFF
	}

	width, height := r.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.LUMINANCE, cpu.ScreenWidth, cpu.ScreenHeight, 0,
		gl.LUMINANCE, gl.UNSIGNED_BYTE, gl.Ptr(r.pixels))

	// row 0 of the texture is the top row of the screen
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(-1, -1)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(1, -1)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(1, 1)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(-1, 1)
	gl.End()

	r.window.SwapBuffers()
	return glError("rendering")
}

// Close releases the texture.
func (r *OpenGLRenderer) Close() {
	gl.DeleteTextures(1, &r.texture)
}

func glError(action string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: opengl error 0x%04X", action, code)
	}
	return nil
}
