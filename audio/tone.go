// Package audio provides the speakers for the Chip-8 buzzer: a live SDL
// output, a WAV recorder and a way to drive several of them at once.
package audio

import (
	"math"

	"github.com/mpingram/chip8vm/machine"
)

const (
	// SampleRate is the output sample rate in Hz.
	SampleRate = 44100
	// BitDepth is the size of one sample in bits.
	BitDepth = 16
	// Frequency is the pitch of the buzzer in Hz.
	Frequency = 400

	// samplesPerFrame is the number of samples produced by one EndFrame.
	samplesPerFrame = SampleRate / machine.FrameRate

	amplitude = math.MaxInt16 / 4
)

// Tone is a sine wave generator. Successive calls to Next continue the
// wave where the last call stopped, so frames join without clicks.
type Tone struct {
	phase float64
	step  float64
}

// NewTone returns a sine generator for frequency at sampleRate.
func NewTone(frequency, sampleRate int) *Tone {
	return &Tone{
		step: 2 * math.Pi * float64(frequency) / float64(sampleRate),
	}
}

// Next returns the next n samples as signed 16 bit values.
func (t *Tone) Next(n int) []int {
	samples := make([]int, n)
	for i := range samples {
		samples[i] = int(amplitude * math.Sin(t.phase))
		t.phase += t.step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return samples
}
