package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mpingram/chip8vm/machine"
)

// pcmFormat is the WAVE audio format code for uncompressed PCM.
const pcmFormat = 1

var _ machine.FrameSpeaker = (*Recorder)(nil)

// Recorder captures the buzzer into a WAV file, one frame of tone or
// silence per EndFrame.
type Recorder struct {
	w        io.WriteSeeker
	tone     *Tone
	sounding bool
	samples  []int
}

// NewRecorder returns a Recorder that writes to w when it is closed.
func NewRecorder(w io.WriteSeeker) *Recorder {
	return &Recorder{
		w:    w,
		tone: NewTone(Frequency, SampleRate),
	}
}

// StartSound implements the machine.Speaker interface.
func (r *Recorder) StartSound() {
	r.sounding = true
}

// StopSound implements the machine.Speaker interface.
func (r *Recorder) StopSound() {
	r.sounding = false
}

// EndFrame appends one frame of samples.
func (r *Recorder) EndFrame() error {
	if r.sounding {
		r.samples = append(r.samples, r.tone.Next(samplesPerFrame)...)
		return nil
	}
	r.samples = append(r.samples, make([]int, samplesPerFrame)...)
	return nil
}

// Samples returns the number of samples recorded so far.
func (r *Recorder) Samples() int {
	return len(r.samples)
}

// Close encodes the recording as 16 bit mono PCM. It does not close the
// underlying writer.
func (r *Recorder) Close() error {
	enc := wav.NewEncoder(r.w, SampleRate, BitDepth, 1, pcmFormat)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  SampleRate,
		},
		Data:           r.samples,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing wav encoder: %w", err)
	}
	return nil
}
