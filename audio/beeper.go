package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/mpingram/chip8vm/machine"
	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/sdl"
)

// the device buffer length. short enough that the buzzer stops promptly,
// long enough that SDL does not run dry between frames.
const bufferLength = 1024

// no more than this many bytes are kept queued on the device. anything more
// is lag between the sound timer and what is heard.
const maxQueued = 4 * samplesPerFrame * BitDepth / 8

var _ machine.FrameSpeaker = (*Beeper)(nil)

// Beeper plays the buzzer on the default SDL audio device.
type Beeper struct {
	id   sdl.AudioDeviceID
	tone *Tone

	sounding bool
	buf      []byte
}

// NewBeeper opens the default audio device. The device starts paused.
func NewBeeper(logger *log.Logger) (*Beeper, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("initializing SDL audio: %w", err)
	}

	spec := &sdl.AudioSpec{
		Freq:     SampleRate,
		Format:   sdl.AUDIO_S16LSB,
		Channels: 1,
		Samples:  bufferLength,
	}

	var actualSpec sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, spec, &actualSpec, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, fmt.Errorf("opening audio device: %w", err)
	}

	logger.Debug("Opened audio device",
		log.Int("frequency", int(actualSpec.Freq)),
		log.Uint8("channels", actualSpec.Channels))

	return &Beeper{
		id:   id,
		tone: NewTone(Frequency, int(actualSpec.Freq)),
		buf:  make([]byte, samplesPerFrame*BitDepth/8),
	}, nil
}

// StartSound implements the machine.Speaker interface.
func (b *Beeper) StartSound() {
	b.sounding = true
	sdl.PauseAudioDevice(b.id, false)
}

// StopSound implements the machine.Speaker interface.
func (b *Beeper) StopSound() {
	b.sounding = false
	sdl.ClearQueuedAudio(b.id)
	sdl.PauseAudioDevice(b.id, true)
}

// EndFrame queues one frame of tone while the buzzer is sounding.
func (b *Beeper) EndFrame() error {
	if !b.sounding || sdl.GetQueuedAudioSize(b.id) > maxQueued {
		return nil
	}

	for i, sample := range b.tone.Next(samplesPerFrame) {
		binary.LittleEndian.PutUint16(b.buf[i*2:], uint16(int16(sample)))
	}
	if err := sdl.QueueAudio(b.id, b.buf); err != nil {
		return fmt.Errorf("queueing audio: %w", err)
	}
	return nil
}

// Close releases the audio device.
func (b *Beeper) Close() {
	sdl.CloseAudioDevice(b.id)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
}
