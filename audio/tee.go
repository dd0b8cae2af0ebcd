package audio

import (
	"errors"

	"github.com/mpingram/chip8vm/machine"
)

type tee []machine.Speaker

// Tee returns a speaker that passes every call on to all of speakers.
// EndFrame is passed to the speakers that implement machine.FrameSpeaker.
func Tee(speakers ...machine.Speaker) machine.FrameSpeaker {
	return tee(speakers)
}

func (t tee) StartSound() {
	for _, s := range t {
		s.StartSound()
	}
}

func (t tee) StopSound() {
	for _, s := range t {
		s.StopSound()
	}
}

func (t tee) EndFrame() error {
	var errs []error
	for _, s := range t {
		if fs, ok := s.(machine.FrameSpeaker); ok {
			if err := fs.EndFrame(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
