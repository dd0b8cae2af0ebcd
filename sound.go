package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mpingram/chip8vm/audio"
	"github.com/mpingram/chip8vm/config"
	"github.com/mpingram/chip8vm/machine"
	"github.com/retroenv/retrogolib/log"
)

// soundOutput owns the speakers selected by the options.
type soundOutput struct {
	beeper   *audio.Beeper
	recorder *audio.Recorder
	wavFile  *os.File
	logger   *log.Logger
}

// openAudio opens the SDL beeper unless muted, and the WAV recorder if a
// file was given. A missing audio device is not an error; the buzzer is
// silent then.
func openAudio(logger *log.Logger, opts config.Options) (*soundOutput, error) {
	s := &soundOutput{logger: logger}

	if !opts.Mute {
		beeper, err := audio.NewBeeper(logger)
		if err != nil {
			logger.Error("Sound disabled", log.Err(err))
		} else {
			s.beeper = beeper
		}
	}

	if opts.WAV != "" {
		f, err := os.Create(opts.WAV)
		if err != nil {
			s.closeBeeper()
			return nil, fmt.Errorf("creating file '%s': %w", opts.WAV, err)
		}
		s.wavFile = f
		s.recorder = audio.NewRecorder(f)
	}
	return s, nil
}

// Speaker returns the speaker to connect to the machine, or nil.
func (s *soundOutput) Speaker() machine.Speaker {
	switch {
	case s.beeper != nil && s.recorder != nil:
		return audio.Tee(s.beeper, s.recorder)
	case s.beeper != nil:
		return s.beeper
	case s.recorder != nil:
		return s.recorder
	}
	return nil
}

func (s *soundOutput) closeBeeper() {
	if s.beeper != nil {
		s.beeper.Close()
		s.beeper = nil
	}
}

// Close releases the audio device and writes out the recording.
func (s *soundOutput) Close() error {
	s.closeBeeper()
	if s.recorder == nil {
		return nil
	}

	var errs []error
	if err := s.recorder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("writing recording: %w", err))
	}
	if err := s.wavFile.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing file: %w", err))
	}
	if len(errs) == 0 {
		s.logger.Info("Recorded buzzer", log.String("file", s.wavFile.Name()),
			log.Int("samples", s.recorder.Samples()))
	}
	return errors.Join(errs...)
}
