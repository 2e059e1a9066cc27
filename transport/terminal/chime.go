package terminal

import (
	"log"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/wricardo/pushbox/game/engine"
)

const chimeRate = beep.SampleRate(44100)

type tone struct {
	freq     float64
	duration time.Duration
}

// toneFor picks the sound for an outcome. Plain steps are silent.
func toneFor(outcome engine.Outcome) (tone, bool) {
	switch outcome {
	case engine.OutcomePushed:
		return tone{freq: 880, duration: 60 * time.Millisecond}, true
	case engine.OutcomeBlocked:
		return tone{freq: 220, duration: 120 * time.Millisecond}, true
	}
	return tone{}, false
}

// BeepChime plays short sine tones through the default audio device.
type BeepChime struct{}

// NewBeepChime opens the speaker.
func NewBeepChime() (*BeepChime, error) {
	if err := speaker.Init(chimeRate, chimeRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &BeepChime{}, nil
}

func (c *BeepChime) Play(outcome engine.Outcome) {
	t, ok := toneFor(outcome)
	if !ok {
		return
	}
	sine, err := generators.SineTone(chimeRate, t.freq)
	if err != nil {
		log.Printf("Warning: chime: %v", err)
		return
	}
	speaker.Play(beep.Take(chimeRate.N(t.duration), sine))
}
