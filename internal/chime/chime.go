// Package chime plays a short synthesized tone whenever a block is mined.
package chime

import (
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
)

const (
	baseFrequency = 440.0
	toneLength    = 120 * time.Millisecond
)

// pentatonic steps, in semitones above baseFrequency
var steps = [...]int{0, 2, 4, 7, 9}

// Player owns the speaker once initialised. All methods are meant for the
// game goroutine.
type Player struct {
	cfg    config.Sound
	logger *log.Logger
	rate   beep.SampleRate

	ready bool
	muted bool // only used while the speaker is not open
	mixer beep.Mixer
	ctrl  *beep.Ctrl
}

func New(cfg config.Sound, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Player{cfg: cfg, logger: logger, rate: beep.SampleRate(cfg.SampleRate)}
}

// Init opens the speaker. When sound is disabled it does nothing; when the
// device cannot be opened the failure is logged and the player stays silent.
func (p *Player) Init() error {
	if !p.cfg.Enabled || p.ready {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(time.Second/20)); err != nil {
		p.logger.Printf("audio disabled: %v", err)
		return fmt.Errorf("init speaker: %w", err)
	}
	p.ctrl = &beep.Ctrl{Streamer: &p.mixer}
	speaker.Play(p.ctrl)
	p.ready = true
	return nil
}

// Play queues the tone for block seq. It returns immediately.
func (p *Player) Play(seq int) {
	if !p.ready {
		return
	}
	tone := Tone(p.rate, Frequency(seq), toneLength, p.cfg.Volume)
	speaker.Lock()
	if !p.ctrl.Paused {
		p.mixer.Add(tone)
	}
	speaker.Unlock()
}

// ToggleMute flips the mute state and reports whether the player is now
// muted. Muting drops tones still playing.
func (p *Player) ToggleMute() bool {
	if !p.ready {
		p.muted = !p.muted
		return p.muted
	}
	speaker.Lock()
	defer speaker.Unlock()
	p.ctrl.Paused = !p.ctrl.Paused
	if p.ctrl.Paused {
		p.mixer = beep.Mixer{}
	}
	return p.ctrl.Paused
}

func (p *Player) Muted() bool {
	if !p.ready {
		return p.muted
	}
	speaker.Lock()
	defer speaker.Unlock()
	return p.ctrl.Paused
}

// Frequency walks a pentatonic scale so consecutive blocks sound different.
func Frequency(seq int) float64 {
	if seq < 0 {
		seq = -seq
	}
	octave := (seq / len(steps)) % 2
	semis := steps[seq%len(steps)] + 12*octave
	return baseFrequency * math.Pow(2, float64(semis)/12)
}

// Tone is a sine at freq that fades linearly to silence over d.
func Tone(rate beep.SampleRate, freq float64, d time.Duration, volume float64) beep.Streamer {
	total := rate.N(d)
	pos := 0
	return beep.Take(total, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			env := 1 - float64(pos)/float64(total)
			v := math.Sin(2*math.Pi*freq*float64(pos)/float64(rate)) * env * volume
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	}))
}
