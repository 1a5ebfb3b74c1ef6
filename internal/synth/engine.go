// Package synth is the sound-producing layer: a SoundFont sampler that
// reacts to the transport's note and pedal events. The sequencing core has
// no dependency on it; it is one of several interchangeable sinks.
package synth

import (
	"fmt"
	"io"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

const defaultVelocity = 100

// Engine wraps a meltysynth synthesizer behind note/pedal primitives and a
// stereo sample stream. Safe for use from the transport's timer callbacks
// and the audio thread concurrently.
type Engine struct {
	mu    sync.Mutex
	synth *meltysynth.Synthesizer
	left  []float32
	right []float32
}

// NewEngine parses an SF2 SoundFont and prepares a synthesizer at the
// given sample rate.
func NewEngine(sf2 io.Reader, sampleRate int32) (*Engine, error) {
	soundFont, err := meltysynth.NewSoundFont(sf2)
	if err != nil {
		return nil, fmt.Errorf("parse soundfont: %w", err)
	}
	settings := meltysynth.NewSynthesizerSettings(sampleRate)
	s, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("create synthesizer: %w", err)
	}
	return &Engine{synth: s}, nil
}

func (e *Engine) NoteOn(key int) {
	e.mu.Lock()
	e.synth.NoteOn(0, int32(key), defaultVelocity)
	e.mu.Unlock()
}

func (e *Engine) NoteOff(key int) {
	e.mu.Lock()
	e.synth.NoteOff(0, int32(key))
	e.mu.Unlock()
}

// Pedal engages or releases the sustain pedal (CC64).
func (e *Engine) Pedal(down bool) {
	var value int32
	if down {
		value = 127
	}
	e.mu.Lock()
	e.synth.ProcessMidiMessage(0, 0xB0, 64, value)
	e.mu.Unlock()
}

// AllNotesOff releases every sounding voice, letting releases ring out.
func (e *Engine) AllNotesOff() {
	e.mu.Lock()
	e.synth.NoteOffAll(false)
	e.mu.Unlock()
}

// Process renders interleaved stereo samples into dst.
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	e.mu.Lock()
	if len(e.left) < frames {
		e.left = make([]float32, frames)
		e.right = make([]float32, frames)
	}
	left, right := e.left[:frames], e.right[:frames]
	e.synth.Render(left, right)
	e.mu.Unlock()
	for i := 0; i < frames; i++ {
		dst[i*2] = left[i]
		dst[i*2+1] = right[i]
	}
}
