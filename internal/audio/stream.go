// Package audio streams float32 samples from a source to the speakers via
// ebiten's audio context.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource produces interleaved stereo float32 frames on demand.
type SampleSource interface {
	Process(dst []float32)
}

// streamReader adapts a SampleSource to the byte stream ebiten pulls from.
// The stream never ends; a silent source yields silence.
type streamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func (r *streamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

// Player owns one ebiten audio player fed from a SampleSource.
type Player struct {
	player *ebitaudio.Player
}

var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

// The ebiten audio context is process-global and can only ever be created
// once, at one sample rate.
func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audio context already running at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(&streamReader{source: source})
	if err != nil {
		return nil, err
	}
	return &Player{player: pl}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

// Position returns what the listener actually hears right now.
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) Close() error {
	p.player.Pause()
	return p.player.Close()
}
