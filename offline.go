package segno

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/segnolabs/segno/internal/notation"
	"github.com/segnolabs/segno/internal/synth"
)

// releaseTailMs lets the final notes and pedal release ring out instead of
// cutting the render at the last event.
const releaseTailMs = 500

// RenderSamples plays bars through a SoundFont engine on a manual clock and
// returns the interleaved stereo result. The render is sample-accurate to
// the transport's own scheduling: it advances the clock one frame at a time
// and pulls exactly one frame of audio per step.
func RenderSamples(bars []*notation.Bar, sf2 io.Reader, sampleRate int) ([]float32, error) {
	engine, err := synth.NewEngine(sf2, int32(sampleRate))
	if err != nil {
		return nil, err
	}

	clock := NewManualClock()
	tr := NewTransport(WithClock(clock))
	tr.InitSequence(bars, NewSynthSink(engine))
	tr.PlaySequence()

	frameMs := float64(DefaultFramePeriodMs)
	framesPerStep := int(float64(sampleRate) * frameMs / 1000)
	step := make([]float32, framesPerStep*2)

	var out []float32
	render := func() {
		engine.Process(step)
		out = append(out, step...)
	}
	for tr.Status() == StatusPlaying {
		clock.Advance(frameMs)
		render()
	}
	for i := 0.0; i < releaseTailMs; i += frameMs {
		clock.Advance(frameMs)
		render()
	}
	return out, nil
}

// RenderNotation is RenderSamples for a raw notation string.
func RenderNotation(text string, sf2 io.Reader, sampleRate int) ([]float32, error) {
	return RenderSamples(Compile(text), sf2, sampleRate)
}

// EncodeWAVFloat32LE wraps samples in a RIFF/WAVE container with IEEE
// float32 encoding (format tag 3).
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
