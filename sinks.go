package segno

import (
	"github.com/segnolabs/segno/internal/midiout"
	"github.com/segnolabs/segno/internal/notation"
	"github.com/segnolabs/segno/internal/synth"
)

// noteSink is the shared shape of the sound-producing back ends: anything
// that can start and stop a note and move the sustain pedal.
type noteSink interface {
	NoteOn(key int)
	NoteOff(key int)
	Pedal(down bool)
	AllNotesOff()
}

func noteEvents(dst noteSink) Sink {
	return SinkFunc(func(e Event) {
		switch e.Kind {
		case EventNoteStart:
			if key, ok := notation.MIDINote(e.Action.Pitch); ok {
				dst.NoteOn(key)
			}
		case EventNoteEnd:
			if key, ok := notation.MIDINote(e.Action.Pitch); ok {
				dst.NoteOff(key)
			}
		case EventSustainPedalDown:
			dst.Pedal(true)
		case EventSustainPedalUp:
			dst.Pedal(false)
		case EventSequenceEnd:
			dst.AllNotesOff()
		}
	})
}

// NewSynthSink adapts transport events onto the SoundFont engine.
func NewSynthSink(engine *synth.Engine) Sink { return noteEvents(engine) }

// NewMIDISink adapts transport events onto a MIDI output port.
func NewMIDISink(out *midiout.Out) Sink { return noteEvents(out) }
