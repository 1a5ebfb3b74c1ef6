package segno

import "github.com/segnolabs/segno/internal/notation"

// EventKind identifies transport lifecycle, note, rest and pedal events.
type EventKind int

const (
	EventSequenceStart EventKind = iota + 1
	EventSequenceEnd
	EventBarStart
	EventBarEnd
	EventNoteStart
	EventNoteEnd
	EventRestStart
	EventRestEnd
	EventSustainPedalDown
	EventSustainPedalUp
)

func (k EventKind) String() string {
	switch k {
	case EventSequenceStart:
		return "sequenceStart"
	case EventSequenceEnd:
		return "sequenceEnd"
	case EventBarStart:
		return "barStart"
	case EventBarEnd:
		return "barEnd"
	case EventNoteStart:
		return "noteStart"
	case EventNoteEnd:
		return "noteEnd"
	case EventRestStart:
		return "restStart"
	case EventRestEnd:
		return "restEnd"
	case EventSustainPedalDown:
		return "sustainPedalDown"
	case EventSustainPedalUp:
		return "sustainPedalUp"
	}
	return "unknown"
}

// Event is what the transport hands to its sink. Action is set for note and
// rest events, BarIndex for bar and note/rest events, and AtMs is the
// logical sequence time the event belongs to.
type Event struct {
	Kind     EventKind
	BarIndex int
	Action   *notation.Action
	AtMs     float64
}

// Sink consumes transport events in emission order. Implementations must
// not call back into the transport from OnSequenceEvent; hand off to a
// goroutine or use Watch instead.
type Sink interface {
	OnSequenceEvent(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) OnSequenceEvent(e Event) { f(e) }

// MultiSink fans events out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) OnSequenceEvent(e Event) {
	for _, s := range m {
		s.OnSequenceEvent(e)
	}
}
