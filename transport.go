// Package segno compiles a compact music notation into a timed event
// schedule and plays it back through a frame-driven transport. The
// transport emits note, rest, pedal and lifecycle events to a sink; what
// the sink does with them (audio, MIDI, UI) is its own business.
package segno

import (
	"sync"

	"github.com/segnolabs/segno/internal/notation"
	"github.com/segnolabs/segno/internal/timeline"
)

// DefaultFramePeriodMs is the transport's tick period: due groups are
// scanned once per frame and dispatched on sub-frame one-shot timers.
const DefaultFramePeriodMs = 100

type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusPaused
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	}
	return "idle"
}

type Option func(*Transport)

// WithFramePeriod overrides the 100ms tick period.
func WithFramePeriod(ms float64) Option {
	return func(t *Transport) { t.framePeriodMs = ms }
}

// WithClock substitutes the timer source, e.g. a ManualClock in tests.
func WithClock(c Clock) Option {
	return func(t *Transport) { t.clock = c }
}

// WithSink sets the default event sink for sequences that do not bring
// their own.
func WithSink(s Sink) Option {
	return func(t *Transport) { t.sink = s }
}

// WithCompileConfig overrides the initial BPM, time signature and pedal
// defaults used when compiling sequences.
func WithCompileConfig(cfg timeline.Config) Option {
	return func(t *Transport) { t.compileCfg = cfg }
}

// Transport owns one compiled sequence, a logical clock and the
// playing/paused/stopped state. It is a single logical thread of control:
// every timer callback re-enters through the mutex, and the epoch counter
// invalidates callbacks that belong to a cancelled frame.
type Transport struct {
	mu            sync.Mutex
	clock         Clock
	framePeriodMs float64
	compileCfg    timeline.Config

	sink      Sink
	eventCh   chan Event
	eventChMu sync.Mutex

	sched      *timeline.Schedule
	fired      []bool
	status     Status
	clockMs    float64
	barIndex   int // last observed bar; -1 before any
	bpm        int
	key        string
	epoch      int
	cancelTick func()
}

func NewTransport(opts ...Option) *Transport {
	t := &Transport{
		clock:         realClock{},
		framePeriodMs: DefaultFramePeriodMs,
		compileCfg:    timeline.DefaultConfig(),
		barIndex:      -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.bpm = t.compileCfg.BPM
	return t
}

// InitSequence compiles bars into a schedule and arms the transport,
// replacing any prior sequence. A nil sink keeps the transport's current
// one.
func (t *Transport) InitSequence(bars []*notation.Bar, sink Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTickLocked()
	t.epoch++
	t.sched = timeline.Compile(bars, t.compileCfg)
	t.fired = make([]bool, len(t.sched.Groups))
	if sink != nil {
		t.sink = sink
	}
	t.status = StatusIdle
	t.clockMs = 0
	t.barIndex = -1
	t.bpm = t.compileCfg.BPM
	t.key = ""
}

// InitNotation parses and compiles a notation string in one step.
func (t *Transport) InitNotation(text string, sink Sink) {
	t.InitSequence(Compile(text), sink)
}

func (t *Transport) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// ClockMs returns the logical playback position.
func (t *Transport) ClockMs() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clockMs
}

// Schedule exposes the compiled sequence, or nil before InitSequence.
func (t *Transport) Schedule() *timeline.Schedule {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sched
}

// Watch returns a buffered channel receiving every emitted event. Only the
// most recent Watch channel receives events; when the receiver lags the
// buffer, events are dropped rather than blocking the transport.
func (t *Transport) Watch() <-chan Event {
	ch := make(chan Event, 64)
	t.eventChMu.Lock()
	t.eventCh = ch
	t.eventChMu.Unlock()
	return ch
}

// PlaySequence starts or resumes playback. It is a no-op without a
// compiled non-empty sequence or when already playing. sequenceStart is
// emitted only when starting from the top.
func (t *Transport) PlaySequence() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sched.Empty() || t.status == StatusPlaying {
		return
	}
	if t.clockMs == 0 {
		for i := range t.fired {
			t.fired[i] = false
		}
		t.barIndex = -1
		t.bpm = t.compileCfg.BPM
		t.key = ""
	}
	t.status = StatusPlaying
	if t.clockMs == 0 {
		t.emit(Event{Kind: EventSequenceStart})
	}
	t.runFrameLocked()
}

// PauseSequence freezes the logical clock at the current frame boundary.
// The pending tick is cancelled and dispatch callbacks of the current
// frame that have not yet run are dropped; note-end timers for notes
// already sounding still fire so sinks do not hold stuck notes.
func (t *Transport) PauseSequence() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPlaying {
		return
	}
	t.stopTickLocked()
	t.epoch++
	t.status = StatusPaused
}

// StopSequence cancels any pending tick, rewinds the clock to zero and
// always emits sequenceEnd, even when nothing was playing, so hosts can
// force a reset.
func (t *Transport) StopSequence() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopTickLocked()
	t.epoch++
	if t.barIndex >= 0 {
		t.emit(Event{Kind: EventBarEnd, BarIndex: t.barIndex, AtMs: t.clockMs})
	}
	t.clockMs = 0
	t.barIndex = -1
	t.status = StatusStopped
	for i := range t.fired {
		t.fired[i] = false
	}
	t.emit(Event{Kind: EventSequenceEnd})
}

func (t *Transport) stopTickLocked() {
	if t.cancelTick != nil {
		t.cancelTick()
		t.cancelTick = nil
	}
}

// runFrameLocked scans the schedule for groups due in the current frame
// window and schedules each distinct offset as a one-shot callback, then
// arms the next tick. Dispatch precision is sub-frame even though the
// scan is per-frame.
func (t *Transport) runFrameLocked() {
	epoch := t.epoch
	frameEnd := t.clockMs + t.framePeriodMs

	type batch struct {
		delay float64
		idxs  []int
	}
	var batches []batch
	for i, sq := range t.sched.Groups {
		if t.fired[i] || sq.StartMs < t.clockMs || sq.StartMs >= frameEnd {
			continue
		}
		delay := sq.StartMs - t.clockMs
		if n := len(batches); n > 0 && batches[n-1].delay == delay {
			batches[n-1].idxs = append(batches[n-1].idxs, i)
		} else {
			batches = append(batches, batch{delay: delay, idxs: []int{i}})
		}
	}
	for _, b := range batches {
		idxs := b.idxs
		t.clock.AfterMs(b.delay, func() { t.dispatchBatch(epoch, idxs) })
	}
	t.cancelTick = t.clock.AfterMs(t.framePeriodMs, func() { t.advanceFrame(epoch) })
}

func (t *Transport) advanceFrame(epoch int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if epoch != t.epoch || t.status != StatusPlaying {
		return
	}
	t.clockMs += t.framePeriodMs
	if t.clockMs >= t.sched.TotalMs {
		t.finishLocked()
		return
	}
	t.runFrameLocked()
}

// finishLocked is the natural end of the sequence: the transport stops
// itself and is ready to restart from zero.
func (t *Transport) finishLocked() {
	t.epoch++
	t.cancelTick = nil
	if t.barIndex >= 0 {
		t.emit(Event{Kind: EventBarEnd, BarIndex: t.barIndex, AtMs: t.sched.TotalMs})
	}
	t.clockMs = 0
	t.barIndex = -1
	t.status = StatusStopped
	for i := range t.fired {
		t.fired[i] = false
	}
	t.emit(Event{Kind: EventSequenceEnd, AtMs: t.sched.TotalMs})
}

func (t *Transport) dispatchBatch(epoch int, idxs []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if epoch != t.epoch || t.status != StatusPlaying {
		return
	}
	for _, i := range idxs {
		if t.fired[i] {
			continue
		}
		t.fired[i] = true
		sq := t.sched.Groups[i]
		if sq.BarIndex != t.barIndex {
			if t.barIndex >= 0 {
				t.emit(Event{Kind: EventBarEnd, BarIndex: t.barIndex, AtMs: sq.StartMs})
			}
			t.barIndex = sq.BarIndex
			t.emit(Event{Kind: EventBarStart, BarIndex: sq.BarIndex, AtMs: sq.StartMs})
		}
		t.dispatchGroupLocked(sq)
	}
}

func (t *Transport) dispatchGroupLocked(sq *timeline.Sequenced) {
	switch sq.Group.Kind {
	case notation.GroupControl:
		for _, a := range sq.Group.Actions {
			switch a.Kind {
			case notation.ActionSetBPM:
				// Affects durations resolved from here on; start times of
				// already-scheduled groups keep their compile-time BPM.
				t.bpm = a.BPM
			case notation.ActionSetKeySignature:
				t.key = a.Key
			}
		}
	case notation.GroupSustainPedal:
		a := &sq.Group.Actions[0]
		kind := EventSustainPedalDown
		if a.Kind == notation.ActionSustainPedalUp {
			kind = EventSustainPedalUp
		}
		t.emit(Event{Kind: kind, BarIndex: sq.BarIndex, Action: a, AtMs: sq.StartMs})
	case notation.GroupRest:
		a := &sq.Group.Actions[0]
		t.emit(Event{Kind: EventRestStart, BarIndex: sq.BarIndex, Action: a, AtMs: sq.StartMs})
		dur := timeline.DurationMs(a.Duration, a.Dotted, t.bpm)
		t.scheduleEndEvent(Event{Kind: EventRestEnd, BarIndex: sq.BarIndex, Action: a, AtMs: sq.StartMs + dur}, dur)
	case notation.GroupNote:
		for i := range sq.Group.Actions {
			a := &sq.Group.Actions[i]
			if t.key != "" {
				// Lazy respelling: only notes dispatched after a key change
				// pick up the new spelling.
				a.Pitch = notation.Respell(a.Pitch, t.key)
			}
			if t.continuedByTie(sq, a.Pitch) {
				continue
			}
			t.emit(Event{Kind: EventNoteStart, BarIndex: sq.BarIndex, Action: a, AtMs: sq.StartMs})
			dur := t.soundingDurationLocked(sq, a)
			t.scheduleEndEvent(Event{Kind: EventNoteEnd, BarIndex: sq.BarIndex, Action: a, AtMs: sq.StartMs + dur}, dur)
		}
	}
}

// scheduleEndEvent fires unconditionally: a pause or stop must not leave a
// sink holding a note that never ends.
func (t *Transport) scheduleEndEvent(e Event, afterMs float64) {
	t.clock.AfterMs(afterMs, func() {
		t.mu.Lock()
		t.emit(e)
		t.mu.Unlock()
	})
}

// continuedByTie reports whether the nearest preceding note group ties
// pitch into sq, in which case the note keeps sounding and must not be
// re-triggered.
func (t *Transport) continuedByTie(sq *timeline.Sequenced, pitch string) bool {
	for i := sq.Seq - 1; i >= 0; i-- {
		prev := t.sched.Groups[i]
		switch prev.Group.Kind {
		case notation.GroupControl, notation.GroupSustainPedal:
			continue
		case notation.GroupRest:
			return false
		case notation.GroupNote:
			for _, a := range prev.Group.Actions {
				if a.Tied && samePitch(a.Pitch, pitch) {
					return true
				}
			}
			return false
		}
	}
	return false
}

// soundingDurationLocked resolves how long a note sounds: its own duration
// plus, for tied notes, the durations of the tie chain found by iterative
// lookahead. A tie with no target degrades to the note's own duration.
func (t *Transport) soundingDurationLocked(sq *timeline.Sequenced, a *notation.Action) float64 {
	dur := timeline.DurationMs(a.Duration, a.Dotted, t.bpm)
	cur, action := sq, a
	for action.Tied {
		next, nextAction := t.findTieTarget(cur, action.Pitch)
		if next == nil {
			break
		}
		dur += timeline.DurationMs(nextAction.Duration, nextAction.Dotted, t.bpm)
		cur, action = next, nextAction
	}
	return dur
}

// findTieTarget scans forward for the next note group containing pitch.
// The search is bounded: a rest ends it, since a tie cannot cross silence.
func (t *Transport) findTieTarget(from *timeline.Sequenced, pitch string) (*timeline.Sequenced, *notation.Action) {
	for i := from.Seq + 1; i < len(t.sched.Groups); i++ {
		sq := t.sched.Groups[i]
		switch sq.Group.Kind {
		case notation.GroupControl, notation.GroupSustainPedal:
			continue
		case notation.GroupRest:
			return nil, nil
		case notation.GroupNote:
			for j := range sq.Group.Actions {
				if samePitch(sq.Group.Actions[j].Pitch, pitch) {
					return sq, &sq.Group.Actions[j]
				}
			}
			return nil, nil
		}
	}
	return nil, nil
}

// samePitch compares pitches by sounding note, so a tie survives a key
// respelling of either end (A#4 ties into Bb4).
func samePitch(a, b string) bool {
	if a == b {
		return true
	}
	na, okA := notation.MIDINote(a)
	nb, okB := notation.MIDINote(b)
	return okA && okB && na == nb
}

func (t *Transport) emit(e Event) {
	if t.sink != nil {
		t.sink.OnSequenceEvent(e)
	}
	t.eventChMu.Lock()
	ch := t.eventCh
	t.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- e:
		default:
			// Receiver is lagging; drop rather than stall the timeline.
		}
	}
}
