package notation

// Duration is the denominator of a whole note: 1 = whole, 4 = quarter,
// 8 = eighth, and so on down to a 64th.
type Duration int

// Valid reports whether d is one of the supported power-of-two durations.
func (d Duration) Valid() bool {
	switch d {
	case 1, 2, 4, 8, 16, 32, 64:
		return true
	}
	return false
}

// Durations lists the supported durations from longest to shortest.
var Durations = []Duration{1, 2, 4, 8, 16, 32, 64}

type ActionKind int

const (
	ActionNote ActionKind = iota + 1
	ActionRest
	ActionSustainPedalDown
	ActionSustainPedalUp
	ActionSetBPM
	ActionSetTimeSignature
	ActionSetKeySignature
	ActionAutoSustainPedal
)

// TimeSignature is beats per bar over the beat unit (4 = quarter note).
type TimeSignature struct {
	Beats int
	Unit  int
}

// Action is a single musical or control instruction. Kind selects which
// fields are meaningful: notes carry Pitch/Duration/Dotted/Tied, rests carry
// Duration/Dotted, directives carry BPM, Time, Key or Enabled.
type Action struct {
	Kind     ActionKind
	Pitch    string
	Duration Duration
	Dotted   bool
	Tied     bool
	BPM      int
	Time     TimeSignature
	Key      string
	Enabled  bool
}

type GroupKind int

const (
	GroupNote GroupKind = iota + 1
	GroupRest
	GroupSustainPedal
	GroupControl
)

// ActionGroup clusters actions that happen at the same instant: a chord, a
// rest, a pedal change, or a run of directives. Only note, rest and pedal
// groups occupy time on the bar timeline.
type ActionGroup struct {
	Kind    GroupKind
	Actions []Action

	// PositionInBar places the group at an explicit quarter-note position,
	// 1 being the first position of the bar. Zero means linear fill after
	// the previous group.
	PositionInBar float64
}

// Sequencable reports whether the group occupies time on the timeline.
func (g *ActionGroup) Sequencable() bool {
	return g.Kind != GroupControl
}

// Bar is one measure of parsed notation.
type Bar struct {
	WithSustainPedal bool
	PartialLength    bool
	Groups           []*ActionGroup
}

// Playable reports whether the bar contains at least one sequencable group.
// Bars that are not playable carry only directives and are merged into the
// next playable bar during compilation.
func (b *Bar) Playable() bool {
	for _, g := range b.Groups {
		if g.Sequencable() {
			return true
		}
	}
	return false
}

// FirstNoteGroup returns the first sequencable note group of the bar.
func (b *Bar) FirstNoteGroup() *ActionGroup {
	for _, g := range b.Groups {
		if g.Kind == GroupNote {
			return g
		}
	}
	return nil
}

// LastNoteGroup returns the last sequencable note group of the bar.
func (b *Bar) LastNoteGroup() *ActionGroup {
	for i := len(b.Groups) - 1; i >= 0; i-- {
		if b.Groups[i].Kind == GroupNote {
			return b.Groups[i]
		}
	}
	return nil
}

// TiedInto reports whether from ties at least one pitch into to, i.e. from
// holds a tied note whose pitch appears again in to.
func TiedInto(from, to *ActionGroup) bool {
	if from == nil || to == nil {
		return false
	}
	for _, a := range from.Actions {
		if a.Kind != ActionNote || !a.Tied {
			continue
		}
		for _, b := range to.Actions {
			if b.Kind == ActionNote && b.Pitch == a.Pitch {
				return true
			}
		}
	}
	return false
}
