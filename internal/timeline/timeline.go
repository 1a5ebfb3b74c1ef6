// Package timeline turns parsed bars into a globally ordered schedule:
// it resolves directive state per bar, assigns start offsets to every
// action group, inserts automatic sustain-pedal brackets and flattens
// the result into one time-sorted, sequence-numbered list.
package timeline

import (
	"sort"

	"github.com/segnolabs/segno/internal/debug"
	"github.com/segnolabs/segno/internal/notation"
)

// Sequenced is an action group placed on the absolute sequence timeline.
type Sequenced struct {
	Group      *notation.ActionGroup
	BarIndex   int
	StartMs    float64
	DurationMs float64
	Seq        int
}

// Schedule is the compiled form of a notation string: every group of every
// playable bar, time-sorted and densely numbered.
type Schedule struct {
	Groups   []*Sequenced
	TotalMs  float64
	BarCount int
}

// Empty reports whether the schedule has nothing to play.
func (s *Schedule) Empty() bool {
	return s == nil || len(s.Groups) == 0
}

type Config struct {
	BPM              int
	Time             notation.TimeSignature
	AutoSustainPedal bool
	// PedalLiftLeadMs is how long before bar end the automatic pedal-up
	// lands, so the pedal is clear before the next bar's pedal-down.
	PedalLiftLeadMs float64
	Warn            func(format string, args ...any)
}

func DefaultConfig() Config {
	return Config{
		BPM:             120,
		Time:            notation.TimeSignature{Beats: 4, Unit: 4},
		PedalLiftLeadMs: 100,
	}
}

type compiler struct {
	cfg       Config
	bpm       int
	time      notation.TimeSignature
	autoPedal bool
}

func (c *compiler) warn(format string, args ...any) {
	if c.cfg.Warn != nil {
		c.cfg.Warn(format, args...)
		return
	}
	debug.Log("timeline", format, args...)
}

// Compile lays out bars on the absolute timeline. Bars with no sequencable
// content are dropped and their directives carried into the next playable
// bar. A sequence with no sequencable groups compiles to an empty schedule.
func Compile(bars []*notation.Bar, cfg Config) *Schedule {
	c := &compiler{
		cfg:       cfg,
		bpm:       cfg.BPM,
		time:      cfg.Time,
		autoPedal: cfg.AutoSustainPedal,
	}
	playable := mergeForward(bars)
	if len(playable) == 0 {
		return &Schedule{}
	}

	sched := &Schedule{BarCount: len(playable)}
	offset := 0.0
	for i, bar := range playable {
		var prev, next *notation.Bar
		if i > 0 {
			prev = playable[i-1]
		}
		if i+1 < len(playable) {
			next = playable[i+1]
		}
		barLen := c.layoutBar(sched, bar, i, offset, prev, next)
		offset += barLen
	}

	sort.SliceStable(sched.Groups, func(i, j int) bool {
		return sched.Groups[i].StartMs < sched.Groups[j].StartMs
	})
	sched.TotalMs = offset
	for i, sq := range sched.Groups {
		sq.Seq = i
		if end := sq.StartMs + sq.DurationMs; end > sched.TotalMs {
			// A trailing positioned group can extend past the nominal end.
			sched.TotalMs = end
		}
	}
	return sched
}

// mergeForward drops non-playable bars, prepending their directives to the
// next playable bar in original order.
func mergeForward(bars []*notation.Bar) []*notation.Bar {
	var playable []*notation.Bar
	var pending []*notation.ActionGroup
	for _, bar := range bars {
		if !bar.Playable() {
			for _, g := range bar.Groups {
				if g.Kind == notation.GroupControl {
					pending = append(pending, g)
				}
			}
			continue
		}
		if len(pending) > 0 {
			merged := &notation.Bar{
				WithSustainPedal: bar.WithSustainPedal,
				PartialLength:    bar.PartialLength,
			}
			merged.Groups = append(append([]*notation.ActionGroup{}, pending...), bar.Groups...)
			pending = nil
			bar = merged
		}
		playable = append(playable, bar)
	}
	return playable
}

// layoutBar resolves directive state, assigns per-group offsets and
// returns the final bar length. Groups are appended to sched with
// absolute start times.
func (c *compiler) layoutBar(sched *Schedule, bar *notation.Bar, barIndex int, offset float64, prev, next *notation.Bar) float64 {
	// Directives take effect at the start of their bar, before its length
	// is computed.
	for _, g := range bar.Groups {
		if g.Kind != notation.GroupControl {
			continue
		}
		for _, a := range g.Actions {
			switch a.Kind {
			case notation.ActionSetBPM:
				c.bpm = a.BPM
			case notation.ActionSetTimeSignature:
				c.time = a.Time
			case notation.ActionAutoSustainPedal:
				c.autoPedal = a.Enabled
			}
		}
	}

	quarter := QuarterNoteMs(c.bpm)
	nominal := BarLengthMs(c.time, c.bpm)

	type placed struct {
		group *notation.ActionGroup
		start float64
		dur   float64
	}
	var entries []placed
	cursor := 0.0
	rendered := 0.0
	for _, g := range bar.Groups {
		dur := groupDurationMs(g, c.bpm)
		switch {
		case g.Kind == notation.GroupControl:
			entries = append(entries, placed{g, 0, 0})
		case g.PositionInBar >= 1:
			start := (g.PositionInBar - 1) * quarter
			entries = append(entries, placed{g, start, dur})
			if end := start + dur; end > rendered {
				rendered = end
			}
		default:
			entries = append(entries, placed{g, cursor, dur})
			cursor += dur
		}
	}
	if cursor > rendered {
		rendered = cursor
	}

	barLen := nominal
	if bar.PartialLength {
		barLen = rendered
	} else if rendered > nominal {
		c.warn("bar %d content (%.0fms) exceeds its nominal length (%.0fms)", barIndex, rendered, nominal)
		barLen = rendered
	}

	if bar.WithSustainPedal || c.autoPedal {
		// Suppress re-articulation of the pedal across tied bar boundaries.
		tiedFromPrev := prev != nil && notation.TiedInto(prev.LastNoteGroup(), bar.FirstNoteGroup())
		tiedIntoNext := next != nil && notation.TiedInto(bar.LastNoteGroup(), next.FirstNoteGroup())
		if !tiedFromPrev {
			// Prepended so the pedal engages before anything else sounding
			// at the bar start.
			entries = append([]placed{{pedalGroup(notation.ActionSustainPedalDown), 0, 0}}, entries...)
		}
		if !tiedIntoNext {
			// The lift anchors to the rendered content end, so a bar padded
			// to its nominal length releases the pedal as its last note
			// ends rather than holding through the trailing silence.
			anchor := rendered
			if anchor <= 0 {
				anchor = barLen
			}
			lift := anchor - c.cfg.PedalLiftLeadMs
			if lift < 0 {
				lift = 0
			}
			entries = append(entries, placed{pedalGroup(notation.ActionSustainPedalUp), lift, 0})
		}
	}

	for _, e := range entries {
		sched.Groups = append(sched.Groups, &Sequenced{
			Group:      e.group,
			BarIndex:   barIndex,
			StartMs:    offset + e.start,
			DurationMs: e.dur,
		})
	}
	return barLen
}

func pedalGroup(kind notation.ActionKind) *notation.ActionGroup {
	return &notation.ActionGroup{
		Kind:    notation.GroupSustainPedal,
		Actions: []notation.Action{{Kind: kind}},
	}
}
