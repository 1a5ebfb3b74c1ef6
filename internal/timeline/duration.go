package timeline

import "github.com/segnolabs/segno/internal/notation"

// QuarterNoteMs returns the length of one quarter note at bpm.
func QuarterNoteMs(bpm int) float64 {
	return 60000.0 / float64(bpm)
}

// DurationMs converts a notated duration to milliseconds at bpm. A dot
// extends the duration by half.
func DurationMs(d notation.Duration, dotted bool, bpm int) float64 {
	ms := QuarterNoteMs(bpm) * 4.0 / float64(d)
	if dotted {
		ms *= 1.5
	}
	return ms
}

// BarLengthMs returns the nominal length of one bar: beats per bar times
// the quarter-note length, scaled by the signature's beat unit.
func BarLengthMs(ts notation.TimeSignature, bpm int) float64 {
	return float64(ts.Beats) * QuarterNoteMs(bpm) * 4.0 / float64(ts.Unit)
}

// Decompose greedily splits a millisecond span into rest actions, trying
// the largest fitting duration first, dotted before plain. The remainder
// smaller than a 64th is discarded, so the summed result is always within
// one 64th of ms.
func Decompose(ms float64, bpm int) []notation.Action {
	var out []notation.Action
	remaining := ms
	for {
		fitted := false
		for _, d := range notation.Durations {
			if v := DurationMs(d, true, bpm); v <= remaining {
				out = append(out, notation.Action{Kind: notation.ActionRest, Duration: d, Dotted: true})
				remaining -= v
				fitted = true
				break
			}
			if v := DurationMs(d, false, bpm); v <= remaining {
				out = append(out, notation.Action{Kind: notation.ActionRest, Duration: d})
				remaining -= v
				fitted = true
				break
			}
		}
		if !fitted {
			return out
		}
	}
}

// groupDurationMs returns how long a group occupies the timeline. Pedal and
// control groups are instantaneous.
func groupDurationMs(g *notation.ActionGroup, bpm int) float64 {
	if g.Kind != notation.GroupNote && g.Kind != notation.GroupRest {
		return 0
	}
	longest := 0.0
	for _, a := range g.Actions {
		if ms := DurationMs(a.Duration, a.Dotted, bpm); ms > longest {
			longest = ms
		}
	}
	return longest
}
