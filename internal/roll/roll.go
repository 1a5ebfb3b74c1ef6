// Package roll renders a compiled schedule as a piano-roll image: one row
// per pitch, one rectangle per note, with bar lines and a sustain-pedal
// lane along the bottom.
package roll

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/segnolabs/segno/internal/notation"
	"github.com/segnolabs/segno/internal/timeline"
)

type Options struct {
	PxPerSecond float64
	RowHeight   float64
	Margin      float64
}

func DefaultOptions() Options {
	return Options{
		PxPerSecond: 160,
		RowHeight:   10,
		Margin:      24,
	}
}

type color struct{ r, g, b float64 }

// One color per bar, cycling.
var palette = []color{
	{0.22, 0.49, 0.80},
	{0.84, 0.37, 0.29},
	{0.30, 0.66, 0.38},
	{0.58, 0.40, 0.74},
	{0.87, 0.62, 0.14},
}

func barColor(barIndex int) color {
	return palette[barIndex%len(palette)]
}

// Render draws sched onto a new drawing context. The caller saves it with
// SavePNG or encodes the underlying image.
func Render(sched *timeline.Schedule, opts Options) *gg.Context {
	if opts.PxPerSecond <= 0 {
		opts = DefaultOptions()
	}

	low, high := pitchRange(sched)
	rows := high - low + 1
	pedalLane := opts.RowHeight * 2
	width := int(opts.Margin*2 + sched.TotalMs/1000*opts.PxPerSecond)
	height := int(opts.Margin*2 + float64(rows)*opts.RowHeight + pedalLane)
	if width < 64 {
		width = 64
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	x := func(ms float64) float64 { return opts.Margin + ms/1000*opts.PxPerSecond }
	y := func(key int) float64 {
		return opts.Margin + float64(high-key)*opts.RowHeight
	}

	// Shade the black-key rows so the pitch grid reads like a keyboard.
	dc.SetRGB(0.93, 0.93, 0.93)
	for key := low; key <= high; key++ {
		if isBlackKey(key) {
			dc.DrawRectangle(opts.Margin, y(key), float64(width)-2*opts.Margin, opts.RowHeight)
			dc.Fill()
		}
	}

	drawBarLines(dc, sched, x, float64(height), opts)
	drawNotes(dc, sched, x, y, opts)
	drawPedalLane(dc, sched, x, float64(height)-opts.Margin-pedalLane, pedalLane, opts)
	return dc
}

func pitchRange(sched *timeline.Schedule) (low, high int) {
	low, high = 127, 0
	for _, sq := range sched.Groups {
		if sq.Group.Kind != notation.GroupNote {
			continue
		}
		for _, a := range sq.Group.Actions {
			if key, ok := notation.MIDINote(a.Pitch); ok {
				if key < low {
					low = key
				}
				if key > high {
					high = key
				}
			}
		}
	}
	if low > high {
		// Nothing to draw; settle on one octave around middle C.
		return 60, 72
	}
	return low, high
}

func isBlackKey(key int) bool {
	switch key % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

func drawBarLines(dc *gg.Context, sched *timeline.Schedule, x func(float64) float64, height float64, opts Options) {
	seen := -1
	for _, sq := range sched.Groups {
		if sq.BarIndex <= seen {
			continue
		}
		seen = sq.BarIndex
		px := x(sq.StartMs)
		dc.SetRGB(0.75, 0.75, 0.75)
		dc.SetLineWidth(1)
		dc.DrawLine(px, opts.Margin, px, height-opts.Margin)
		dc.Stroke()
		dc.SetRGB(0.4, 0.4, 0.4)
		dc.DrawString(fmt.Sprintf("%d", sq.BarIndex+1), px+2, opts.Margin-6)
	}
}

func drawNotes(dc *gg.Context, sched *timeline.Schedule, x func(float64) float64, y func(int) float64, opts Options) {
	for _, sq := range sched.Groups {
		if sq.Group.Kind != notation.GroupNote {
			continue
		}
		c := barColor(sq.BarIndex)
		for _, a := range sq.Group.Actions {
			key, ok := notation.MIDINote(a.Pitch)
			if !ok {
				continue
			}
			w := sq.DurationMs / 1000 * opts.PxPerSecond
			dc.DrawRectangle(x(sq.StartMs), y(key)+1, w-1, opts.RowHeight-2)
			dc.SetRGB(c.r, c.g, c.b)
			dc.FillPreserve()
			dc.SetRGB(0, 0, 0)
			dc.SetLineWidth(0.5)
			dc.Stroke()
		}
	}
}

// drawPedalLane draws one span per pedal-down..pedal-up pair.
func drawPedalLane(dc *gg.Context, sched *timeline.Schedule, x func(float64) float64, top, lane float64, opts Options) {
	downAt := -1.0
	flush := func(until float64) {
		if downAt < 0 {
			return
		}
		dc.DrawRectangle(x(downAt), top+lane/2, (until-downAt)/1000*opts.PxPerSecond, lane/3)
		dc.SetRGB(0.5, 0.5, 0.5)
		dc.Fill()
		downAt = -1
	}
	for _, sq := range sched.Groups {
		if sq.Group.Kind != notation.GroupSustainPedal {
			continue
		}
		switch sq.Group.Actions[0].Kind {
		case notation.ActionSustainPedalDown:
			downAt = sq.StartMs
		case notation.ActionSustainPedalUp:
			flush(sq.StartMs)
		}
	}
	flush(sched.TotalMs)
}
