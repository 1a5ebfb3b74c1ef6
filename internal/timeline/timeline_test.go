package timeline

import (
	"fmt"
	"testing"

	"github.com/segnolabs/segno/internal/notation"
)

func parseBars(t *testing.T, text string) []*notation.Bar {
	t.Helper()
	return notation.NewParser(notation.DefaultParserConfig()).Parse(text)
}

func noteStarts(sched *Schedule) []float64 {
	var starts []float64
	for _, sq := range sched.Groups {
		if sq.Group.Kind == notation.GroupNote {
			starts = append(starts, sq.StartMs)
		}
	}
	return starts
}

func TestQuarterNoteArithmetic(t *testing.T) {
	if ms := DurationMs(4, false, 120); ms != 500 {
		t.Fatalf("quarter at 120 should be 500ms, got %v", ms)
	}
	if ms := DurationMs(4, true, 120); ms != 750 {
		t.Fatalf("dotted quarter at 120 should be 750ms, got %v", ms)
	}
	if ms := DurationMs(1, false, 60); ms != 4000 {
		t.Fatalf("whole at 60 should be 4000ms, got %v", ms)
	}
}

func TestDecomposeSumsToWithinOneUnit(t *testing.T) {
	rests := Decompose(1300, 120)
	if len(rests) == 0 {
		t.Fatalf("expected a non-empty decomposition")
	}
	sum := 0.0
	for _, r := range rests {
		sum += DurationMs(r.Duration, r.Dotted, 120)
	}
	unit := DurationMs(64, false, 120)
	if sum > 1300 || 1300-sum >= unit {
		t.Fatalf("expected sum within one 64th of 1300ms, got %v", sum)
	}
	// Greedy, largest first: a half note must open the decomposition.
	if rests[0].Duration != 2 || rests[0].Dotted {
		t.Fatalf("expected plain half note first, got %+v", rests[0])
	}
}

func TestFullBarMatchesNominalLength(t *testing.T) {
	bars := parseBars(t, "bpm=120 time=4/4 | C4:4 D4:4 E4:4 F4:4")
	sched := Compile(bars, DefaultConfig())
	if sched.BarCount != 1 {
		t.Fatalf("expected the directive bar to merge away, got %d bars", sched.BarCount)
	}
	if sched.TotalMs != 2000 {
		t.Fatalf("expected 2000ms bar, got %v", sched.TotalMs)
	}
	starts := noteStarts(sched)
	want := []float64{0, 500, 1000, 1500}
	for i := range want {
		if starts[i] != want[i] {
			t.Fatalf("note %d: expected start %v, got %v", i, want[i], starts[i])
		}
	}
}

func TestDirectiveOnlyBarMergesForward(t *testing.T) {
	bars := parseBars(t, "bpm=100 | C4:4")
	sched := Compile(bars, DefaultConfig())
	if sched.BarCount != 1 {
		t.Fatalf("expected 1 playable bar, got %d", sched.BarCount)
	}
	// 600ms quarter proves the carried bpm=100 governed the next bar.
	if sched.Groups[len(sched.Groups)-1].DurationMs != 600 {
		t.Fatalf("expected 600ms quarter at carried bpm 100, got %v",
			sched.Groups[len(sched.Groups)-1].DurationMs)
	}
	if sched.TotalMs != 2400 {
		t.Fatalf("expected 2400ms bar at bpm 100, got %v", sched.TotalMs)
	}
}

func TestAutoPedalBracketsBar(t *testing.T) {
	bars := parseBars(t, "bpm=120 time=2/4 autoSustain=on | C4:4 D4:4 | E4:4 F4:4")
	sched := Compile(bars, DefaultConfig())
	type pedal struct {
		kind notation.ActionKind
		at   float64
	}
	var pedals []pedal
	for _, sq := range sched.Groups {
		if sq.Group.Kind == notation.GroupSustainPedal {
			pedals = append(pedals, pedal{sq.Group.Actions[0].Kind, sq.StartMs})
		}
	}
	want := []pedal{
		{notation.ActionSustainPedalDown, 0},
		{notation.ActionSustainPedalUp, 900},
		{notation.ActionSustainPedalDown, 1000},
		{notation.ActionSustainPedalUp, 1900},
	}
	if len(pedals) != len(want) {
		t.Fatalf("expected %d pedal events, got %+v", len(want), pedals)
	}
	for i := range want {
		if pedals[i] != want[i] {
			t.Fatalf("pedal %d: expected %+v, got %+v", i, want[i], pedals[i])
		}
	}
}

func TestAutoPedalSuppressedAcrossTie(t *testing.T) {
	bars := parseBars(t, "autoSustain=on | C4:1~ | C4:1")
	sched := Compile(bars, DefaultConfig())
	var kinds []notation.ActionKind
	var starts []float64
	for _, sq := range sched.Groups {
		if sq.Group.Kind == notation.GroupSustainPedal {
			kinds = append(kinds, sq.Group.Actions[0].Kind)
			starts = append(starts, sq.StartMs)
		}
	}
	// Bar 0 keeps its pedal-down but not its pedal-up; bar 1 the reverse.
	if len(kinds) != 2 {
		t.Fatalf("expected 2 pedal events across the tie, got %d", len(kinds))
	}
	if kinds[0] != notation.ActionSustainPedalDown || starts[0] != 0 {
		t.Fatalf("expected pedal down at bar 0 start, got %v at %v", kinds[0], starts[0])
	}
	if kinds[1] != notation.ActionSustainPedalUp || starts[1] != 3900 {
		t.Fatalf("expected pedal up near sequence end, got %v at %v", kinds[1], starts[1])
	}
}

func TestPartialBarLength(t *testing.T) {
	bars := parseBars(t, "> C4:8 | C4:4")
	sched := Compile(bars, DefaultConfig())
	// 250ms pickup bar plus a full 2000ms bar.
	if sched.TotalMs != 2250 {
		t.Fatalf("expected 2250ms total, got %v", sched.TotalMs)
	}
	starts := noteStarts(sched)
	if starts[1] != 250 {
		t.Fatalf("expected second note at 250ms, got %v", starts[1])
	}
}

func TestOverflowingBarGrowsWithWarning(t *testing.T) {
	var warned bool
	cfg := DefaultConfig()
	cfg.Warn = func(format string, args ...any) {
		warned = true
		_ = fmt.Sprintf(format, args...)
	}
	bars := parseBars(t, "C4:1 D4:1 | E4:4")
	sched := Compile(bars, cfg)
	if !warned {
		t.Fatalf("expected an overflow warning")
	}
	starts := noteStarts(sched)
	// The overflowing bar grows to 4000ms instead of truncating.
	if starts[2] != 4000 {
		t.Fatalf("expected next bar to start at 4000ms, got %v", starts[2])
	}
}

func TestPositionedGroupLayout(t *testing.T) {
	bars := parseBars(t, "C4:4 G4:4@4 E4:4")
	sched := Compile(bars, DefaultConfig())
	var byPitch = map[string]float64{}
	for _, sq := range sched.Groups {
		if sq.Group.Kind == notation.GroupNote {
			byPitch[sq.Group.Actions[0].Pitch] = sq.StartMs
		}
	}
	if byPitch["C4"] != 0 {
		t.Fatalf("expected C4 at 0, got %v", byPitch["C4"])
	}
	// E4 packs linearly after C4; the positioned G4 is out of the fill order.
	if byPitch["E4"] != 500 {
		t.Fatalf("expected E4 at 500ms, got %v", byPitch["E4"])
	}
	if byPitch["G4"] != 1500 {
		t.Fatalf("expected G4 at position 4 (1500ms), got %v", byPitch["G4"])
	}
}

func TestTrailingPositionedGroupExtendsTotal(t *testing.T) {
	bars := parseBars(t, "> C4:4 G4:1@2")
	sched := Compile(bars, DefaultConfig())
	// The positioned whole note ends at 500+2000ms, past the rendered cursor.
	if sched.TotalMs != 2500 {
		t.Fatalf("expected total 2500ms, got %v", sched.TotalMs)
	}
}

func TestSequenceNumbersAreDenseAndOrdered(t *testing.T) {
	bars := parseBars(t, "autoSustain=on | C4:4 D4:4 | ##:4 E4:4")
	sched := Compile(bars, DefaultConfig())
	last := -1.0
	for i, sq := range sched.Groups {
		if sq.Seq != i {
			t.Fatalf("expected dense sequence numbers, got %d at index %d", sq.Seq, i)
		}
		if sq.StartMs < last {
			t.Fatalf("expected non-decreasing start times, got %v after %v", sq.StartMs, last)
		}
		last = sq.StartMs
	}
}

func TestCompileWithoutSequencableContent(t *testing.T) {
	bars := parseBars(t, "bpm=100 | key=F")
	sched := Compile(bars, DefaultConfig())
	if !sched.Empty() {
		t.Fatalf("expected empty schedule, got %d groups", len(sched.Groups))
	}
}
