package timeline

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/segnolabs/segno/internal/notation"
)

func genDuration() gopter.Gen {
	return gen.OneConstOf(
		notation.Duration(1), notation.Duration(2), notation.Duration(4),
		notation.Duration(8), notation.Duration(16), notation.Duration(32),
		notation.Duration(64),
	)
}

func TestDurationArithmeticProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a dot always extends a duration by half", prop.ForAll(
		func(d notation.Duration, bpm int) bool {
			return DurationMs(d, true, bpm) == DurationMs(d, false, bpm)*1.5
		},
		genDuration(),
		gen.IntRange(20, 300),
	))

	properties.Property("each successive duration is half as long", prop.ForAll(
		func(bpm int) bool {
			for i := 0; i+1 < len(notation.Durations); i++ {
				longer := DurationMs(notation.Durations[i], false, bpm)
				shorter := DurationMs(notation.Durations[i+1], false, bpm)
				if longer != shorter*2 {
					return false
				}
			}
			return true
		},
		gen.IntRange(20, 300),
	))

	properties.Property("four quarters always fill a 4/4 bar exactly", prop.ForAll(
		func(bpm int) bool {
			ts := notation.TimeSignature{Beats: 4, Unit: 4}
			return BarLengthMs(ts, bpm) == 4*DurationMs(4, false, bpm)
		},
		gen.IntRange(20, 300),
	))

	properties.TestingRun(t)
}

func TestDecomposeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decomposition never overshoots and lands within one 64th", prop.ForAll(
		func(msInt int, bpm int) bool {
			ms := float64(msInt)
			sum := 0.0
			for _, r := range Decompose(ms, bpm) {
				sum += DurationMs(r.Duration, r.Dotted, bpm)
			}
			unit := DurationMs(64, false, bpm)
			return sum <= ms && ms-sum < unit
		},
		gen.IntRange(0, 20000),
		gen.IntRange(20, 300),
	))

	properties.Property("decomposed durations never increase", prop.ForAll(
		func(msInt int, bpm int) bool {
			prev := -1.0
			for _, r := range Decompose(float64(msInt), bpm) {
				cur := DurationMs(r.Duration, r.Dotted, bpm)
				if prev >= 0 && cur > prev {
					return false
				}
				prev = cur
			}
			return true
		},
		gen.IntRange(0, 20000),
		gen.IntRange(20, 300),
	))

	properties.TestingRun(t)
}

// Compiling the same notation twice must produce identical schedules: the
// compiler holds no hidden state between runs.
func TestCompileDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	notations := gen.OneConstOf(
		"C4:4 D4:4 E4:4 F4:4",
		"bpm=90 | C4:2~ | C4:2 G4:4@3",
		"autoSustain=on | C4_E4_G4:1 | time=3/4 D4:4 ##:4 F4:8.",
		"bpm=100 | key=Eb | > A3:8 | Bb3:4 C4:4",
	)

	properties.Property("schedules are byte-for-byte reproducible", prop.ForAll(
		func(text string) bool {
			parse := func() *Schedule {
				bars := notation.NewParser(notation.DefaultParserConfig()).Parse(text)
				return Compile(bars, DefaultConfig())
			}
			a, b := parse(), parse()
			if a.TotalMs != b.TotalMs || len(a.Groups) != len(b.Groups) {
				return false
			}
			for i := range a.Groups {
				ga, gb := a.Groups[i], b.Groups[i]
				if ga.Seq != gb.Seq || ga.BarIndex != gb.BarIndex ||
					ga.StartMs != gb.StartMs || ga.DurationMs != gb.DurationMs {
					return false
				}
			}
			return true
		},
		notations,
	))

	properties.TestingRun(t)
}
