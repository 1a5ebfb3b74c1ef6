package segno

import (
	"github.com/segnolabs/segno/internal/notation"
	"github.com/segnolabs/segno/internal/timeline"
)

// Compile parses a notation string into bars using the default parser
// configuration. Malformed tokens are dropped with warnings; Compile
// never fails.
func Compile(text string) []*notation.Bar {
	return notation.NewParser(notation.DefaultParserConfig()).Parse(text)
}

// CompileSchedule parses and lays out a notation string in one step,
// without involving a transport. Useful for inspection and rendering.
func CompileSchedule(text string) *timeline.Schedule {
	return timeline.Compile(Compile(text), timeline.DefaultConfig())
}
