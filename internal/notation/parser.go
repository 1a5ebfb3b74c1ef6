package notation

import (
	"strconv"
	"strings"

	"github.com/segnolabs/segno/internal/debug"
)

type ParserConfig struct {
	// ReferenceOctave is used for pitches written without an octave, and as
	// the base for +n/-n relative octaves.
	ReferenceOctave int
	// DefaultDuration applies to notes and rests written without a :n
	// suffix, until a bare :n token overrides it for the rest of the bar.
	DefaultDuration Duration
	// Warn receives a message for every dropped token or directive.
	// Nil routes warnings to the debug log. Parsing never fails.
	Warn func(format string, args ...any)
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		ReferenceOctave: 4,
		DefaultDuration: 4,
	}
}

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser { return &Parser{cfg: cfg} }

func (p *Parser) warn(format string, args ...any) {
	if p.cfg.Warn != nil {
		p.cfg.Warn(format, args...)
		return
	}
	debug.Log("notation", format, args...)
}

type tokenKind int

const (
	tokenDirective tokenKind = iota + 1
	tokenPedalDown
	tokenPedalUp
	tokenPartial
	tokenRest
	tokenBareDuration
	tokenNoteGroup
)

// classifyToken maps a whitespace-delimited token to its grammar rule.
// Anything unmatched is treated as a candidate note group; the note-group
// rule does its own validation and drops what it cannot read.
func classifyToken(tok string) tokenKind {
	switch {
	case tok == "[_":
		return tokenPedalDown
	case tok == "_]":
		return tokenPedalUp
	case tok == ">":
		return tokenPartial
	case strings.HasPrefix(tok, "##"):
		return tokenRest
	case strings.HasPrefix(tok, ":"):
		return tokenBareDuration
	case strings.Contains(tok, "="):
		return tokenDirective
	default:
		return tokenNoteGroup
	}
}

// Parse tokenizes notation into bars of action groups. Bars are separated
// by '|' and tokens by whitespace. Malformed tokens are dropped with a
// warning; Parse never fails.
func (p *Parser) Parse(input string) []*Bar {
	var bars []*Bar
	for _, raw := range strings.Split(input, "|") {
		bars = append(bars, p.parseBar(raw))
	}
	return bars
}

func (p *Parser) parseBar(raw string) *Bar {
	bar := &Bar{}
	defaultDur := p.cfg.DefaultDuration
	defaultDot := false
	for _, tok := range strings.Fields(raw) {
		switch classifyToken(tok) {
		case tokenPedalDown:
			bar.Groups = append(bar.Groups, &ActionGroup{
				Kind:    GroupSustainPedal,
				Actions: []Action{{Kind: ActionSustainPedalDown}},
			})
		case tokenPedalUp:
			bar.Groups = append(bar.Groups, &ActionGroup{
				Kind:    GroupSustainPedal,
				Actions: []Action{{Kind: ActionSustainPedalUp}},
			})
		case tokenPartial:
			bar.PartialLength = true
		case tokenRest:
			dur, dotted, _, ok := parseDurationSuffix(tok[2:], defaultDur, defaultDot)
			if !ok {
				p.warn("dropping malformed rest %q", tok)
				continue
			}
			bar.Groups = append(bar.Groups, &ActionGroup{
				Kind:    GroupRest,
				Actions: []Action{{Kind: ActionRest, Duration: dur, Dotted: dotted}},
			})
		case tokenBareDuration:
			dur, dotted, tied, ok := parseDurationSuffix(tok, defaultDur, defaultDot)
			if !ok || tied {
				p.warn("dropping malformed duration token %q", tok)
				continue
			}
			defaultDur, defaultDot = dur, dotted
		case tokenDirective:
			if action, ok := p.parseDirective(tok); ok {
				bar.Groups = append(bar.Groups, &ActionGroup{
					Kind:    GroupControl,
					Actions: []Action{action},
				})
			}
		case tokenNoteGroup:
			if group, ok := p.parseNoteGroup(tok, defaultDur, defaultDot); ok {
				bar.Groups = append(bar.Groups, group)
			}
		}
	}
	return bar
}

func (p *Parser) parseDirective(tok string) (Action, bool) {
	key, value, _ := strings.Cut(tok, "=")
	switch key {
	case "bpm":
		bpm, err := strconv.Atoi(value)
		if err != nil || bpm <= 0 {
			p.warn("dropping directive %q: bpm must be a positive integer", tok)
			return Action{}, false
		}
		return Action{Kind: ActionSetBPM, BPM: bpm}, true
	case "time":
		beatsStr, unitStr, found := strings.Cut(value, "/")
		beats, err1 := strconv.Atoi(beatsStr)
		unit, err2 := strconv.Atoi(unitStr)
		if !found || err1 != nil || err2 != nil || beats <= 0 || !Duration(unit).Valid() {
			p.warn("dropping directive %q: want time=<beats>/<unit>", tok)
			return Action{}, false
		}
		return Action{Kind: ActionSetTimeSignature, Time: TimeSignature{Beats: beats, Unit: unit}}, true
	case "key":
		if !KnownKey(value) {
			p.warn("dropping directive %q: unknown key signature", tok)
			return Action{}, false
		}
		return Action{Kind: ActionSetKeySignature, Key: value}, true
	case "autoSustain":
		switch value {
		case "on":
			return Action{Kind: ActionAutoSustainPedal, Enabled: true}, true
		case "off":
			return Action{Kind: ActionAutoSustainPedal, Enabled: false}, true
		}
		p.warn("dropping directive %q: want autoSustain=on|off", tok)
		return Action{}, false
	default:
		p.warn("dropping unknown directive %q", tok)
		return Action{}, false
	}
}

// parseNoteGroup reads an underscore-joined pitch group with optional
// @position, :duration, dot and tie suffixes, e.g. "C4_E4_G4:2." or
// "C4~_E4:8@3".
func (p *Parser) parseNoteGroup(tok string, defaultDur Duration, defaultDot bool) (*ActionGroup, bool) {
	body := tok
	position := 0.0
	if i := strings.LastIndexByte(body, '@'); i >= 0 {
		pos, err := strconv.ParseFloat(body[i+1:], 64)
		if err != nil {
			p.warn("dropping token %q: bad position", tok)
			return nil, false
		}
		if pos < 1 {
			p.warn("dropping token %q: position %v is before the bar start", tok, pos)
			return nil, false
		}
		position = pos
		body = body[:i]
	}

	dur, dotted, tieAll := defaultDur, defaultDot, false
	if i := strings.LastIndexByte(body, ':'); i >= 0 {
		var ok bool
		dur, dotted, tieAll, ok = parseDurationSuffix(body[i:], defaultDur, defaultDot)
		if !ok {
			p.warn("dropping token %q: bad duration", tok)
			return nil, false
		}
		body = body[:i]
	}

	var actions []Action
	for _, atom := range strings.Split(body, "_") {
		tied := tieAll
		if strings.HasSuffix(atom, "~") {
			tied = true
			atom = strings.TrimSuffix(atom, "~")
		}
		pitch, ok := p.parsePitchAtom(atom)
		if !ok {
			p.warn("dropping unrecognized token %q", tok)
			return nil, false
		}
		actions = append(actions, Action{
			Kind:     ActionNote,
			Pitch:    pitch,
			Duration: dur,
			Dotted:   dotted,
			Tied:     tied,
		})
	}
	if len(actions) == 0 {
		p.warn("dropping empty note group %q", tok)
		return nil, false
	}
	return &ActionGroup{Kind: GroupNote, Actions: actions, PositionInBar: position}, true
}

// parsePitchAtom reads a single pitch: a letter with optional accidental,
// followed by an absolute octave ("C4"), a signed octave offset from the
// reference octave ("C+1", "Db-2"), or nothing (reference octave).
func (p *Parser) parsePitchAtom(atom string) (string, bool) {
	if atom == "" {
		return "", false
	}
	letter := atom[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	if _, ok := naturalSemitones[letter]; !ok {
		return "", false
	}
	name := string(letter)
	rest := atom[1:]
	if rest != "" && (rest[0] == '#' || rest[0] == 'b') {
		name += string(rest[0])
		rest = rest[1:]
	}
	switch {
	case rest == "":
		return name + strconv.Itoa(p.cfg.ReferenceOctave), true
	case rest[0] == '+' || rest[0] == '-':
		offset, err := strconv.Atoi(rest)
		if err != nil {
			return "", false
		}
		return name + strconv.Itoa(p.cfg.ReferenceOctave+offset), true
	default:
		octave, err := strconv.Atoi(rest)
		if err != nil || octave < 0 {
			return "", false
		}
		return name + strconv.Itoa(octave), true
	}
}

// parseDurationSuffix reads a ":n" suffix with optional trailing dot and
// tie, e.g. ":8", ":4.", ":4~". An empty suffix yields the defaults.
func parseDurationSuffix(suffix string, defaultDur Duration, defaultDot bool) (Duration, bool, bool, bool) {
	if suffix == "" {
		return defaultDur, defaultDot, false, true
	}
	if suffix[0] != ':' {
		return 0, false, false, false
	}
	s := suffix[1:]
	tied := false
	if strings.HasSuffix(s, "~") {
		tied = true
		s = strings.TrimSuffix(s, "~")
	}
	dotted := false
	if strings.HasSuffix(s, ".") {
		dotted = true
		s = strings.TrimSuffix(s, ".")
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Duration(n).Valid() {
		return 0, false, false, false
	}
	return Duration(n), dotted, tied, true
}
