package notation

import "strconv"

var naturalSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// Keys that spell their accidentals as flats. C and the sharp keys use the
// sharp spelling set.
var flatKeys = map[string]bool{
	"F": true, "Bb": true, "Eb": true, "Ab": true,
	"Db": true, "Gb": true, "Cb": true,
}

var sharpKeys = map[string]bool{
	"C": true, "G": true, "D": true, "A": true,
	"E": true, "B": true, "F#": true, "C#": true,
}

// KnownKey reports whether k names one of the fifteen major key signatures.
func KnownKey(k string) bool {
	return flatKeys[k] || sharpKeys[k]
}

// ParsePitch splits a normalized absolute pitch such as "C4", "F#3" or
// "Bb5" into its semitone (0-11, C = 0) and octave.
func ParsePitch(pitch string) (semitone, octave int, ok bool) {
	if len(pitch) < 2 {
		return 0, 0, false
	}
	semitone, ok = naturalSemitones[pitch[0]]
	if !ok {
		return 0, 0, false
	}
	rest := pitch[1:]
	switch rest[0] {
	case '#':
		semitone++
		rest = rest[1:]
	case 'b':
		semitone--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, 0, false
	}
	// Cb and B# cross the octave boundary.
	if semitone < 0 {
		semitone += 12
		octave--
	} else if semitone > 11 {
		semitone -= 12
		octave++
	}
	return semitone, octave, true
}

// MIDINote converts an absolute pitch to its MIDI note number (C4 = 60).
func MIDINote(pitch string) (int, bool) {
	semitone, octave, ok := ParsePitch(pitch)
	if !ok {
		return 0, false
	}
	return 12*(octave+1) + semitone, true
}

// FormatPitch renders a semitone/octave pair using the sharp spelling set.
func FormatPitch(semitone, octave int) string {
	for semitone < 0 {
		semitone += 12
		octave--
	}
	for semitone >= 12 {
		semitone -= 12
		octave++
	}
	return sharpNames[semitone] + strconv.Itoa(octave)
}

// Respell rewrites pitch using the enharmonic spelling the key prefers:
// flat keys name the black keys Db Eb Gb Ab Bb, everything else uses sharps.
// Unknown keys or unparseable pitches are returned unchanged.
func Respell(pitch, key string) string {
	if !KnownKey(key) {
		return pitch
	}
	semitone, octave, ok := ParsePitch(pitch)
	if !ok {
		return pitch
	}
	names := &sharpNames
	if flatKeys[key] {
		names = &flatNames
	}
	return names[semitone] + strconv.Itoa(octave)
}
