package notation

import "testing"

func TestMIDINote(t *testing.T) {
	cases := []struct {
		pitch string
		want  int
	}{
		{"C4", 60},
		{"A4", 69},
		{"C#4", 61},
		{"Db4", 61},
		{"B3", 59},
		{"Cb4", 59},
		{"C0", 12},
	}
	for _, c := range cases {
		got, ok := MIDINote(c.pitch)
		if !ok {
			t.Fatalf("MIDINote(%q) failed", c.pitch)
		}
		if got != c.want {
			t.Fatalf("MIDINote(%q) = %d, want %d", c.pitch, got, c.want)
		}
	}
	if _, ok := MIDINote("H4"); ok {
		t.Fatalf("expected H4 to be rejected")
	}
}

func TestRespellFollowsKeyPreference(t *testing.T) {
	if got := Respell("A#4", "F"); got != "Bb4" {
		t.Fatalf("expected Bb4 in F major, got %q", got)
	}
	if got := Respell("Bb4", "D"); got != "A#4" {
		t.Fatalf("expected A#4 in D major, got %q", got)
	}
	if got := Respell("C4", "Gb"); got != "C4" {
		t.Fatalf("expected natural C4 untouched, got %q", got)
	}
	if got := Respell("A#4", "Hm"); got != "A#4" {
		t.Fatalf("expected unknown key to leave pitch alone, got %q", got)
	}
}

func TestFormatPitchNormalizesRange(t *testing.T) {
	if got := FormatPitch(12, 3); got != "C4" {
		t.Fatalf("expected octave carry, got %q", got)
	}
	if got := FormatPitch(-1, 4); got != "B3" {
		t.Fatalf("expected downward carry, got %q", got)
	}
}
