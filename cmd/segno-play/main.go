package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/segnolabs/segno"
	"github.com/segnolabs/segno/internal/audio"
	"github.com/segnolabs/segno/internal/debug"
	"github.com/segnolabs/segno/internal/midiout"
	"github.com/segnolabs/segno/internal/synth"
)

const defaultNotation = "bpm=100 autoSustain=on | C4_E4_G4:2 D4_F4_A4:2 | C4_E4_G4:1"

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		sinkName   = flag.String("sink", "print", "event sink: audio|midi|print")
		sf2Path    = flag.String("sf2", "", "SoundFont file for the audio sink")
		midiPort   = flag.String("midi-port", "", "substring of the MIDI out port name (empty = first port)")
		wavPath    = flag.String("wav", "", "render offline to a WAV file instead of playing")
		notePath   = flag.String("file", "", "path to a notation file")
		noteInline = flag.String("n", "", "inline notation string")
		verbose    = flag.Bool("debug", false, "enable debug logging to stderr")
	)
	flag.Parse()

	if *verbose {
		debug.Enable(nil)
	}

	text, err := resolveInput(*notePath, *noteInline)
	if err != nil {
		log.Fatal(err)
	}

	if *wavPath != "" {
		if err := bounce(text, *sf2Path, *sampleRate, *wavPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	sink, cleanup, err := buildSink(*sinkName, *sf2Path, *midiPort, *sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	tr := segno.NewTransport(segno.WithSink(sink))
	tr.InitNotation(text, nil)
	ch := tr.Watch()
	tr.PlaySequence()
	for event := range ch {
		switch event.Kind {
		case segno.EventNoteStart:
			fmt.Printf("note %s (bar %d, %.0fms)\n", event.Action.Pitch, event.BarIndex+1, event.AtMs)
		case segno.EventBarStart:
			fmt.Printf("bar %d\n", event.BarIndex+1)
		case segno.EventSequenceEnd:
			fmt.Println("playback completed")
			return
		}
	}
}

func resolveInput(path string, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return defaultNotation, nil
}

// buildSink constructs the chosen back end and returns its teardown.
func buildSink(name, sf2Path, midiPort string, sampleRate int) (segno.Sink, func(), error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "print":
		// Events are already printed off the Watch channel.
		return segno.SinkFunc(func(segno.Event) {}), func() {}, nil
	case "audio":
		if sf2Path == "" {
			return nil, nil, fmt.Errorf("-sink=audio requires -sf2")
		}
		f, err := os.Open(sf2Path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		engine, err := synth.NewEngine(f, int32(sampleRate))
		if err != nil {
			return nil, nil, err
		}
		pl, err := audio.NewPlayer(sampleRate, engine)
		if err != nil {
			return nil, nil, err
		}
		pl.Play()
		return segno.NewSynthSink(engine), func() { pl.Close() }, nil
	case "midi":
		out, err := midiout.Open(midiPort)
		if err != nil {
			return nil, nil, err
		}
		return segno.NewMIDISink(out), func() { out.AllNotesOff() }, nil
	default:
		return nil, nil, fmt.Errorf("invalid -sink %q (expected audio|midi|print)", name)
	}
}

func bounce(text, sf2Path string, sampleRate int, wavPath string) error {
	if sf2Path == "" {
		return fmt.Errorf("-wav requires -sf2")
	}
	f, err := os.Open(sf2Path)
	if err != nil {
		return err
	}
	defer f.Close()
	samples, err := segno.RenderNotation(text, f, sampleRate)
	if err != nil {
		return err
	}
	wav := segno.EncodeWAVFloat32LE(samples, sampleRate, 2)
	if err := os.WriteFile(wavPath, wav, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%.1fs)\n", wavPath, float64(len(samples)/2)/float64(sampleRate))
	return nil
}
