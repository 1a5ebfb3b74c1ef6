// Command segno-ui is a small terminal front end for the playback
// transport: it shows the transport state and the event stream while the
// sequence plays, with space/s/q controls.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/segnolabs/segno"
	"github.com/segnolabs/segno/internal/audio"
	"github.com/segnolabs/segno/internal/synth"
)

const maxRecent = 12

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type eventMsg segno.Event

type tickMsg time.Time

type model struct {
	tr     *segno.Transport
	events <-chan segno.Event
	recent []string
	bar    int
	total  float64
}

func waitForEvent(ch <-chan segno.Event) tea.Cmd {
	return func() tea.Msg { return eventMsg(<-ch) }
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.tr.StopSequence()
			return m, tea.Quit
		case " ":
			if m.tr.Status() == segno.StatusPlaying {
				m.tr.PauseSequence()
			} else {
				m.tr.PlaySequence()
			}
		case "s":
			m.tr.StopSequence()
		}
	case eventMsg:
		m.push(segno.Event(msg))
		return m, waitForEvent(m.events)
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m *model) push(e segno.Event) {
	switch e.Kind {
	case segno.EventBarStart:
		m.bar = e.BarIndex + 1
	case segno.EventSequenceEnd:
		m.bar = 0
	}
	line := fmt.Sprintf("%8.0fms  %s", e.AtMs, e.Kind)
	if e.Action != nil && e.Action.Pitch != "" {
		line += "  " + e.Action.Pitch
	}
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("segno") + "\n\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("%-8s  %6.0f / %.0f ms  bar %d",
		m.tr.Status(), m.tr.ClockMs(), m.total, m.bar)) + "\n\n")
	for _, line := range m.recent {
		b.WriteString(eventStyle.Render(line) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("space play/pause · s stop · q quit"))
	return b.String()
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		sf2Path    = flag.String("sf2", "", "SoundFont file; omit for silent event display")
		notePath   = flag.String("file", "", "path to a notation file")
		noteInline = flag.String("n", "", "inline notation string")
	)
	flag.Parse()

	text, err := resolveInput(*notePath, *noteInline)
	if err != nil {
		log.Fatal(err)
	}

	var opts []segno.Option
	var cleanup func()
	if *sf2Path != "" {
		sink, stop, err := openAudio(*sf2Path, *sampleRate)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, segno.WithSink(sink))
		cleanup = stop
	}

	tr := segno.NewTransport(opts...)
	tr.InitNotation(text, nil)
	m := model{tr: tr, events: tr.Watch(), total: tr.Schedule().TotalMs}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		cleanup()
	}
}

func openAudio(sf2Path string, sampleRate int) (segno.Sink, func(), error) {
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
	return "bpm=100 autoSustain=on | C4_E4_G4:2 D4_F4_A4:2 | C4_E4_G4:1", nil
}
