// Package midiout sends note and pedal traffic to a MIDI output port.
// Importing binaries must register a driver, e.g.
//
//	import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
package midiout

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	ccSustain     = 64
	ccAllNotesOff = 123
	velocity      = 100
)

// Out is one open MIDI output port.
type Out struct {
	mu      sync.Mutex
	send    func(gomidi.Message) error
	channel uint8
}

// Open connects to the first output port whose name contains portName.
// An empty portName picks the first available port.
func Open(portName string) (*Out, error) {
	port, err := gomidi.FindOutPort(portName)
	if err != nil {
		return nil, fmt.Errorf("find midi out port %q: %w", portName, err)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open midi out port %q: %w", portName, err)
	}
	return &Out{send: send}, nil
}

func (o *Out) NoteOn(key int) {
	o.mu.Lock()
	_ = o.send(gomidi.NoteOn(o.channel, uint8(key), velocity))
	o.mu.Unlock()
}

func (o *Out) NoteOff(key int) {
	o.mu.Lock()
	_ = o.send(gomidi.NoteOff(o.channel, uint8(key)))
	o.mu.Unlock()
}

// Pedal engages or releases sustain via CC64.
func (o *Out) Pedal(down bool) {
	var value uint8
	if down {
		value = 127
	}
	o.mu.Lock()
	_ = o.send(gomidi.ControlChange(o.channel, ccSustain, value))
	o.mu.Unlock()
}

// AllNotesOff silences anything the receiver still holds.
func (o *Out) AllNotesOff() {
	o.mu.Lock()
	_ = o.send(gomidi.ControlChange(o.channel, ccAllNotesOff, 0))
	o.mu.Unlock()
}
