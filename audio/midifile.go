package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TimedEvent is a note event at an absolute frame.
type TimedEvent struct {
	Frame int64
	Event Event
}

// ReadMIDI reads the note events of all tracks of a standard midi file and
// converts their times to frames at sampleRate. Tempo changes are honoured.
func ReadMIDI(r io.Reader, sampleRate float64) ([]TimedEvent, error) {
	var events []TimedEvent
	err := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		msg := midi.Message(te.Message)
		frame := int64(math.Round(float64(te.AbsMicroSeconds) * sampleRate / 1e6))

		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			events = append(events, TimedEvent{
				Frame: frame,
				Event: Event{
					Kind:     NoteOn,
					Channel:  int(ch),
					Note:     int(key),
					Velocity: float64(vel) / 127,
					VoiceID:  NoVoiceID,
				},
			})
		case msg.GetNoteEnd(&ch, &key):
			events = append(events, TimedEvent{
				Frame: frame,
				Event: Event{Kind: NoteOff, Channel: int(ch), Note: int(key), VoiceID: NoVoiceID},
			})
		}
	}).Error()
	if err != nil {
		return nil, fmt.Errorf("read midi: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Frame != events[j].Frame {
			return events[i].Frame < events[j].Frame
		}
		return eventLess(events[i].Event, events[j].Event)
	})
	return events, nil
}

func ReadMIDIFile(path string, sampleRate float64) ([]TimedEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMIDI(f, sampleRate)
}

// RenderOffline plays events through s one buffer at a time and returns the
// output, which lasts until tail frames after the last event.
func RenderOffline(s *Synth, events []TimedEvent, tail int) [][]float32 {
	cfg := s.Config()
	var last int64
	if len(events) > 0 {
		last = events[len(events)-1].Frame
	}
	total := int(last) + 1 + max(tail, 0)

	out := make([][]float32, cfg.Channels)
	for ch := range out {
		out[ch] = make([]float32, total)
	}
	view := make([][]float32, cfg.Channels)
	block := make([]Event, 0, maxQueued)

	next := 0
	for base := 0; base < total; base += cfg.BufferSize {
		size := min(cfg.BufferSize, total-base)
		block = block[:0]
		for next < len(events) && events[next].Frame < int64(base+size) {
			ev := events[next].Event
			ev.Offset = int(events[next].Frame) - base
			block = append(block, ev)
			next++
		}
		for ch := range view {
			view[ch] = out[ch][base : base+size]
		}
		s.Render(view, block)
	}
	return out
}
