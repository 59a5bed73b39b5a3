package audio

import (
	"bytes"
	"reflect"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func writeTestMIDI(t *testing.T) []byte {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 127))
	tr.Add(480, midi.NoteOn(1, 64, 64))
	tr.Add(480, midi.NoteOff(0, 60))
	tr.Add(0, midi.NoteOn(1, 64, 0))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadMIDI(t *testing.T) {
	events, err := ReadMIDI(bytes.NewReader(writeTestMIDI(t)), 44100)
	if err != nil {
		t.Fatal(err)
	}
	// 480 ticks at 120 bpm and 960 ticks per beat is a quarter second
	want := []TimedEvent{
		{Frame: 0, Event: Event{Kind: NoteOn, Channel: 0, Note: 60, Velocity: 1, VoiceID: NoVoiceID}},
		{Frame: 11025, Event: Event{Kind: NoteOn, Channel: 1, Note: 64, Velocity: 64.0 / 127, VoiceID: NoVoiceID}},
		{Frame: 22050, Event: Event{Kind: NoteOff, Channel: 0, Note: 60, VoiceID: NoVoiceID}},
		{Frame: 22050, Event: Event{Kind: NoteOff, Channel: 1, Note: 64, VoiceID: NoVoiceID}},
	}
	if !reflect.DeepEqual(want, events) {
		t.Errorf("\nwant %v\ngot  %v", want, events)
	}
}

func TestReadMIDIInvalid(t *testing.T) {
	if _, err := ReadMIDI(bytes.NewReader([]byte("not a midi file")), 44100); err == nil {
		t.Error("expected an error")
	}
}

func TestRenderOffline(t *testing.T) {
	cfg := testConfig()
	s := newTestSynth(t, cfg)
	events := []TimedEvent{
		{Frame: 100, Event: noteOn(69)},
		{Frame: 1000, Event: Event{Kind: NoteOff, Note: 69, VoiceID: NoVoiceID}},
	}
	out := RenderOffline(s, events, 500)
	if want, got := 1, len(out); want != got {
		t.Fatalf("channels: want %v, got %v", want, got)
	}
	if want, got := 1501, len(out[0]); want != got {
		t.Fatalf("frames: want %v, got %v", want, got)
	}
	if want, got := 101, firstNonZero(out[0]); want != got {
		t.Errorf("first sound: want %v, got %v", want, got)
	}
}
