package audio

import (
	"math"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 44100
	cfg.Channels = 1
	return cfg
}

func noteOn(note int) Event {
	return Event{Kind: NoteOn, Note: note, Velocity: 1, VoiceID: NoVoiceID}
}

func TestVoiceStealing(t *testing.T) {
	cfg := testConfig()
	params := DefaultParams()
	v := NewFMVoice(cfg)
	v.Reset(&params)

	v.NoteOn(noteOn(60), &params)
	for i := 0; i < 10; i++ {
		v.Render(64, &params)
	}
	if !v.IsPlaying() {
		t.Fatal("voice is not playing")
	}

	v.NoteOn(noteOn(64), &params)
	if !v.Stealing() {
		t.Fatal("voice is not stealing")
	}
	if ev, ok := v.Current(); !ok || ev.Note != 60 {
		t.Fatalf("current note changed before the shutdown finished: %v", ev)
	}

	shutdown := int(math.Ceil(ShutdownMillis * cfg.SampleRate / 1000))
	for i := 0; i < shutdown-1; i++ {
		v.Render(1, &params)
		if !v.Stealing() {
			t.Fatalf("steal finished early, after %d samples", i+1)
		}
	}
	v.Render(1, &params)
	if v.Stealing() {
		t.Fatalf("steal did not finish after %d samples", shutdown)
	}
	ev, ok := v.Current()
	if !ok || ev.Note != 64 {
		t.Fatalf("want note 64 to be current, got %v (%v)", ev, ok)
	}
	if want, got := EnvelopeAttack, v.Status().State; want != got {
		t.Errorf("state: want %v, got %v", want, got)
	}
}

func TestVoiceNoteOffWhileStealing(t *testing.T) {
	cfg := testConfig()
	params := DefaultParams()
	v := NewFMVoice(cfg)
	v.Reset(&params)

	v.NoteOn(noteOn(60), &params)
	v.Render(64, &params)
	v.NoteOn(noteOn(64), &params)

	// the old note is not released by its own note off while stealing
	v.NoteOff(NoVoiceID, 0, 60, &params)
	if st := v.Status(); st.Pending != 64 || st.State != EnvelopeShutdown {
		t.Fatalf("unexpected status: %+v", st)
	}

	v.NoteOff(NoVoiceID, 0, 64, &params)
	if want, got := -1, v.Status().Pending; want != got {
		t.Fatalf("pending: want %v, got %v", want, got)
	}
	for i := 0; i < 4; i++ {
		v.Render(64, &params)
	}
	if v.IsPlaying() || v.Stealing() {
		t.Errorf("voice still active: %+v", v.Status())
	}
	if _, ok := v.Current(); ok {
		t.Error("voice still has a current note")
	}
}

func TestVoiceNoteOffMatching(t *testing.T) {
	tests := []struct {
		name                   string
		ev                     Event
		voiceID, channel, note int
		match                  bool
	}{
		{"channel and note", Event{VoiceID: NoVoiceID, Channel: 1, Note: 60}, NoVoiceID, 1, 60, true},
		{"other note", Event{VoiceID: NoVoiceID, Channel: 1, Note: 60}, NoVoiceID, 1, 61, false},
		{"other channel", Event{VoiceID: NoVoiceID, Channel: 1, Note: 60}, NoVoiceID, 2, 60, false},
		{"voice id", Event{VoiceID: 7, Channel: 1, Note: 60}, 7, 3, 61, true},
		{"voice id differs", Event{VoiceID: 7, Channel: 1, Note: 60}, 8, 3, 61, false},
		{"voice id differs, note equal", Event{VoiceID: 7, Channel: 1, Note: 60}, 8, 1, 60, true},
	}
	for _, test := range tests {
		if want, got := test.match, test.ev.matches(test.voiceID, test.channel, test.note); want != got {
			t.Errorf("%s: want %v, got %v", test.name, want, got)
		}
	}
}

func TestVoiceRelease(t *testing.T) {
	cfg := testConfig()
	params := DefaultParams()
	params.Envelope.Release = 1
	v := NewFMVoice(cfg)
	v.Reset(&params)

	v.NoteOn(Event{Kind: NoteOn, Note: 60, Velocity: 1, VoiceID: 3, Channel: 2}, &params)
	v.Render(64, &params)
	v.NoteOff(NoVoiceID, 2, 61, &params)
	if _, ok := v.Current(); !ok {
		t.Fatal("unmatched note off released the voice")
	}
	v.NoteOff(3, 0, 0, &params)
	if _, ok := v.Current(); ok {
		t.Fatal("note off by voice id did not release the voice")
	}
	if want, got := EnvelopeRelease, v.Status().State; want != got {
		t.Errorf("state: want %v, got %v", want, got)
	}
	v.Render(64, &params)
	if v.IsPlaying() {
		t.Error("voice still playing after a 1ms release")
	}
}

func TestVoiceOutput(t *testing.T) {
	cfg := testConfig()
	params := DefaultParams()
	params.Envelope.Attack = 0
	params.Envelope.Decay = 0
	params.Envelope.Sustain = 1
	for i := 1; i < MaxOperators; i++ {
		params.Operators[i].Mix = 0
	}
	v := NewFMVoice(cfg)
	v.Reset(&params)
	v.NoteOn(noteOn(69), &params)
	v.Render(64, &params)

	buf := [][]float32{make([]float32, 128)}
	v.AccumulateOutput(buf, 64, 128)
	v.AccumulateOutput(buf, 64, 128)
	for i := 0; i < 64; i++ {
		want := 2 * math.Sin(twoPi*440*float64(i)/cfg.SampleRate)
		if got := float64(buf[0][64+i]); !approx(want, got, 1e-3) {
			t.Fatalf("sample %d: want %v, got %v", i, want, got)
		}
		if buf[0][i] != 0 {
			t.Fatalf("sample %d written outside range", i)
		}
	}
}

func TestVoiceStealShortEnvelope(t *testing.T) {
	cfg := testConfig()
	params := DefaultParams()
	params.Envelope = EnvelopeParams{Attack: 10, Decay: 10, Release: 10, Sustain: 0.5}
	v := NewFMVoice(cfg)
	v.Reset(&params)

	v.NoteOn(noteOn(60), &params)
	v.Render(10, &params)
	v.NoteOn(noteOn(61), &params)

	steal := int(math.Ceil(ShutdownMillis/1000*cfg.SampleRate)) + 1
	for i := 0; i < steal; i++ {
		v.Render(1, &params)
	}
	if v.Stealing() {
		t.Fatalf("still stealing after %d samples", steal)
	}
	if ev, ok := v.Current(); !ok || ev.Note != 61 {
		t.Fatalf("want note 61 to be current, got %v (%v)", ev, ok)
	}
}
