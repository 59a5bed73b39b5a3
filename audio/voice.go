package audio

import "fmt"

type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
)

// NoVoiceID marks an event without a host supplied voice id.
const NoVoiceID = -1

// Event is a decoded note event. Offset is the sample position within the
// buffer it belongs to.
type Event struct {
	Kind     EventKind
	Note     int     // 0..127
	Velocity float64 // 0..1, unused for NoteOff
	VoiceID  int
	Channel  int // 0..15
	Offset   int
}

func (e Event) String() string {
	kind := "NoteOn"
	if e.Kind == NoteOff {
		kind = "NoteOff"
	}
	return fmt.Sprintf("%s{ch:%d, note:%d, vel:%.2f, id:%d, offset:%d}",
		kind, e.Channel, e.Note, e.Velocity, e.VoiceID, e.Offset)
}

// matches reports whether a note off addressed by (voiceID, channel, note)
// refers to e. A voice id wins when both sides have one.
func (e Event) matches(voiceID, channel, note int) bool {
	if voiceID != NoVoiceID && e.VoiceID == voiceID {
		return true
	}
	return e.Channel == channel && e.Note == note
}

// optEvent is an event that may be absent.
type optEvent struct {
	Event
	ok bool
}

// Voice is anything the pool can allocate notes to.
type Voice interface {
	NoteOn(ev Event, p *Params)
	NoteOff(voiceID, channel, note int, p *Params)
	Render(n int, p *Params)
	IsPlaying() bool
	AccumulateOutput(buf [][]float32, start, end int)
	Reset(p *Params)
}

// FMVoice is a serial chain of operators: each operator phase modulates the
// next one, and every operator is mixed into the output with its own weight.
// A master envelope scales the mixed block.
type FMVoice struct {
	ops []*Operator
	env Envelope

	stealing bool
	current  optEvent
	pending  optEvent

	out [][]float64
}

func NewFMVoice(cfg Config) *FMVoice {
	v := &FMVoice{
		ops: make([]*Operator, cfg.Operators),
		out: make([][]float64, cfg.Channels),
	}
	for i := range v.ops {
		v.ops[i] = NewOperator(DefaultSineTable, cfg.SampleRate, cfg.Channels, cfg.BlockSize)
	}
	for ch := range v.out {
		v.out[ch] = make([]float64, cfg.BlockSize)
	}
	v.env.Reset(DefaultEnvelopeParams(), cfg.SampleRate)
	return v
}

func (v *FMVoice) Reset(p *Params) {
	for _, op := range v.ops {
		op.Reset(p.Envelope)
	}
	v.env.Reset(p.Envelope, v.env.sampleRate)
	v.stealing = false
	v.current = optEvent{}
	v.pending = optEvent{}
}

func (v *FMVoice) IsPlaying() bool { return v.env.IsPlaying() }

func (v *FMVoice) NoteOn(ev Event, p *Params) {
	if v.env.IsPlaying() {
		// steal: fade out quickly, start ev once the envelope is off
		v.pending = optEvent{ev, true}
		v.stealing = true
		v.env.Shutdown()
		return
	}
	v.start(ev, p)
}

func (v *FMVoice) start(ev Event, p *Params) {
	v.current = optEvent{ev, true}
	for i, op := range v.ops {
		op.SetRatio(p.Operators[i].Ratio)
		op.NoteOn(ev.Note, ev.Velocity, p.Envelope)
	}
	v.env.NoteOn(p.Envelope)
}

func (v *FMVoice) NoteOff(voiceID, channel, note int, p *Params) {
	if v.stealing {
		if v.pending.ok && v.pending.matches(voiceID, channel, note) {
			v.pending = optEvent{}
		}
		return
	}
	if v.current.ok && v.current.matches(voiceID, channel, note) {
		v.env.NoteOff(p.Envelope)
		for _, op := range v.ops {
			op.NoteOff(p.Envelope)
		}
		v.current = optEvent{}
	}
}

func (v *FMVoice) Render(n int, p *Params) {
	for i, op := range v.ops {
		op.SetRatio(p.Operators[i].Ratio)
	}
	level := v.env.Render(p.Envelope, n)

	for i, op := range v.ops {
		op.RenderEnvelope(p.Envelope, n)
		op.Render(n, p.Operators[i].Feedback, p.Operators[i].Index)
		if i+1 < len(v.ops) {
			v.ops[i+1].AddPMSource(op)
		}
	}

	for ch, out := range v.out {
		for i := 0; i < n; i++ {
			var sum float64
			for k, op := range v.ops {
				sum += op.out[ch][i] * p.Operators[k].Mix
			}
			out[i] = sum * level
		}
	}

	if v.stealing && !v.env.IsPlaying() {
		v.finishSteal(p)
	}
}

func (v *FMVoice) finishSteal(p *Params) {
	// the envelope is already off; only the operators still need the note off
	if v.current.ok {
		for _, op := range v.ops {
			op.NoteOff(p.Envelope)
		}
	}
	v.current = v.pending
	v.pending = optEvent{}
	v.stealing = false
	if v.current.ok {
		v.start(v.current.Event, p)
	}
}

func (v *FMVoice) AccumulateOutput(buf [][]float32, start, end int) {
	for ch := range buf {
		if ch >= len(v.out) {
			break
		}
		out := v.out[ch]
		dst := buf[ch][start:end]
		for i := range dst {
			dst[i] += float32(out[i])
		}
	}
}

// VoiceStatus is a copy of a voice's state for display.
type VoiceStatus struct {
	State    EnvelopeState
	Level    float64
	Note     int // -1 when no note is held
	Stealing bool
	Pending  int // -1 when nothing is waiting
	Age      int // notes started while this voice was sounding
	Levels   []float64
}

func (v *FMVoice) Status() VoiceStatus {
	var st VoiceStatus
	v.StatusInto(&st)
	return st
}

// StatusInto fills st, reusing st.Levels. It does not allocate once Levels
// has room for every operator.
func (v *FMVoice) StatusInto(st *VoiceStatus) {
	st.State = v.env.State()
	st.Level = v.env.Value()
	st.Stealing = v.stealing
	st.Note, st.Pending = -1, -1
	if v.current.ok {
		st.Note = v.current.Note
	}
	if v.pending.ok {
		st.Pending = v.pending.Note
	}
	st.Levels = st.Levels[:0]
	for _, op := range v.ops {
		st.Levels = append(st.Levels, op.Level())
	}
}

// Current returns the event the voice is playing, if any.
func (v *FMVoice) Current() (Event, bool) { return v.current.Event, v.current.ok }

func (v *FMVoice) Stealing() bool { return v.stealing }
