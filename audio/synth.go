package audio

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"
)

const (
	PropLevel      = "level"
	PropVoices     = "voices"
	PropEnvAttack  = "env.attack"
	PropEnvDecay   = "env.decay"
	PropEnvSustain = "env.sustain"
	PropEnvRelease = "env.release"
)

// OperatorProp returns the property name of field (ratio, index, mix or
// feedback) for operator op, counting from 1.
func OperatorProp(op int, field string) string {
	return "op" + strconv.Itoa(op) + "." + field
}

const (
	eventBufferSize = 256
	maxQueued       = 512
)

type operatorProps struct {
	ratio    *atomic.Value
	index    *atomic.Value
	mix      *atomic.Value
	feedback *atomic.Value
}

// release is a note off scheduled at an absolute frame.
type release struct {
	ev Event
	at int64
}

// Synth is a polyphonic FM instrument. It schedules note events on sub-block
// boundaries and renders a pool of FM voices.
//
// NoteOn, NoteOff and Props.Set may be called from any single control
// goroutine. Process, Render and PlayNote run on the audio thread.
type Synth struct {
	*Props
	cfg    Config
	pool   *Pool[*FMVoice]
	events *eventBuffer

	level      *atomic.Value
	voices     *atomic.Value
	envAttack  *atomic.Value
	envDecay   *atomic.Value
	envSustain *atomic.Value
	envRelease *atomic.Value
	ops        [MaxOperators]operatorProps

	params   Params
	mix      [][]float32
	queue    []Event
	releases []release
	frame    int64
	enqueue  func(Event)
	dropped  atomic.Uint64
	lost     atomic.Uint64

	statusReq  atomic.Bool
	statusDone atomic.Bool
	status     []VoiceStatus
}

func NewSynth(cfg Config, props *Props) (*Synth, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := NewPool(cfg.Capacity, cfg.Polyphony, func() *FMVoice {
		return NewFMVoice(cfg)
	})
	if err != nil {
		return nil, err
	}
	env := DefaultEnvelopeParams()
	s := &Synth{
		Props:      props,
		cfg:        cfg,
		pool:       pool,
		events:     newEventBuffer(eventBufferSize),
		level:      props.MustRegister(PropLevel, setLevel, -12.0),
		voices:     props.MustRegister(PropVoices, setPolyphony(cfg.Capacity), cfg.Polyphony),
		envAttack:  props.MustRegister(PropEnvAttack, setEnvTime, env.Attack),
		envDecay:   props.MustRegister(PropEnvDecay, setEnvTime, env.Decay),
		envSustain: props.MustRegister(PropEnvSustain, setUnit, env.Sustain),
		envRelease: props.MustRegister(PropEnvRelease, setEnvTime, env.Release),
		params:     DefaultParams(),
		mix:        make([][]float32, cfg.Channels),
		queue:      make([]Event, 0, maxQueued),
		releases:   make([]release, 0, maxQueued),
		status:     make([]VoiceStatus, cfg.Capacity),
	}
	for i := 0; i < cfg.Operators; i++ {
		op := i + 1
		s.ops[i] = operatorProps{
			ratio:    props.MustRegister(OperatorProp(op, "ratio"), setRatio, 1.0),
			index:    props.MustRegister(OperatorProp(op, "index"), setIndex, 0.0),
			mix:      props.MustRegister(OperatorProp(op, "mix"), setUnit, 1.0),
			feedback: props.MustRegister(OperatorProp(op, "feedback"), setBool, false),
		}
	}
	for ch := range s.mix {
		s.mix[ch] = make([]float32, cfg.BufferSize)
	}
	for i := range s.status {
		s.status[i].Levels = make([]float64, 0, cfg.Operators)
	}
	s.enqueue = s.pushControl
	s.resolveParams()
	s.pool.Reset(&s.params)
	return s, nil
}

func (s *Synth) Config() Config { return s.cfg }

// NoteOn queues a note on for the start of the next buffer. It returns
// ErrQueueFull when the audio thread is not keeping up.
func (s *Synth) NoteOn(channel, note int, velocity float64) error {
	return s.Send(Event{Kind: NoteOn, Channel: channel, Note: note, Velocity: velocity, VoiceID: NoVoiceID})
}

// NoteOff queues a note off for the start of the next buffer.
func (s *Synth) NoteOff(channel, note int) error {
	return s.Send(Event{Kind: NoteOff, Channel: channel, Note: note, VoiceID: NoVoiceID})
}

// Send queues ev from the control thread. The offset is relative to the next
// buffer.
func (s *Synth) Send(ev Event) error {
	if !s.events.push(ev) {
		return ErrQueueFull
	}
	return nil
}

// PlayNote schedules a note and its note off. It implements Playable and is
// called by the sequencer on the audio thread before Process.
func (s *Synth) PlayNote(offset, pitch, velocity, duration int) {
	ev := Event{
		Kind:     NoteOn,
		Note:     pitch,
		Velocity: float64(velocity) / 127,
		VoiceID:  NoVoiceID,
		Offset:   offset,
	}
	if len(s.queue) == cap(s.queue) || len(s.releases) == cap(s.releases) {
		s.dropped.Add(1)
		return
	}
	s.queue = append(s.queue, ev)
	off := ev
	off.Kind = NoteOff
	s.releases = append(s.releases, release{ev: off, at: s.frame + int64(offset+duration)})
}

// Dropped is the number of sequenced notes that did not fit in the block
// queue.
func (s *Synth) Dropped() uint64 { return s.dropped.Load() }

// Lost is the number of events from NoteOn, NoteOff and Send that arrived
// while the block queue was full.
func (s *Synth) Lost() uint64 { return s.lost.Load() }

func (s *Synth) push(ev Event) bool {
	if len(s.queue) == cap(s.queue) {
		return false
	}
	s.queue = append(s.queue, ev)
	return true
}

func (s *Synth) pushControl(ev Event) {
	if !s.push(ev) {
		s.lost.Add(1)
	}
}

// Process renders one buffer with every event that is due in it. It is the
// realtime entry point used by a Sink.
func (s *Synth) Process(out [][]float32) {
	if len(out) == 0 {
		return
	}
	n := len(out[0])
	s.events.drain(s.enqueue)

	end := s.frame + int64(n)
	for i := 0; i < len(s.releases); {
		r := s.releases[i]
		if r.at >= end {
			i++
			continue
		}
		r.ev.Offset = int(max(r.at-s.frame, 0))
		if !s.push(r.ev) {
			// retried at the start of the next buffer
			i++
			continue
		}
		last := len(s.releases) - 1
		s.releases[i] = s.releases[last]
		s.releases = s.releases[:last]
	}
	sortEvents(s.queue)

	s.Render(out, s.queue)
	s.queue = s.queue[:0]
	s.frame = end
	s.serveStatus()
}

// Render adds the synth output for len(out[0]) samples to out. Events must be
// ordered by offset. The buffer is split so that every event lands on a
// sub-block boundary, and parameters are resolved once per sub-block.
func (s *Synth) Render(out [][]float32, events []Event) {
	if len(out) == 0 {
		return
	}
	total := len(out[0])
	next := 0
	for base := 0; base < total; base += s.cfg.BufferSize {
		size := min(s.cfg.BufferSize, total-base)
		next = s.renderChunk(out, base, size, events, next)
	}
	// events past the end of the buffer take effect before the next one
	for ; next < len(events); next++ {
		s.dispatch(events[next])
	}
}

func (s *Synth) renderChunk(out [][]float32, base, size int, events []Event, next int) int {
	start := 0
	for start < size {
		end := min(start+s.cfg.BlockSize, size)
		for next < len(events) && events[next].Offset-base <= start {
			s.dispatch(events[next])
			next++
		}
		if next < len(events) && events[next].Offset-base < end {
			end = events[next].Offset - base
		}
		s.resolveParams()
		s.pool.Render(s.mix, start, end, &s.params)
		start = end
	}

	gain := float32(dbToGain(s.level.Load().(float64)))
	for ch := range out {
		if ch >= len(s.mix) {
			break
		}
		mix := s.mix[ch][:size]
		dst := out[ch][base : base+size]
		for i := range dst {
			dst[i] += gain * mix[i]
			mix[i] = 0
		}
	}
	return next
}

func (s *Synth) dispatch(ev Event) {
	switch ev.Kind {
	case NoteOn:
		s.pool.NoteOn(ev, &s.params)
	case NoteOff:
		s.pool.NoteOff(ev.VoiceID, ev.Channel, ev.Note, &s.params)
	}
}

// resolveParams copies the current property values into the block snapshot.
func (s *Synth) resolveParams() {
	if n := s.voices.Load().(int); n != s.pool.Len() {
		// the property setter keeps n within the pool capacity
		_ = s.pool.Resize(n)
	}
	s.params.Envelope.Attack = s.envAttack.Load().(float64)
	s.params.Envelope.Decay = s.envDecay.Load().(float64)
	s.params.Envelope.Sustain = s.envSustain.Load().(float64)
	s.params.Envelope.Release = s.envRelease.Load().(float64)
	for i := 0; i < s.cfg.Operators; i++ {
		op := &s.params.Operators[i]
		op.Ratio = s.ops[i].ratio.Load().(float64)
		op.Index = s.ops[i].index.Load().(float64)
		op.Mix = s.ops[i].mix.Load().(float64)
		op.Feedback = s.ops[i].feedback.Load().(bool)
	}
}

// Reset silences every voice. It must not run concurrently with Process.
func (s *Synth) Reset() {
	s.resolveParams()
	s.pool.Reset(&s.params)
	s.queue = s.queue[:0]
	s.releases = s.releases[:0]
}

// Status asks the audio thread for a copy of the voice states and waits until
// it has been taken. Process has to be running for this to return.
func (s *Synth) Status(ctx context.Context) ([]VoiceStatus, error) {
	s.statusReq.Store(true)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for !s.statusDone.Load() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("voice status: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	out := make([]VoiceStatus, len(s.status))
	for i, st := range s.status {
		out[i] = st
		out[i].Levels = append([]float64(nil), st.Levels...)
	}
	s.statusDone.Store(false)
	return out, nil
}

func (s *Synth) serveStatus() {
	if !s.statusReq.Load() || s.statusDone.Load() {
		return
	}
	s.status = s.status[:s.pool.Len()]
	for i := range s.status {
		s.pool.Voice(i).StatusInto(&s.status[i])
		s.status[i].Age = s.pool.Age(i)
	}
	s.statusReq.Store(false)
	s.statusDone.Store(true)
}

// sortEvents orders events by offset, note offs first on equal offsets so a
// retriggered note is released before it starts again. Insertion sort keeps
// it allocation free.
func sortEvents(events []Event) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && eventLess(events[j], events[j-1]); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

func eventLess(a, b Event) bool {
	if a.Offset != b.Offset {
		return a.Offset < b.Offset
	}
	return a.Kind == NoteOff && b.Kind == NoteOn
}

func setPolyphony(capacity int) setter {
	check := setInt(1, capacity)
	return func(v interface{}, dest *atomic.Value) error {
		if err := check(v, dest); err != nil {
			return fmt.Errorf("%w: %v", ErrPolyphony, err)
		}
		return nil
	}
}

const twoPi = 2 * math.Pi

func dbToGain(db float64) float64 {
	return math.Pow(10, db/20.0)
}

func midiToFreq(note int) float64 {
	f := math.Pow(2, float64((note-69))/12.0) * 440
	return f
}
