package audio

import "math"

type EnvelopeState int

const (
	EnvelopeOff EnvelopeState = iota
	EnvelopeAttack
	EnvelopeDecay
	EnvelopeSustain
	EnvelopeRelease
	EnvelopeShutdown
)

func (s EnvelopeState) String() string {
	switch s {
	case EnvelopeOff:
		return "off"
	case EnvelopeAttack:
		return "attack"
	case EnvelopeDecay:
		return "decay"
	case EnvelopeSustain:
		return "sustain"
	case EnvelopeRelease:
		return "release"
	case EnvelopeShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

const (
	maxEnvelopeLevel = 1.0
	minEnvelopeLevel = 0.0

	// ShutdownMillis is how long a forced shutdown takes to reach zero,
	// regardless of the release time.
	ShutdownMillis = 2.0
)

// EnvelopeParams are resolved once per block. Times are in milliseconds.
type EnvelopeParams struct {
	Attack     float64
	Decay      float64
	Release    float64
	StartLevel float64
	Sustain    float64
}

func DefaultEnvelopeParams() EnvelopeParams {
	return EnvelopeParams{
		Attack:  10,
		Decay:   50,
		Release: 100,
		Sustain: 0.4,
	}
}

// Envelope is a linear ADSR envelope with an extra shutdown segment used for
// voice stealing.
type Envelope struct {
	state      EnvelopeState
	step       float64
	value      float64
	sampleRate float64

	// remaining samples of a shutdown segment
	shutdownLeft int
}

// Reset binds the sample rate and puts the envelope in the off state.
func (e *Envelope) Reset(p EnvelopeParams, sampleRate float64) {
	e.sampleRate = sampleRate
	e.value = p.StartLevel
	e.state = EnvelopeOff
	e.step = 0
	e.shutdownLeft = 0
}

func (e *Envelope) State() EnvelopeState { return e.state }
func (e *Envelope) Value() float64       { return e.value }
func (e *Envelope) IsPlaying() bool      { return e.state != EnvelopeOff }

// NoteOn (re)starts the attack segment from the start level, discarding any
// progress.
func (e *Envelope) NoteOn(p EnvelopeParams) {
	e.step = e.stepSize(p.Attack, 1)
	e.state = EnvelopeAttack
	// the first advance lands exactly on the start level
	e.value = p.StartLevel - e.step
}

func (e *Envelope) NoteOff(p EnvelopeParams) {
	if e.state == EnvelopeOff {
		return
	}
	e.step = e.stepSize(p.Release, -1)
	if e.value > minEnvelopeLevel {
		e.state = EnvelopeRelease
	} else {
		e.state = EnvelopeOff
	}
}

// Shutdown ramps the output to zero within ShutdownMillis.
func (e *Envelope) Shutdown() {
	samples := ShutdownMillis * e.sampleRate / 1000
	e.shutdownLeft = int(math.Ceil(samples))
	if samples > 0 {
		e.step = -e.value / samples
	} else {
		e.step = 0
	}
	e.state = EnvelopeShutdown
}

// Render advances the envelope n samples and returns the value of the first
// one. The whole block is scaled by that single value.
func (e *Envelope) Render(p EnvelopeParams, n int) float64 {
	if n <= 0 {
		return e.value
	}
	e.advance(p)
	out := e.value
	for i := 1; i < n; i++ {
		e.advance(p)
	}
	return out
}

func (e *Envelope) advance(p EnvelopeParams) {
	switch e.state {
	case EnvelopeOff:
		e.value = p.StartLevel
	case EnvelopeAttack:
		e.value += e.step
		if e.step == 0 || e.value >= maxEnvelopeLevel {
			e.value = maxEnvelopeLevel
			e.step = e.stepSize(p.Decay, -1)
			e.state = EnvelopeDecay
		}
	case EnvelopeDecay:
		e.value += e.step
		if e.step == 0 || e.value <= p.Sustain {
			e.value = p.Sustain
			e.state = EnvelopeSustain
		}
	case EnvelopeSustain:
		e.value = p.Sustain
	case EnvelopeRelease:
		e.value += e.step
		if e.step == 0 || e.value <= minEnvelopeLevel {
			e.value = minEnvelopeLevel
			e.state = EnvelopeOff
		}
	case EnvelopeShutdown:
		e.value += e.step
		e.shutdownLeft--
		if e.value <= minEnvelopeLevel || e.shutdownLeft <= 0 {
			e.value = minEnvelopeLevel
			e.state = EnvelopeOff
		}
	}
}

// stepSize is the per-sample increment of a linear segment that covers the
// full range in timeMillis. A zero time gives a zero step.
func (e *Envelope) stepSize(timeMillis, scale float64) float64 {
	if timeMillis == 0 || e.sampleRate == 0 {
		return 0
	}
	return scale * (1000 / (timeMillis * e.sampleRate))
}
