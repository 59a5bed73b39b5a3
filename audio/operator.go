package audio

// Operator is one oscillator of an FM voice. Its output can phase modulate
// another operator through AddPMSource.
type Operator struct {
	clock Clock
	osc   *SineTable
	env   Envelope

	sampleRate float64
	baseFreq   float64
	ratio      float64
	amplitude  float64

	last    float64 // previous output, read back for self modulation
	pmInput []float64
	out     [][]float64
}

// NewOperator allocates the operator's buffers. Every operator of a voice is
// created with the same channel count and block size, which is what lets
// AddPMSource work without length checks.
func NewOperator(osc *SineTable, sampleRate float64, channels, blockSize int) *Operator {
	op := &Operator{
		osc:        osc,
		sampleRate: sampleRate,
		ratio:      1,
		pmInput:    make([]float64, blockSize),
		out:        make([][]float64, channels),
	}
	for ch := range op.out {
		op.out[ch] = make([]float64, blockSize)
	}
	op.env.Reset(DefaultEnvelopeParams(), sampleRate)
	return op
}

func (op *Operator) Reset(p EnvelopeParams) {
	op.clock.Reset()
	op.env.Reset(p, op.sampleRate)
	op.amplitude = 0
	op.last = 0
	for i := range op.pmInput {
		op.pmInput[i] = 0
	}
}

// SetRatio changes the frequency multiplier applied to the note frequency.
func (op *Operator) SetRatio(ratio float64) {
	if ratio == op.ratio {
		return
	}
	op.ratio = ratio
	op.clock.SetFreq(op.baseFreq*ratio, op.sampleRate)
}

func (op *Operator) NoteOn(note int, velocity float64, p EnvelopeParams) {
	op.baseFreq = midiToFreq(note)
	op.amplitude = velocity
	op.clock.SetFreq(op.baseFreq*op.ratio, op.sampleRate)
	op.clock.Reset()
	op.env.NoteOn(p)
}

func (op *Operator) NoteOff(p EnvelopeParams) {
	op.env.NoteOff(p)
}

// RenderEnvelope keeps the operator envelope in step with the block and
// returns its block-rate level.
func (op *Operator) RenderEnvelope(p EnvelopeParams, n int) float64 {
	return op.env.Render(p, n)
}

func (op *Operator) Level() float64 { return op.env.Value() }

// Render produces n samples into every output channel. The accumulated phase
// modulation input is consumed and cleared.
func (op *Operator) Render(n int, selfModulation bool, index float64) {
	for i := 0; i < n; i++ {
		mod := op.pmInput[i]
		if selfModulation {
			mod += op.last
		}
		op.clock.AddPhaseOffset(mod*index, true)
		v := op.osc.Read(op.clock.Counter) * op.amplitude
		op.clock.RemovePhaseOffset()
		op.clock.AdvanceWrap(1)
		for ch := range op.out {
			op.out[ch][i] = v
		}
		op.last = v
	}
	for i := range op.pmInput {
		op.pmInput[i] = 0
	}
}

// AddPMSource mixes the channel average of other's last output into the phase
// modulation input of op.
func (op *Operator) AddPMSource(other *Operator) {
	weight := 1 / float64(len(other.out))
	for _, ch := range other.out {
		for i, v := range ch {
			op.pmInput[i] += v * weight
		}
	}
}

func (op *Operator) Output() [][]float64 { return op.out }
