package audio

import (
	"errors"
	"fmt"
)

const (
	// MaxVoices is the default pool capacity.
	MaxVoices = 16
	// MaxOperators is the longest operator chain a voice can have.
	MaxOperators = 4

	DefaultBlockSize  = 64 // sub-block size; events are applied on sub-block boundaries
	DefaultBufferSize = 512
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	DefaultPolyphony  = 4
)

var ErrPolyphony = errors.New("polyphony out of range")

// Config is fixed at construction time. All buffers are sized from it.
type Config struct {
	SampleRate float64
	Channels   int
	BlockSize  int // largest sub-block rendered by a voice
	BufferSize int // largest buffer handed to Synth.Render in one chunk
	Capacity   int // voices allocated by the pool
	Polyphony  int // voices initially active
	Operators  int // operators per voice
}

func DefaultConfig() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		BlockSize:  DefaultBlockSize,
		BufferSize: DefaultBufferSize,
		Capacity:   MaxVoices,
		Polyphony:  DefaultPolyphony,
		Operators:  MaxOperators,
	}
}

func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("invalid sample rate: %v", c.SampleRate)
	case c.Channels <= 0:
		return fmt.Errorf("invalid channel count: %v", c.Channels)
	case c.BlockSize <= 0:
		return fmt.Errorf("invalid block size: %v", c.BlockSize)
	case c.BufferSize <= 0:
		return fmt.Errorf("invalid buffer size: %v", c.BufferSize)
	case c.Capacity <= 0:
		return fmt.Errorf("invalid voice capacity: %v", c.Capacity)
	case c.Polyphony <= 0 || c.Polyphony > c.Capacity:
		return fmt.Errorf("%w: %d voices with capacity %d", ErrPolyphony, c.Polyphony, c.Capacity)
	case c.Operators <= 0 || c.Operators > MaxOperators:
		return fmt.Errorf("invalid operator count: %v", c.Operators)
	}
	return nil
}

// OperatorParams controls one operator of the chain.
type OperatorParams struct {
	Ratio    float64 // frequency multiplier
	Index    float64 // depth of the phase modulation applied to this operator
	Mix      float64 // weight of this operator in the voice output
	Feedback bool    // feed the operator's own output back into its phase
}

// Params is the snapshot of every parameter a voice reads. It is resolved
// once per sub-block and passed down by pointer; voices never keep it.
type Params struct {
	Envelope  EnvelopeParams
	Operators [MaxOperators]OperatorParams
}

func DefaultParams() Params {
	p := Params{Envelope: DefaultEnvelopeParams()}
	for i := range p.Operators {
		p.Operators[i] = OperatorParams{Ratio: 1, Mix: 1}
	}
	return p
}
