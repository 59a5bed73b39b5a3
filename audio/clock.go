package audio

import "math"

// Clock is a phase accumulator. Counter is the phase within one period and
// stays in [0, 1) after every wrap.
type Clock struct {
	Counter     float64
	PhaseInc    float64
	PhaseOffset float64 // one-shot offset used for phase modulation
	FreqOffset  float64
	Freq        float64
}

func (c *Clock) SetFreq(freq, sampleRate float64) {
	c.Freq = freq
	c.PhaseInc = freq / sampleRate
}

// Reset zeroes the phase and any offsets. The frequency is kept.
func (c *Clock) Reset() {
	c.Counter = 0
	c.PhaseOffset = 0
	c.FreqOffset = 0
}

func (c *Clock) Advance(interval float64) {
	c.Counter += interval * c.PhaseInc
}

// Wrap moves Counter back into [0, 1).
func (c *Clock) Wrap() {
	switch {
	case c.Counter >= 0 && c.Counter < 1:
		return
	case c.Counter >= 1 && c.Counter < 2:
		c.Counter -= 1
	case c.Counter < 0 && c.Counter >= -1:
		c.Counter += 1
	default:
		c.Counter = wrapUnit(c.Counter)
	}
	// adding 1 to a tiny negative value can round up to exactly 1
	if c.Counter >= 1 {
		c.Counter = 0
	}
}

func (c *Clock) AdvanceWrap(interval float64) {
	c.Advance(interval)
	c.Wrap()
}

// AddPhaseOffset shifts the phase in the direction of travel. The offset must
// be taken out again with RemovePhaseOffset before the next sample, otherwise
// it accumulates.
func (c *Clock) AddPhaseOffset(offset float64, wrap bool) {
	c.PhaseOffset = offset
	if c.PhaseInc > 0 {
		c.Counter += offset
	} else if c.PhaseInc < 0 {
		c.Counter -= offset
	}
	if wrap {
		c.Wrap()
	}
}

func (c *Clock) RemovePhaseOffset() {
	if c.PhaseOffset == 0 {
		return
	}
	if c.PhaseInc > 0 {
		c.Counter -= c.PhaseOffset
	} else if c.PhaseInc < 0 {
		c.Counter += c.PhaseOffset
	}
	c.PhaseOffset = 0
	c.Wrap()
}

func wrapUnit(v float64) float64 {
	v = math.Mod(v, 1)
	if v < 0 {
		v += 1
	}
	return v
}
