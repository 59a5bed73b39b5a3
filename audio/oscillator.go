package audio

import "math"

const sineTableSize = 1024

// SineTable holds a single period of a sine wave. It is never written after
// construction, so one table can be shared by every operator.
type SineTable struct {
	table []float64
}

// DefaultSineTable is shared by all voices created through NewFMVoice.
var DefaultSineTable = NewSineTable(sineTableSize)

func NewSineTable(size int) *SineTable {
	if size <= 0 {
		panic("audio: sine table size must be positive")
	}
	t := &SineTable{table: make([]float64, size)}
	for i := range t.table {
		t.table[i] = math.Sin(twoPi * float64(i) / float64(size))
	}
	return t
}

func (t *SineTable) Len() int { return len(t.table) }

// Read returns the interpolated table value at phase, which is expected to be
// in [0, 1]. A phase of exactly 1 reads the first entry.
func (t *SineTable) Read(phase float64) float64 {
	size := float64(len(t.table))
	index := math.Mod(phase*size, size)
	if index < 0 {
		index += size
	}
	low := int(index)
	if low >= len(t.table) {
		low = 0
	}
	high := (low + 1) % len(t.table)
	frac := index - math.Floor(index)
	return lerp(t.table[low], t.table[high], frac)
}

func lerp(a, b, frac float64) float64 {
	return a*(1-frac) + b*frac
}
