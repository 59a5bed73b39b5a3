package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// PPQN is the number of pulses per quarter note. Note positions are stored in
// pulses.
const PPQN = 960.

// Clip is a loop of notes. Its length is in pulses.
type Clip struct {
	Length     int
	instrument Playable
	notes      []note
}

// NewClip creates an empty clip of length beats that plays p.
func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

type Playable interface {
	PlayNote(offset, pitch, velocity, duration int)
}

// AddNote adds a note at position beats from the start of the clip. Notes
// outside the clip or the midi range are ignored.
func (c *Clip) AddNote(position float64, pitch, velocity int, length float64) {
	if pitch < 0 || pitch > 127 {
		return
	}
	pos := int(position * PPQN)
	if pos < 0 || pos >= c.Length {
		return
	}
	c.notes = append(c.notes, note{
		pos:      pos,
		pitch:    pitch,
		velocity: min(max(velocity, 0), 127),
		length:   length,
	})
}

// Len returns the number of notes in the clip.
func (c *Clip) Len() int { return len(c.notes) }

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // pitch as a midi note number
	velocity int
	length   float64 // note length in beats
}

// Sequencer loops clips in time with the audio clock. Tick runs on the audio
// thread before the sources of a buffer are processed.
type Sequencer struct {
	*Props
	bpm        *atomic.Value
	clips      *atomic.Value
	sampleRate float64
	position   float64 // pulses since the start, fractional
}

const (
	PropBPM   = "bpm"
	PropClips = "clips"
)

func NewSequencer(props *Props, sampleRate float64) *Sequencer {
	return &Sequencer{
		Props:      props,
		sampleRate: sampleRate,
		clips:      props.MustRegister(PropClips, setClips, make(map[string]*Clip)),
		bpm:        props.MustRegister(PropBPM, setFloat64(1, 500), 120.0),
	}
}

// Clips returns the clips that are currently looping. The map must not be
// modified; store a copy with Set to change it.
func (s *Sequencer) Clips() map[string]*Clip {
	return s.clips.Load().(map[string]*Clip)
}

// Tick plays the notes that start within the next numSamples samples. The
// position is kept in fractional pulses so tempo changes and buffer sizes
// that don't divide a pulse don't drift.
func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)
	samplesPerBeat := s.sampleRate * 60 / bpm
	samplesPerPulse := samplesPerBeat / PPQN

	start := s.position
	end := start + float64(numSamples)/samplesPerPulse
	// a note belongs to the buffer its rounded frame falls in
	half := 0.5 / samplesPerPulse
	lo, hi := start-half, end-half
	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		length := float64(clip.Length)
		for _, n := range clip.notes {
			duration := int(math.Round(n.length * samplesPerBeat))
			at := float64(n.pos) + math.Ceil((lo-float64(n.pos))/length)*length
			for ; at < hi; at += length {
				offset := int(math.Round((at - start) * samplesPerPulse))
				clip.instrument.PlayNote(min(max(offset, 0), numSamples-1), n.pitch, n.velocity, duration)
			}
		}
	}
	s.position = end
}

func setClips(v interface{}, dest *atomic.Value) error {
	if c, ok := v.(map[string]*Clip); ok {
		dest.Store(c)
		return nil
	}
	return fmt.Errorf("value is not a map of clips: %v", v)
}
