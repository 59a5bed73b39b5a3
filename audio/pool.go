package audio

import "fmt"

// Pool holds a fixed set of voices. The first Len() of them are active and
// take notes; the rest wait in reserve until the polyphony is raised.
//
// Each active voice has an age that grows by one for every note started while
// the voice is sounding. Silent voices don't age, so they are always picked
// before a sounding one is stolen.
type Pool[V Voice] struct {
	active   []V
	inactive []V
	age      []int
}

// NewPool creates capacity voices with newVoice and activates polyphony of
// them.
func NewPool[V Voice](capacity, polyphony int, newVoice func() V) (*Pool[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid voice capacity: %d", capacity)
	}
	p := &Pool[V]{
		active:   make([]V, 0, capacity),
		inactive: make([]V, 0, capacity),
		age:      make([]int, 0, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.inactive = append(p.inactive, newVoice())
	}
	if err := p.Resize(polyphony); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pool[V]) Len() int      { return len(p.active) }
func (p *Pool[V]) Capacity() int { return len(p.active) + len(p.inactive) }

// Voice returns the i-th active voice.
func (p *Pool[V]) Voice(i int) V { return p.active[i] }

// Age returns the age of the i-th active voice.
func (p *Pool[V]) Age(i int) int { return p.age[i] }

func (p *Pool[V]) NoteOn(ev Event, params *Params) {
	i := p.freeVoice()
	if i < 0 {
		i = p.oldestVoice()
	}
	if i < 0 {
		// Resize never leaves the pool without active voices
		panic("audio: note on with no active voices")
	}
	p.active[i].NoteOn(ev, params)
	for k, v := range p.active {
		if v.IsPlaying() {
			p.age[k]++
		}
	}
}

// NoteOff is sent to every active voice; each decides whether it matches.
func (p *Pool[V]) NoteOff(voiceID, channel, note int, params *Params) {
	for _, v := range p.active {
		v.NoteOff(voiceID, channel, note, params)
	}
}

// Resize sets the number of active voices. Growing activates reserve voices
// with age zero. Shrinking moves the oldest active voice to the reserve until
// n remain; the order of the remaining voices is kept.
func (p *Pool[V]) Resize(n int) error {
	if n <= 0 || n > p.Capacity() {
		return fmt.Errorf("%w: %d voices with capacity %d", ErrPolyphony, n, p.Capacity())
	}
	for len(p.active) < n {
		last := len(p.inactive) - 1
		p.active = append(p.active, p.inactive[last])
		p.inactive = p.inactive[:last]
		p.age = append(p.age, 0)
	}
	for len(p.active) > n {
		i := p.oldestVoice()
		p.inactive = append(p.inactive, p.active[i])
		p.active = append(p.active[:i], p.active[i+1:]...)
		p.age = append(p.age[:i], p.age[i+1:]...)
	}
	return nil
}

// Render renders every active voice, sounding or not, for the samples
// [start, end) and adds them to buf.
func (p *Pool[V]) Render(buf [][]float32, start, end int, params *Params) {
	n := end - start
	for _, v := range p.active {
		v.Render(n, params)
	}
	for _, v := range p.active {
		v.AccumulateOutput(buf, start, end)
	}
}

func (p *Pool[V]) Reset(params *Params) {
	for i, v := range p.active {
		v.Reset(params)
		p.age[i] = 0
	}
}

func (p *Pool[V]) freeVoice() int {
	for i, v := range p.active {
		if !v.IsPlaying() {
			return i
		}
	}
	return -1
}

// oldestVoice returns the index with the highest age. Ties go to the highest
// index. It returns -1 for an empty pool.
func (p *Pool[V]) oldestVoice() int {
	oldest := -1
	for i, age := range p.age {
		if oldest < 0 || age >= p.age[oldest] {
			oldest = i
		}
	}
	return oldest
}
