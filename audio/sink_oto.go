package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays through oto, which needs no C audio library. Oto pulls
// interleaved float32 samples through Read.
type OtoSink struct {
	mixer
	ctx    *oto.Context
	player *oto.Player
	cfg    Config
	buf    [][]float32

	mu      sync.Mutex
	started bool
}

func NewOtoSink(cfg Config) (*OtoSink, error) {
	latency := time.Duration(float64(cfg.BufferSize) / cfg.SampleRate * float64(time.Second))
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(cfg.SampleRate),
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   2 * latency,
	})
	if err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	<-ready

	s := &OtoSink{
		ctx: ctx,
		cfg: cfg,
		buf: make([][]float32, cfg.Channels),
	}
	for ch := range s.buf {
		s.buf[ch] = make([]float32, cfg.BufferSize)
	}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// Read renders whole frames into p. It never returns an error, so the player
// keeps pulling until it is closed.
func (s *OtoSink) Read(p []byte) (int, error) {
	const sampleBytes = 4
	frameBytes := sampleBytes * s.cfg.Channels
	frames := len(p) / frameBytes

	n := 0
	for frames > 0 {
		size := min(frames, s.cfg.BufferSize)
		view := s.buf
		for ch := range view {
			view[ch] = view[ch][:size]
		}
		s.Process(view)
		for i := 0; i < size; i++ {
			for ch := range view {
				binary.LittleEndian.PutUint32(p[n:], math.Float32bits(view[ch][i]))
				n += sampleBytes
			}
		}
		for ch := range view {
			view[ch] = view[ch][:cap(view[ch])]
		}
		frames -= size
	}
	return n, nil
}

func (s *OtoSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.player.Play()
		s.started = true
	}
	return nil
}

func (s *OtoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return s.player.Close()
}
