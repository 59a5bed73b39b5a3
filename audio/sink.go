package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type Source interface {
	Process([][]float32)
}

type Ticker interface {
	Tick(numSamples int)
}

// Output is a realtime audio device driven by its own callback.
type Output interface {
	AddSources(sources ...Source)
	AddTicker(ticker Ticker)
	Start() error
	Stop() error
}

// mixer runs tickers and sources for each buffer an output asks for.
type mixer struct {
	sources []Source
	tickers []Ticker
}

func (m *mixer) AddSources(sources ...Source) {
	m.sources = append(m.sources, sources...)
}

func (m *mixer) AddTicker(ticker Ticker) {
	m.tickers = append(m.tickers, ticker)
}

func (m *mixer) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	for _, ticker := range m.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, source := range m.sources {
		source.Process(samples)
	}
}

type PortAudioSink struct {
	mixer
	stream *portaudio.Stream
}

func NewPortAudioSink(cfg Config) (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}
	var s PortAudioSink
	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), cfg.BufferSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio: open stream: %w", err)
	}
	s.stream = stream
	return &s, nil
}

func (s *PortAudioSink) Start() error {
	return s.stream.Start()
}

func (s *PortAudioSink) Stop() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}
