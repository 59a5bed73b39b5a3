package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	wav "github.com/youpy/go-wav"
)

const wavBitsPerSample = 16

// WriteWAV writes non-interleaved samples as a 16 bit PCM wav file. Samples
// outside [-1, 1] are clipped.
func WriteWAV(w io.Writer, sampleRate int, buf [][]float32) error {
	if len(buf) == 0 || len(buf) > 2 {
		return fmt.Errorf("wav: unsupported number of channels: %d", len(buf))
	}
	frames := len(buf[0])
	ww := wav.NewWriter(w, uint32(frames), uint16(len(buf)), uint32(sampleRate), wavBitsPerSample)

	const scale = 1<<(wavBitsPerSample-1) - 1
	samples := make([]wav.Sample, min(frames, 4096))
	for start := 0; start < frames; start += len(samples) {
		chunk := samples[:min(len(samples), frames-start)]
		for i := range chunk {
			for ch := range buf {
				v := math.Max(-1, math.Min(1, float64(buf[ch][start+i])))
				chunk[i].Values[ch] = int(math.Round(v * scale))
			}
		}
		if err := ww.WriteSamples(chunk); err != nil {
			return fmt.Errorf("wav: write samples: %w", err)
		}
	}
	return nil
}

// WriteWAVFile is WriteWAV to a new file at path.
func WriteWAVFile(path string, sampleRate int, buf [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, sampleRate, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type Sound struct {
	SampleRate int
	Samples    [][]float64 // one slice per channel
}

// Peak returns the largest absolute sample value of all channels.
func (s *Sound) Peak() float64 {
	var peak float64
	for _, ch := range s.Samples {
		for _, v := range ch {
			peak = math.Max(peak, math.Abs(v))
		}
	}
	return peak
}

// Frames returns the number of samples per channel.
func (s *Sound) Frames() int {
	if len(s.Samples) == 0 {
		return 0
	}
	return len(s.Samples[0])
}

type wavSource interface {
	io.Reader
	io.ReaderAt
}

// ReadWAV decodes a pcm wav file into floating point samples.
func ReadWAV(src wavSource) (*Sound, error) {
	r := wav.NewReader(src)
	format, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("wav: read format: %w", err)
	}
	channels := int(format.NumChannels)
	if channels == 0 || channels > 2 {
		return nil, fmt.Errorf("wav: unsupported number of channels: %d", channels)
	}
	snd := Sound{
		SampleRate: int(format.SampleRate),
		Samples:    make([][]float64, channels),
	}
	if format.BitsPerSample == 0 || format.BitsPerSample > 32 {
		return nil, fmt.Errorf("wav: unsupported sample size: %d bits", format.BitsPerSample)
	}
	scale := float64(int64(1) << (format.BitsPerSample - 1))
	for {
		samples, err := r.ReadSamples()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wav: read samples: %w", err)
		}
		for _, sample := range samples {
			for ch := range snd.Samples {
				snd.Samples[ch] = append(snd.Samples[ch], float64(r.IntValue(sample, uint(ch)))/scale)
			}
		}
	}
	return &snd, nil
}

func LoadSound(file string) (*Sound, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWAV(f)
}
