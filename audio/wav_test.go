package audio

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	const frames = 1000
	in := newBuffer(2, frames)
	for i := 0; i < frames; i++ {
		in[0][i] = float32(math.Sin(twoPi * float64(i) / 100))
		in[1][i] = float32(i%50) / 50
	}
	in[1][0] = 2 // clipped

	var buf bytes.Buffer
	if err := WriteWAV(&buf, 22050, in); err != nil {
		t.Fatal(err)
	}
	snd, err := ReadWAV(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 22050, snd.SampleRate; want != got {
		t.Errorf("sample rate: want %v, got %v", want, got)
	}
	if want, got := 2, len(snd.Samples); want != got {
		t.Fatalf("channels: want %v, got %v", want, got)
	}
	if want, got := frames, snd.Frames(); want != got {
		t.Fatalf("frames: want %v, got %v", want, got)
	}
	for ch := range in {
		for i := 1; i < frames; i++ {
			if want, got := float64(in[ch][i]), snd.Samples[ch][i]; !approx(want, got, 1e-3) {
				t.Fatalf("channel %d sample %d: want %v, got %v", ch, i, want, got)
			}
		}
	}
	if got := snd.Samples[1][0]; !approx(1, got, 1e-3) {
		t.Errorf("want clipped sample near 1, got %v", got)
	}
}

func TestWAVChannels(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, 44100, newBuffer(3, 10)); err == nil {
		t.Error("expected an error for three channels")
	}
	if err := WriteWAV(&buf, 44100, nil); err == nil {
		t.Error("expected an error for no channels")
	}
}

func TestWAVFullScale(t *testing.T) {
	in := [][]float32{{0, 0.5, -0.5, 1, -1}}
	var buf bytes.Buffer
	if err := WriteWAV(&buf, 44100, in); err != nil {
		t.Fatal(err)
	}
	snd, err := ReadWAV(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range in[0] {
		if got := snd.Samples[0][i]; !approx(float64(want), got, 1e-4) {
			t.Errorf("sample %d: want %v, got %v", i, want, got)
		}
	}
	if want, got := 1.0, snd.Peak(); !approx(want, got, 1e-4) {
		t.Errorf("peak: want %v, got %v", want, got)
	}
}

func TestLoadSound(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAVFile(file, 48000, [][]float32{{0.25, -0.75}, {0, 0}}); err != nil {
		t.Fatal(err)
	}
	snd, err := LoadSound(file)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 48000, snd.SampleRate; want != got {
		t.Errorf("sample rate: want %v, got %v", want, got)
	}
	if want, got := 0.75, snd.Peak(); !approx(want, got, 1e-4) {
		t.Errorf("peak: want %v, got %v", want, got)
	}
	if _, err := LoadSound(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
