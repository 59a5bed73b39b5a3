package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mrdg/polyfm/audio"
	"github.com/mrdg/polyfm/patch"
	"golang.org/x/sync/errgroup"
)

const usage = `usage: polyfm <command> [flags]

commands:
  play     play the synth through an audio device with a command prompt
  render   render a midi file to a wav file

run polyfm <command> -h for the flags of a command`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch cmd := os.Args[1]; cmd {
	case "play":
		err = playMain(os.Args[2:])
	case "render":
		err = renderMain(os.Args[2:])
	case "help", "-h", "-help", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// initLogger sends log output to stderr as text. Packages using the log
// package end up in the same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
	log.SetFlags(0)
}

func newSynth(voices int, patchFile string) (*audio.Synth, error) {
	cfg := audio.DefaultConfig()
	cfg.Polyphony = voices
	synth, err := audio.NewSynth(cfg, audio.NewProps())
	if err != nil {
		return nil, err
	}
	if patchFile != "" {
		p, err := patch.Load(patchFile)
		if err != nil {
			return nil, err
		}
		if err := p.Apply(synth); err != nil {
			return nil, fmt.Errorf("apply %s: %w", patchFile, err)
		}
		slog.Debug("patch loaded", "file", patchFile, "name", p.Name)
	}
	return synth, nil
}

func openOutput(backend string, cfg audio.Config) (audio.Output, error) {
	switch backend {
	case "portaudio":
		return audio.NewPortAudioSink(cfg)
	case "oto":
		return audio.NewOtoSink(cfg)
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", backend)
	}
}

func playMain(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	var (
		backend   = fs.String("backend", "portaudio", "audio output: portaudio or oto")
		voices    = fs.Int("voices", audio.DefaultPolyphony, "number of voices")
		patchFile = fs.String("patch", "", "patch file to load")
		watch     = fs.Bool("watch", false, "reload the patch file when it changes")
		run       = fs.String("run", "", "file with commands to run before the prompt")
		debug     = fs.Bool("debug", false, "")
	)
	fs.Parse(args)
	initLogger(*debug)

	synth, err := newSynth(*voices, *patchFile)
	if err != nil {
		return err
	}
	cfg := synth.Config()
	seq := audio.NewSequencer(audio.NewProps(), cfg.SampleRate)

	out, err := openOutput(*backend, cfg)
	if err != nil {
		return err
	}
	out.AddTicker(seq)
	out.AddSources(synth)
	if err := out.Start(); err != nil {
		return err
	}
	defer out.Stop()
	slog.Debug("audio started", "backend", *backend, "sample_rate", cfg.SampleRate, "buffer", cfg.BufferSize)

	env := newEnv(synth, seq, os.Stdout)
	if *run != "" {
		f, err := os.Open(*run)
		if err != nil {
			return err
		}
		err = env.runScript(f)
		f.Close()
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", *run, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	if *watch && *patchFile != "" {
		g.Go(func() error {
			return patch.Watch(gctx, *patchFile, func(p *patch.Patch, err error) {
				if err != nil {
					slog.Warn("patch not reloaded", "err", err)
					return
				}
				if err := p.Apply(synth); err != nil {
					slog.Warn("patch not applied", "err", err)
					return
				}
				slog.Info("patch reloaded", "file", filepath.Base(*patchFile))
			})
		})
	}
	g.Go(func() error {
		defer stop()
		return repl(gctx, env, os.Stdin)
	})
	return g.Wait()
}

func renderMain(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var (
		voices    = fs.Int("voices", audio.MaxVoices, "number of voices")
		patchFile = fs.String("patch", "", "patch file to load")
		tail      = fs.Float64("tail", 1, "seconds to render after the last event")
		check     = fs.Bool("check", false, "read the wav file back and report its length and peak")
		debug     = fs.Bool("debug", false, "")
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: polyfm render [flags] in.mid out.wav")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	initLogger(*debug)
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}
	in, outPath := fs.Arg(0), fs.Arg(1)

	synth, err := newSynth(*voices, *patchFile)
	if err != nil {
		return err
	}
	cfg := synth.Config()
	events, err := audio.ReadMIDIFile(in, cfg.SampleRate)
	if err != nil {
		return err
	}
	out := audio.RenderOffline(synth, events, int(*tail*cfg.SampleRate))
	if err := audio.WriteWAVFile(outPath, int(cfg.SampleRate), out); err != nil {
		return err
	}
	slog.Info("rendered", "file", outPath, "events", len(events),
		"seconds", float64(len(out[0]))/cfg.SampleRate, "dropped", synth.Dropped())
	if *check {
		return checkRender(outPath, len(out[0]))
	}
	return nil
}

// checkRender reads a rendered file back and warns when it clipped.
func checkRender(path string, frames int) error {
	snd, err := audio.LoadSound(path)
	if err != nil {
		return fmt.Errorf("check %s: %w", path, err)
	}
	if snd.Frames() != frames {
		return fmt.Errorf("check %s: want %d frames, got %d", path, frames, snd.Frames())
	}
	peak := snd.Peak()
	if peak >= 1 {
		slog.Warn("output clipped, lower the level", "file", path, "peak", peak)
		return nil
	}
	slog.Info("checked", "file", path, "frames", snd.Frames(), "peak_db", 20*math.Log10(max(peak, 1e-9)))
	return nil
}
