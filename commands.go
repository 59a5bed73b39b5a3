package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/mrdg/polyfm/audio"
	"github.com/mrdg/polyfm/dub"
	"github.com/mrdg/polyfm/patch"
)

type command struct {
	name     string
	help     string
	run      func(*env, []dub.Node) error
	arity    int
	optional int // number of optional arguments after the required ones
}

var commands []command

func init() {
	commands = []command{
		{"on", "on <note> [velocity] [channel]: start a note, by number or name (c4 is 60)", onCommand, 1, 2},
		{"off", "off <note> [channel]: release a note", offCommand, 1, 1},
		{"set", "set <device> <property> <value>", setCommand, 3, 0},
		{"get", "get <device> [property]: show one or all properties", getCommand, 1, 1},
		{"preset", "preset [name]: load a built-in preset or list them", presetCommand, 0, 1},
		{"load", "load <file>: apply a patch file", loadCommand, 1, 0},
		{"save", "save <file> [name]: write the synth settings to a patch file", saveCommand, 1, 1},
		{"voices", "voices <n>: change the polyphony", voicesCommand, 1, 0},
		{"bpm", "bpm <n>: change the sequencer tempo", bpmCommand, 1, 0},
		{"loop", "loop <name> <beats> <note> '<match>: loop a note on the matched 16ths", loopCommand, 4, 0},
		{"stop", "stop [name]: stop one or all loops", stopCommand, 0, 1},
		{"status", "status: show the voices", statusCommand, 0, 0},
		{"help", "help: list commands", helpCommand, 0, 0},
		{"quit", "quit: exit", quitCommand, 0, 0},
	}
}

func onCommand(env *env, args []dub.Node) error {
	var note, channel int
	velocity := 100.0
	if err := readArgs(args[:1], &note); err != nil {
		return err
	}
	if len(args) > 1 {
		if err := readArgs(args[1:2], &velocity); err != nil {
			return err
		}
	}
	if len(args) > 2 {
		if err := readArgs(args[2:], &channel); err != nil {
			return err
		}
	}
	if err := checkNote(note, channel); err != nil {
		return err
	}
	if velocity < 0 || velocity > 127 {
		return fmt.Errorf("velocity out of range 0-127: %v", velocity)
	}
	return env.synth.NoteOn(channel, note, velocity/127)
}

func offCommand(env *env, args []dub.Node) error {
	var note, channel int
	if err := readArgs(args[:1], &note); err != nil {
		return err
	}
	if len(args) > 1 {
		if err := readArgs(args[1:], &channel); err != nil {
			return err
		}
	}
	if err := checkNote(note, channel); err != nil {
		return err
	}
	return env.synth.NoteOff(channel, note)
}

func checkNote(note, channel int) error {
	if note < 0 || note > 127 {
		return fmt.Errorf("note out of range 0-127: %d", note)
	}
	if channel < 0 || channel > 15 {
		return fmt.Errorf("channel out of range 0-15: %d", channel)
	}
	return nil
}

func setCommand(env *env, args []dub.Node) error {
	var device, prop string
	if err := readArgs(args[:2], &device, &prop); err != nil {
		return err
	}
	switch v := args[2].(type) {
	case dub.Int:
		return env.setProp(device, prop, int(v))
	case dub.Float:
		return env.setProp(device, prop, float64(v))
	case dub.String:
		return env.setProp(device, prop, string(v))
	case dub.Identifier:
		return env.setProp(device, prop, string(v))
	default:
		return fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) error {
	var device string
	if err := readArgs(args[:1], &device); err != nil {
		return err
	}
	if len(args) > 1 {
		var prop string
		if err := readArgs(args[1:], &prop); err != nil {
			return err
		}
		v, err := env.getProp(device, prop)
		if err != nil {
			return err
		}
		fmt.Fprintln(env.out, formatValue(v))
		return nil
	}
	dev, ok := env.devices[device]
	if !ok {
		return fmt.Errorf("unknown device: %s", device)
	}
	lister, ok := dev.(interface{ Keys() []string })
	if !ok {
		return fmt.Errorf("device can't list its properties: %s", device)
	}
	values := make(map[string]interface{})
	for _, k := range lister.Keys() {
		v, err := dev.Get(k)
		if err != nil {
			return err
		}
		values[k] = v
	}
	renderProps(env.out, values)
	return nil
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case map[string]*audio.Clip:
		return strings.Join(slices.Sorted(maps.Keys(v)), " ")
	default:
		return fmt.Sprint(v)
	}
}

func presetCommand(env *env, args []dub.Node) error {
	if len(args) == 0 {
		fmt.Fprintln(env.out, strings.Join(audio.Presets(), " "))
		return nil
	}
	var name string
	if err := readArgs(args, &name); err != nil {
		return err
	}
	return audio.LoadPreset(name, env.synth)
}

func loadCommand(env *env, args []dub.Node) error {
	var file string
	if err := readArgs(args, &file); err != nil {
		return err
	}
	p, err := patch.Load(file)
	if err != nil {
		return err
	}
	return p.Apply(env.synth)
}

func saveCommand(env *env, args []dub.Node) error {
	var file string
	if err := readArgs(args[:1], &file); err != nil {
		return err
	}
	name := ""
	if len(args) > 1 {
		if err := readArgs(args[1:], &name); err != nil {
			return err
		}
	}
	p, err := patch.FromDevice(name, env.synth, env.synth.Keys())
	if err != nil {
		return err
	}
	return p.Save(file)
}

func voicesCommand(env *env, args []dub.Node) error {
	var n int
	if err := readArgs(args, &n); err != nil {
		return err
	}
	return env.setProp("synth", audio.PropVoices, n)
}

func bpmCommand(env *env, args []dub.Node) error {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return err
	}
	return env.setProp("seq", audio.PropBPM, bpm)
}

// Loops are in 4/4 with the match expression selecting 16th notes.
const (
	loopDenominator = 4
	loopStepSize    = 16
	loopVelocity    = 100
)

func loopCommand(env *env, args []dub.Node) error {
	var name string
	var beats, note int
	var expr dub.MatchExpr
	if err := readArgs(args, &name, &beats, &note, &expr); err != nil {
		return err
	}
	if beats <= 0 {
		return fmt.Errorf("a loop needs at least one beat: %d", beats)
	}
	steps, err := dub.EvalMatchExpr(expr, beats, loopDenominator, loopStepSize)
	if err != nil {
		return err
	}
	stepLength := float64(loopDenominator) / loopStepSize
	clip := audio.NewClip(float64(beats), env.synth)
	for i, on := range steps {
		if on != 0 {
			clip.AddNote(float64(i)*stepLength, note, loopVelocity, stepLength)
		}
	}
	if err := updateClips(env, func(clips map[string]*audio.Clip) {
		clips[name] = clip
	}); err != nil {
		return err
	}
	fmt.Fprintf(env.out, "%s: %s %s over %d beats, %d notes\n", name, noteName(note), expr, beats, clip.Len())
	return nil
}

func stopCommand(env *env, args []dub.Node) error {
	if len(args) == 0 {
		return updateClips(env, func(clips map[string]*audio.Clip) {
			clear(clips)
		})
	}
	var name string
	if err := readArgs(args, &name); err != nil {
		return err
	}
	if _, ok := env.sequencer.Clips()[name]; !ok {
		return fmt.Errorf("no such loop: %s", name)
	}
	return updateClips(env, func(clips map[string]*audio.Clip) {
		delete(clips, name)
	})
}

// updateClips stores a modified copy of the clip map so the audio thread never
// sees a map that is being written.
func updateClips(env *env, f func(map[string]*audio.Clip)) error {
	clips := maps.Clone(env.sequencer.Clips())
	if clips == nil {
		clips = make(map[string]*audio.Clip)
	}
	f(clips)
	return env.setProp("seq", audio.PropClips, clips)
}

func statusCommand(env *env, args []dub.Node) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	status, err := env.synth.Status(ctx)
	if err != nil {
		return err
	}
	renderStatus(env.out, status)
	if dropped, lost := env.synth.Dropped(), env.synth.Lost(); dropped > 0 || lost > 0 {
		fmt.Fprintf(env.out, "%d sequenced notes dropped, %d events lost\n", dropped, lost)
	}
	return nil
}

func helpCommand(env *env, args []dub.Node) error {
	for _, cmd := range commands {
		fmt.Fprintf(env.out, "  %-8s %s\n", colorize(cmd.name, colorBlue), cmd.help)
	}
	return nil
}

func quitCommand(env *env, args []dub.Node) error {
	return errQuit
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			case dub.Note:
				*p = s.Name
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch f := arg.(type) {
			case dub.Float:
				*p = float64(f)
			case dub.Int:
				*p = float64(f)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			switch n := arg.(type) {
			case dub.Int:
				*p = int(n)
			case dub.Note:
				*p = n.Key
			default:
				return fmt.Errorf("argument error: expected an integer or a note name")
			}
		case *dub.MatchExpr:
			expr, ok := arg.(dub.MatchExpr)
			if !ok {
				return fmt.Errorf("argument error: expected a match expression")
			}
			*p = expr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
