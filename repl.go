package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/polyfm/audio"
	"github.com/mrdg/polyfm/dub"
	"golang.org/x/term"
)

type env struct {
	synth     *audio.Synth
	sequencer *audio.Sequencer
	devices   map[string]audio.Device
	out       io.Writer
}

func newEnv(synth *audio.Synth, seq *audio.Sequencer, out io.Writer) *env {
	return &env{
		synth:     synth,
		sequencer: seq,
		devices: map[string]audio.Device{
			"synth": synth,
			"seq":   seq,
		},
		out: out,
	}
}

func (e *env) setProp(device, prop string, v interface{}) error {
	instr, ok := e.devices[device]
	if !ok {
		return fmt.Errorf("unknown device: %s", device)
	}
	return instr.Set(prop, v)
}

func (e *env) getProp(device, prop string) (interface{}, error) {
	instr, ok := e.devices[device]
	if !ok {
		return nil, fmt.Errorf("unknown device: %s", device)
	}
	return instr.Get(prop)
}

// eval runs the commands of a line in order and stops at the first error.
func (e *env) eval(input string) error {
	cmds, err := dub.ParseLine(input)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		if err := e.run(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (e *env) run(command dub.Command) error {
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if n := len(command.Args); n < cmd.arity || n > cmd.arity+cmd.optional {
			if cmd.optional == 0 {
				return fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
					cmd.name, cmd.arity, n)
			}
			return fmt.Errorf("%s: wrong number of arguments: want %v to %v, got %v",
				cmd.name, cmd.arity, cmd.arity+cmd.optional, n)
		}
		if err := cmd.run(e, command.Args); err != nil {
			return fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return nil
	}
	return fmt.Errorf("unknown command: %s", name)
}

// runScript evaluates every non-empty line of r. Lines starting with # are
// comments.
func (e *env) runScript(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := e.eval(line); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

var errQuit = errors.New("quit")

// repl reads commands until EOF or ctx is done. A terminal gets line editing
// and completion; anything else is read line by line.
func repl(ctx context.Context, env *env, in *os.File) error {
	if !term.IsTerminal(int(in.Fd())) {
		err := env.runScript(in)
		if errors.Is(err, errQuit) {
			return nil
		}
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile(),
		AutoComplete:    env.completer(),
		InterruptPrompt: "^C",
		Stdin:           in,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err == io.EOF || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if err := env.eval(line); errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintln(env.out, err)
		}
	}
}

func (e *env) completer() *readline.PrefixCompleter {
	props := func(device string) func(string) []string {
		return func(string) []string {
			if p, ok := e.devices[device].(interface{ Keys() []string }); ok {
				return p.Keys()
			}
			return nil
		}
	}
	presets := func(string) []string { return audio.Presets() }
	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		switch cmd.name {
		case "set", "get":
			items = append(items, readline.PcItem(cmd.name,
				readline.PcItem("synth", readline.PcItemDynamic(props("synth"))),
				readline.PcItem("seq", readline.PcItemDynamic(props("seq"))),
			))
		case "preset":
			items = append(items, readline.PcItem(cmd.name, readline.PcItemDynamic(presets)))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "polyfm_history")
}
