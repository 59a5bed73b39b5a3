package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/mrdg/polyfm/audio"
)

func renderStatus(w io.Writer, voices []audio.VoiceStatus) {
	fmt.Fprintf(w, "%s\n", colorize(" #  state     level  age  note  ops", colorMagenta))
	for i, v := range voices {
		state := fmt.Sprintf("%-9s", v.State)
		switch v.State {
		case audio.EnvelopeOff:
			state = colorize(state, colorBlack)
		case audio.EnvelopeShutdown:
			state = colorize(state, colorRed)
		case audio.EnvelopeRelease:
			state = colorize(state, colorYellow)
		default:
			state = colorize(state, colorGreen)
		}

		note := noteName(v.Note)
		if v.Stealing {
			note += "→" + noteName(v.Pending)
		}

		var levels []string
		for _, l := range v.Levels {
			levels = append(levels, levelBar(l))
		}
		fmt.Fprintf(w, "%2d  %s %5.2f  %3d  %-4s  %s\n", i+1, state, v.Level, v.Age, note, strings.Join(levels, " "))
	}
}

func renderProps(w io.Writer, values map[string]interface{}) {
	keys := make([]string, 0, len(values))
	var maxLen int
	for k := range values {
		keys = append(keys, k)
		maxLen = max(maxLen, len(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := colorize(k+strings.Repeat(" ", maxLen-len(k)), colorBlue)
		fmt.Fprintf(w, "%s  %s\n", name, formatValue(values[k]))
	}
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName formats a midi note, with C4 being note 60.
func noteName(note int) string {
	if note < 0 {
		return "-"
	}
	return noteNames[note%12] + strconv.Itoa(note/12-1)
}

func levelBar(level float64) string {
	bars := []rune(" ▁▂▃▄▅▆▇█")
	i := int(level * float64(len(bars)-1))
	return string(bars[min(max(i, 0), len(bars)-1)])
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
