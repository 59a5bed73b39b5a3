package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"init": preset{
		"env.attack":   10.,
		"env.decay":    50.,
		"env.sustain":  0.4,
		"env.release":  100.,
		"op1.ratio":    1.,
		"op1.index":    0.,
		"op1.mix":      1.,
		"op1.feedback": false,
		"op2.mix":      0.,
		"op3.mix":      0.,
		"op4.mix":      0.,
	},
	"e-piano": preset{
		"env.attack":   2.,
		"env.decay":    900.,
		"env.sustain":  0.,
		"env.release":  300.,
		"op1.ratio":    14.,
		"op1.index":    0.,
		"op1.mix":      0.,
		"op1.feedback": false,
		"op2.ratio":    1.,
		"op2.index":    0.35,
		"op2.mix":      1.,
		"op3.mix":      0.,
		"op4.mix":      0.,
	},
	"lame-bass": preset{
		"level":        3.,
		"env.attack":   1.,
		"env.decay":    200.,
		"env.sustain":  0.,
		"env.release":  40.,
		"op1.ratio":    1.,
		"op1.index":    0.6,
		"op1.mix":      0.,
		"op1.feedback": true,
		"op2.ratio":    0.5,
		"op2.index":    0.8,
		"op2.mix":      1.,
		"op3.mix":      0.,
		"op4.mix":      0.,
	},
	"bell": preset{
		"env.attack":   1.,
		"env.decay":    2000.,
		"env.sustain":  0.,
		"env.release":  1500.,
		"op1.ratio":    3.5,
		"op1.index":    0.,
		"op1.mix":      0.,
		"op1.feedback": false,
		"op2.ratio":    1.,
		"op2.index":    0.5,
		"op2.mix":      0.8,
		"op3.ratio":    7.,
		"op3.index":    0.6,
		"op3.mix":      0.,
		"op4.ratio":    2.,
		"op4.index":    0.4,
		"op4.mix":      0.3,
	},
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Presets returns the names of the built-in presets.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
