// Package patch reads and writes synth settings as JSON files.
//
// A patch names an optional built-in preset and a set of property values
// that are applied on top of it:
//
//	{
//	  "format": "1.0.0",
//	  "name": "glass",
//	  "preset": "bell",
//	  "params": {"op2.index": 0.8, "env.release": 900}
//	}
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/mrdg/polyfm/audio"
)

// FormatVersion is written to new patches.
const FormatVersion = "1.0.0"

// ErrFormat is returned for patches with a missing or incompatible format.
var ErrFormat = errors.New("unsupported patch format")

var supportedFormat = mustConstraint("^1")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

type Patch struct {
	Format string                 `json:"format"`
	Name   string                 `json:"name,omitempty"`
	Preset string                 `json:"preset,omitempty"`
	Params map[string]interface{} `json:"params"`
}

// Parse decodes a patch and checks its format version.
func Parse(data []byte) (*Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	if p.Format == "" {
		return nil, fmt.Errorf("%w: no format version", ErrFormat)
	}
	v, err := semver.NewVersion(p.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, p.Format, err)
	}
	if !supportedFormat.Check(v) {
		return nil, fmt.Errorf("%w: %s, want %s", ErrFormat, p.Format, supportedFormat)
	}
	return &p, nil
}

func Load(path string) (*Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Apply loads the preset, if any, and then sets every parameter in key
// order. It stops at the first property the device rejects.
func (p *Patch) Apply(d audio.Device) error {
	if p.Preset != "" {
		if err := audio.LoadPreset(p.Preset, d); err != nil {
			return err
		}
	}
	keys := make([]string, 0, len(p.Params))
	for k := range p.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := d.Set(k, p.Params[k]); err != nil {
			return err
		}
	}
	return nil
}

// FromDevice captures the current values of keys.
func FromDevice(name string, d audio.Device, keys []string) (*Patch, error) {
	p := &Patch{
		Format: FormatVersion,
		Name:   name,
		Params: make(map[string]interface{}, len(keys)),
	}
	for _, k := range keys {
		v, err := d.Get(k)
		if err != nil {
			return nil, err
		}
		p.Params[k] = v
	}
	return p, nil
}

func (p *Patch) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
