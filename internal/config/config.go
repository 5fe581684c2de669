// Package config loads optional settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrUnknownKeys is returned when the file contains keys that map to no setting.
var ErrUnknownKeys = errors.New("unknown configuration keys")

// File mirrors the command-line flags. Pointer fields distinguish "unset"
// from a zero value so that only present keys override defaults.
type File struct {
	Root          string   `toml:"root"`
	Suffix        string   `toml:"suffix"`
	Output        string   `toml:"output"`
	Format        string   `toml:"format"`
	XScale        string   `toml:"x_scale"`
	Bins          *int     `toml:"bins"`
	Width         string   `toml:"width"`
	Height        string   `toml:"height"`
	Title         string   `toml:"title"`
	Depth         *int     `toml:"depth"`
	Excludes      []string `toml:"exclude"`
	Follow        *bool    `toml:"follow"`
	MinSize       string   `toml:"min_size"`
	Summary       *bool    `toml:"summary"`
	SummaryFormat string   `toml:"summary_format"`
	LogLevel      string   `toml:"log_level"`
}

// Load decodes the TOML file at path. Unknown keys are rejected.
func Load(path string) (*File, error) {
	var file File

	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}

		return nil, fmt.Errorf("config %q: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}

	return &file, nil
}
