// Package config loads refwalk configuration: compiled-in defaults,
// overlaid by an optional TOML file, overlaid by REFWALK_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/refwalk/internal/input/key"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "REFWALK_"

// Errors returned by configuration loading and validation.
var (
	ErrInvalidKeySpec  = errors.New("invalid key specification")
	ErrDuplicateKey    = errors.New("duplicate control key")
	ErrInvalidValue    = errors.New("invalid configuration value")
	ErrMissingCommand  = errors.New("reference command must not be empty")
	ErrUnparseableFile = errors.New("cannot parse config file")
)

// Config is the complete refwalk configuration.
type Config struct {
	Keys    Keys    `toml:"keys"`
	Session Session `toml:"session"`
	Editor  Editor  `toml:"editor"`
	Hooks   Hooks   `toml:"hooks"`
	Logging Logging `toml:"logging"`
}

// Keys holds the key specs for the control keys. Each is a single
// discrete key in the format accepted by the key package.
type Keys struct {
	Previous  string `toml:"previous"`  // step to the previous label
	Next      string `toml:"next"`      // step to the next label
	Goto      string `toml:"goto"`      // jump to the label instead of inserting
	Reference string `toml:"reference"` // start a reference session in the editor
	JumpBack  string `toml:"jump_back"` // pop the position history
}

// Session holds the options that shape the reference session.
type Session struct {
	ShowContext              bool     `toml:"show_context"`
	OnlyIdentifierInArgument bool     `toml:"only_identifier_in_argument"`
	RefCommand               string   `toml:"ref_command"`
	RefCommands              []string `toml:"ref_commands"` // recognized by the in-argument check
}

// Editor holds display options for the host editor.
type Editor struct {
	WrapWidth int `toml:"wrap_width"` // 0 disables soft wrapping
	TabWidth  int `toml:"tab_width"`
}

// Hooks points at the optional Lua hook script.
type Hooks struct {
	Script string `toml:"script"`
}

// Logging configures the log sink.
type Logging struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Keys: Keys{
			Previous:  "<C-p>",
			Next:      "<C-n>",
			Goto:      "<CR>",
			Reference: "<C-r>",
			JumpBack:  "<C-o>",
		},
		Session: Session{
			ShowContext:              true,
			OnlyIdentifierInArgument: true,
			RefCommand:               "ref",
		},
		Editor: Editor{
			TabWidth: 4,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path,
// and environment overrides, then validates it. A missing file is not
// an error; an unreadable or unparseable one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults apply
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("%w: %s: %v", ErrUnparseableFile, path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// envOverrides maps environment variable suffixes to setters.
var envOverrides = map[string]func(*Config, string){
	"KEY_PREVIOUS":  func(c *Config, v string) { c.Keys.Previous = v },
	"KEY_NEXT":      func(c *Config, v string) { c.Keys.Next = v },
	"KEY_GOTO":      func(c *Config, v string) { c.Keys.Goto = v },
	"KEY_REFERENCE": func(c *Config, v string) { c.Keys.Reference = v },
	"KEY_JUMP_BACK": func(c *Config, v string) { c.Keys.JumpBack = v },
	"SHOW_CONTEXT": func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Session.ShowContext = b
		}
	},
	"ONLY_IDENTIFIER": func(c *Config, v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Session.OnlyIdentifierInArgument = b
		}
	},
	"REF_COMMAND": func(c *Config, v string) { c.Session.RefCommand = v },
	"WRAP_WIDTH": func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Editor.WrapWidth = n
		}
	},
	"HOOK_SCRIPT": func(c *Config, v string) { c.Hooks.Script = v },
	"LOG_LEVEL":   func(c *Config, v string) { c.Logging.Level = v },
	"LOG_FILE":    func(c *Config, v string) { c.Logging.File = v },
}

// applyEnv overlays REFWALK_* environment variables onto the config.
// Malformed boolean or numeric values are ignored.
func applyEnv(cfg *Config) {
	for suffix, apply := range envOverrides {
		if v, ok := os.LookupEnv(EnvPrefix + suffix); ok {
			apply(cfg, v)
		}
	}
}

// Validate checks key specs and value ranges.
func (c Config) Validate() error {
	specs := map[string]string{
		"keys.previous":  c.Keys.Previous,
		"keys.next":      c.Keys.Next,
		"keys.goto":      c.Keys.Goto,
		"keys.reference": c.Keys.Reference,
		"keys.jump_back": c.Keys.JumpBack,
	}

	seen := make(map[string]string, len(specs))
	for name, spec := range specs {
		ev, err := key.Parse(spec)
		if err != nil {
			return fmt.Errorf("%w: %s = %q: %v", ErrInvalidKeySpec, name, spec, err)
		}
		canonical := ev.Spec()
		if other, dup := seen[canonical]; dup {
			return fmt.Errorf("%w: %s and %s are both %q", ErrDuplicateKey, other, name, canonical)
		}
		seen[canonical] = name
	}

	if c.Session.RefCommand == "" {
		return ErrMissingCommand
	}
	if c.Editor.WrapWidth < 0 {
		return fmt.Errorf("%w: editor.wrap_width must not be negative", ErrInvalidValue)
	}
	if c.Editor.TabWidth <= 0 {
		return fmt.Errorf("%w: editor.tab_width must be positive", ErrInvalidValue)
	}
	return nil
}

// ControlKeys parses the validated key specs into events.
// Call only after Validate has succeeded.
func (c Config) ControlKeys() (prev, next, gotoKey, reference, jumpBack key.Event) {
	return key.MustParse(c.Keys.Previous),
		key.MustParse(c.Keys.Next),
		key.MustParse(c.Keys.Goto),
		key.MustParse(c.Keys.Reference),
		key.MustParse(c.Keys.JumpBack)
}
