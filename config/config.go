// Package config loads the editor settings.
//
// Settings are read from TOML or YAML, chosen by file extension, on top of
// the defaults returned by Default. Missing keys keep their default value.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"gopkg.in/yaml.v3"
)

// DefaultLocation is where the CLI looks for a config file when none is
// given.
const DefaultLocation = "./sigplace.toml"

// Output formats.
const (
	FormatJSON = "json"
	FormatLog  = "log"
	FormatPDF  = "pdf"
)

// Config is the root of the config.
type Config struct {
	Document DocumentConfig `toml:"document" yaml:"document"`
	Viewer   ViewerConfig   `toml:"viewer" yaml:"viewer"`
	Pad      PadConfig      `toml:"pad" yaml:"pad"`
	Output   OutputConfig   `toml:"output" yaml:"output"`
}

// DocumentConfig selects the document to annotate.
type DocumentConfig struct {
	// Path of the PDF. Empty uses the bundled sample document.
	Path string `toml:"path" yaml:"path" valid:"optional"`
	// SamplePages is the page count of the bundled sample.
	SamplePages int `toml:"sample_pages" yaml:"sample_pages" valid:"range(1|500)"`
}

// ViewerConfig controls page layout.
type ViewerConfig struct {
	ContainerWidth float64 `toml:"container_width" yaml:"container_width" valid:"range(0|20000)"`
	SignatureWidth int     `toml:"signature_width" yaml:"signature_width" valid:"range(1|5000)"`
	// Bounded keeps dragged signatures inside the page.
	Bounded bool `toml:"bounded" yaml:"bounded"`
}

// PadConfig configures the built-in drawing pad.
type PadConfig struct {
	Width     int     `toml:"width" yaml:"width" valid:"range(1|8000)"`
	Height    int     `toml:"height" yaml:"height" valid:"range(1|8000)"`
	PenWidth  float64 `toml:"pen_width" yaml:"pen_width" valid:"range(0|100)"`
	Ink       string  `toml:"ink" yaml:"ink" valid:"hexcolor"`
	Signature string  `toml:"signature" yaml:"signature" valid:"optional"`
}

// OutputConfig selects the export consumer.
type OutputConfig struct {
	Format string `toml:"format" yaml:"format" valid:"in(json|log|pdf)"`
	Path   string `toml:"path" yaml:"path" valid:"optional"`
	Author string `toml:"author" yaml:"author" valid:"optional"`
}

// ConfigError reports an invalid or unreadable configuration.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Default returns the settings of the demo editor.
func Default() Config {
	return Config{
		Document: DocumentConfig{SamplePages: 5},
		Viewer:   ViewerConfig{SignatureWidth: 200, Bounded: true},
		Pad:      PadConfig{Width: 400, Height: 192, PenWidth: 2.5, Ink: "#333399"},
		Output:   OutputConfig{Format: FormatLog},
	}
}

// Read loads a config file on top of the defaults and validates it.
func Read(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Message: "config file is missing", Err: err}
	}

	c := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml", ".conf":
		if _, err := toml.Decode(string(data), &c); err != nil {
			return Config{}, &ConfigError{Message: "failed to parse TOML", Err: err}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, &ConfigError{Message: "failed to parse YAML", Err: err}
		}
	default:
		return Config{}, &ConfigError{Message: fmt.Sprintf("unsupported config format %q", ext)}
	}

	if err := c.ValidateFields(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ValidateFields validates all the fields of the config.
func (c Config) ValidateFields() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		for {
			errs, ok := err.(govalidator.Errors)
			if !ok || len(errs) == 0 {
				break
			}
			err = errs[0]
		}
		field := ""
		if fe, ok := err.(govalidator.Error); ok {
			field = strings.Join(append(fe.Path, fe.Name), ".")
		}
		return &ConfigError{Field: field, Message: "invalid value", Err: err}
	}
	if c.Output.Format == FormatPDF && c.Output.Path == "" {
		return &ConfigError{Field: "output.path", Message: "required for pdf output"}
	}
	return nil
}

// InkColor parses the pad ink colour.
func (c PadConfig) InkColor() (color.RGBA, error) {
	s := strings.TrimPrefix(c.Ink, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{}, &ConfigError{Field: "pad.ink", Message: fmt.Sprintf("invalid colour %q", c.Ink), Err: err}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
