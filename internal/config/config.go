// Package config loads the optional YAML configuration file
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/dyuri/cave3d/internal/binary"
	"github.com/dyuri/cave3d/internal/geometry"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"gopkg.in/yaml.v3"
)

// GeometryConfig controls bundle construction
type GeometryConfig struct {
	TargetExtent  float64 `yaml:"target_extent"`
	HueDirection  string  `yaml:"hue_direction"` // "deep_blue" or "deep_red"
	CrossSections *bool   `yaml:"cross_sections"`
}

// DecodeConfig controls the binary decoder
type DecodeConfig struct {
	Charset string `yaml:"charset"` // "latin1", "utf8", "windows1252", "windows1250"
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// Config is the top-level structure of cave3d.yaml
type Config struct {
	Geometry GeometryConfig `yaml:"geometry"`
	Decode   DecodeConfig   `yaml:"decode"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	on := true
	return &Config{
		Geometry: GeometryConfig{
			TargetExtent:  geometry.DefaultTargetExtent,
			HueDirection:  geometry.DeepBlue.String(),
			CrossSections: &on,
		},
		Decode: DecodeConfig{Charset: "latin1"},
		Log:    LogConfig{Level: "warn"},
		Server: ServerConfig{Addr: ":8080", MaxBodyBytes: 64 << 20},
	}
}

// Load reads and parses a config file. Fields missing from the file keep
// their defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.fill()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// fill restores defaults for values an explicit empty key cleared
func (c *Config) fill() {
	d := Default()
	if c.Geometry.TargetExtent == 0 {
		c.Geometry.TargetExtent = d.Geometry.TargetExtent
	}
	if c.Geometry.HueDirection == "" {
		c.Geometry.HueDirection = d.Geometry.HueDirection
	}
	if c.Geometry.CrossSections == nil {
		c.Geometry.CrossSections = d.Geometry.CrossSections
	}
	if c.Decode.Charset == "" {
		c.Decode.Charset = d.Decode.Charset
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}
}

// Validate checks that every enumerated value is known
func (c *Config) Validate() error {
	if c.Geometry.TargetExtent < 0 {
		return fmt.Errorf("geometry.target_extent must not be negative, got %g", c.Geometry.TargetExtent)
	}
	if _, err := geometry.ParseHueDirection(c.Geometry.HueDirection); err != nil {
		return fmt.Errorf("geometry.hue_direction: %w", err)
	}
	if _, err := binary.Charset(c.Decode.Charset); err != nil {
		return fmt.Errorf("decode.charset: %w", err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// GeometryOptions converts the geometry section to builder options
func (c *Config) GeometryOptions() (geometry.Options, error) {
	dir, err := geometry.ParseHueDirection(c.Geometry.HueDirection)
	if err != nil {
		return geometry.Options{}, err
	}
	return geometry.Options{
		TargetExtent:      c.Geometry.TargetExtent,
		HueDirection:      dir,
		SkipCrossSections: c.Geometry.CrossSections != nil && !*c.Geometry.CrossSections,
	}, nil
}

// Charset returns the label encoding, nil for UTF-8
func (c *Config) Charset() (encoding.Encoding, error) {
	return binary.Charset(c.Decode.Charset)
}

// Logger builds a logger writing to w at the configured level
func (c *Config) Logger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	return l, nil
}
