package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dyuri/cave3d/internal/geometry"
	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cave3d.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Geometry.TargetExtent != geometry.DefaultTargetExtent {
		t.Errorf("TargetExtent = %g, want %g", cfg.Geometry.TargetExtent, geometry.DefaultTargetExtent)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Server.Addr, ":8080")
	}
}

func TestLoadPartial(t *testing.T) {
	path := writeConfig(t, `
geometry:
  hue_direction: deep_red
  cross_sections: false
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	opts, err := cfg.GeometryOptions()
	if err != nil {
		t.Fatalf("GeometryOptions failed: %v", err)
	}
	if opts.HueDirection != geometry.DeepRed {
		t.Errorf("HueDirection = %v, want deep_red", opts.HueDirection)
	}
	if !opts.SkipCrossSections {
		t.Error("SkipCrossSections = false, want true")
	}
	if opts.TargetExtent != geometry.DefaultTargetExtent {
		t.Errorf("TargetExtent = %g, want default", opts.TargetExtent)
	}
	if cfg.Decode.Charset != "latin1" {
		t.Errorf("Charset = %q, want latin1", cfg.Decode.Charset)
	}

	var buf bytes.Buffer
	l, err := cfg.Logger(&buf)
	if err != nil {
		t.Fatalf("Logger failed: %v", err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("Level = %v, want debug", l.GetLevel())
	}
}

func TestLoadUTF8Charset(t *testing.T) {
	path := writeConfig(t, "decode:\n  charset: utf8\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	enc, err := cfg.Charset()
	if err != nil {
		t.Fatalf("Charset failed: %v", err)
	}
	if enc != nil {
		t.Errorf("Charset = %v, want nil for UTF-8", enc)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "geometry: [\n"},
		{"bad hue", "geometry:\n  hue_direction: sideways\n"},
		{"bad charset", "decode:\n  charset: ebcdic\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"negative extent", "geometry:\n  target_extent: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load succeeded, want error")
	}
}
