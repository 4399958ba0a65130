// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// Tests here reconfigure the global logger; none of them run in parallel.

func TestDefaultConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		if cfg.Level != "info" {
			t.Errorf("Level = %q, want info", cfg.Level)
		}
		if cfg.Format != "json" {
			t.Errorf("Format = %q, want json", cfg.Format)
		}
	})

	t.Run("honors LOG_LEVEL and LOG_FORMAT", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "console")

		cfg := DefaultConfig()
		if cfg.Level != "debug" {
			t.Errorf("Level = %q, want debug", cfg.Level)
		}
		if cfg.Format != "console" {
			t.Errorf("Format = %q, want console", cfg.Format)
		}
	})
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	Info().Str("key", "value").Msg("hello")

	output := buf.String()
	if !strings.Contains(output, `"message":"hello"`) {
		t.Errorf("output missing JSON message: %s", output)
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Errorf("output missing field: %s", output)
	}
}

func TestInit_ConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})

	Info().Msg("console hello")

	output := buf.String()
	if !strings.Contains(output, "console hello") {
		t.Errorf("output missing message: %s", output)
	}
	if strings.Contains(output, `"message"`) {
		t.Errorf("console output should not be JSON: %s", output)
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})

	Info().Msg("should be filtered")
	Warn().Msg("should appear")

	output := buf.String()
	if strings.Contains(output, "should be filtered") {
		t.Errorf("info message not filtered at warn level: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("warn message missing: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWith_ChildLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	child := With().Str("component", "modelcache").Logger()
	child.Info().Msg("from child")

	output := buf.String()
	if !strings.Contains(output, `"component":"modelcache"`) {
		t.Errorf("child logger missing component field: %s", output)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	SetLogger(zerolog.New(&buf))

	l := Logger()
	l.Info().Msg("via replaced logger")

	if !strings.Contains(buf.String(), "via replaced logger") {
		t.Errorf("replaced logger not used: %s", buf.String())
	}
}
