// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"full", LevelFull},
		{"", LevelFull},
		{"unknown", LevelFull},
		{"MINIMAL", LevelMinimal},
		{" min ", LevelMinimal},
		{"machine", LevelMachine},
		{"plain", LevelMachine},
		{"q", LevelMachine},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestDetectLevel_EnvOverrides(t *testing.T) {
	t.Setenv(EnvOutput, "minimal")
	assert.Equal(t, LevelMinimal, DetectLevel(nil))
}

func TestDetectLevel_NonTerminalIsMachine(t *testing.T) {
	t.Setenv(EnvOutput, "")
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
	assert.Equal(t, LevelMachine, DetectLevel(f))
}

func TestPrinter_MachineSplitsStreams(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, LevelMachine)

	p.Title("Leads")
	p.Success("saved")
	p.Warning("careful")
	p.Error("failed")
	p.Info("plain")

	assert.Equal(t, "OK: saved\nplain\n", out.String())
	assert.Equal(t, "WARN: careful\nERROR: failed\n", errOut.String())
}

func TestPrinter_MinimalUsesIcons(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, nil, LevelMinimal)

	p.Success("saved")
	p.Error("failed")

	assert.Equal(t, "✓ saved\n✗ failed\n", out.String())
}

func TestPrinter_TableMachine(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, nil, LevelMachine)

	p.Table([]string{"ID", "NAME"}, [][]string{{"1", "Ada"}, {"2", "Grace"}})

	assert.Equal(t, "ID\tNAME\n1\tAda\n2\tGrace\n", out.String())
}

func TestPrinter_TableAlignsColumns(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, nil, LevelMinimal)

	p.Table([]string{"ID", "NAME"}, [][]string{{"1", "Ada"}, {"22", "Grace"}})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  ID  NAME", lines[0])
	assert.Equal(t, "  1   Ada", lines[1])
	assert.Equal(t, "  22  Grace", lines[2])
}

func TestPrinter_TableEmpty(t *testing.T) {
	var out bytes.Buffer
	NewPrinter(&out, nil, LevelMinimal).Table([]string{"ID"}, nil)
	assert.Contains(t, out.String(), "(no records)")
}

func TestPrinter_KeyValues(t *testing.T) {
	var out bytes.Buffer
	NewPrinter(&out, nil, LevelMachine).KeyValues([][2]string{{"base", "http://x"}, {"online", "true"}})
	assert.Equal(t, "base\thttp://x\nonline\ttrue\n", out.String())

	out.Reset()
	NewPrinter(&out, nil, LevelMinimal).KeyValues([][2]string{{"a", "1"}, {"long", "2"}})
	assert.Equal(t, "  a     1\n  long  2\n", out.String())
}

func TestOfflineBanner(t *testing.T) {
	t.Run("silent when online", func(t *testing.T) {
		var out bytes.Buffer
		NewPrinter(&out, nil, LevelFull).OfflineBanner(Connectivity{BaseURL: "http://x", Reachable: true})
		assert.Empty(t, out.String())
	})

	t.Run("machine goes to stderr", func(t *testing.T) {
		var out, errOut bytes.Buffer
		NewPrinter(&out, &errOut, LevelMachine).OfflineBanner(Connectivity{
			BaseURL:       "http://crm.local/api/v1",
			UsingFallback: true,
		})
		assert.Empty(t, out.String())
		assert.Equal(t, "WARN: offline mode: http://crm.local/api/v1 unreachable, showing sample data\n", errOut.String())
	})

	t.Run("full renders box", func(t *testing.T) {
		var out bytes.Buffer
		NewPrinter(&out, nil, LevelFull).OfflineBanner(Connectivity{
			BaseURL:       "http://crm.local/api/v1",
			UsingFallback: true,
			LastFailure:   time.Date(2025, 1, 1, 9, 30, 0, 0, time.Local),
		})
		text := out.String()
		assert.Contains(t, text, "Offline mode")
		assert.Contains(t, text, "since 9:30AM")
	})
}

func TestSourceTag(t *testing.T) {
	assert.Equal(t, "", SourceTag("backend"))
	assert.Equal(t, "sample data", SourceTag("fallback"))
	assert.Equal(t, "simulated", SourceTag("simulated"))
}
