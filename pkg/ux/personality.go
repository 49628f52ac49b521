// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// EnvOutput selects the output level, overriding terminal detection.
const EnvOutput = "CRM_OUTPUT"

// Level defines the richness of CLI output.
type Level string

const (
	// LevelFull enables colors, icons, boxes and the connectivity banner.
	LevelFull Level = "full"

	// LevelMinimal uses icons and plain text.
	LevelMinimal Level = "minimal"

	// LevelMachine outputs tab-separated plain text for scripts.
	LevelMachine Level = "machine"
)

// ParseLevel converts a string to a Level. Unknown values give LevelFull.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal", "min", "m":
		return LevelMinimal
	case "machine", "quiet", "q", "plain":
		return LevelMachine
	default:
		return LevelFull
	}
}

// DetectLevel picks the level from CRM_OUTPUT, falling back to LevelFull on
// a terminal and LevelMachine otherwise.
func DetectLevel(f *os.File) Level {
	if env := os.Getenv(EnvOutput); env != "" {
		return ParseLevel(env)
	}
	if IsTerminal(f) {
		return LevelFull
	}
	return LevelMachine
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
