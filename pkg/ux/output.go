// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux renders CRM CLI output: status lines, record tables, and the
// offline banner shown while the client serves fallback data.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	ColorBrand   = lipgloss.Color("#2E86DE")
	ColorAccent  = lipgloss.Color("#54A0FF")
	ColorBorder  = lipgloss.Color("#576574")
	ColorSuccess = lipgloss.Color("#10AC84")
	ColorWarning = lipgloss.Color("#FECA57")
	ColorError   = lipgloss.Color("#EE5253")
	ColorMuted   = lipgloss.Color("#8395A7")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Header  lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorBrand),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Header:  lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
)

// Render returns the icon with its color.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return Styles.Muted.Render(string(i))
	}
}

// Printer writes styled output at a fixed level.
//
// # Thread Safety
//
// Not safe for concurrent use; CLI commands print from one goroutine.
type Printer struct {
	out   io.Writer
	err   io.Writer
	level Level
}

// NewPrinter creates a Printer. errOut receives warnings and errors in
// machine mode so stdout stays parseable.
func NewPrinter(out, errOut io.Writer, level Level) *Printer {
	if errOut == nil {
		errOut = out
	}
	return &Printer{out: out, err: errOut, level: level}
}

// Level returns the output level.
func (p *Printer) Level() Level { return p.level }

// Writer returns the standard output writer.
func (p *Printer) Writer() io.Writer { return p.out }

// Title prints a heading. Machine mode omits it.
func (p *Printer) Title(text string) {
	if p.level == LevelMachine {
		return
	}
	fmt.Fprintln(p.out, Styles.Title.Render(text))
}

// Success prints a success line.
func (p *Printer) Success(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.out, "OK: %s\n", text)
	case LevelMinimal:
		fmt.Fprintf(p.out, "%s %s\n", IconSuccess, text)
	default:
		fmt.Fprintf(p.out, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning line.
func (p *Printer) Warning(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.err, "WARN: %s\n", text)
	case LevelMinimal:
		fmt.Fprintf(p.out, "%s %s\n", IconWarning, text)
	default:
		fmt.Fprintf(p.out, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error line.
func (p *Printer) Error(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.err, "ERROR: %s\n", text)
	case LevelMinimal:
		fmt.Fprintf(p.out, "%s %s\n", IconError, text)
	default:
		fmt.Fprintf(p.out, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints a plain informational line.
func (p *Printer) Info(text string) {
	if p.level == LevelMachine {
		fmt.Fprintln(p.out, text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", Styles.Muted.Render("│"), text)
}

// KeyValues prints aligned label/value pairs.
func (p *Printer) KeyValues(pairs [][2]string) {
	width := 0
	for _, kv := range pairs {
		width = max(width, len(kv[0]))
	}
	for _, kv := range pairs {
		if p.level == LevelMachine {
			fmt.Fprintf(p.out, "%s\t%s\n", kv[0], kv[1])
			continue
		}
		label := fmt.Sprintf("%-*s", width, kv[0])
		if p.level == LevelFull {
			label = Styles.Bold.Render(label)
		}
		fmt.Fprintf(p.out, "  %s  %s\n", label, kv[1])
	}
}

// Table prints rows under headers. Machine mode prints tab-separated
// values with the header row first.
func (p *Printer) Table(headers []string, rows [][]string) {
	if p.level == LevelMachine {
		fmt.Fprintln(p.out, strings.Join(headers, "\t"))
		for _, row := range rows {
			fmt.Fprintln(p.out, strings.Join(row, "\t"))
		}
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], len([]rune(row[i])))
		}
	}

	p.tableRow(headers, widths, true)
	for _, row := range rows {
		p.tableRow(row, widths, false)
	}
	if len(rows) == 0 {
		fmt.Fprintln(p.out, Styles.Muted.Render("  (no records)"))
	}
}

func (p *Printer) tableRow(cells []string, widths []int, header bool) {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		padded := cell + strings.Repeat(" ", widths[i]-len([]rune(cell)))
		if header && p.level == LevelFull {
			padded = Styles.Header.Render(padded)
		}
		parts[i] = padded
	}
	fmt.Fprintln(p.out, "  "+strings.TrimRight(strings.Join(parts, "  "), " "))
}

// Box prints content in a rounded box, or "title: content" in machine mode.
func (p *Printer) Box(title, content string) {
	if p.level != LevelFull {
		fmt.Fprintf(p.out, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.out, Styles.Box.Width(64).Render(Styles.Title.Render(title)+"\n"+content))
}
