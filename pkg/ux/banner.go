// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"time"
)

// Connectivity is what the banner needs to know about the backend.
type Connectivity struct {
	BaseURL       string
	Reachable     bool
	UsingFallback bool
	LastFailure   time.Time
}

// OfflineBanner prints the offline notice while fallback data is in use.
// Nothing is printed when the client is online.
func (p *Printer) OfflineBanner(c Connectivity) {
	if !c.UsingFallback {
		return
	}

	since := ""
	if !c.LastFailure.IsZero() {
		since = " since " + c.LastFailure.Local().Format(time.Kitchen)
	}

	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.err, "WARN: offline mode%s: %s unreachable, showing sample data\n", since, c.BaseURL)
	case LevelMinimal:
		fmt.Fprintf(p.out, "%s Offline%s. Showing sample data; changes are not saved.\n", IconWarning, since)
	default:
		body := fmt.Sprintf("%s is unreachable%s.\nShowing sample data. Changes you make are simulated and not saved.",
			c.BaseURL, since)
		fmt.Fprintln(p.out, Styles.WarningBox.Width(64).Render(
			Styles.Warning.Bold(true).Render(string(IconWarning)+" Offline mode")+"\n"+body))
	}
}

// SourceTag labels where a result came from: "" for the backend,
// "sample data" or "simulated" otherwise.
func SourceTag(source string) string {
	switch source {
	case "fallback":
		return "sample data"
	case "simulated":
		return "simulated"
	default:
		return ""
	}
}
