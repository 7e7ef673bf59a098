package ui

import (
	"strings"

	"github.com/common-nighthawk/go-figure"
)

// createLogo renders the regsync banner in the slant figlet font.
func createLogo() string {
	banner := figure.NewFigure("regsync", "slant", true).String()
	lines := strings.Split(banner, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, strings.TrimRight(line, " "))
	}
	if len(out) == 0 {
		return "REGSYNC"
	}
	return strings.Join(out, "\n")
}
