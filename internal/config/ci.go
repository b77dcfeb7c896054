package config

import (
	"github.com/gkampitakis/ciinfo"
	"github.com/muesli/termenv"
)

// ColorEnabled returns whether CLI output should be styled based on the mode.
// "on" → true, "off" → false, "auto" → enabled on color-capable terminals
// outside CI.
func ColorEnabled(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default: // "auto"
		return !ciinfo.IsCI && termenv.EnvColorProfile() != termenv.Ascii
	}
}

// CIName returns the detected CI provider name, or empty string if not in CI.
func CIName() string {
	if !ciinfo.IsCI {
		return ""
	}
	return ciinfo.Name
}
