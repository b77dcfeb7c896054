package version

import (
	"runtime/debug"
)

var version = "dev"

// Version returns the current version string
func Version() string {
	protoVersion := ProtocolVersion()
	if protoVersion != "" {
		return version + " (lsp " + protoVersion + ")"
	}
	return version
}

// RawVersion returns the bare version string without decoration.
func RawVersion() string {
	return version
}

// ProtocolVersion returns the linked go.lsp.dev/protocol version from build info.
func ProtocolVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range info.Deps {
		if dep.Path == "go.lsp.dev/protocol" {
			return dep.Version
		}
	}
	return ""
}

// Info holds version details for JSON output.
type Info struct {
	Version  string `json:"version"`
	Protocol string `json:"protocol,omitempty"`
}

// GetInfo returns structured version information.
func GetInfo() Info {
	return Info{
		Version:  RawVersion(),
		Protocol: ProtocolVersion(),
	}
}
