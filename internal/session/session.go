// Package session classifies the running desktop session so the capture
// layer knows whether it may read the screen directly or has to go through
// the desktop portal.
package session

import (
	"os"
	"strings"
)

// EnvVar names the variable set by the login manager for the session type.
const EnvVar = "XDG_SESSION_TYPE"

// Kind describes how the screen can be acquired.
type Kind int

const (
	// DirectCapture sessions (X11) allow any client to read the root window.
	DirectCapture Kind = iota
	// PortalMediated sessions (Wayland) require the screenshot portal.
	PortalMediated
)

func (k Kind) String() string {
	switch k {
	case DirectCapture:
		return "direct"
	case PortalMediated:
		return "portal"
	default:
		return "unknown"
	}
}

// Detect classifies the session using getenv. Only a case-insensitive
// "wayland" selects PortalMediated; anything else, including an unset
// variable, is DirectCapture.
func Detect(getenv func(string) string) Kind {
	if strings.EqualFold(getenv(EnvVar), "wayland") {
		return PortalMediated
	}
	return DirectCapture
}

// Current classifies the session of this process.
func Current() Kind {
	return Detect(os.Getenv)
}
