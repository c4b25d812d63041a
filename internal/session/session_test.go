package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want Kind
	}{
		{"unset", nil, DirectCapture},
		{"x11", map[string]string{EnvVar: "x11"}, DirectCapture},
		{"tty", map[string]string{EnvVar: "tty"}, DirectCapture},
		{"wayland", map[string]string{EnvVar: "wayland"}, PortalMediated},
		{"upper case", map[string]string{EnvVar: "WAYLAND"}, PortalMediated},
		{"mixed case", map[string]string{EnvVar: "WayLand"}, PortalMediated},
		{"not exact", map[string]string{EnvVar: "wayland-ish"}, DirectCapture},
		{"other var only", map[string]string{"WAYLAND_DISPLAY": "wayland-0"}, DirectCapture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(env(tt.vars)))
		})
	}
}

func TestCurrent(t *testing.T) {
	t.Setenv(EnvVar, "wayland")
	assert.Equal(t, PortalMediated, Current())

	t.Setenv(EnvVar, "x11")
	assert.Equal(t, DirectCapture, Current())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "direct", DirectCapture.String())
	assert.Equal(t, "portal", PortalMediated.String())
	assert.Equal(t, "unknown", Kind(7).String())
}
