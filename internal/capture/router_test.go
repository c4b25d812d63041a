package capture

import (
	"bytes"
	"image"
	"os"
	"testing"

	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/bryanchriswhite/SnapShooter/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCapturer struct {
	name  string
	img   *image.NRGBA
	err   error
	calls int
}

func (s *stubCapturer) Name() string { return s.name }

func (s *stubCapturer) Capture() (*image.NRGBA, error) {
	s.calls++
	return s.img, s.err
}

func routerWithEnv(value string, direct, portal Capturer) *Router {
	r := NewRouter(direct, portal)
	r.detect = func() session.Kind {
		return session.Detect(func(string) string { return value })
	}
	return r
}

func TestRouter_Dispatch(t *testing.T) {
	tests := []struct {
		env        string
		wantPortal bool
	}{
		{"x11", false},
		{"", false},
		{"wayland", true},
		{"Wayland", true},
		{"mir", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			direct := &stubCapturer{name: "x11", img: image.NewNRGBA(image.Rect(0, 0, 1920, 1080))}
			portal := &stubCapturer{name: "portal", img: image.NewNRGBA(image.Rect(0, 0, 4, 2))}
			r := routerWithEnv(tt.env, direct, portal)

			img, err := r.Capture()
			require.NoError(t, err)

			if tt.wantPortal {
				assert.Equal(t, 1, portal.calls)
				assert.Equal(t, 0, direct.calls)
				assert.Same(t, portal.img, img)
			} else {
				assert.Equal(t, 1, direct.calls)
				assert.Equal(t, 0, portal.calls)
				assert.Same(t, direct.img, img)
			}
		})
	}
}

func TestRouter_NoFallback(t *testing.T) {
	direct := &stubCapturer{name: "x11", err: Failf(KindDirectCaptureUnavailable, "no display")}
	portal := &stubCapturer{name: "portal"}
	r := routerWithEnv("x11", direct, portal)

	_, err := r.Capture()
	assert.ErrorIs(t, err, ErrDirectCaptureUnavailable)
	assert.Equal(t, 0, portal.calls)
}

func TestRouter_Route(t *testing.T) {
	direct := &stubCapturer{name: "x11"}
	portal := &stubCapturer{name: "portal"}

	kind, c := routerWithEnv("wayland", direct, portal).Route()
	assert.Equal(t, session.PortalMediated, kind)
	assert.Equal(t, "portal", c.Name())

	kind, c = routerWithEnv("x11", direct, portal).Route()
	assert.Equal(t, session.DirectCapture, kind)
	assert.Equal(t, "x11", c.Name())
}

func TestRouter_CaptureRouted(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prev)
		logger.SetOutput(os.Stderr)
	})

	direct := &stubCapturer{name: "x11"}
	portal := &stubCapturer{name: "portal", img: image.NewNRGBA(image.Rect(0, 0, 4, 2))}

	img, kind, c, err := routerWithEnv("wayland", direct, portal).CaptureRouted()
	require.NoError(t, err)
	assert.Same(t, portal.img, img)
	assert.Equal(t, session.PortalMediated, kind)
	assert.Equal(t, "portal", c.Name())
	assert.Equal(t, 1, portal.calls)

	assert.Contains(t, buf.String(), "Dispatching capture")
	assert.Contains(t, buf.String(), `"capturer":"portal"`)
}
