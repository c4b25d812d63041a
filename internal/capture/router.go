package capture

import (
	"image"

	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/bryanchriswhite/SnapShooter/internal/session"
)

// Router routes capture requests to the capturer matching the session kind.
// The probe is consulted on every call and its answer is final: a direct
// capture failure is never retried through the portal, or vice versa.
type Router struct {
	direct Capturer
	portal Capturer
	detect func() session.Kind
}

// NewRouter creates a new capture router
func NewRouter(direct, portal Capturer) *Router {
	return &Router{
		direct: direct,
		portal: portal,
		detect: session.Current,
	}
}

// Name returns the capturer name
func (r *Router) Name() string {
	return "router"
}

// Route returns the session kind and the capturer it selects.
func (r *Router) Route() (session.Kind, Capturer) {
	kind := r.detect()
	if kind == session.PortalMediated {
		return kind, r.portal
	}
	return kind, r.direct
}

// Capture delegates to the capturer selected by Route and returns its
// result unchanged.
func (r *Router) Capture() (*image.NRGBA, error) {
	img, _, _, err := r.CaptureRouted()
	return img, err
}

// CaptureRouted is Capture that also reports the session kind and the
// capturer that served the request.
func (r *Router) CaptureRouted() (*image.NRGBA, session.Kind, Capturer, error) {
	kind, c := r.Route()

	logger.WithComponent("capture-router").Debug().
		Str("session", kind.String()).
		Str("capturer", c.Name()).
		Msg("Dispatching capture")

	img, err := c.Capture()
	return img, kind, c, err
}
