// Package portal captures the screen through the xdg-desktop-portal
// Screenshot interface, which is the only sanctioned way to read pixels on
// a Wayland session.
package portal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/bryanchriswhite/SnapShooter/internal/bus"
	"github.com/bryanchriswhite/SnapShooter/internal/capture"
	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/godbus/dbus/v5"
)

// Bus is the subset of a session-bus connection the portal client uses.
type Bus interface {
	UniqueName() string
	Subscribe(iface, member string) (*bus.Subscription, error)
	Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...interface{}) ([]interface{}, error)
	Close() error
}

// Dialer opens a bus connection for one capture.
type Dialer func() (Bus, error)

// DialSession connects to the user's session bus.
func DialSession() (Bus, error) {
	s, err := bus.ConnectSession()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Config tunes the portal capturer.
type Config struct {
	// Timeout bounds the Screenshot call plus the wait for its Response,
	// and separately the download of an http(s) result. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// Capturer implements capture.Capturer using the Screenshot portal
type Capturer struct {
	dial     Dialer
	timeout  time.Duration
	newToken func() string
	client   *http.Client
}

// NewCapturer creates a portal capturer. A nil dial uses DialSession.
func NewCapturer(dial Dialer, cfg Config) *Capturer {
	if dial == nil {
		dial = DialSession
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Capturer{
		dial:     dial,
		timeout:  timeout,
		newToken: NewToken,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name returns the capturer name
func (c *Capturer) Name() string {
	return "portal"
}

// Timeout returns the effective response ceiling.
func (c *Capturer) Timeout() time.Duration {
	return c.timeout
}

// Capture requests a non-interactive screenshot from the portal and waits
// for the result. Each call uses its own bus connection.
func (c *Capturer) Capture() (*image.NRGBA, error) {
	log := logger.WithComponent("portal")

	conn, err := c.dial()
	if err != nil {
		return nil, capture.Fail(capture.KindBusUnavailable, err)
	}
	defer conn.Close()

	sender := conn.UniqueName()
	if sender == "" {
		return nil, capture.Failf(capture.KindBusUnavailable, "session bus assigned no unique name")
	}

	// The request path must be known before the call: the Response may be
	// emitted before the call's reply is read.
	token := c.newToken()
	expected := RequestPath(sender, token)

	sub, err := conn.Subscribe(requestIface, responseMember)
	if err != nil {
		return nil, capture.Fail(capture.KindBusUnavailable, err)
	}
	defer sub.Close()

	responses := make(chan response, 1)
	go listen(sub, expected, responses)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	handle, err := c.screenshot(ctx, conn, token)
	if err != nil {
		return nil, err
	}
	if handle != expected {
		log.Warn().
			Str("request_path", string(handle)).
			Str("expected_path", string(expected)).
			Msg("Portal returned an unexpected request path")
	}

	log.Info().
		Str("request_path", string(expected)).
		Msg("Waiting for Screenshot response (portal dialog may appear)")

	var resp response
	select {
	case resp = <-responses:
	case <-ctx.Done():
		return nil, capture.Failf(capture.KindPortalTimeout, "no response on %s within %s", expected, c.timeout)
	}
	if resp.err != nil {
		return nil, resp.err
	}
	if resp.status != ResponseSuccess {
		return nil, capture.Failf(capture.KindPortalDenied, "screenshot denied (code %d)", resp.status)
	}

	uri, err := resp.uri()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("uri", uri).Msg("Screenshot ready")

	// The fetch gets its own ceiling; the portal may have used most of the
	// first one waiting for the user.
	fetchCtx, cancelFetch := context.WithTimeout(context.Background(), c.timeout)
	defer cancelFetch()
	return c.fetch(fetchCtx, uri)
}

// screenshot issues the Screenshot call and returns the request handle.
func (c *Capturer) screenshot(ctx context.Context, conn Bus, token string) (dbus.ObjectPath, error) {
	options := map[string]dbus.Variant{
		"interactive":  dbus.MakeVariant(false),
		"handle_token": dbus.MakeVariant(token),
	}

	body, err := conn.Call(ctx, portalService, portalPath, screenshotMethod, "", options)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", capture.Fail(capture.KindPortalTimeout, fmt.Errorf("Screenshot call: %w", err))
		}
		return "", capture.Fail(capture.KindBusUnavailable, fmt.Errorf("Screenshot call failed: %w", err))
	}

	if len(body) != 1 {
		return "", capture.Failf(capture.KindPortalProtocolError, "Screenshot reply has %d values, want 1", len(body))
	}
	handle, ok := body[0].(dbus.ObjectPath)
	if !ok {
		return "", capture.Failf(capture.KindPortalProtocolError, "Screenshot reply is %T, want object path", body[0])
	}
	return handle, nil
}

// listen waits for the Response signal on path, hands it over through out
// and removes the subscription. Signals on other request paths belong to
// other in-flight requests and are skipped.
func listen(sub *bus.Subscription, path dbus.ObjectPath, out chan<- response) {
	for {
		select {
		case <-sub.Done():
			return
		case sig, ok := <-sub.Signals():
			if !ok {
				return
			}
			if sig == nil || sig.Name != responseSignal || sig.Path != path {
				continue
			}
			out <- parseResponse(sig)
			sub.Close()
			return
		}
	}
}
