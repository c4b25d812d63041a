package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/SnapShooter/internal/logger"
)

// screenSource is the part of an X server connection the capturer needs.
type screenSource interface {
	// Geometry reports the default screen's size in pixels and root depth.
	Geometry() (width, height int, depth byte)
	// GetImage returns the ZPixmap bytes of the root window's top-left
	// width x height rectangle.
	GetImage(width, height int) ([]byte, error)
	Close()
}

// X11Capturer captures the default screen of the X server named by $DISPLAY
type X11Capturer struct {
	dial func() (screenSource, error)
	mu   sync.Mutex
}

// NewX11Capturer creates a new X11 capturer. No connection is made until
// Capture is called.
func NewX11Capturer() *X11Capturer {
	return &X11Capturer{dial: dialX11}
}

// Name returns the capturer name
func (c *X11Capturer) Name() string {
	return "x11"
}

// Capture grabs the whole root window of the default screen.
func (c *X11Capturer) Capture() (*image.NRGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.WithComponent("x11-capturer")
	start := time.Now()

	src, err := c.dial()
	if err != nil {
		return nil, Fail(KindDirectCaptureUnavailable, err)
	}
	defer src.Close()

	width, height, depth := src.Geometry()
	if width <= 0 || height <= 0 {
		return nil, Failf(KindDirectCaptureUnavailable, "screen reports %dx%d", width, height)
	}

	data, err := src.GetImage(width, height)
	if err != nil {
		return nil, Fail(KindDirectCaptureUnavailable, fmt.Errorf("failed to get image: %w", err))
	}

	img, err := convertZPixmap(data, width, height, depth)
	if err != nil {
		return nil, Fail(KindDirectCaptureUnavailable, err)
	}

	log.Debug().
		Int("width", width).
		Int("height", height).
		Uint8("depth", depth).
		Dur("took", time.Since(start)).
		Msg("Captured root window")
	return img, nil
}

// convertZPixmap converts 32 bits-per-pixel BGRX scanlines to opaque NRGBA.
func convertZPixmap(data []byte, width, height int, depth byte) (*image.NRGBA, error) {
	if depth != 24 && depth != 32 {
		return nil, fmt.Errorf("unsupported root depth %d", depth)
	}
	if len(data) < width*height*4 {
		return nil, fmt.Errorf("short image reply: got %d bytes, want %d", len(data), width*height*4)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		s := data[i*4 : i*4+4 : i*4+4]
		d := img.Pix[i*4 : i*4+4 : i*4+4]
		d[0] = s[2]
		d[1] = s[1]
		d[2] = s[0]
		d[3] = 0xff
	}
	return img, nil
}

type xgbSource struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
}

func dialX11() (screenSource, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	setup := xproto.Setup(conn)
	return &xgbSource{conn: conn, screen: setup.DefaultScreen(conn)}, nil
}

func (s *xgbSource) Geometry() (int, int, byte) {
	return int(s.screen.WidthInPixels), int(s.screen.HeightInPixels), s.screen.RootDepth
}

func (s *xgbSource) GetImage(width, height int) ([]byte, error) {
	reply, err := xproto.GetImage(
		s.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(s.screen.Root),
		0, 0,
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Data, nil
}

func (s *xgbSource) Close() {
	s.conn.Close()
}
