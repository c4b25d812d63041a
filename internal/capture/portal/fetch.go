package portal

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/bryanchriswhite/SnapShooter/internal/capture"
	"github.com/bryanchriswhite/SnapShooter/internal/logger"
)

// fetch reads and decodes the image at uri. A file:// artifact is removed
// afterwards whether or not it decoded; removal errors are only logged.
func (c *Capturer) fetch(ctx context.Context, uri string) (*image.NRGBA, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, capture.Fail(capture.KindImageFetchError, fmt.Errorf("invalid uri %q: %w", uri, err))
	}

	var rc io.ReadCloser
	switch u.Scheme {
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, capture.Fail(capture.KindImageFetchError, err)
		}
		defer removeArtifact(u.Path)
		rc = f
	case "http", "https":
		rc, err = c.get(ctx, uri)
		if err != nil {
			return nil, capture.Fail(capture.KindImageFetchError, err)
		}
	default:
		return nil, capture.Failf(capture.KindImageFetchError, "unsupported uri scheme %q", u.Scheme)
	}
	defer rc.Close()

	img, format, err := image.Decode(rc)
	if err != nil {
		return nil, capture.Fail(capture.KindImageFetchError, fmt.Errorf("failed to decode %s: %w", uri, err))
	}

	logger.WithComponent("portal").Debug().
		Str("uri", uri).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Decoded portal screenshot")
	return capture.ToNRGBA(img), nil
}

func (c *Capturer) get(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", uri, resp.Status)
	}
	return resp.Body, nil
}

func removeArtifact(path string) {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("portal").Debug().
			Err(err).
			Str("path", path).
			Msg("Failed to remove portal screenshot")
	}
}
