package output

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"golang.org/x/image/draw"
)

// fileTimeLayout is an ISO-8601 local timestamp with ':' replaced by '-'
// so it is safe in file names on every filesystem.
const fileTimeLayout = "2006-01-02T15-04-05"

// DefaultFileName returns "<prefix>-<local time>.png", e.g.
// "screenshot-2024-05-01T13-37-00.png".
func DefaultFileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.png", prefix, t.Local().Format(fileTimeLayout))
}

// EncodePNG writes img to w as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG writes img to path. Parent directories are created and the file
// appears atomically: a partially written file is never left at path.
func SavePNG(path string, img image.Image) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		logger.WithComponent("output").Warn().
			Str("path", path).
			Msg("Saving PNG data to a file without .png extension")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodePNG(tmp, img); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move screenshot into place: %w", err)
	}

	logger.WithComponent("output").Info().
		Str("path", path).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Screenshot saved")
	return nil
}

// Thumbnail scales img by scale (0 < scale <= 1) for previews. Each side
// is at least one pixel.
func Thumbnail(img image.Image, scale float64) (*image.NRGBA, error) {
	if scale <= 0 || scale > 1 {
		return nil, fmt.Errorf("scale must be within (0, 1], got %g", scale)
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}
