package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNRGBA_PassThrough(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 40})

	assert.Same(t, src, ToNRGBA(src))
}

func TestToNRGBA_ConvertsRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 1))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(2, 0, color.RGBA{B: 255, A: 255})

	got := ToNRGBA(src)
	require.Equal(t, image.Rect(0, 0, 3, 1), got.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, got.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, got.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, got.NRGBAAt(2, 0))
}

func TestToNRGBA_RebasesOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.SetNRGBA(6, 5, color.NRGBA{G: 200, A: 255})

	got := ToNRGBA(src)
	require.Equal(t, image.Rect(0, 0, 2, 1), got.Bounds())
	assert.Equal(t, color.NRGBA{G: 200, A: 255}, got.NRGBAAt(1, 0))
}

func TestError_IsMatchesKind(t *testing.T) {
	err := Fail(KindPortalDenied, errors.New("response code 1"))

	assert.True(t, errors.Is(err, ErrPortalDenied))
	assert.False(t, errors.Is(err, ErrPortalTimeout))
	assert.Equal(t, KindPortalDenied, KindOf(err))

	wrapped := fmt.Errorf("shoot: %w", err)
	assert.True(t, errors.Is(wrapped, ErrPortalDenied))
	assert.Equal(t, KindPortalDenied, KindOf(wrapped))
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("no such file")
	err := Fail(KindImageFetchError, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "capture: image_fetch_error: no such file", err.Error())
	assert.Equal(t, "capture: portal_timeout", ErrPortalTimeout.Error())
}

func TestKindOf_Foreign(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(0), KindOf(nil))
	assert.Equal(t, "kind(99)", Kind(99).String())
}
