package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptonews/internal/site"
)

func testCropper() *Cropper {
	p := site.Default()
	p.Timeout = 2 * time.Second
	return NewCropper(p)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func serveImage(t *testing.T, body []byte) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server.URL + "/lead.png"
}

func TestCropBottom_200x300(t *testing.T) {
	url := serveImage(t, pngBytes(t, 200, 300))

	r, err := testCropper().CropBottom(context.Background(), url, 100)
	require.NoError(t, err)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	img, err := jpeg.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestCropBottom_ShortImageKeptWhole(t *testing.T) {
	url := serveImage(t, pngBytes(t, 120, 80))

	r, err := testCropper().CropBottom(context.Background(), url, 100)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(r)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}

func TestCropBottom_NotAnImage(t *testing.T) {
	url := serveImage(t, []byte("<html>not an image</html>"))

	_, err := testCropper().CropBottom(context.Background(), url, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding image")
}

func TestCropBottom_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testCropper().CropBottom(context.Background(), server.URL, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestCrop_KeepsTopRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 10))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 9, color.RGBA{G: 255, A: 255})

	out := Crop(img, 3)
	assert.Equal(t, image.Rect(0, 0, 4, 7), out.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.At(0, 0))
}

type plainImage struct{ image.Image }

func TestCrop_WithoutSubImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 5, 5))
	out := Crop(plainImage{src}, 2)
	assert.Equal(t, 5, out.Bounds().Dx())
	assert.Equal(t, 3, out.Bounds().Dy())
}
