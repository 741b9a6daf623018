// Package imaging downloads lead images and trims the site's bottom banner off them.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	_ "golang.org/x/image/webp"

	"github.com/deusflow/cryptonews/internal/logger"
	"github.com/deusflow/cryptonews/internal/site"
)

const (
	maxImageSize = 20 << 20
	jpegQuality  = 90
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Cropper fetches images over HTTP.
type Cropper struct {
	client    *http.Client
	userAgent string
}

func NewCropper(profile *site.Profile) *Cropper {
	return &Cropper{
		client:    &http.Client{Timeout: profile.Timeout},
		userAgent: profile.UserAgent,
	}
}

// CropBottom downloads the image, removes pixels rows from its bottom and returns it as JPEG.
func (c *Cropper) CropBottom(ctx context.Context, imageURL string, pixels int) (*bytes.Reader, error) {
	img, format, err := c.download(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dy() <= pixels {
		logger.Warn("⚠️ image too short to crop, sending as is", "url", imageURL, "height", b.Dy(), "crop", pixels)
	}
	cropped := Crop(img, pixels)

	out, err := EncodeJPEG(cropped)
	if err != nil {
		return nil, err
	}
	logger.Debug("image cropped", "url", imageURL, "format", format,
		"from", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"to", fmt.Sprintf("%dx%d", cropped.Bounds().Dx(), cropped.Bounds().Dy()))
	return out, nil
}

func (c *Cropper) download(ctx context.Context, imageURL string) (image.Image, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("error loading image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image HTTP error: %d", resp.StatusCode)
	}

	img, format, err := image.Decode(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", fmt.Errorf("error decoding image %s: %w", imageURL, err)
	}
	return img, format, nil
}

// Crop returns img without its bottom pixels rows, spanning the full width.
// Images no taller than pixels are returned unchanged.
func Crop(img image.Image, pixels int) image.Image {
	b := img.Bounds()
	if pixels <= 0 || b.Dy() <= pixels {
		return img
	}

	rect := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y-pixels)
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// EncodeJPEG encodes img into memory; the reader starts at offset 0.
func EncodeJPEG(img image.Image) (*bytes.Reader, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("error encoding JPEG: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}
