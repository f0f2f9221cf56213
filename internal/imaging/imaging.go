// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package imaging prepares uploaded pictures for the 1920x1080 kiosk screen.

Every picture is center-cropped to 16:9, scaled to exactly 1920x1080 over a
black canvas and re-encoded as JPEG. A picture that cannot be decoded is
passed through untouched so an upload never fails on format alone.
*/
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"

	// Registered decoders.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/taibuivan/hara/internal/platform/constants"
)

// Output geometry and encoding.
const (
	TargetWidth  = 1920
	TargetHeight = 1080
	JPEGQuality  = 90
)

// ErrDecode reports input that is not a decodable image.
var ErrDecode = errors.New("imaging: cannot decode image")

// ErrTooLarge reports a picture whose declared size exceeds [constants.MaxImagePixels].
var ErrTooLarge = errors.New("imaging: image dimensions too large")

// Image is a processed or passed-through picture.
type Image struct {
	Data        []byte
	ContentType string
	// Processed is false when Data is the raw upload.
	Processed bool
}

// DataURL renders the image as a self-contained data: URL.
func (img Image) DataURL() string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// # Processing

// Process reads a picture from r and returns the 1920x1080 JPEG as a data URL.
func Process(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("imaging: read: %w", err)
	}
	encoded, err := Render(raw)
	if err != nil {
		return "", err
	}
	return Image{Data: encoded, ContentType: "image/jpeg", Processed: true}.DataURL(), nil
}

// Render decodes raw and returns the 1920x1080 JPEG encoding.
//
// The header is checked first so an oversized picture is refused before any
// pixel buffer is allocated.
func Render(raw []byte) ([]byte, error) {
	header, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if int64(header.Width)*int64(header.Height) > constants.MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, header.Width, header.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, TargetWidth, TargetHeight))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, CropRect(src.Bounds()), draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}
	return out.Bytes(), nil
}

// ProcessOrRaw renders raw, or falls back to raw as-is with its sniffed
// content type when it cannot be decoded or is too large to decode.
func ProcessOrRaw(raw []byte) Image {
	encoded, err := Render(raw)
	if err != nil {
		return Image{Data: raw, ContentType: http.DetectContentType(raw)}
	}
	return Image{Data: encoded, ContentType: "image/jpeg", Processed: true}
}

// CropRect returns the largest centered 16:9 rectangle inside bounds.
func CropRect(bounds image.Rectangle) image.Rectangle {
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return bounds
	}

	switch {
	case width*TargetHeight > height*TargetWidth:
		// Wider than 16:9, trim the sides.
		cropWidth := height * TargetWidth / TargetHeight
		x0 := bounds.Min.X + (width-cropWidth)/2
		return image.Rect(x0, bounds.Min.Y, x0+cropWidth, bounds.Max.Y)
	case width*TargetHeight < height*TargetWidth:
		// Taller than 16:9, trim top and bottom.
		cropHeight := width * TargetHeight / TargetWidth
		y0 := bounds.Min.Y + (height-cropHeight)/2
		return image.Rect(bounds.Min.X, y0, bounds.Max.X, y0+cropHeight)
	default:
		return bounds
	}
}
