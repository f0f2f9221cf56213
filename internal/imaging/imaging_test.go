// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package imaging_test

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/hara/internal/imaging"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// oversizedPNG returns a valid small PNG whose header declares width x height.
func oversizedPNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	raw := pngBytes(t, 2, 2)

	// Signature (8) then the IHDR chunk: length (4), type (4), data (13), crc (4).
	binary.BigEndian.PutUint32(raw[16:20], width)
	binary.BigEndian.PutUint32(raw[20:24], height)
	binary.BigEndian.PutUint32(raw[29:33], crc32.ChecksumIEEE(raw[12:29]))
	return raw
}

/*
TestCropRect verifies the centered 16:9 crop for wide, tall and exact inputs.
*/
func TestCropRect(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		want   image.Rectangle
	}{
		{"exact", image.Rect(0, 0, 1920, 1080), image.Rect(0, 0, 1920, 1080)},
		{"wide", image.Rect(0, 0, 400, 90), image.Rect(120, 0, 280, 90)},
		{"tall", image.Rect(0, 0, 160, 400), image.Rect(0, 155, 160, 245)},
		{"offset", image.Rect(10, 10, 170, 100), image.Rect(10, 10, 170, 100)},
		{"empty", image.Rectangle{}, image.Rectangle{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, imaging.CropRect(tc.bounds))
		})
	}
}

/*
TestRender_ProducesKioskFrame verifies any decodable picture becomes a 1920x1080 JPEG.
*/
func TestRender_ProducesKioskFrame(t *testing.T) {
	encoded, err := imaging.Render(pngBytes(t, 64, 64))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, imaging.TargetWidth, cfg.Width)
	assert.Equal(t, imaging.TargetHeight, cfg.Height)

	_, err = jpeg.Decode(bytes.NewReader(encoded))
	assert.NoError(t, err)
}

/*
TestRender_RejectsGarbage verifies undecodable input reports ErrDecode.
*/
func TestRender_RejectsGarbage(t *testing.T) {
	_, err := imaging.Render([]byte("definitely not an image"))
	assert.ErrorIs(t, err, imaging.ErrDecode)
}

/*
TestProcessOrRaw covers the processed path and the raw fallback.
*/
func TestProcessOrRaw(t *testing.T) {
	processed := imaging.ProcessOrRaw(pngBytes(t, 32, 18))
	assert.True(t, processed.Processed)
	assert.Equal(t, "image/jpeg", processed.ContentType)

	raw := []byte("plain text upload")
	fallback := imaging.ProcessOrRaw(raw)
	assert.False(t, fallback.Processed)
	assert.Equal(t, raw, fallback.Data)
	assert.True(t, strings.HasPrefix(fallback.ContentType, "text/plain"))
}

/*
TestProcess_ReturnsDataURL verifies the encoded payload round-trips to a JPEG.
*/
func TestProcess_ReturnsDataURL(t *testing.T) {
	url, err := imaging.Process(bytes.NewReader(pngBytes(t, 20, 20)))
	require.NoError(t, err)

	const prefix = "data:image/jpeg;base64,"
	require.True(t, strings.HasPrefix(url, prefix))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, imaging.TargetWidth, cfg.Width)
}

/*
TestRender_RefusesOversizedHeader verifies a picture declaring huge dimensions
is refused before decoding and passed through untouched.
*/
func TestRender_RefusesOversizedHeader(t *testing.T) {
	raw := oversizedPNG(t, 50000, 50000)

	header, format, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 50000, header.Width)

	_, err = imaging.Render(raw)
	assert.True(t, errors.Is(err, imaging.ErrTooLarge))

	img := imaging.ProcessOrRaw(raw)
	assert.False(t, img.Processed)
	assert.Equal(t, raw, img.Data)
	assert.Equal(t, "image/png", img.ContentType)
}
