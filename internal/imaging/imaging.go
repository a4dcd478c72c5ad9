// Package imaging normalises uploaded equipment photos.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension is the longest side of a stored photo, in pixels.
const MaxDimension = 800

// MaxUploadBytes caps the size of an uploaded photo.
const MaxUploadBytes = 5 << 20

// Quality is the JPEG quality of stored photos.
const Quality = 80

// MIME is the content type of every stored photo.
const MIME = "image/jpeg"

var (
	ErrUnsupportedFormat = errors.New("photo must be JPEG or PNG")
	ErrTooLarge          = errors.New("photo too large")
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalised equipment photo.
type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// Process validates an uploaded photo by sniffing its bytes, shrinks it to fit
// MaxDimension and re-encodes it as JPEG. Transparent areas become white.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	if !allowedMIME[http.DetectContentType(data)] {
		return nil, ErrUnsupportedFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	out := flatten(fit(img.Bounds(), MaxDimension))
	draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	return &Photo{
		Data:   buf.Bytes(),
		Width:  out.Bounds().Dx(),
		Height: out.Bounds().Dy(),
	}, nil
}

// fit returns the rectangle of b scaled down, preserving aspect ratio, so
// neither side exceeds maxDim. Smaller images keep their size.
func fit(b image.Rectangle, maxDim int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w > maxDim || h > maxDim {
		if w >= h {
			h = max(1, h*maxDim/w)
			w = maxDim
		} else {
			w = max(1, w*maxDim/h)
			h = maxDim
		}
	}
	return image.Rect(0, 0, w, h)
}

// flatten returns a white canvas of the given size.
func flatten(r image.Rectangle) *image.RGBA {
	canvas := image.NewRGBA(r)
	draw.Draw(canvas, r, image.NewUniform(color.White), image.Point{}, draw.Src)
	return canvas
}
