// Package media decodes the data-URL photos camera clients capture and
// renders preview thumbnails for the control console.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/nfnt/resize"
)

const (
	ThumbSize    = 300
	thumbQuality = 85
)

var ErrNotDataURL = errors.New("not a base64 data url")

// DecodeDataURL returns the media type and raw bytes of a
// "data:<type>;base64,<payload>" string.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrNotDataURL, err)
	}
	return mediaType, raw, nil
}

// Thumbnail renders a JPEG no larger than size x size from a data-URL
// photo, keeping the aspect ratio.
func Thumbnail(dataURL string, size uint) ([]byte, error) {
	_, raw, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := resize.Thumbnail(size, size, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
