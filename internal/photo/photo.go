// Package photo validates clock-in/clock-out photos and hands them to a Store.
package photo

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	ErrInvalidPhoto  = errors.New("invalid photo")
	ErrPhotoTooLarge = errors.New("photo too large")
	ErrPhotoNotFound = errors.New("photo not found")
)

const ContentTypeJPEG = "image/jpeg"

var allowedMIMEs = []string{"image/png", "image/jpeg", "image/webp"}

// Decode accepts a base64 data URL or bare base64 and returns the raw bytes.
func Decode(value string, maxBytes int) ([]byte, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPhoto)
	}

	payload := raw
	if strings.HasPrefix(raw, "data:") {
		comma := strings.Index(raw, ",")
		if comma <= 5 {
			return nil, fmt.Errorf("%w: malformed data url", ErrInvalidPhoto)
		}
		meta := raw[5:comma]
		if !strings.HasSuffix(strings.ToLower(meta), ";base64") {
			return nil, fmt.Errorf("%w: data url must be base64", ErrInvalidPhoto)
		}
		mime := strings.TrimSpace(meta[:len(meta)-len(";base64")])
		if !allowed(mime) {
			return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidPhoto, mime)
		}
		payload = raw[comma+1:]
	}

	// Reject before decoding; base64 inflates by 4/3.
	if maxBytes > 0 && len(payload) > maxBytes/3*4+4 {
		return nil, ErrPhotoTooLarge
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64", ErrInvalidPhoto)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPhoto)
	}
	if maxBytes > 0 && len(decoded) > maxBytes {
		return nil, ErrPhotoTooLarge
	}
	return decoded, nil
}

func allowed(mime string) bool {
	for _, m := range allowedMIMEs {
		if strings.EqualFold(m, mime) {
			return true
		}
	}
	return false
}

// Normalize decodes png, jpeg or webp, shrinks it to fit maxDimension and
// re-encodes it as JPEG.
func Normalize(raw []byte, maxDimension int) ([]byte, error) {
	if mime := http.DetectContentType(raw); !allowed(mime) {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidPhoto, mime)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, webpErr := webp.Decode(bytes.NewReader(raw))
		if webpErr != nil {
			return nil, fmt.Errorf("%w: unable to decode", ErrInvalidPhoto)
		}
		img = decoded
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidPhoto)
	}

	w, h := fit(bounds.Dx(), bounds.Dy(), maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 82}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return out.Bytes(), nil
}

// fit scales w x h down so the longer side is at most limit, keeping the ratio.
func fit(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, atLeastOne(h * limit / w)
	}
	return atLeastOne(w * limit / h), limit
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// DataURL encodes data as a base64 data URL.
func DataURL(data []byte, contentType string) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL reverses DataURL.
func ParseDataURL(ref string) ([]byte, string, error) {
	if !strings.HasPrefix(ref, "data:") {
		return nil, "", fmt.Errorf("%w: not a data url", ErrInvalidPhoto)
	}
	comma := strings.Index(ref, ",")
	if comma <= 5 || !strings.HasSuffix(ref[5:comma], ";base64") {
		return nil, "", fmt.Errorf("%w: malformed data url", ErrInvalidPhoto)
	}
	data, err := base64.StdEncoding.DecodeString(ref[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("%w: bad base64", ErrInvalidPhoto)
	}
	return data, strings.TrimSuffix(ref[5:comma], ";base64"), nil
}
