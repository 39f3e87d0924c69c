// internal/vision/upload.go
package vision

import (
	"bytes"
	"errors"
	"fmt"
)

const MaxUploadBytes = 8 << 20

var (
	ErrEmptyUpload      = errors.New("empty image payload")
	ErrUploadTooLarge   = errors.New("image payload too large")
	ErrUnsupportedImage = errors.New("unsupported image content type")
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
)

// SniffImage returns "image/jpeg" or "image/png" for supported payloads.
func SniffImage(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return "image/jpeg", true
	case bytes.HasPrefix(data, pngMagic):
		return "image/png", true
	}
	return "", false
}

// ValidateUpload rejects empty, oversized or non JPEG/PNG payloads.
func ValidateUpload(data []byte, maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	if len(data) == 0 {
		return ErrEmptyUpload
	}
	if len(data) > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrUploadTooLarge, len(data), maxBytes)
	}
	if _, ok := SniffImage(data); !ok {
		return ErrUnsupportedImage
	}
	return nil
}
