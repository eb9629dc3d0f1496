package listing

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxImages is the maximum number of images accepted for one analysis.
	MaxImages = 10

	// MaxImageBytes is the maximum decoded size of a single image (5MB).
	MaxImageBytes = 5 * 1024 * 1024
)

var dataURLPattern = regexp.MustCompile(`^data:image/(\w+);base64,(.+)$`)

var mimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// EncodedImage is a base64 image body with its declared mime type.
type EncodedImage struct {
	MimeType string
	Data     string
}

// DataURL formats the image as a data: URL.
func (img EncodedImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MimeType, img.Data)
}

// Bytes decodes the base64 body.
func (img EncodedImage) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(img.Data)
}

// NewEncodedImage encodes raw bytes. The mime type is normalized to one of
// the supported image types.
func NewEncodedImage(data []byte, mimeType string) EncodedImage {
	return EncodedImage{
		MimeType: NormalizeMimeType(mimeType),
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

// NormalizeMimeType maps a mime type or bare subtype to a supported image
// mime type. Unknown types become image/jpeg.
func NormalizeMimeType(mimeType string) string {
	subtype := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(subtype, ";"); i >= 0 {
		subtype = strings.TrimSpace(subtype[:i])
	}
	subtype = strings.TrimPrefix(subtype, "image/")
	if m, ok := mimeTypes[subtype]; ok {
		return m
	}
	return "image/jpeg"
}

// ParseDataURL decodes a data:image/<subtype>;base64,<body> string. The
// body must be valid base64 and decode to at most MaxImageBytes.
func ParseDataURL(s string) (EncodedImage, error) {
	m := dataURLPattern.FindStringSubmatch(s)
	if m == nil {
		return EncodedImage{}, ErrInvalidImageFormat
	}

	decoded, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return EncodedImage{}, ErrInvalidImageFormat
	}
	if len(decoded) > MaxImageBytes {
		return EncodedImage{}, ErrImageTooLarge
	}

	return EncodedImage{MimeType: NormalizeMimeType(m[1]), Data: m[2]}, nil
}
