package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

// AllowedImageMIME maps the accepted image MIME types to the object-key
// extension used in the blob store.
var AllowedImageMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// DecodeDataURL splits a "data:<mime>;base64,<payload>" string into its MIME
// type and decoded bytes. Clients send inline images in this form.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data URL")
	}

	mimeType, encOK := strings.CutSuffix(meta, ";base64")
	if !encOK {
		return "", nil, errors.New("data URL is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return strings.ToLower(mimeType), data, nil
}
