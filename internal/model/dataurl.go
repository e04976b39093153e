package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ImageData - декодированное изображение: MIME-тип и байты.
type ImageData struct {
	MIMEType string
	Data     []byte
}

var errBadDataURL = errors.New("некорректный data URL")

// ParseDataURL разбирает data URL вида data:image/png;base64,<payload>.
func ParseDataURL(s string) (ImageData, error) {
	if !strings.HasPrefix(s, "data:") {
		return ImageData{}, errBadDataURL
	}
	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return ImageData{}, errBadDataURL
	}
	mimeType, found := strings.CutSuffix(meta, ";base64")
	if !found {
		return ImageData{}, fmt.Errorf("%w: поддерживается только base64", errBadDataURL)
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ImageData{}, fmt.Errorf("%w: %v", errBadDataURL, err)
	}
	return ImageData{MIMEType: mimeType, Data: data}, nil
}

// EncodeDataURL кодирует изображение в data URL.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
