// Package qrcode renders pass URLs as PNG QR codes embedded in data URLs.
package qrcode

import (
	"encoding/base64"
	"fmt"

	goqr "github.com/skip2/go-qrcode"
)

const (
	defaultSize = 256
	dataURLPNG  = "data:image/png;base64,"
)

// DataURL encodes content as a PNG QR code and returns it as a data URL.
func DataURL(content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("qrcode: empty content")
	}
	png, err := goqr.Encode(content, goqr.Medium, defaultSize)
	if err != nil {
		return "", fmt.Errorf("qrcode: encode: %w", err)
	}
	return dataURLPNG + base64.StdEncoding.EncodeToString(png), nil
}
