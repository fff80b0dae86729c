package qrcode

import (
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"

	"eventreservation/internal/domain"
)

// DefaultSize is the edge length in pixels of generated images.
const DefaultSize = 256

type encoder struct {
	size int
}

// NewEncoder returns a QRCodeEncoder producing size x size PNGs at medium error recovery.
func NewEncoder(size int) domain.QRCodeEncoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &encoder{size: size}
}

func (e *encoder) EncodePNG(content string) ([]byte, error) {
	png, err := goqrcode.Encode(content, goqrcode.Medium, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
