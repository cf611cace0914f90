package api

import (
	"encoding/hex"
	"net/http"
	"strconv"
)

// pixelHex is a transparent 1x1 GIF89a.
const pixelHex = "47494638396101000100800000dbdfef00000021f90401000000002c00000000010001000002024401003b"

var trackingPixel = mustDecodeHex(pixelHex)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Pixel returns a copy of the tracking pixel served by /log.
func Pixel() []byte {
	return append([]byte(nil), trackingPixel...)
}

func writePixel(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Length", strconv.Itoa(len(trackingPixel)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(trackingPixel)
	return err
}
