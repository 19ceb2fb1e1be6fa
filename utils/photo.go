package utils

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/disintegration/imaging"
)

const (
	MaxPhotoSizeBytes int64 = 5 * 1024 * 1024
	profilePhotoSize        = 400
)

var ErrUnsupportedImage = errors.New("unsupported image type")

var photoMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// PrepareProfilePhoto checks the upload is an image, fits it into a square
// bounding box and re-encodes it as JPEG.
func PrepareProfilePhoto(data []byte) ([]byte, error) {
	if int64(len(data)) > MaxPhotoSizeBytes {
		return nil, errors.New("file size exceeds 5MB limit")
	}
	if !photoMimeTypes[http.DetectContentType(data)] {
		return nil, ErrUnsupportedImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	fitted := imaging.Fit(img, profilePhotoSize, profilePhotoSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
