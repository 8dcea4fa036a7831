package quantize

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DecodeError is returned when a source image cannot be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "quantize: decode image: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode reads an image in any registered format from r.
func Decode(r io.Reader) (image.Image, error) {
	m, _, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return m, nil
}
