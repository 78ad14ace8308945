// Package redact blurs face regions inside an image. It is a pure
// transform: bytes in, bytes out, no network or storage access.
package redact

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// DefaultRadius is the box blur radius, in pixels, applied to each face
// region when no override is given.
const DefaultRadius = 10

// BoundingBox locates a detected face as fractional offsets and size
// relative to the image dimensions. All four values are expected in [0,1];
// boxes extending past the image edge are clamped before use.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FaceList is the ordered set of face boxes for one image. Boxes are
// blurred in list order; overlapping boxes blur over each other's output.
type FaceList []BoundingBox

// DecodeError reports input bytes that are not a decodable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError reports a failure to serialize the transformed image back
// into its input format.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode image as %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Option customizes a single Redact call.
type Option func(*options)

type options struct {
	radius float64
}

// WithRadius overrides the box blur radius in pixels. Values below 1 are
// ignored and the default is kept.
func WithRadius(px int) Option {
	return func(o *options) {
		if px >= 1 {
			o.radius = float64(px)
		}
	}
}

// Redact decodes imageBytes, blurs every face region in faces, and
// re-encodes the result in the input format. An empty face list yields a
// plain re-encode of the input. Output dimensions always equal input
// dimensions.
func Redact(imageBytes []byte, faces FaceList, opts ...Option) ([]byte, error) {
	cfg := options{radius: DefaultRadius}
	for _, opt := range opts {
		opt(&cfg)
	}

	src, formatName, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	format, err := imaging.FormatFromExtension(formatName)
	if err != nil {
		return nil, &EncodeError{Format: formatName, Err: err}
	}

	out := imaging.Clone(src)
	bounds := out.Bounds()
	for _, face := range faces {
		rect := face.pixelRect(bounds)
		if rect.Empty() {
			continue
		}
		region := imaging.Crop(out, rect)
		blurred := blur.Box(region, cfg.radius)
		out = imaging.Paste(out, blurred, rect.Min)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, format); err != nil {
		return nil, &EncodeError{Format: formatName, Err: err}
	}
	return buf.Bytes(), nil
}

// pixelRect converts the fractional box to pixel coordinates and clamps
// it to the image bounds. A box entirely outside the image yields an
// empty rectangle.
func (b BoundingBox) pixelRect(bounds image.Rectangle) image.Rectangle {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	x1 := int(math.Floor(b.Left * w))
	y1 := int(math.Floor(b.Top * h))
	x2 := int(math.Floor((b.Left + b.Width) * w))
	y2 := int(math.Floor((b.Top + b.Height) * h))
	return image.Rect(x1, y1, x2, y2).Intersect(bounds)
}
