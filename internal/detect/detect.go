// Package detect locates faces in an image and reports them as
// fractional bounding boxes.
package detect

import (
	"context"

	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/redact"
)

// FaceDetector exposes the subset of detection functionality used by the
// redaction flow.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageBytes []byte) (redact.FaceList, error)
}
