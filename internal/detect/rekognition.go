package detect

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/redact"
)

// RekognitionAPI is the slice of the Amazon Rekognition client the
// detector depends on.
type RekognitionAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// RekognitionDetector detects faces with Amazon Rekognition.
type RekognitionDetector struct {
	client        RekognitionAPI
	minConfidence float32
}

// NewRekognitionDetector builds a detector backed by the given client.
// Faces below minConfidence are dropped; zero keeps every detection.
func NewRekognitionDetector(client RekognitionAPI, minConfidence float32) *RekognitionDetector {
	return &RekognitionDetector{client: client, minConfidence: minConfidence}
}

// DetectFaces sends the image bytes to Rekognition and converts the
// returned face details into fractional bounding boxes.
func (d *RekognitionDetector) DetectFaces(ctx context.Context, imageBytes []byte) (redact.FaceList, error) {
	output, err := d.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: imageBytes},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, err
	}

	faces := make(redact.FaceList, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		if detail.Confidence != nil && *detail.Confidence < d.minConfidence {
			continue
		}
		faces = append(faces, redact.BoundingBox{
			Left:   float64(aws.ToFloat32(detail.BoundingBox.Left)),
			Top:    float64(aws.ToFloat32(detail.BoundingBox.Top)),
			Width:  float64(aws.ToFloat32(detail.BoundingBox.Width)),
			Height: float64(aws.ToFloat32(detail.BoundingBox.Height)),
		})
	}
	return faces, nil
}
