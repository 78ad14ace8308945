// Package respond delivers transformed bytes back to the original
// requester.
package respond

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ResponseWriter hands the transformed object back through the callback
// channel identified by route and token.
type ResponseWriter interface {
	Write(ctx context.Context, route, token string, body []byte) error
}

// S3WriteAPI is the slice of the S3 client the writer depends on.
type S3WriteAPI interface {
	WriteGetObjectResponse(ctx context.Context, params *s3.WriteGetObjectResponseInput, optFns ...func(*s3.Options)) (*s3.WriteGetObjectResponseOutput, error)
}

// S3ObjectLambdaWriter completes an Object Lambda GetObject by calling
// WriteGetObjectResponse.
type S3ObjectLambdaWriter struct {
	client S3WriteAPI
}

// NewS3ObjectLambdaWriter builds a writer backed by the given client.
func NewS3ObjectLambdaWriter(client S3WriteAPI) *S3ObjectLambdaWriter {
	return &S3ObjectLambdaWriter{client: client}
}

// Write sends body to the requester identified by the event's output
// route and token.
func (w *S3ObjectLambdaWriter) Write(ctx context.Context, route, token string, body []byte) error {
	_, err := w.client.WriteGetObjectResponse(ctx, &s3.WriteGetObjectResponseInput{
		RequestRoute: aws.String(route),
		RequestToken: aws.String(token),
		Body:         bytes.NewReader(body),
	})
	return err
}
