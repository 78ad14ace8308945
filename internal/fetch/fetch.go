// Package fetch retrieves source image bytes for the redaction pipeline.
package fetch

import "context"

// ImageFetcher loads the raw bytes of one source object. The meaning of
// location depends on the implementation: a presigned URL for the Object
// Lambda input, an object key for direct bucket access.
type ImageFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}
