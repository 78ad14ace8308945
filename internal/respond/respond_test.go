package respond

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type stubS3Writer struct {
	err    error
	inputs []*s3.WriteGetObjectResponseInput
}

func (s *stubS3Writer) WriteGetObjectResponse(ctx context.Context, params *s3.WriteGetObjectResponseInput, optFns ...func(*s3.Options)) (*s3.WriteGetObjectResponseOutput, error) {
	s.inputs = append(s.inputs, params)
	if s.err != nil {
		return nil, s.err
	}
	return &s3.WriteGetObjectResponseOutput{}, nil
}

func TestWritePassesRouteTokenAndBody(t *testing.T) {
	stub := &stubS3Writer{}
	writer := NewS3ObjectLambdaWriter(stub)

	err := writer.Write(context.Background(), "route-1", "token-1", []byte("redacted"))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(stub.inputs) != 1 {
		t.Fatalf("expected one WriteGetObjectResponse call, got %d", len(stub.inputs))
	}

	input := stub.inputs[0]
	if aws.ToString(input.RequestRoute) != "route-1" || aws.ToString(input.RequestToken) != "token-1" {
		t.Fatalf("unexpected route/token: %+v", input)
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(body) != "redacted" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestWritePropagatesError(t *testing.T) {
	stub := &stubS3Writer{err: errors.New("token expired")}
	writer := NewS3ObjectLambdaWriter(stub)

	if err := writer.Write(context.Background(), "r", "t", nil); err == nil {
		t.Fatal("expected error, got nil")
	}
}
