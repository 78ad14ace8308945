// Package handler orchestrates one Object Lambda GetObject: fetch the
// source image, detect faces, blur them, write the response.
package handler

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/detect"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/fetch"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/logging"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/redact"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/respond"
)

// Handler wires the injected collaborators into the redaction flow. Each
// invocation is independent; the handler itself holds no mutable state.
type Handler struct {
	fetcher  fetch.ImageFetcher
	detector detect.FaceDetector
	writer   respond.ResponseWriter
	logger   *zap.Logger
	radius   int
}

// New constructs a handler. A radius below 1 falls back to the default.
func New(fetcher fetch.ImageFetcher, detector detect.FaceDetector, writer respond.ResponseWriter, logger *zap.Logger, radius int) *Handler {
	if radius < 1 {
		radius = redact.DefaultRadius
	}
	return &Handler{
		fetcher:  fetcher,
		detector: detector,
		writer:   writer,
		logger:   logger.Named("redaction_handler"),
		radius:   radius,
	}
}

// Handle processes one S3 Object Lambda GetObject event.
func (h *Handler) Handle(ctx context.Context, event events.S3ObjectLambdaEvent) error {
	requestID := event.XAmzRequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	opLogger := logging.WithOperation(h.logger, "handler.get_object", requestID)

	getCtx := event.GetObjectContext
	if getCtx == nil {
		err := logging.NewOperationError("handler.get_object", requestID, errors.New("event carries no getObjectContext"))
		opLogger.Error("unsupported event shape", zap.Error(err))
		return err
	}

	source, err := h.fetcher.Fetch(ctx, getCtx.InputS3URL)
	if err != nil {
		wrapped := logging.NewOperationError("fetch.input", requestID, err)
		opLogger.Error("failed to fetch source object", zap.Error(wrapped))
		return wrapped
	}

	faces, err := h.detector.DetectFaces(ctx, source)
	if err != nil {
		wrapped := logging.NewOperationError("detect.faces", requestID, err)
		opLogger.Error("face detection failed", zap.Error(wrapped))
		return wrapped
	}
	opLogger.Info("face detection completed", zap.Int("faces", len(faces)))

	redacted, err := redact.Redact(source, faces, redact.WithRadius(h.radius))
	if err != nil {
		wrapped := logging.NewOperationError("redact.transform", requestID, err)
		opLogger.Error("redaction failed", zap.Error(wrapped))
		return wrapped
	}

	if err := h.writer.Write(ctx, getCtx.OutputRoute, getCtx.OutputToken, redacted); err != nil {
		wrapped := logging.NewOperationError("respond.write", requestID, err)
		opLogger.Error("failed to write object response", zap.Error(wrapped))
		return wrapped
	}

	opLogger.Info("redacted object written", zap.Int("bytes", len(redacted)))
	return nil
}
