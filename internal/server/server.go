// Package server exposes the redaction pipeline over HTTP for local
// development, without an Object Lambda access point in front.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/detect"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/fetch"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/redact"
)

// Server holds the collaborators behind the HTTP surface. Detector and
// fetcher are optional; routes that need a missing one report it.
type Server struct {
	detector  detect.FaceDetector
	fetcher   fetch.ImageFetcher
	logger    *zap.Logger
	radius    int
	maxUpload int64
}

// New constructs the dev server.
func New(detector detect.FaceDetector, fetcher fetch.ImageFetcher, logger *zap.Logger, radius int, maxUpload int64) *Server {
	if radius < 1 {
		radius = redact.DefaultRadius
	}
	return &Server{
		detector:  detector,
		fetcher:   fetcher,
		logger:    logger.Named("dev_server"),
		radius:    radius,
		maxUpload: maxUpload,
	}
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/redact", s.redactUpload)
	router.GET("/redact/:key", s.redactObject)
}

// redactUpload blurs faces in an uploaded image. An explicit "faces"
// form field (JSON array of fractional boxes) bypasses the detector.
func (s *Server) redactUpload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if s.maxUpload > 0 && file.Size > s.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}

	var faces redact.FaceList
	if raw := c.PostForm("faces"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &faces); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "faces field is not a valid box list"})
			return
		}
	} else {
		if s.detector == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "faces field is required when no detector is configured"})
			return
		}
		faces, err = s.detector.DetectFaces(c.Request.Context(), data)
		if err != nil {
			s.logger.Error("face detection failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "face detection failed"})
			return
		}
	}

	s.respondRedacted(c, data, faces)
}

// redactObject runs the full pipeline for an object fetched straight
// from the configured bucket.
func (s *Server) redactObject(c *gin.Context) {
	if s.fetcher == nil || s.detector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "S3 fetcher or detector is not configured"})
		return
	}

	key := c.Param("key")
	data, err := s.fetcher.Fetch(c.Request.Context(), key)
	if err != nil {
		var responseError *awshttp.ResponseError
		if errors.As(err, &responseError) && responseError.HTTPStatusCode() == http.StatusNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
			return
		}
		s.logger.Error("failed to fetch object", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch object"})
		return
	}

	faces, err := s.detector.DetectFaces(c.Request.Context(), data)
	if err != nil {
		s.logger.Error("face detection failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "face detection failed"})
		return
	}

	s.respondRedacted(c, data, faces)
}

func (s *Server) respondRedacted(c *gin.Context, data []byte, faces redact.FaceList) {
	output, err := redact.Redact(data, faces, redact.WithRadius(s.radius))
	if err != nil {
		var decodeErr *redact.DecodeError
		if errors.As(err, &decodeErr) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "input is not a supported image"})
			return
		}
		s.logger.Error("redaction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "redaction failed"})
		return
	}

	c.Data(http.StatusOK, http.DetectContentType(output), output)
}
