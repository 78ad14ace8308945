// redactd runs the redaction pipeline behind a local HTTP server so the
// transform can be exercised without an Object Lambda access point.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/config"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/detect"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/fetch"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/logging"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/server"
)

func main() {
	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var (
		detector detect.FaceDetector
		fetcher  fetch.ImageFetcher
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Warn("AWS config unavailable, running with explicit boxes only", zap.Error(err))
	} else {
		detector = detect.NewRekognitionDetector(rekognition.NewFromConfig(awsCfg), cfg.MinConfidence)
		if cfg.BucketName != "" {
			fetcher = fetch.NewS3Fetcher(s3.NewFromConfig(awsCfg), cfg.BucketName)
		}
	}

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadSize

	srv := server.New(detector, fetcher, logger, cfg.BlurRadius, cfg.MaxUploadSize)
	srv.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	logger.Info("dev server listening", zap.String("addr", cfg.ListenAddr))
	if err := serve(httpServer, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// serve runs the HTTP server until it fails or a shutdown signal arrives.
func serve(httpServer *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
