package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/config"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/detect"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/fetch"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/handler"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/logging"
	"github.com/Gbengard/aws-s3-object-lambda-access-point/internal/respond"
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

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal("failed to load AWS config", zap.Error(err))
	}

	s3Client := s3.NewFromConfig(awsCfg)
	rekognitionClient := rekognition.NewFromConfig(awsCfg)

	h := handler.New(
		fetch.NewHTTPFetcher(nil),
		detect.NewRekognitionDetector(rekognitionClient, cfg.MinConfidence),
		respond.NewS3ObjectLambdaWriter(s3Client),
		logger,
		cfg.BlurRadius,
	)

	logger.Info("starting face redaction lambda", zap.Int("blur_radius", cfg.BlurRadius))
	lambda.Start(h.Handle)
}
