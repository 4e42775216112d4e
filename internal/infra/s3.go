package infra

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"ietool.dev/backend-next/internal/app/appconfig"
)

func S3(conf *appconfig.Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(conf.ArchiveS3Region),
	}
	if conf.ArchiveS3AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.ArchiveS3AccessKeyID, conf.ArchiveS3SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		log.Error().Err(err).Msg("infra: s3: failed to load aws config")
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.ArchiveS3Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.ArchiveS3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
