/*
NAME
  s3.go

DESCRIPTION
  s3.go implements an optional upload sink that copies completed segment
  files to an S3-compatible object store.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package storage implements optional sinks for completed segments.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures an S3Sink.
type S3Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string // optional, for S3-compatible services

	// AccessKey and SecretKey, if both set, select static credentials
	// instead of the default credential chain. Used for S3-compatible
	// services that don't support IAM roles.
	AccessKey string
	SecretKey string
}

// S3Sink uploads completed .ts segments to an S3-compatible bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Sink builds an S3Sink from cfg. Credentials are static when
// cfg.AccessKey and cfg.SecretKey are both set, and are otherwise resolved
// from the default AWS credential chain (environment, shared config, IAM
// role).
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Sink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Upload reads path and puts it to the bucket under <prefix>/<timestamp>.ts.
func (s *S3Sink) Upload(ctx context.Context, path string, timestamp int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open segment for upload: %w", err)
	}
	defer f.Close()

	key := filepath.Join(s.prefix, filepath.Base(path))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("video/mp2t"),
	})
	if err != nil {
		return fmt.Errorf("could not upload segment %d: %w", timestamp, err)
	}
	return nil
}
