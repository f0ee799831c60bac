// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package s3 mirrors a written snapshot to an S3 bucket so it can be
// served from object storage (or fetched by a remote dashboard). The
// upload is an optional post-processing step and its failure never
// invalidates the local snapshot.

package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const (
	defaultRetries    = 3
	initialBackoff    = 200 * time.Millisecond
	maxBackoff        = 2 * time.Second
	perAttemptTimeout = 10 * time.Second
)

// Conf configures the optional snapshot mirroring. The section is
// considered active once both Bucket and Region are filled in.
type Conf struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Region string `json:"region"`

	// Retries limits the number of PutObject attempts (default 3)
	Retries int `json:"retries"`
}

func (conf *Conf) IsConfigured() bool {
	return conf != nil && conf.Bucket != "" && conf.Region != ""
}

func (conf *Conf) Validate() error {
	if conf.Bucket == "" {
		return fmt.Errorf("missing s3 configuration section `bucket`")
	}
	if conf.Region == "" {
		return fmt.Errorf("missing s3 configuration section `region`")
	}
	if conf.Key == "" {
		conf.Key = "data.json"
		log.Warn().
			Str("value", conf.Key).
			Msg("s3 object key not specified, using default")
	}
	if conf.Retries <= 0 {
		conf.Retries = defaultRetries
	}
	return nil
}

// Uploader pushes snapshot bytes to a configured bucket. Credentials
// are taken from the default AWS chain (env, shared config, IAM role).
type Uploader struct {
	conf   *Conf
	client *s3.Client
}

func (u *Uploader) putObject(ctx context.Context, data []byte) error {
	ctx2, cancel := context.WithTimeout(ctx, perAttemptTimeout)
	defer cancel()
	_, err := u.client.PutObject(ctx2, &s3.PutObjectInput{
		Bucket:        aws.String(u.conf.Bucket),
		Key:           aws.String(u.conf.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	return err
}

// Upload stores the snapshot under the configured key, retrying with
// an exponential backoff. It respects ctx cancellation between the
// attempts.
func (u *Uploader) Upload(ctx context.Context, data []byte) error {
	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= u.conf.Retries; attempt++ {
		if err := u.putObject(ctx, data); err == nil {
			log.Info().
				Str("bucket", u.conf.Bucket).
				Str("key", u.conf.Key).
				Int("sizeBytes", len(data)).
				Msg("snapshot uploaded to s3")
			return nil

		} else {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("snapshot upload failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
	return fmt.Errorf("failed to upload snapshot to s3: %w", lastErr)
}

// NewUploader initializes the S3 client using the default credential
// chain and the configured region.
func NewUploader(ctx context.Context, conf *Conf) (*Uploader, error) {
	awsConf, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(conf.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 uploader: %w", err)
	}
	return &Uploader{
		conf:   conf,
		client: s3.NewFromConfig(awsConf),
	}, nil
}
