// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pexctl/pexctl/internal/log"
)

// options holds the per-source overrides for client construction.
type options struct {
	profile  string
	region   string
	endpoint string
	retryer  func() awsv2.Retryer
}

// loadOptions translates the populated overrides into SDK config loader
// options. Empty fields contribute nothing, leaving the ambient chain
// (AWS_PROFILE, shared config, env, IMDS) in charge.
func (o *options) loadOptions() []func(*config.LoadOptions) error {
	var loadOpts []func(*config.LoadOptions) error
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.retryer != nil {
		loadOpts = append(loadOpts, config.WithRetryer(o.retryer))
	}
	return loadOpts
}

// Option customizes how the client is built for one export source. With no
// options at all the SDK walks its usual chain, from AWS_PROFILE through
// ~/.aws/config, ~/.aws/credentials and instance metadata.
type Option func(*options)

// WithProfile selects a shared config profile. Source configs that name a
// profile get their own credentials without touching AWS_PROFILE. Empty is
// a no-op.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithRegion overrides the region. Empty is a no-op and leaves the
// env/profile/metadata chain in charge.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint points the client at a non-AWS object store (MinIO,
// localstack). Empty is a no-op.
func WithEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
}

// WithRetryer swaps the SDK's standard retry strategy for a custom one.
func WithRetryer(newRetryer func() awsv2.Retryer) Option {
	return func(o *options) { o.retryer = newRetryer }
}

// NewClient builds an S3 client for an export source in one step. Empty
// option values fall through to the ambient AWS setup, so callers can pass
// source config fields unconditionally.
func NewClient(ctx context.Context, opts ...Option) (*s3v2.Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var svcOpts []func(*s3v2.Options)
	if o.endpoint != "" {
		svcOpts = append(svcOpts, WithS3Endpoint(o.endpoint))
	}

	return NewS3(cfg, svcOpts...), nil
}

// LoadAWSConfig resolves an SDK v2 config, starting from the shell's AWS
// setup and layering any Option overrides on top.
func LoadAWSConfig(ctx context.Context, opts ...Option) (awsv2.Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log.Debugf("aws overrides: profile=%q region=%q endpoint=%q",
		o.profile, o.region, o.endpoint)

	cfg, err := config.LoadDefaultConfig(ctx, o.loadOptions()...)
	if err != nil {
		log.Debugf("aws config load failed: %v", err)
	}
	return cfg, err
}

// NewS3 wraps a loaded config in an S3 client. Service-level options such as
// WithS3Endpoint apply here rather than at config load time.
func NewS3(cfg awsv2.Config, optFns ...func(*s3v2.Options)) *s3v2.Client {
	return s3v2.NewFromConfig(cfg, optFns...)
}

// WithS3Endpoint is the service-level option behind WithEndpoint. Path-style
// addressing is forced because bucket virtual-hosting rarely resolves off
// AWS.
func WithS3Endpoint(url string) func(*s3v2.Options) {
	return func(o *s3v2.Options) {
		o.BaseEndpoint = awsv2.String(url)
		o.UsePathStyle = true
	}
}
