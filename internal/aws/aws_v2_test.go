// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"context"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOptions verifies that each Option populates its field and that empty
// values stay empty, since backends pass source config fields
// unconditionally.
func TestOptions(t *testing.T) {
	tests := []struct {
		name         string
		opts         []Option
		wantProfile  string
		wantRegion   string
		wantEndpoint string
	}{
		{
			name: "all empty is the ambient chain",
			opts: []Option{WithProfile(""), WithRegion(""), WithEndpoint("")},
		},
		{
			name:        "profile only",
			opts:        []Option{WithProfile("prompt-exports")},
			wantProfile: "prompt-exports",
		},
		{
			name:       "region only",
			opts:       []Option{WithRegion("us-east-1")},
			wantRegion: "us-east-1",
		},
		{
			name:         "minio endpoint",
			opts:         []Option{WithEndpoint("http://minio.internal:9000")},
			wantEndpoint: "http://minio.internal:9000",
		},
		{
			name: "full source config",
			opts: []Option{
				WithProfile("acme-prod"),
				WithRegion("eu-west-1"),
				WithEndpoint("https://objects.acme.example"),
			},
			wantProfile:  "acme-prod",
			wantRegion:   "eu-west-1",
			wantEndpoint: "https://objects.acme.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o options
			for _, opt := range tt.opts {
				opt(&o)
			}
			assert.Equal(t, tt.wantProfile, o.profile)
			assert.Equal(t, tt.wantRegion, o.region)
			assert.Equal(t, tt.wantEndpoint, o.endpoint)
		})
	}
}

// TestWithRetryer verifies that WithRetryer sets the retryer function
// option.
func TestWithRetryer(t *testing.T) {
	mockRetryer := func() awsv2.Retryer {
		return retry.NewStandard()
	}

	var opts options
	opt := WithRetryer(mockRetryer)
	opt(&opts)

	assert.NotNil(t, opts.retryer)
	result := opts.retryer()
	assert.NotNil(t, result)
}

// TestLoadAWSConfig_NoOptions verifies LoadAWSConfig loads successfully
// with no overrides, relying on defaults and environment.
func TestLoadAWSConfig_NoOptions(t *testing.T) {
	ctx := context.Background()
	cfg, err := LoadAWSConfig(ctx)

	// The default config chain loads without network access even when no
	// credentials are available locally.
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
}

// TestLoadAWSConfig_WithRegion verifies that the region option lands in
// the loaded config.
func TestLoadAWSConfig_WithRegion(t *testing.T) {
	ctx := context.Background()
	testRegion := "us-west-2"

	cfg, err := LoadAWSConfig(ctx, WithRegion(testRegion))

	assert.NoError(t, err)
	assert.Equal(t, testRegion, cfg.Region)
}

// TestLoadAWSConfig_LaterOptionWins verifies that a later option overrides
// an earlier one, matching how a flag can override a source config value.
func TestLoadAWSConfig_LaterOptionWins(t *testing.T) {
	ctx := context.Background()
	cfg, err := LoadAWSConfig(
		ctx,
		WithRegion("us-east-1"),
		WithRegion("eu-west-1"),
	)

	assert.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

// TestLoadAWSConfig_ContextCancellation verifies that LoadAWSConfig
// tolerates an already-cancelled context. Depending on timing the load may
// error; either outcome is acceptable.
func TestLoadAWSConfig_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _ = LoadAWSConfig(ctx)
}

// TestWithS3Endpoint verifies the service option sets the base endpoint and
// forces path-style addressing.
func TestWithS3Endpoint(t *testing.T) {
	var o s3v2.Options
	WithS3Endpoint("http://minio.internal:9000")(&o)

	assert.Equal(t, "http://minio.internal:9000", awsv2.ToString(o.BaseEndpoint))
	assert.True(t, o.UsePathStyle)
}

// TestNewS3 verifies that NewS3 constructs a client and applies service
// options.
func TestNewS3(t *testing.T) {
	ctx := context.Background()
	cfg, err := LoadAWSConfig(ctx, WithRegion("us-east-1"))
	require.NoError(t, err)

	client := NewS3(cfg, WithS3Endpoint("http://minio.internal:9000"))

	assert.NotNil(t, client)
	assert.IsType(t, &s3v2.Client{}, client)
}

// TestNewClient verifies the one-step constructor with source config style
// options, including all-empty.
func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{
			name: "ambient chain",
			opts: []Option{WithProfile(""), WithRegion(""), WithEndpoint("")},
		},
		{
			name: "region and endpoint",
			opts: []Option{
				WithRegion("us-east-1"),
				WithEndpoint("http://minio.internal:9000"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.opts...)
			assert.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}
