// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

//go:build integration
// +build integration

package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newVersionedBucket creates a bucket with versioning enabled and returns a
// cleanup that drains every version and delete marker before removing it.
// Requires real AWS credentials (env vars, config files, IMDS, etc.).
func newVersionedBucket(t *testing.T, ctx context.Context, client *s3v2.Client, bucket string) func() {
	t.Helper()

	_, err := client.CreateBucket(ctx, &s3v2.CreateBucketInput{
		Bucket: awsv2.String(bucket),
	})
	require.NoError(t, err)

	_, err = client.PutBucketVersioning(ctx, &s3v2.PutBucketVersioningInput{
		Bucket: awsv2.String(bucket),
		VersioningConfiguration: &types.VersioningConfiguration{
			Status: types.BucketVersioningStatusEnabled,
		},
	})
	require.NoError(t, err)

	// Versioning takes a moment to apply to new buckets.
	time.Sleep(2 * time.Second)

	return func() {
		out, err := client.ListObjectVersions(ctx, &s3v2.ListObjectVersionsInput{
			Bucket: awsv2.String(bucket),
		})
		if err == nil {
			for _, v := range out.Versions {
				client.DeleteObject(ctx, &s3v2.DeleteObjectInput{
					Bucket:    awsv2.String(bucket),
					Key:       v.Key,
					VersionId: v.VersionId,
				})
			}
			for _, d := range out.DeleteMarkers {
				client.DeleteObject(ctx, &s3v2.DeleteObjectInput{
					Bucket:    awsv2.String(bucket),
					Key:       d.Key,
					VersionId: d.VersionId,
				})
			}
		}
		client.DeleteBucket(ctx, &s3v2.DeleteBucketInput{
			Bucket: awsv2.String(bucket),
		})
	}
}

// TestIntegration_ExportVersionRoundTrip uploads the export key twice and
// verifies that each upload is retrievable as its own object version, which
// is the property the s3 backend is built on.
func TestIntegration_ExportVersionRoundTrip(t *testing.T) {
	ctx := context.Background()

	client, err := NewClient(ctx, WithRegion("us-east-1"))
	require.NoError(t, err)

	bucket := fmt.Sprintf("pexctl-it-%d", time.Now().UnixNano())
	cleanup := newVersionedBucket(t, ctx, client, bucket)
	defer cleanup()

	key := "prompts.export.json"
	v1 := []byte(`{"version":1,"exportedAt":"2026-01-05T10:00:00Z","prompts":[]}`)
	v2 := []byte(`{"version":2,"exportedAt":"2026-01-06T10:00:00Z","prompts":[]}`)

	for _, payload := range [][]byte{v1, v2} {
		_, err := client.PutObject(ctx, &s3v2.PutObjectInput{
			Bucket: awsv2.String(bucket),
			Key:    awsv2.String(key),
			Body:   bytes.NewReader(payload),
		})
		require.NoError(t, err)
	}

	out, err := client.ListObjectVersions(ctx, &s3v2.ListObjectVersionsInput{
		Bucket: awsv2.String(bucket),
		Prefix: awsv2.String(key),
	})
	require.NoError(t, err)
	require.Len(t, out.Versions, 2)

	// Versions come back newest first, so the last entry is the first
	// upload.
	oldest := out.Versions[len(out.Versions)-1]
	obj, err := client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket:    awsv2.String(bucket),
		Key:       awsv2.String(key),
		VersionId: oldest.VersionId,
	})
	require.NoError(t, err)

	body, err := io.ReadAll(obj.Body)
	obj.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, v1, body)
}

// TestIntegration_DeleteMarkerListed verifies that deleting the export key
// leaves the prior versions listable alongside a delete marker. The backend
// uses the marker timestamp to hide versions older than the delete.
func TestIntegration_DeleteMarkerListed(t *testing.T) {
	ctx := context.Background()

	client, err := NewClient(ctx, WithRegion("us-east-1"))
	require.NoError(t, err)

	bucket := fmt.Sprintf("pexctl-it-%d", time.Now().UnixNano())
	cleanup := newVersionedBucket(t, ctx, client, bucket)
	defer cleanup()

	key := "prompts.export.json"
	_, err = client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket: awsv2.String(bucket),
		Key:    awsv2.String(key),
		Body:   bytes.NewReader([]byte(`{"version":1,"exportedAt":"2026-01-05T10:00:00Z","prompts":[]}`)),
	})
	require.NoError(t, err)

	_, err = client.DeleteObject(ctx, &s3v2.DeleteObjectInput{
		Bucket: awsv2.String(bucket),
		Key:    awsv2.String(key),
	})
	require.NoError(t, err)

	out, err := client.ListObjectVersions(ctx, &s3v2.ListObjectVersionsInput{
		Bucket: awsv2.String(bucket),
		Prefix: awsv2.String(key),
	})
	require.NoError(t, err)

	assert.Len(t, out.DeleteMarkers, 1)
	assert.Len(t, out.Versions, 1)
}
