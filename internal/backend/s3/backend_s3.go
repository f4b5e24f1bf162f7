// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	awsx "github.com/pexctl/pexctl/internal/aws"
	"github.com/pexctl/pexctl/internal/differ"
	"github.com/pexctl/pexctl/internal/evutil"
	"github.com/pexctl/pexctl/internal/export"
)

// BackendS3 reads export versions from a versioned S3 object. Every upload of
// the export key becomes one version.
type BackendS3 struct {
	Ctx           context.Context
	Cmd           *cli.Command
	RootDir       string `json:"-" validate:"dir"`
	LabelOverride string
	Version       int `json:"version" validate:"gte=1"`
	Source        struct {
		Type   string `json:"type" validate:"eq=s3"`
		Config struct {
			Bucket   string `json:"bucket"`
			Key      string `json:"key"`
			Prefix   string `json:"label_key_prefix"`
			Region   string `json:"region"`
			Profile  string `json:"profile"`
			Endpoint string `json:"endpoint"`
			Encrypt  bool   `json:"encrypt"`
			KmsKeyID string `json:"kms_key_id"`
		} `json:"config"`
		Hash int `json:"hash"`
	} `json:"source"`
}

// client builds the S3 client for this source. Profile, region, and endpoint
// come from source.json; anything empty falls through to the ambient AWS
// setup. Retries are capped because an interactive listing is better off
// failing fast than riding out the SDK's full backoff schedule.
func (be *BackendS3) client() (*s3v2.Client, error) {
	svc, err := awsx.NewClient(be.Ctx,
		awsx.WithProfile(be.Source.Config.Profile),
		awsx.WithRegion(be.Source.Config.Region),
		awsx.WithEndpoint(be.Source.Config.Endpoint),
		awsx.WithRetryer(func() awsv2.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), 2)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return svc, nil
}

// objectKey resolves the S3 key of the export object for the current label.
// An explicit override wins; a prefixed layout otherwise reads the label pin
// under .pexctl.
func (be *BackendS3) objectKey() string {
	label := be.LabelOverride
	if label == "" && be.Source.Config.Prefix != "" {
		if pin, err := os.ReadFile(filepath.Join(be.RootDir, ".pexctl", "label")); err == nil {
			label = string(bytes.TrimSpace(pin))
		}
	}

	return filepath.Join(be.Source.Config.Prefix, label, be.Source.Config.Key)
}

func (be *BackendS3) DiffExports(ctx context.Context, cmd *cli.Command) ([][]byte, error) {
	// Newest pair unless the diff args say otherwise.
	evSpecs := []string{"EV~1", "EV~0"}

	diffArgs := differ.ParseDiffArgs(ctx, cmd)
	switch {
	case len(diffArgs) == 2:
		evSpecs = diffArgs
	case len(diffArgs) == 1 && strings.HasPrefix(diffArgs[0], "+"):
		versionList, err := be.Versions()
		if err != nil {
			return nil, fmt.Errorf("failed to get export version list: %v", err)
		}

		picked := differ.SelectVersions(versionList)
		log.Debugf("picked versions: %d", len(picked))

		if len(picked) == 0 {
			return nil, nil
		}
		if len(picked) == 2 {
			evSpecs = []string{picked[1].ID, picked[0].ID}
		}
	case len(diffArgs) == 1:
		evSpecs[0] = diffArgs[0]
	}

	snapshots, _ := be.Snapshots(evSpecs[0], evSpecs[1])

	return snapshots, nil
}

func (be *BackendS3) Snapshot() ([]byte, error) {
	snapshots, err := be.Snapshots(be.Cmd.String("ev"))
	if err != nil {
		return nil, err
	}

	return snapshots[0], nil
}

// SnapshotBody fetches the export payload for one S3 object version id,
// consulting the cache first.
func (be *BackendS3) SnapshotBody(evID string) ([]byte, error) {
	if err := purgeCache(); err != nil {
		log.WithError(err).Warn("cache purge failed")
	}

	if entry, ok := be.cacheRead(evID); ok {
		return entry.Data, nil
	}

	svc, err := be.client()
	if err != nil {
		return nil, err
	}

	result, err := svc.GetObject(be.Ctx, &s3v2.GetObjectInput{
		Bucket:    awsv2.String(be.Source.Config.Bucket),
		Key:       awsv2.String(be.objectKey()),
		VersionId: awsv2.String(evID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch export version %s: %w", evID, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export payload: %w", err)
	}

	return data, nil
}

// listAllVersions pages through every object version under key and returns
// them along with the time of the newest delete marker on the key itself.
// Versions older than that marker belong to a deleted export.
func (be *BackendS3) listAllVersions(svc *s3v2.Client, key string) ([]types.ObjectVersion, time.Time, error) {
	paginator := s3v2.NewListObjectVersionsPaginator(svc, &s3v2.ListObjectVersionsInput{
		Bucket: awsv2.String(be.Source.Config.Bucket),
		Prefix: awsv2.String(key),
	})

	var versions []types.ObjectVersion
	var lastDelete time.Time
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(be.Ctx)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to list object versions: %w", err)
		}

		for _, m := range page.DeleteMarkers {
			// The prefix matches sidecar objects too, so pin to the key.
			if m.Key == nil || *m.Key != key {
				continue
			}
			if m.LastModified != nil && m.LastModified.After(lastDelete) {
				lastDelete = *m.LastModified
			}
		}

		versions = append(versions, page.Versions...)
	}

	return versions, lastDelete, nil
}

// versionFromObject resolves one S3 object version into an export.Version.
// The payload comes from the local cache when possible, otherwise from S3
// with a cache write on the way through.
func (be *BackendS3) versionFromObject(svc *s3v2.Client, v types.ObjectVersion, key string) *export.Version {
	if v.VersionId == nil || v.LastModified == nil {
		return nil
	}

	var body []byte
	if entry, ok := be.cacheRead(*v.VersionId); ok {
		body = entry.Data
	} else {
		obj, err := svc.GetObject(be.Ctx, &s3v2.GetObjectInput{
			Bucket:    awsv2.String(be.Source.Config.Bucket),
			Key:       awsv2.String(key),
			VersionId: v.VersionId,
		})
		if err != nil {
			log.WithError(err).Error("failed to fetch object version")
			return nil
		}

		body, err = io.ReadAll(obj.Body)
		obj.Body.Close()
		if err != nil {
			return nil
		}

		if err := be.cacheWrite(*v.VersionId, body); err != nil {
			log.WithError(err).Warn("cache write failed")
		}
	}

	doc, err := export.MaybeGunzip(body)
	if err != nil {
		return nil
	}

	number := export.VersionNumber(doc)
	if number < 0 {
		number = 0
	}

	ev := &export.Version{
		ID:            *v.VersionId,
		VersionNumber: number,
		CreatedAt:     *v.LastModified,
		RecordCount:   int(gjson.GetBytes(doc, "prompts.#").Int()),
		Source:        "s3",
	}
	if v.Size != nil {
		ev.FileSize = *v.Size
	}

	return ev
}

// Versions lists the surviving uploads of the export key, newest first. The
// S3 object version id becomes the export version ID and the version number
// comes out of the payload itself.
func (be *BackendS3) Versions(augmenter ...func(context.Context, *cli.Command, *export.ListOptions) error) ([]*export.Version, error) {
	key := be.objectKey()

	svc, err := be.client()
	if err != nil {
		return nil, err
	}

	objectVersions, lastDelete, err := be.listAllVersions(svc, key)
	if err != nil {
		return nil, err
	}

	combined := []*export.Version{}
	for _, v := range objectVersions {
		if v.Key == nil || *v.Key != key {
			if v.Key != nil {
				log.Debugf("skipping sidecar %s", *v.Key)
			}
			continue
		}
		if v.LastModified != nil && v.LastModified.Before(lastDelete) {
			continue
		}

		if ev := be.versionFromObject(svc, v, key); ev != nil {
			combined = append(combined, ev)
		}
	}

	sort.Slice(combined, func(i, j int) bool {
		return combined[i].CreatedAt.After(combined[j].CreatedAt)
	})

	// Anything from the first zero version number on predates the first real
	// upload.
	current := []*export.Version{}
	for _, v := range combined {
		if v.VersionNumber == 0 {
			break
		}
		current = append(current, v)
	}

	if limit := be.Cmd.Int("limit"); limit > 0 && len(current) > limit {
		current = current[:limit]
	}

	return current, nil
}

func (be *BackendS3) Snapshots(specs ...string) ([][]byte, error) {
	candidates, _ := be.Versions()
	versions, err := evutil.Resolve(candidates, specs...)
	if err != nil {
		return nil, err
	}
	log.Debugf("resolved %d of %d versions", len(versions), len(candidates))

	results := make([][]byte, 0, len(versions))
	for _, v := range versions {
		body, err := be.SnapshotBody(v.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get export: %w", err)
		}
		results = append(results, body)
	}

	return results, nil
}

func (be *BackendS3) String() string {
	return "s3://" + be.Source.Config.Bucket + "/" + be.Source.Config.Key
}

func (be *BackendS3) Type() (string, error) {
	return be.Source.Type, nil
}
