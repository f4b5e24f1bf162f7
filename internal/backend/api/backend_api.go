// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/hashicorp/jsonapi"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/differ"
	"github.com/pexctl/pexctl/internal/evutil"
	"github.com/pexctl/pexctl/internal/export"
)

type BackendAPI struct {
	Ctx         context.Context
	Cmd         *cli.Command
	RootDir     string `json:"-" validate:"dir"`
	VersionList []*export.Version
	Version     int `json:"version" validate:"gte=1"`
	Source        struct {
		Type   string `json:"type" validate:"eq=api"`
		Hash   int    `json:"hash"`
		Config struct {
			Hostname     string `json:"hostname" validate:"hostname"`
			Organization string `json:"organization" validate:"required"`
			Token        any    `json:"token"`
		} `json:"config"`
	} `json:"source"`
}

// Sentinel errors for validation and response mapping. These enable callers to
// detect specific conditions via errors.Is/As while keeping messages
// consistent.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrBadStatus          = errors.New("unexpected response status")
	ErrOrganizationNotSet = errors.New("organization is not set")
)

// Client holds an authenticated connection to the prompt service named in the
// api source.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// Client resolves the token and returns a client for the host specified in
// the api source.
func (be *BackendAPI) Client() (*Client, error) {
	// Resolve token using standard precedence (env, config, credentials file).
	token, err := be.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	return &Client{
		base:  "https://" + be.Source.Config.Hostname,
		token: token,
		http:  &http.Client{},
	}, nil
}

// get executes an authenticated GET against the service and returns the
// response body. Well-known statuses map to sentinel errors.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", jsonapi.MediaType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrResourceNotFound
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return doc.Bytes(), nil
}

func (be *BackendAPI) DiffExports(ctx context.Context, cmd *cli.Command) ([][]byte, error) {
	left, right := "EV~1", "EV~0"

	diffArgs := differ.ParseDiffArgs(ctx, cmd)
	if len(diffArgs) == 2 {
		left, right = diffArgs[0], diffArgs[1]
	} else if len(diffArgs) == 1 && !strings.HasPrefix(diffArgs[0], "+") {
		left = diffArgs[0]
	} else if len(diffArgs) == 1 {
		// Interactive pick. Park the list on the struct so the Snapshots
		// call below reuses it instead of refetching every page.
		var err error
		if be.VersionList, err = be.Versions(); err != nil {
			return nil, err
		}

		picked := differ.SelectVersions(be.VersionList)
		log.Debugf("picked versions: %d", len(picked))

		if len(picked) == 0 {
			return nil, nil
		}
		if len(picked) == 2 {
			left, right = picked[1].ID, picked[0].ID
		}
	}

	snapshots, err := be.Snapshots(left, right)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}

	return snapshots, nil
}

// Host returns the prompt service host following this precedence:
// 1. --host flag value
// 2. hostname from the workspace source config
// 3. namespaced host entry from pexctl config file (source.api.host)
// 4. non-namespaced host entry from pexctl config file (host)
// 5. If no host is provided, defaults to app.promptex.io.
func (be *BackendAPI) Host() string {

	var host string

	// Precedence 1: --host flag
	if be.Cmd.IsSet("host") {
		host = be.Cmd.String("host")
		if host != "" {
			return host
		}
	}

	// Precedence 2: hostname from source config
	host = be.Source.Config.Hostname
	if host != "" {
		return host
	}

	// Precedence 3 & 4: from config file (namespaced then non-namespaced)
	host, err := config.GetString("host")
	if err == nil && host != "" {
		return host
	}

	// Default to the hosted service
	return "app.promptex.io"
}

// Organization returns the organization name following this precedence:
// 1. --org flag value
// 2. organization from the workspace source config
// 3. namespaced org entry from pexctl config file (source.api.org)
// 4. non-namespaced org entry from pexctl config file (org)
func (be *BackendAPI) Organization() (string, error) {

	var org string

	// Precedence 1: --org flag
	if be.Cmd.IsSet("org") {
		org = be.Cmd.String("org")
		if org != "" {
			return org, nil
		}
	}

	// Precedence 2: organization from source config
	org = be.Source.Config.Organization
	if org != "" {
		return org, nil
	}

	// Precedence 3 & 4: from config file (namespaced then non-namespaced)
	org, err := config.GetString("org")
	if err == nil && org != "" {
		return org, nil
	}

	return "", fmt.Errorf("organization is not set (precedence: --org flag > source.config.organization > pexctl.yaml org). Set --org or source.config.organization: %w", ErrOrganizationNotSet)
}

func (be *BackendAPI) Snapshot() ([]byte, error) {
	ev := be.Cmd.String("ev")
	snapshots, err := be.Snapshots(ev)
	if err != nil {
		return nil, err
	}
	return snapshots[0], nil
}

// Versions implements backend.Backend. It accepts an optional augmenter to
// apply server-side list options before each API call.
func (be *BackendAPI) Versions(augmenter ...func(context.Context, *cli.Command, *export.ListOptions) error) ([]*export.Version, error) {
	if len(be.VersionList) > 0 {
		log.Infof("be.VersionList: preloaded with %d", len(be.VersionList))
		return be.VersionList, nil
	}

	be.Source.Config.Hostname = be.Host()

	client, err := be.Client()
	if err != nil {
		log.WithError(err).Error("can't get client")
		return nil, err
	}

	// Short-circuit this if we're in pq but not --diff and no ev is passed.
	// This is the most common pq use case and there's no need to paginate
	// through all the version records when we know we're always going to take
	// the first one. This makes a noticeable performance difference on slow
	// servers or orgs with large version lists.
	diff := be.Cmd.Bool("diff")
	ev := be.Cmd.String("ev")
	limit := be.Cmd.Int("limit")
	if (be.Cmd.Name == "pq" || be.Cmd.Name == "pi" || be.Cmd.Name == "keep") && ev == "0" && !diff {
		limit = 1
	}

	pageSize := 100
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	organization, err := be.Organization()
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	log.Debugf("organization: %v", organization)

	options := export.ListOptions{PageNumber: 1, PageSize: pageSize}

	// Apply augmenter if provided (for server-side filtering)
	if len(augmenter) > 0 && augmenter[0] != nil {
		if err := augmenter[0](be.Ctx, be.Cmd, &options); err != nil {
			return nil, fmt.Errorf("failed to augment export version options: %w", err)
		}
	}

	var results []*export.Version

	// Paginate through the dataset
	for {
		page, nextPage, err := be.listPage(client, organization, &options)
		if err != nil {
			ctxErr := ErrorContext{
				Host:      be.Source.Config.Hostname,
				Org:       organization,
				Operation: "list export versions",
				Resource:  "exportversion",
			}
			return nil, FriendlyAPI(err, ctxErr)
		}

		results = append(results, page...)

		if limit > 0 && len(results) >= limit {
			results = results[:limit]
			break
		}

		log.Debugf("page: %d, total: %d", options.PageNumber, len(results))

		if nextPage == 0 {
			break
		}
		options.PageNumber = nextPage
	}

	return results, nil
}

// listPage fetches one page of export versions and returns the items plus the
// next page number (0 when this is the last page).
func (be *BackendAPI) listPage(client *Client, org string, options *export.ListOptions) ([]*export.Version, int, error) {
	query := url.Values{}
	query.Set("page[number]", strconv.Itoa(options.PageNumber))
	query.Set("page[size]", strconv.Itoa(options.PageSize))
	if options.Search != "" {
		query.Set("search", options.Search)
	}

	body, err := client.get(be.Ctx, "/api/v2/orgs/"+org+"/export-versions", query)
	if err != nil {
		return nil, 0, err
	}

	// UnmarshalManyPayload doesn't surface the meta block, so grab the
	// pagination cursor before unmarshaling the data.
	nextPage := int(gjson.GetBytes(body, "meta.pagination.next-page").Int())

	items, err := jsonapi.UnmarshalManyPayload(bytes.NewReader(body), reflect.TypeOf(new(export.Version)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal export versions: %w", err)
	}

	page := make([]*export.Version, 0, len(items))
	for _, item := range items {
		v, ok := item.(*export.Version)
		if !ok {
			continue
		}
		v.Source = "api"
		page = append(page, v)
	}

	return page, nextPage, nil
}

func (be *BackendAPI) Snapshots(specs ...string) ([][]byte, error) {
	var results [][]byte

	candidates, err := be.Versions()
	if err != nil {
		return nil, err
	}
	versions, err := evutil.Resolve(candidates, specs...)
	if err != nil {
		return nil, err
	}
	log.Debugf("versions: %v", versions)

	// Now pound through the found versions and return each of their bodies.
	for _, v := range versions {
		doc, err := be.fetch(v.DownloadURL)
		if err != nil {
			return nil, fmt.Errorf("failed to get export: %w", err)
		}
		results = append(results, doc.Bytes())
	}

	return results, nil
}

func (be *BackendAPI) String() string {
	beCopy := *be
	if beCopy.Source.Config.Token != nil {
		beCopy.Source.Config.Token = "********"
	}
	return fmt.Sprintf("ConfigAPI: %+v", beCopy)
}

// Token retrieves the token from the environment variable, config file, or
// the credentials file, in that order.
func (be *BackendAPI) Token() (string, error) {
	var token string

	// Figure out if Token needs to be overridden by an environment variable.
	// The precedence is:
	// 1. PEXCTL_TOKEN_app_promptex_io
	// 2. PEXCTL_TOKEN
	// 3. Token in the config file
	// 4. Token in the pexctl credentials file.
	hostname := strings.ReplaceAll(be.Source.Config.Hostname, ".", "_")
	if token = os.Getenv("PEXCTL_TOKEN_" + hostname); token == "" {
		token = os.Getenv("PEXCTL_TOKEN")
	}

	// If token was overridden by an environment variable, use that value and go
	// home early.
	if token != "" {
		return token, nil
	}

	token, _ = be.Source.Config.Token.(string)

	// Once we're here, token may have existed already in the config file or it
	// may have been overridden by an environment variable.  If it's still empty,
	// we need to try to get it from the credentials file.
	if token == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}

		credsFile := home + "/.pexctl/credentials.json"
		data, err := os.ReadFile(credsFile)
		if err != nil {
			return "", fmt.Errorf("failed to read credentials file: %w", err)
		}

		var creds struct {
			Credentials map[string]struct {
				Token string `json:"token"`
			} `json:"credentials"`
		}

		if err := json.Unmarshal(data, &creds); err != nil {
			return "", fmt.Errorf("failed to unmarshal credentials file: %w", err)
		}

		if cred, ok := creds.Credentials[be.Source.Config.Hostname]; ok {
			return cred.Token, nil
		}
	}

	return token, nil
}

func (be *BackendAPI) Type() (string, error) {
	return be.Source.Type, nil
}
