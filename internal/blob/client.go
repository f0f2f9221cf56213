// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// # Configuration

// Endpoints are the Dropbox API base URLs. Tests point them at a local server.
type Endpoints struct {
	Token   string
	API     string
	Content string
}

// DefaultEndpoints are the production Dropbox hosts.
var DefaultEndpoints = Endpoints{
	Token:   "https://api.dropboxapi.com/oauth2/token",
	API:     "https://api.dropboxapi.com",
	Content: "https://content.dropboxapi.com",
}

// Config configures a [Client].
type Config struct {
	Credentials Credentials
	// Folder is the Dropbox folder uploads go to, e.g. "/hara".
	Folder     string
	Endpoints  Endpoints
	HTTPClient *http.Client
	// UploadRate bounds uploads per second; zero means one per second.
	UploadRate  rate.Limit
	UploadBurst int
}

// Upload describes a stored file.
type Upload struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// # Client

// Client talks to the Dropbox HTTP API.
type Client struct {
	httpClient *http.Client
	tokens     *TokenSource
	endpoints  Endpoints
	folder     string
	limiter    *rate.Limiter
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a client. Empty endpoint fields take [DefaultEndpoints].
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Endpoints.Token == "" {
		cfg.Endpoints.Token = DefaultEndpoints.Token
	}
	if cfg.Endpoints.API == "" {
		cfg.Endpoints.API = DefaultEndpoints.API
	}
	if cfg.Endpoints.Content == "" {
		cfg.Endpoints.Content = DefaultEndpoints.Content
	}
	if cfg.Folder == "" {
		cfg.Folder = "/hara"
	}
	if cfg.UploadRate == 0 {
		cfg.UploadRate = 1
	}
	if cfg.UploadBurst < 1 {
		cfg.UploadBurst = 3
	}

	return &Client{
		httpClient: cfg.HTTPClient,
		tokens:     NewTokenSource(cfg.HTTPClient, cfg.Endpoints.Token, cfg.Credentials),
		endpoints:  cfg.Endpoints,
		folder:     strings.TrimSuffix(cfg.Folder, "/"),
		limiter:    rate.NewLimiter(cfg.UploadRate, cfg.UploadBurst),
		logger:     logger,
		now:        time.Now,
	}
}

// # Upload

type uploadArg struct {
	Path       string `json:"path"`
	Mode       string `json:"mode"`
	Autorename bool   `json:"autorename"`
	Mute       bool   `json:"mute"`
}

type fileMetadata struct {
	PathDisplay string `json:"path_display"`
	PathLower   string `json:"path_lower"`
	Size        int64  `json:"size"`
}

type sharedLink struct {
	URL string `json:"url"`
}

type sharedLinkList struct {
	Links []sharedLink `json:"links"`
}

/*
Upload stores body under the configured folder and returns its public link.

Description: The file name gets a millisecond timestamp so re-uploading the
same name never collides. A public shared link is created; if one already
exists it is looked up instead. The link is rewritten to a direct download URL.
*/
func (client *Client) Upload(ctx context.Context, name string, body io.Reader) (Upload, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return Upload{}, fmt.Errorf("blob: upload rate: %w", err)
	}

	token, err := client.tokens.Token(ctx)
	if err != nil {
		return Upload{}, err
	}

	arg, err := json.Marshal(uploadArg{
		Path:       client.folder + "/" + timestampedName(name, client.now()),
		Mode:       "add",
		Autorename: true,
	})
	if err != nil {
		return Upload{}, fmt.Errorf("blob: encode upload arg: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoints.Content+"/2/files/upload", body)
	if err != nil {
		return Upload{}, fmt.Errorf("blob: upload request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Content-Type", "application/octet-stream")
	request.Header.Set("Dropbox-API-Arg", string(arg))

	var metadata fileMetadata
	if err := doJSON(client.httpClient, request, &metadata); err != nil {
		return Upload{}, fmt.Errorf("blob: upload: %w", err)
	}

	link, err := client.shareLink(ctx, token, metadata.PathDisplay)
	if err != nil {
		return Upload{}, err
	}

	client.logger.InfoContext(ctx, "blob_uploaded",
		slog.String("path", metadata.PathDisplay),
		slog.Int64("size", metadata.Size),
	)
	return Upload{URL: DirectLink(link), Path: metadata.PathDisplay, Size: metadata.Size}, nil
}

func (client *Client) shareLink(ctx context.Context, token, filePath string) (string, error) {
	var created sharedLink
	err := client.apiCall(ctx, token, "/2/sharing/create_shared_link_with_settings", map[string]any{
		"path":     filePath,
		"settings": map[string]string{"requested_visibility": "public"},
	}, &created)
	if err == nil {
		return created.URL, nil
	}
	client.logger.DebugContext(ctx, "blob_share_link_exists", slog.String("path", filePath), slog.Any("error", err))

	var existing sharedLinkList
	if err := client.apiCall(ctx, token, "/2/sharing/list_shared_links", map[string]any{
		"path":        filePath,
		"direct_only": true,
	}, &existing); err != nil {
		return "", fmt.Errorf("blob: list shared links: %w", err)
	}
	if len(existing.Links) == 0 {
		return "", fmt.Errorf("blob: no shared link for %s", filePath)
	}
	return existing.Links[0].URL, nil
}

// # Delete

// Delete removes the file at filePath. Failures are logged and reported as false.
func (client *Client) Delete(ctx context.Context, filePath string) bool {
	token, err := client.tokens.Token(ctx)
	if err != nil {
		client.logger.WarnContext(ctx, "blob_delete_failed", slog.String("path", filePath), slog.Any("error", err))
		return false
	}

	if err := client.apiCall(ctx, token, "/2/files/delete_v2", map[string]string{"path": filePath}, nil); err != nil {
		client.logger.WarnContext(ctx, "blob_delete_failed", slog.String("path", filePath), slog.Any("error", err))
		return false
	}
	return true
}

// DeleteByURL resolves a shared link back to its file and deletes it. URLs
// that are not Dropbox links are ignored.
func (client *Client) DeleteByURL(ctx context.Context, link string) bool {
	if link == "" || !strings.Contains(link, "dropbox") {
		return false
	}

	token, err := client.tokens.Token(ctx)
	if err != nil {
		client.logger.WarnContext(ctx, "blob_delete_failed", slog.String("url", link), slog.Any("error", err))
		return false
	}

	var metadata fileMetadata
	shared := strings.Replace(link, "dl.dropboxusercontent.com", "www.dropbox.com", 1)
	if err := client.apiCall(ctx, token, "/2/sharing/get_shared_link_metadata", map[string]string{"url": shared}, &metadata); err != nil {
		client.logger.WarnContext(ctx, "blob_delete_failed", slog.String("url", link), slog.Any("error", err))
		return false
	}
	return client.Delete(ctx, metadata.PathLower)
}

// # Helpers

// DirectLink turns a Dropbox shared link into a direct download URL.
func DirectLink(link string) string {
	link = strings.Replace(link, "www.dropbox.com", "dl.dropboxusercontent.com", 1)
	link = strings.Replace(link, "?dl=0", "", 1)
	return strings.Replace(link, "&dl=0", "", 1)
}

// timestampedName inserts a millisecond timestamp before the extension.
func timestampedName(name string, now time.Time) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = "image"
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "_" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

func (client *Client) apiCall(ctx context.Context, token, endpoint string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", endpoint, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoints.API+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s: %w", endpoint, err)
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Content-Type", "application/json")

	return doJSON(client.httpClient, request, target)
}

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 512

// doJSON sends request and decodes a 2xx JSON body into target (nil discards it).
func doJSON(httpClient *http.Client, request *http.Request, target any) error {
	response, err := httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return fmt.Errorf("%s: status %d: %s", request.URL.Path, response.StatusCode, strings.TrimSpace(string(detail)))
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("%s: decode: %w", request.URL.Path, err)
	}
	return nil
}
