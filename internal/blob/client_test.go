// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/hara/internal/blob"
)

var testCreds = blob.Credentials{AppKey: "key", AppSecret: "secret", RefreshToken: "refresh"}

// fakeDropbox imitates the handful of Dropbox endpoints the client calls.
type fakeDropbox struct {
	server *httptest.Server

	tokenCalls  atomic.Int32
	expiresIn   int64
	linkExists  bool
	failUpload  bool
	uploadedArg string
	uploadedLen int

	mu      sync.Mutex
	deleted []string
}

func (fake *fakeDropbox) deletedPaths() []string {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return append([]string{}, fake.deleted...)
}

func newFakeDropbox(t *testing.T) *fakeDropbox {
	t.Helper()
	fake := &fakeDropbox{expiresIn: 14400}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(writer http.ResponseWriter, request *http.Request) {
		fake.tokenCalls.Add(1)
		if request.FormValue("grant_type") != "refresh_token" || request.FormValue("refresh_token") != "refresh" ||
			request.FormValue("client_id") != "key" || request.FormValue("client_secret") != "secret" {
			http.Error(writer, "bad grant", http.StatusBadRequest)
			return
		}
		writeJSON(writer, map[string]any{"access_token": "tok", "expires_in": fake.expiresIn})
	})
	mux.HandleFunc("/2/files/upload", func(writer http.ResponseWriter, request *http.Request) {
		if fake.failUpload || request.Header.Get("Authorization") != "Bearer tok" {
			http.Error(writer, "denied", http.StatusUnauthorized)
			return
		}
		data, _ := io.ReadAll(request.Body)
		header := request.Header.Get("Dropbox-API-Arg")
		fake.mu.Lock()
		fake.uploadedArg = header
		fake.uploadedLen = len(data)
		fake.mu.Unlock()

		var arg struct {
			Path string `json:"path"`
		}
		_ = json.Unmarshal([]byte(header), &arg)
		writeJSON(writer, map[string]any{"path_display": arg.Path, "path_lower": strings.ToLower(arg.Path), "size": len(data)})
	})
	mux.HandleFunc("/2/sharing/create_shared_link_with_settings", func(writer http.ResponseWriter, request *http.Request) {
		if fake.linkExists {
			http.Error(writer, `{"error_summary":"shared_link_already_exists/"}`, http.StatusConflict)
			return
		}
		writeJSON(writer, map[string]any{"url": "https://www.dropbox.com/s/new/photo.jpg?dl=0"})
	})
	mux.HandleFunc("/2/sharing/list_shared_links", func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, map[string]any{"links": []map[string]string{{"url": "https://www.dropbox.com/scl/old/photo.jpg?rlkey=abc&dl=0"}}})
	})
	mux.HandleFunc("/2/sharing/get_shared_link_metadata", func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			URL string `json:"url"`
		}
		_ = json.NewDecoder(request.Body).Decode(&body)
		if !strings.HasPrefix(body.URL, "https://www.dropbox.com/") {
			http.Error(writer, "unknown link", http.StatusConflict)
			return
		}
		writeJSON(writer, map[string]any{"path_lower": "/hara/photo.jpg"})
	})
	mux.HandleFunc("/2/files/delete_v2", func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			Path string `json:"path"`
		}
		_ = json.NewDecoder(request.Body).Decode(&body)
		fake.mu.Lock()
		fake.deleted = append(fake.deleted, body.Path)
		fake.mu.Unlock()
		writeJSON(writer, map[string]any{"metadata": map[string]string{"path_lower": body.Path}})
	})

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func (fake *fakeDropbox) client(creds blob.Credentials) *blob.Client {
	return blob.New(blob.Config{
		Credentials: creds,
		Folder:      "/hara/",
		Endpoints: blob.Endpoints{
			Token:   fake.server.URL + "/oauth2/token",
			API:     fake.server.URL,
			Content: fake.server.URL,
		},
		HTTPClient:  fake.server.Client(),
		UploadRate:  1000,
		UploadBurst: 10,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeJSON(writer http.ResponseWriter, body any) {
	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(body)
}

/*
TestDirectLink verifies shared links are rewritten to direct download URLs.
*/
func TestDirectLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.dropbox.com/s/abc/a.jpg?dl=0", "https://dl.dropboxusercontent.com/s/abc/a.jpg"},
		{"https://www.dropbox.com/scl/fi/a.jpg?rlkey=k&dl=0", "https://dl.dropboxusercontent.com/scl/fi/a.jpg?rlkey=k"},
		{"https://dl.dropboxusercontent.com/s/abc/a.jpg", "https://dl.dropboxusercontent.com/s/abc/a.jpg"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, blob.DirectLink(tc.in))
	}
}

/*
TestUpload_CreatesPublicLink verifies the upload path, arguments and returned link.
*/
func TestUpload_CreatesPublicLink(t *testing.T) {
	fake := newFakeDropbox(t)

	upload, err := fake.client(testCreds).Upload(context.Background(), "photo.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://dl.dropboxusercontent.com/s/new/photo.jpg", upload.URL)
	assert.True(t, strings.HasPrefix(upload.Path, "/hara/photo_"))
	assert.True(t, strings.HasSuffix(upload.Path, ".jpg"))
	assert.Equal(t, int64(len("jpeg-bytes")), upload.Size)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, len("jpeg-bytes"), fake.uploadedLen)
	var arg map[string]any
	require.NoError(t, json.Unmarshal([]byte(fake.uploadedArg), &arg))
	assert.Equal(t, "add", arg["mode"])
	assert.Equal(t, true, arg["autorename"])
}

/*
TestUpload_ReusesExistingLink verifies the list fallback when a link already exists.
*/
func TestUpload_ReusesExistingLink(t *testing.T) {
	fake := newFakeDropbox(t)
	fake.linkExists = true

	upload, err := fake.client(testCreds).Upload(context.Background(), "photo.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "https://dl.dropboxusercontent.com/scl/old/photo.jpg?rlkey=abc", upload.URL)
}

/*
TestUpload_Failures covers missing credentials and a rejected upload.
*/
func TestUpload_Failures(t *testing.T) {
	fake := newFakeDropbox(t)

	_, err := fake.client(blob.Credentials{}).Upload(context.Background(), "a.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, blob.ErrNotConfigured)

	fake.failUpload = true
	_, err = fake.client(testCreds).Upload(context.Background(), "a.jpg", strings.NewReader("x"))
	assert.Error(t, err)
}

/*
TestToken_CachedAndShared verifies concurrent callers trigger a single refresh.
*/
func TestToken_CachedAndShared(t *testing.T) {
	fake := newFakeDropbox(t)
	source := blob.NewTokenSource(fake.server.Client(), fake.server.URL+"/oauth2/token", testCreds)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := source.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok", token)
		}()
	}
	wg.Wait()

	_, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
}

/*
TestToken_ShortLivedNotCached verifies a token inside the expiry margin is refreshed every time.
*/
func TestToken_ShortLivedNotCached(t *testing.T) {
	fake := newFakeDropbox(t)
	fake.expiresIn = 60
	source := blob.NewTokenSource(fake.server.Client(), fake.server.URL+"/oauth2/token", testCreds)

	_, err := source.Token(context.Background())
	require.NoError(t, err)
	_, err = source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
}

/*
TestDeleteByURL covers Dropbox links, foreign links and unknown links.
*/
func TestDeleteByURL(t *testing.T) {
	fake := newFakeDropbox(t)
	client := fake.client(testCreds)

	assert.True(t, client.DeleteByURL(context.Background(), "https://dl.dropboxusercontent.com/s/new/photo.jpg"))
	assert.False(t, client.DeleteByURL(context.Background(), "https://cdn.example.com/photo.jpg"))
	assert.False(t, client.DeleteByURL(context.Background(), "data:image/jpeg;base64,AAAA"))
	assert.Equal(t, []string{"/hara/photo.jpg"}, fake.deletedPaths())

	assert.True(t, client.Delete(context.Background(), "/hara/other.jpg"))
	assert.Equal(t, []string{"/hara/photo.jpg", "/hara/other.jpg"}, fake.deletedPaths())
}

/*
TestToken_RefreshRejected verifies a rejected grant surfaces as an error and is not cached.
*/
func TestToken_RefreshRejected(t *testing.T) {
	fake := newFakeDropbox(t)
	creds := blob.Credentials{AppKey: "key", AppSecret: "secret", RefreshToken: "revoked"}
	source := blob.NewTokenSource(fake.server.Client(), fake.server.URL+"/oauth2/token", creds)

	_, err := source.Token(context.Background())
	require.Error(t, err)

	_, err = source.Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
}
