// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob stores uploaded slide images on Dropbox and hands back a
public direct link the kiosk can load.

Image URLs stay opaque strings to the slideshow; this package is only used
by the upload endpoint.
*/
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// expiryMargin is how long before expiry a cached token is refreshed.
const expiryMargin = 10 * time.Minute

const tokenCacheKey = "access_token"

// ErrNotConfigured is returned when app credentials are missing.
var ErrNotConfigured = errors.New("blob: dropbox credentials not configured")

// Credentials identify the Dropbox app and the account it acts for.
type Credentials struct {
	AppKey       string
	AppSecret    string
	RefreshToken string
}

// Complete reports whether every credential is set.
func (creds Credentials) Complete() bool {
	return creds.AppKey != "" && creds.AppSecret != "" && creds.RefreshToken != ""
}

// # Token Source

// TokenSource exchanges the refresh token for short-lived access tokens.
//
// A token is reused until ten minutes before it expires. Concurrent callers
// that find no valid token share one refresh request.
type TokenSource struct {
	httpClient *http.Client
	oauth      oauth2.Config
	creds      Credentials

	tokens *cache.Cache
	group  singleflight.Group
}

// NewTokenSource returns a token source posting to tokenURL.
func NewTokenSource(httpClient *http.Client, tokenURL string, creds Credentials) *TokenSource {
	return &TokenSource{
		httpClient: httpClient,
		oauth: oauth2.Config{
			ClientID:     creds.AppKey,
			ClientSecret: creds.AppSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		creds:  creds,
		tokens: cache.New(cache.NoExpiration, expiryMargin),
	}
}

// Token returns a valid access token, refreshing it when needed.
func (source *TokenSource) Token(ctx context.Context) (string, error) {
	if !source.creds.Complete() {
		return "", ErrNotConfigured
	}
	if token, found := source.tokens.Get(tokenCacheKey); found {
		return token.(string), nil
	}

	value, err, _ := source.group.Do(tokenCacheKey, func() (any, error) {
		// Another caller may have refreshed while this one waited.
		if token, found := source.tokens.Get(tokenCacheKey); found {
			return token, nil
		}
		return source.refresh(ctx)
	})
	if err != nil {
		return "", err
	}

	token, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("blob: unexpected token type %T", value)
	}
	return token, nil
}

// refresh runs the refresh-token grant. The oauth2 source is built per call
// so the grant runs under the caller's context and HTTP client.
func (source *TokenSource) refresh(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, source.httpClient)
	token, err := source.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: source.creds.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("blob: refresh token: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("blob: refresh token: empty access token")
	}

	if !token.Expiry.IsZero() {
		if ttl := time.Until(token.Expiry) - expiryMargin; ttl > 0 {
			source.tokens.Set(tokenCacheKey, token.AccessToken, ttl)
		}
	}
	return token.AccessToken, nil
}
