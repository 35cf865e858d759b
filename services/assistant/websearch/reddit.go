// Copyright (C) 2025 MovieChat Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	redditTokenURL  = "https://www.reddit.com/api/v1/access_token"
	redditSearchURL = "https://oauth.reddit.com/r/%s/search"

	redditSubreddit = "movies"

	// Appended to every query so title searches land on discussion
	// threads rather than trailers and posters.
	redditQuerySuffix = " movie discussion"

	// Tokens last an hour; refresh a minute early to avoid racing expiry.
	redditTokenSlack = time.Minute
)

// RedditBackend searches r/movies through the Reddit OAuth2 API using the
// client-credentials (application-only) grant.
//
// # Thread Safety
//
// RedditBackend is safe for concurrent use. The access token is cached
// under a mutex; concurrent refreshes are collapsed into one token request
// through a singleflight group.
type RedditBackend struct {
	clientID     string
	clientSecret string
	userAgent    string
	httpClient   *http.Client
	tokenURL     string
	searchURL    string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
	tokenGroup  singleflight.Group
}

// NewRedditBackend creates a backend from the environment.
//
// # Inputs
//
//   - REDDIT_CLIENT_ID: required.
//   - REDDIT_CLIENT_SECRET: required (env var or /run/secrets/reddit_client_secret).
//   - REDDIT_USER_AGENT: optional, defaults to "moviechat/1.0".
//
// # Outputs
//
//   - *RedditBackend: Ready to use backend.
//   - error: Non-nil if credentials are missing.
func NewRedditBackend() (*RedditBackend, error) {
	clientID := os.Getenv("REDDIT_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("REDDIT_CLIENT_ID not set")
	}

	clientSecret := apiKeyFromEnv("REDDIT_CLIENT_SECRET", "/run/secrets/reddit_client_secret")
	if clientSecret == "" {
		return nil, fmt.Errorf("REDDIT_CLIENT_SECRET not set and secret file missing")
	}

	userAgent := os.Getenv("REDDIT_USER_AGENT")
	if userAgent == "" {
		userAgent = "moviechat/1.0"
	}

	return &RedditBackend{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		tokenURL:  redditTokenURL,
		searchURL: redditSearchURL,
	}, nil
}

func (r *RedditBackend) Name() string { return "reddit" }

// cachedToken returns the cached access token if it is not close to expiry.
func (r *RedditBackend) cachedToken() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.accessToken != "" && time.Now().Before(r.tokenExpiry.Add(-redditTokenSlack)) {
		return r.accessToken, true
	}
	return "", false
}

// token returns a valid application-only access token, refreshing the
// cached one when it is close to expiry. Simultaneous callers needing a
// refresh share one request to the token endpoint.
func (r *RedditBackend) token(ctx context.Context) (string, error) {
	if token, ok := r.cachedToken(); ok {
		return token, nil
	}

	v, err, _ := r.tokenGroup.Do("token", func() (interface{}, error) {
		// A caller that was queued behind the winning refresh finds the
		// fresh token here.
		if token, ok := r.cachedToken(); ok {
			return token, nil
		}

		token, expiresIn, err := r.fetchToken(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.accessToken = token
		r.tokenExpiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
		r.mu.Unlock()
		slog.Debug("Refreshed Reddit access token", "expiresIn", expiresIn)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fetchToken performs one client-credentials grant against the token
// endpoint.
func (r *RedditBackend) fetchToken(ctx context.Context) (string, int, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", 0, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", 0, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", 0, fmt.Errorf("token response contained no access_token")
	}
	return tokenResp.AccessToken, tokenResp.ExpiresIn, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string  `json:"title"`
				SelfText  string  `json:"selftext"`
				Permalink string  `json:"permalink"`
				Score     int     `json:"score"`
				Upvotes   float64 `json:"upvote_ratio"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search queries r/movies sorted by relevance over the past year.
func (r *RedditBackend) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	accessToken, err := r.token(ctx)
	if err != nil {
		return nil, &BackendError{Source: r.Name(), Err: err}
	}

	params := url.Values{
		"q":               {query + redditQuerySuffix},
		"restrict_sr":     {"true"},
		"sort":            {"relevance"},
		"t":               {"year"},
		"limit":           {fmt.Sprintf("%d", maxResults)},
		"raw_json":        {"1"},
		"include_over_18": {"false"},
	}

	searchURL := fmt.Sprintf(r.searchURL, redditSubreddit) + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, &BackendError{Source: r.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{Source: r.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &BackendError{Source: r.Name(), Err: fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))}
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, &BackendError{Source: r.Name(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	results := make([]Result, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		results = append(results, Result{
			Title:   post.Title,
			URL:     "https://www.reddit.com" + post.Permalink,
			Content: post.SelfText,
		})
	}

	slog.Debug("Reddit search complete", "query", query, "results", len(results))
	return results, nil
}
