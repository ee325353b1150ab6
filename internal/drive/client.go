// Package drive is a thin client for the Google Drive v3 REST API. The
// OAuth consent, code-exchange and refresh flows ride on golang.org/x/oauth2;
// only the Drive file calls the movie catalog needs are hand-written.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	filesEndpoint = "https://www.googleapis.com/drive/v3/files"

	driveScope = "https://www.googleapis.com/auth/drive.readonly"

	folderMimeType = "application/vnd.google-apps.folder"
)

type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{driveScope},
			Endpoint:     google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// TokenScope extracts the granted scope from a token response, empty when
// the provider did not echo one.
func TokenScope(token *oauth2.Token) string {
	scope, _ := token.Extra("scope").(string)
	return scope
}

// File is a Drive file resource, trimmed to catalog fields
type File struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	MimeType           string `json:"mimeType"`
	Size               string `json:"size,omitempty"`
	ThumbnailLink      string `json:"thumbnailLink,omitempty"`
	WebContentLink     string `json:"webContentLink,omitempty"`
	VideoMediaMetadata *struct {
		DurationMillis string `json:"durationMillis,omitempty"`
	} `json:"videoMediaMetadata,omitempty"`
}

// SizeBytes parses Drive's string-encoded size
func (f *File) SizeBytes() int64 {
	n, _ := strconv.ParseInt(f.Size, 10, 64)
	return n
}

// DurationMillis parses the video duration, zero when absent
func (f *File) DurationMillis() int64 {
	if f.VideoMediaMetadata == nil {
		return 0
	}
	n, _ := strconv.ParseInt(f.VideoMediaMetadata.DurationMillis, 10, 64)
	return n
}

// IsFolder reports whether the file is a Drive folder
func (f *File) IsFolder() bool {
	return f.MimeType == folderMimeType
}

// IsVideo reports whether the file is a playable video
func (f *File) IsVideo() bool {
	if strings.HasPrefix(f.MimeType, "video/") {
		return true
	}
	for _, ext := range []string{".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v"} {
		if strings.HasSuffix(strings.ToLower(f.Name), ext) {
			return true
		}
	}
	return false
}

// AuthURL builds the OAuth consent URL; state round-trips the user id.
// Offline access plus a forced consent prompt so Google always returns a
// refresh token.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode trades an authorization code for tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return token, nil
}

// Refresh trades a refresh token for a fresh access token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return token, nil
}

// ListFiles lists videos and folders under folderID ("root" when empty)
func (c *Client) ListFiles(ctx context.Context, accessToken, folderID string) ([]File, error) {
	if folderID == "" {
		folderID = "root"
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
	q.Set("fields", "files(id,name,mimeType,size,thumbnailLink,webContentLink,videoMediaMetadata)")
	q.Set("pageSize", "200")

	var out struct {
		Files []File `json:"files"`
	}
	if err := c.getJSON(ctx, accessToken, filesEndpoint+"?"+q.Encode(), &out); err != nil {
		return nil, err
	}

	files := out.Files[:0]
	for _, f := range out.Files {
		if f.IsFolder() || f.IsVideo() {
			files = append(files, f)
		}
	}
	return files, nil
}

// FileMetadata fetches a single file resource
func (c *Client) FileMetadata(ctx context.Context, accessToken, fileID string) (*File, error) {
	q := url.Values{}
	q.Set("fields", "id,name,mimeType,size,thumbnailLink,webContentLink,videoMediaMetadata")

	var file File
	if err := c.getJSON(ctx, accessToken, filesEndpoint+"/"+url.PathEscape(fileID)+"?"+q.Encode(), &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// StreamURL is the direct media URL for a file; the caller attaches the
// viewer's bearer token when fetching it.
func StreamURL(fileID string) string {
	return filesEndpoint + "/" + url.PathEscape(fileID) + "?alt=media"
}

func (c *Client) getJSON(ctx context.Context, accessToken, rawURL string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("drive request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("drive API returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode drive response: %w", err)
	}
	return nil
}
