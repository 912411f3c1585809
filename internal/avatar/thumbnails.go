// Package avatar resolves Roblox user ids to headshot image URLs, batching
// requests to the thumbnail proxy and caching results for the lifetime of
// the resolver.
package avatar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultHost is the thumbnail proxy used by the staff dashboard.
	DefaultHost = "https://thumbnails.rotunnel.com"

	// MaxBatch is the most ids the thumbnail API accepts per request.
	MaxBatch = 50

	// Placeholder is shown for users whose headshot is unavailable.
	Placeholder = "/no-profile.webp"

	// StateCompleted marks a thumbnail that has a usable image.
	StateCompleted = "Completed"

	maxBodySize = 2 * 1024 * 1024
)

// ErrTooManyIDs is returned when a single request would exceed MaxBatch.
var ErrTooManyIDs = fmt.Errorf("avatar: at most %d ids per request", MaxBatch)

// Thumbnail is one entry of a headshot response.
type Thumbnail struct {
	TargetID int64  `json:"targetId"`
	State    string `json:"state"`
	ImageURL string `json:"imageUrl"`
}

// Fetcher fetches headshots for up to MaxBatch ids.
type Fetcher interface {
	Headshots(ctx context.Context, ids []int64) ([]Thumbnail, error)
}

// Thumbnails is an HTTP client for the avatar-headshot endpoint.
type Thumbnails struct {
	host       string
	httpClient *http.Client
}

// NewThumbnails returns a client for host. An empty host uses DefaultHost.
func NewThumbnails(host string, timeout time.Duration) *Thumbnails {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultHost
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Thumbnails{host: host, httpClient: &http.Client{Timeout: timeout}}
}

// HeadshotURL builds the request URL for ids.
func (t *Thumbnails) HeadshotURL(ids []int64) string {
	csv := make([]string, len(ids))
	for i, id := range ids {
		csv[i] = strconv.FormatInt(id, 10)
	}
	return t.host + "/v1/users/avatar-headshot?userIds=" + strings.Join(csv, ",") +
		"&size=150x150&format=Png&isCircular=false"
}

// Headshots fetches headshots for ids. A response without a data array is
// returned as an empty slice.
func (t *Thumbnails) Headshots(ctx context.Context, ids []int64) ([]Thumbnail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatch {
		return nil, ErrTooManyIDs
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.HeadshotURL(ids), nil)
	if err != nil {
		return nil, fmt.Errorf("avatar: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("avatar: fetch headshots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("avatar: thumbnail api returned %d", resp.StatusCode)
	}

	var out struct {
		Data []Thumbnail `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("avatar: decode headshots: %w", err)
	}
	return out.Data, nil
}

// Headshot resolves a single id. ok is false when the image is unavailable.
func Headshot(ctx context.Context, f Fetcher, id int64) (url string, ok bool, err error) {
	thumbs, err := f.Headshots(ctx, []int64{id})
	if err != nil {
		return "", false, err
	}
	for _, th := range thumbs {
		if th.TargetID == id && th.State == StateCompleted && th.ImageURL != "" {
			return th.ImageURL, true, nil
		}
	}
	return "", false, nil
}

var errEmptyBatch = errors.New("avatar: empty thumbnail response")
