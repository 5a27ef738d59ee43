package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Item is one playlist entry as served by the signage server.
type Item struct {
	Type            string  `json:"type"`
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	URL             string  `json:"url,omitempty"`
	HLSURL          string  `json:"hlsUrl,omitempty"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
	Duration        float64 `json:"duration,omitempty"`
	DisplayDuration float64 `json:"displayDuration,omitempty"`
	Footer          string  `json:"footer,omitempty"`
	Photos          []Photo `json:"photos,omitempty"`
	AudioURL        string  `json:"audioUrl,omitempty"`
}

// Photo is one member of a photo group item.
type Photo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// PhotoURL returns the server path for a photo file.
func (p Photo) PhotoURL() string {
	return "/uploads/" + p.Filename
}

// Status is the heartbeat payload posted to the server.
type Status struct {
	CurrentItemID string  `json:"currentItemId,omitempty"`
	CurrentTime   float64 `json:"currentTime"`
	State         string  `json:"state,omitempty"`
	MediaKind     string  `json:"mediaKind,omitempty"`
	LastError     string  `json:"lastError,omitempty"`
}

// Event is a playback event posted to the server.
type Event struct {
	Type    string `json:"type"`
	ItemID  string `json:"itemId,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client talks to the signage server HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given server base URL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Resolve turns a server-relative media path into an absolute URL.
func (c *Client) Resolve(path string) string {
	if path == "" || strings.Contains(path, "://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Playlist fetches the ready-to-play rotation.
func (c *Client) Playlist(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/playlist?ready=true", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching playlist: server returned %s", resp.Status)
	}

	var body struct {
		Items []Item `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding playlist: %w", err)
	}
	return body.Items, nil
}

// PostStatus reports the player heartbeat.
func (c *Client) PostStatus(ctx context.Context, status Status) error {
	return c.post(ctx, "/api/player/status", status)
}

// PostEvent reports a playback event.
func (c *Client) PostEvent(ctx context.Context, event Event) error {
	return c.post(ctx, "/api/player/events", event)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting %s: %w", path, err)
	}
	defer drain(resp)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("posting %s: server returned %s", path, resp.Status)
	}
	return nil
}

// drain discards the body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
