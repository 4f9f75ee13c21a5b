package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mbtagger/internal/services"
)

const (
	stage = "catalog"

	defaultTimeout       = 15 * time.Second
	defaultMaxImageBytes = 10 << 20
)

// ErrNoCoverArt reports a release without a front cover.
var ErrNoCoverArt = errors.New("no front cover")

// Fetcher is the catalog lookup surface used by the tagging workflow.
type Fetcher interface {
	Release(ctx context.Context, mbid string) (*Release, error)
	CoverArt(ctx context.Context, mbid string) (*Image, error)
}

// Client talks to MusicBrainz and the Cover Art Archive.
type Client struct {
	baseURL       string
	coverArtURL   string
	userAgent     string
	httpClient    *http.Client
	interval      time.Duration
	maxImageBytes int64

	mu          sync.Mutex
	lastRequest time.Time
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRequestInterval sets the minimum spacing between MusicBrainz requests.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.interval = d
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxImageBytes caps the size of a downloaded cover.
func WithMaxImageBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxImageBytes = n
		}
	}
}

// New creates a client. userAgent must identify the application and a contact.
func New(baseURL, coverArtURL, userAgent string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("musicbrainz base url required")
	}
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, errors.New("musicbrainz user agent required")
	}
	client := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		coverArtURL:   strings.TrimRight(strings.TrimSpace(coverArtURL), "/"),
		userAgent:     userAgent,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		interval:      time.Second,
		maxImageBytes: defaultMaxImageBytes,
		lastRequest:   time.Unix(0, 0),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ValidateID checks that mbid is a UUID and returns its canonical form.
func ValidateID(mbid string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(mbid))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stage, "validate id", fmt.Sprintf("%q is not a MusicBrainz id", mbid), err)
	}
	return parsed.String(), nil
}

// Release fetches a release with its media, tracks, and artist credits.
func (c *Client) Release(ctx context.Context, mbid string) (*Release, error) {
	id, err := ValidateID(mbid)
	if err != nil {
		return nil, err
	}
	endpoint, err := url.Parse(c.baseURL + "/release/" + id)
	if err != nil {
		return nil, fmt.Errorf("parse musicbrainz url: %w", err)
	}
	params := url.Values{}
	params.Set("inc", "artist-credits+recordings")
	params.Set("fmt", "json")
	endpoint.RawQuery = params.Encode()

	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	resp, latency, err := c.get(ctx, endpoint.String(), "application/json")
	if err != nil {
		return nil, classify("release lookup", err, latency)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, stage, "release lookup", "release "+id+" does not exist", nil)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, services.Wrap(services.ErrValidation, stage, "release lookup", "musicbrainz rejected release id "+id, nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrExternal, stage, "release lookup",
			fmt.Sprintf("musicbrainz returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload Release
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrExternal, stage, "release lookup", "decode musicbrainz response", err)
	}
	if payload.ID == "" {
		payload.ID = id
	}
	return &payload, nil
}

// CoverArt downloads the release's front cover. A release without one
// returns an error matching both ErrNoCoverArt and services.ErrNotFound.
func (c *Client) CoverArt(ctx context.Context, mbid string) (*Image, error) {
	id, err := ValidateID(mbid)
	if err != nil {
		return nil, err
	}
	if c.coverArtURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, stage, "cover art", "cover art url not configured", nil)
	}
	resp, latency, err := c.get(ctx, c.coverArtURL+"/release/"+id, "application/json")
	if err != nil {
		return nil, classify("cover art listing", err, latency)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, stage, "cover art", "release "+id, ErrNoCoverArt)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternal, stage, "cover art",
			fmt.Sprintf("cover art archive returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	var listing coverArtListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, services.Wrap(services.ErrExternal, stage, "cover art", "decode listing", err)
	}
	imageURL := listing.frontURL()
	if imageURL == "" {
		return nil, services.Wrap(services.ErrNotFound, stage, "cover art", "release "+id, ErrNoCoverArt)
	}
	return c.download(ctx, imageURL)
}

func (c *Client) download(ctx context.Context, imageURL string) (*Image, error) {
	resp, latency, err := c.get(ctx, imageURL, "image/*")
	if err != nil {
		return nil, classify("cover download", err, latency)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternal, stage, "cover download",
			fmt.Sprintf("image request returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
	if err != nil {
		return nil, classify("cover download", err, latency)
	}
	if int64(len(data)) > c.maxImageBytes {
		return nil, services.Wrap(services.ErrExternal, stage, "cover download",
			fmt.Sprintf("image exceeds %d bytes", c.maxImageBytes), nil)
	}
	mimeType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return &Image{URL: imageURL, MIMEType: mimeType, Data: data}, nil
}

func (c *Client) get(ctx context.Context, target, accept string) (*http.Response, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	return resp, time.Since(start), err
}

// pace blocks until the request interval since the last MusicBrainz call
// has elapsed. Each caller reserves its own slot, so concurrent callers are
// spaced out rather than released together.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	slot := c.lastRequest.Add(c.interval)
	if slot.Before(now) {
		slot = now
	}
	c.lastRequest = slot
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func classify(op string, err error, latency time.Duration) error {
	msg := fmt.Sprintf("request failed (latency=%v)", latency)
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return services.Wrap(services.ErrTimeout, stage, op, msg, err)
	default:
		return services.Wrap(services.ErrExternal, stage, op, msg, err)
	}
}
