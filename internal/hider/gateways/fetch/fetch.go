// Package fetch downloads the plain-text blocklist.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrBadStatus is returned for any non-2xx response.
	ErrBadStatus = errors.New("blocklist fetch: bad status")
	// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes. A
	// truncated list could end in a partial identifier, so none of it is used.
	ErrBodyTooLarge = errors.New("blocklist fetch: body too large")
)

// MaxBodyBytes caps how much of a response is accepted.
const MaxBodyBytes = 10 << 20

const (
	errURLRequired = "blocklist fetch: url is required"
	errNewRequest  = "blocklist fetch: new request: %w"
	errDo          = "blocklist fetch: %w"
	errStatus      = "%w: %d %s"
	errReadBody    = "blocklist fetch: read body: %w"
	errTooLarge    = "%w: more than %d bytes"
)

// Options configures a Fetcher.
type Options struct {
	URL     string
	Timeout time.Duration
	// Client is injected by tests; a client with Timeout is built otherwise.
	Client *http.Client
}

// Fetcher GETs the blocklist source, defeating intermediate caches.
type Fetcher struct {
	url    string
	client *http.Client
}

// New builds a Fetcher. A non-positive timeout defaults to 15s.
func New(opts Options) (*Fetcher, error) {
	if opts.URL == "" {
		return nil, errors.New(errURLRequired)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{url: opts.URL, client: opts.Client}, nil
}

// URL returns the source being fetched.
func (f *Fetcher) URL() string { return f.url }

// Fetch returns the response body as text.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf(errNewRequest, err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf(errDo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf(errStatus, ErrBadStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf(errReadBody, err)
	}
	if len(body) > MaxBodyBytes {
		return "", fmt.Errorf(errTooLarge, ErrBodyTooLarge, MaxBodyBytes)
	}
	return string(body), nil
}
