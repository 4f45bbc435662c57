package fetch

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/webgrab/webgrab/log"
)

// DefaultUserAgent is sent on every request unless overridden in Options.
const DefaultUserAgent = "Mozilla/5.0 (compatible; webgrab/1.0)"

// Options configures a Fetcher. The zero value uses the default user agent
// and no timeout.
type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// StatusError is returned when the server responds with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}

// Fetcher downloads content over HTTP. All requests are synchronous and
// there are no retries.
type Fetcher struct {
	log       zerolog.Logger
	client    *http.Client
	userAgent string
}

func NewFetcher(opts Options) *Fetcher {
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	return &Fetcher{
		log:       log.NewLogger("fetch"),
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: ua,
	}
}

// Get downloads the content at url and returns it, with the content type.
// The content type is taken from the Content-Type header; an unparseable
// header yields an empty content type rather than an error.
func (f *Fetcher) Get(url string) (body []byte, ct string, err error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to build request for %s", url)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", &StatusError{Code: resp.StatusCode, URL: url}
	}

	ct, _, _ = mime.ParseMediaType(resp.Header.Get("Content-Type"))

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to read response from %s", url)
	}

	f.log.Debug().Str("url", url).Int("bytes", len(body)).Msg("fetched")

	return body, ct, nil
}
